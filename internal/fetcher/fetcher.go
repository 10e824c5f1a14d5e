// Package fetcher retrieves dashboard pages over HTTPS using a Colly
// collector. One GET per region URL, no retries; retries are a batch-level
// concern the orchestrator deliberately does not implement.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Failure kinds surfaced to the orchestrator. All are per-region and never
// abort a batch.
var (
	// ErrUnexpectedContentType marks responses that do not declare HTML.
	ErrUnexpectedContentType = errors.New("unexpected content type")
	// ErrMalformedResponse marks bodies that look like a stylesheet payload,
	// which the dashboard serves when a region URL is misconfigured.
	ErrMalformedResponse = errors.New("received css content instead of html")
)

// The dashboard rejects unidentified clients, so requests present a
// browser-like user agent.
const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const defaultTimeout = 30 * time.Second

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher performs single-page fetches with content sanity checks.
type Fetcher struct {
	cfg    Config
	base   *colly.Collector
	logger *zap.Logger
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c := colly.NewCollector(colly.Async(false), colly.AllowURLRevisit())
	c.UserAgent = cfg.UserAgent
	c.IgnoreRobotsTxt = true
	c.SetRequestTimeout(cfg.Timeout)
	return &Fetcher{cfg: cfg, base: c, logger: logger}
}

// Fetch returns the decoded page body for url. The body is returned only
// when the response succeeds, declares an HTML content type, and does not
// look like a stylesheet.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	var (
		body        []byte
		contentType string
		statusCode  int
		respErr     error
	)

	// Clone per fetch to keep response callbacks request-scoped. The clone
	// shares the base collector's visited-URL storage, so revisits must stay
	// allowed on both: the daily schedule loop hits the same URLs every run.
	collector := f.base.Clone()
	collector.UserAgent = f.cfg.UserAgent
	collector.IgnoreRobotsTxt = true
	collector.AllowURLRevisit = true
	collector.SetRequestTimeout(f.cfg.Timeout)

	collector.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
		contentType = strings.ToLower(r.Headers.Get("Content-Type"))
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
		}
		respErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("request failed: %w", err)
		}
	}
	if respErr != nil {
		return "", fmt.Errorf("request failed with status %d: %w", statusCode, respErr)
	}
	if !strings.Contains(contentType, "text/html") {
		return "", fmt.Errorf("%w: %q", ErrUnexpectedContentType, contentType)
	}
	text := string(body)
	if looksLikeCSS(text) {
		return "", ErrMalformedResponse
	}
	f.logger.Debug("fetched page",
		zap.String("url", url),
		zap.Int("status", statusCode),
		zap.Int("bytes", len(body)))
	return text, nil
}

// looksLikeCSS guards against misconfigured or redirected endpoints serving
// a stylesheet where a dashboard page was expected.
func looksLikeCSS(body string) bool {
	if strings.HasPrefix(strings.TrimSpace(body), "@keyframes") {
		return true
	}
	head := body
	if len(head) > 100 {
		head = head[:100]
	}
	return strings.Contains(strings.ToLower(head), "css")
}
