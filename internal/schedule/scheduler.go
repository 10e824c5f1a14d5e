// Package schedule runs a job once per day at a fixed local wall-clock time.
package schedule

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Job is the unit of scheduled work.
type Job func(ctx context.Context) error

// TimeOfDay is a wall-clock trigger time.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay parses "HH:MM" in 24-hour notation.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: want HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q", s)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// Scheduler fires a job daily at the configured time. Job failures are
// logged and the loop keeps going; only context cancellation stops it.
type Scheduler struct {
	at     TimeOfDay
	clock  clockwork.Clock
	logger *zap.Logger
}

// New builds a Scheduler firing at the given wall-clock time.
func New(at TimeOfDay, clock clockwork.Clock, logger *zap.Logger) *Scheduler {
	return &Scheduler{at: at, clock: clock, logger: logger}
}

// next returns the first trigger instant strictly after now.
func (s *Scheduler) next(now time.Time) time.Time {
	at := time.Date(now.Year(), now.Month(), now.Day(), s.at.Hour, s.at.Minute, 0, 0, now.Location())
	if !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at
}

// Run blocks, firing job once per day until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, job Job) error {
	s.logger.Info("scheduler started", zap.String("daily_at", s.at.String()))
	for {
		now := s.clock.Now()
		at := s.next(now)
		s.logger.Info("next run scheduled",
			zap.Time("at", at),
			zap.Duration("sleep", at.Sub(now)))

		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped", zap.Error(ctx.Err()))
			return ctx.Err()
		case <-s.clock.After(at.Sub(now)):
		}

		if err := job(ctx); err != nil {
			if ctx.Err() != nil {
				s.logger.Info("scheduler stopped", zap.Error(ctx.Err()))
				return ctx.Err()
			}
			s.logger.Error("scheduled run failed", zap.Error(err))
		}
	}
}
