// The main package for the birdcast-scraper executable.
package main

import (
	"github.com/flywaywatch/birdcast-scraper/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
