// Package main is the entry point for the autochangelog CLI application.
package main

import (
	"fmt"
	"os"

	"github.com/danielolaszy/autochangelog/cmd"
	"github.com/danielolaszy/autochangelog/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// main executes the root command and exits non-zero if it fails.
func main() {
	logging.Info("starting autochangelog", "version", version, "log_level", logging.LevelFromEnv())

	if err := cmd.Execute(); err != nil {
		logging.Error("command execution failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
