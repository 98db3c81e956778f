// sqlog - SQL application log parser
//
// sqlog converts semi-structured database-application log files into
// typed, classified entries with SQL semantics, severity, and derived
// tags.
package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/mfreitas/sqlog/internal/cli"
)

func main() {
	// Load .env if present; a missing file is not an error.
	_ = godotenv.Load()

	if os.Getenv("SQLOG_DEBUG") != "" {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	os.Exit(cli.Execute())
}
