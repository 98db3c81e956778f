// Package output provides formatting and output generation for parse
// results.
package output

import (
	"time"

	"github.com/mfreitas/sqlog/pkg/parser"
)

// Report is the complete parse output.
type Report struct {
	// Summary provides aggregate statistics.
	Summary Summary `json:"summary"`

	// Log is the full parse result.
	Log *parser.ParsedLog `json:"log"`
}

// Summary provides aggregate statistics for one parsed file.
type Summary struct {
	// File is the path of the parsed log file.
	File string `json:"file"`

	// Format is the detected dialect name.
	Format string `json:"format"`

	// Lines is the number of physical lines processed.
	Lines int `json:"lines"`

	// Entries is the number of entries emitted after filtering.
	Entries int `json:"entries"`

	// ParsedLines counts entries that matched the structural pattern.
	ParsedLines int `json:"parsed_lines"`

	// FailedLines counts entries recovered via the fallback path.
	FailedLines int `json:"failed_lines"`

	// Sessions is the number of distinct process IDs.
	Sessions int `json:"sessions"`

	// Duration is how long the parse took.
	Duration time.Duration `json:"duration"`
}

// NewReport creates a Report from a parse result.
func NewReport(log *parser.ParsedLog) *Report {
	return &Report{
		Log: log,
		Summary: Summary{
			File:        log.Metadata.FilePath,
			Format:      log.Metadata.Format,
			Lines:       log.Metadata.LineCount,
			Entries:     len(log.Entries),
			ParsedLines: log.Metadata.ParsedLines,
			FailedLines: log.Metadata.FailedLines,
			Sessions:    log.Metadata.SessionCount,
			Duration:    log.Duration,
		},
	}
}

// HasFailures returns true if any line was recovered via the fallback
// path.
func (r *Report) HasFailures() bool {
	return r.Summary.FailedLines > 0
}
