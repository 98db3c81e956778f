package output

import (
	"context"
	"encoding/json"
	"io"
)

// JSONFormatter renders reports as indented JSON for downstream
// tooling. The full form carries the file metadata and every parsed
// entry; quiet mode emits only the per-file parse counts.
type JSONFormatter struct {
	opts FormatOptions
}

// NewJSONFormatter creates a new JSON formatter with the given options.
func NewJSONFormatter(opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// quietSummary is the quiet-mode JSON shape: the counts a caller needs
// to decide whether a parse was clean, without entries or timing.
type quietSummary struct {
	File        string `json:"file"`
	Format      string `json:"format"`
	Lines       int    `json:"lines"`
	Entries     int    `json:"entries"`
	FailedLines int    `json:"failed_lines"`
	Sessions    int    `json:"sessions"`
}

// Format renders the report as JSON.
func (f *JSONFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if f.opts.Quiet {
		return encoder.Encode(quietSummary{
			File:        report.Summary.File,
			Format:      report.Summary.Format,
			Lines:       report.Summary.Lines,
			Entries:     report.Summary.Entries,
			FailedLines: report.Summary.FailedLines,
			Sessions:    report.Summary.Sessions,
		})
	}

	return encoder.Encode(report)
}
