package output

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/mfreitas/sqlog/pkg/parser"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	fmt.Fprintf(w, "sqlog: %d lines, %d entries, %d failed, %d sessions\n",
		report.Summary.Lines,
		report.Summary.Entries,
		report.Summary.FailedLines,
		report.Summary.Sessions)
	return nil
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	meta := report.Log.Metadata

	fmt.Fprintln(w, "=== sqlog Parse Report ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File:     %s (%s)\n", meta.FilePath, humanize.Bytes(uint64(meta.FileSize)))
	fmt.Fprintf(w, "Format:   %s\n", meta.Format)
	fmt.Fprintf(w, "Encoding: %s\n", meta.Encoding)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Lines:    %d processed, %d parsed, %d failed\n",
		meta.LineCount, meta.ParsedLines, meta.FailedLines)
	fmt.Fprintf(w, "Entries:  %d emitted\n", report.Summary.Entries)
	fmt.Fprintf(w, "Sessions: %d\n", meta.SessionCount)

	if meta.StartDate != nil && meta.EndDate != nil {
		fmt.Fprintf(w, "Range:    %s to %s\n",
			meta.StartDate.Format("2006-01-02 15:04:05"),
			meta.EndDate.Format("2006-01-02 15:04:05"))
	}

	fmt.Fprintf(w, "Duration: %s\n", report.Summary.Duration.Round(1e6))

	if f.opts.Verbose {
		fmt.Fprintln(w)
		f.formatEntries(report.Log.Entries, w)
	}

	return nil
}

func (f *TextFormatter) formatEntries(entries []*parser.LogEntry, w io.Writer) {
	fmt.Fprintln(w, "---")
	for _, e := range entries {
		f.formatEntry(e, w)
	}
}

func (f *TextFormatter) formatEntry(e *parser.LogEntry, w io.Writer) {
	fmt.Fprintf(w, "%6d [%s] %-11s %-8s %s\n",
		e.LineNumber,
		e.Context.Timestamp,
		e.Type,
		e.Severity,
		e.Message)

	if e.SQL != nil {
		if e.SQL.QueryType != "" {
			fmt.Fprintf(w, "       query: %s, tables: %s\n",
				e.SQL.QueryType, strings.Join(e.SQL.Tables, ", "))
		}
		if e.SQL.ExecutionTime != nil {
			fmt.Fprintf(w, "       execution time: %.3fs\n", *e.SQL.ExecutionTime)
		}
	}

	if len(e.Tags) > 1 {
		fmt.Fprintf(w, "       tags: %s\n", strings.Join(e.Tags, ", "))
	}

	for _, issue := range e.ParsingIssues {
		fmt.Fprintf(w, "       issue: %s\n", issue)
	}
}
