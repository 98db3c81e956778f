package output

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mfreitas/sqlog/pkg/parser"
)

func sampleLog() *parser.ParsedLog {
	execTime := 0.25
	start := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	end := time.Date(2024, 3, 15, 10, 30, 45, 0, time.UTC)

	return &parser.ParsedLog{
		ID: uuid.New(),
		Metadata: parser.FileMetadata{
			FilePath:     "/var/log/app.zlg",
			FileSize:     2048,
			Encoding:     "utf-8",
			Format:       "tagged-bracket",
			LineCount:    4,
			ParsedLines:  3,
			FailedLines:  1,
			SessionCount: 2,
			StartDate:    &start,
			EndDate:      &end,
		},
		Entries: []*parser.LogEntry{
			{
				LineNumber: 1,
				Context:    parser.ExecutionContext{Timestamp: "10:30:00", ProcessID: "1234"},
				Message:    "SQL Executado: SELECT * FROM clientes",
				Type:       parser.MessageTypeSQL,
				Severity:   parser.SeverityInfo,
				SQL: &parser.SQLInfo{
					Query:         "SELECT * FROM clientes",
					QueryType:     parser.QueryTypeSelect,
					Tables:        []string{"clientes"},
					ExecutionTime: &execTime,
				},
				Tags: []string{"sql", "slow-query", "select-all"},
			},
			{
				LineNumber:    4,
				Context:       parser.ExecutionContext{Timestamp: "10:30:45", ProcessID: "5678"},
				Message:       "linha irregular",
				Type:          parser.MessageTypeUnknown,
				Severity:      parser.SeverityInfo,
				Tags:          []string{"unknown"},
				ParsingIssues: []string{"Non-standard line format"},
			},
		},
		Duration: 12 * time.Millisecond,
	}
}

func TestTextFormatter_Full(t *testing.T) {
	report := NewReport(sampleLog())

	var buf bytes.Buffer
	f := NewTextFormatter(FormatOptions{})
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"/var/log/app.zlg",
		"tagged-bracket",
		"4 processed, 3 parsed, 1 failed",
		"Sessions: 2",
		"2024-03-15 10:30:00 to 2024-03-15 10:30:45",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	// Non-verbose output omits the per-entry listing
	if strings.Contains(out, "SELECT * FROM clientes") {
		t.Error("non-verbose output should not list entries")
	}
}

func TestTextFormatter_Verbose(t *testing.T) {
	report := NewReport(sampleLog())

	var buf bytes.Buffer
	f := NewTextFormatter(FormatOptions{Verbose: true})
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"SQL Executado: SELECT * FROM clientes",
		"query: select, tables: clientes",
		"execution time: 0.250s",
		"tags: sql, slow-query, select-all",
		"issue: Non-standard line format",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("verbose output missing %q:\n%s", want, out)
		}
	}
}

func TestTextFormatter_Quiet(t *testing.T) {
	report := NewReport(sampleLog())

	var buf bytes.Buffer
	f := NewTextFormatter(FormatOptions{Quiet: true})
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	out := buf.String()
	if strings.Count(out, "\n") != 1 {
		t.Errorf("quiet output should be a single line:\n%s", out)
	}
	if !strings.Contains(out, "4 lines, 2 entries, 1 failed, 2 sessions") {
		t.Errorf("unexpected quiet output: %s", out)
	}
}

func TestJSONFormatter_Full(t *testing.T) {
	report := NewReport(sampleLog())

	var buf bytes.Buffer
	f := NewJSONFormatter(FormatOptions{})
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	var decoded struct {
		Summary Summary `json:"summary"`
		Log     struct {
			Entries []json.RawMessage `json:"entries"`
		} `json:"log"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if decoded.Summary.File != "/var/log/app.zlg" {
		t.Errorf("Summary.File = %q", decoded.Summary.File)
	}
	if decoded.Summary.FailedLines != 1 {
		t.Errorf("Summary.FailedLines = %d, want 1", decoded.Summary.FailedLines)
	}
	if len(decoded.Log.Entries) != 2 {
		t.Errorf("entries = %d, want 2", len(decoded.Log.Entries))
	}
}

func TestJSONFormatter_Quiet(t *testing.T) {
	report := NewReport(sampleLog())

	var buf bytes.Buffer
	f := NewJSONFormatter(FormatOptions{Quiet: true})
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	var summary Summary
	if err := json.Unmarshal(buf.Bytes(), &summary); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if summary.Sessions != 2 {
		t.Errorf("Sessions = %d, want 2", summary.Sessions)
	}
	if summary.FailedLines != 1 {
		t.Errorf("FailedLines = %d, want 1", summary.FailedLines)
	}
	if strings.Contains(buf.String(), "entries\": [") {
		t.Error("quiet JSON should not include entries")
	}
	// The quiet shape carries counts only, no timing
	if strings.Contains(buf.String(), "duration") {
		t.Error("quiet JSON should not include the parse duration")
	}
}

func TestNewReport(t *testing.T) {
	log := sampleLog()
	report := NewReport(log)

	if report.Summary.Entries != 2 {
		t.Errorf("Entries = %d, want 2", report.Summary.Entries)
	}
	if report.Summary.Format != "tagged-bracket" {
		t.Errorf("Format = %q, want tagged-bracket", report.Summary.Format)
	}
	if !report.HasFailures() {
		t.Error("expected HasFailures")
	}

	log.Metadata.FailedLines = 0
	if NewReport(log).HasFailures() {
		t.Error("expected no failures")
	}
}
