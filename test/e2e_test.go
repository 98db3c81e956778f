package test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/mfreitas/sqlog/pkg/config"
	"github.com/mfreitas/sqlog/pkg/output"
	"github.com/mfreitas/sqlog/pkg/parser"
	"github.com/mfreitas/sqlog/pkg/registry"
)

var (
	projectRoot string
	rootOnce    sync.Once
)

// chdir changes to the project root directory for tests.
// Fixture files use paths relative to project root.
func chdir(t *testing.T) {
	t.Helper()
	rootOnce.Do(func() {
		// Get the directory containing this test file, then go up one level
		_, filename, _, _ := runtime.Caller(0)
		projectRoot = filepath.Dir(filepath.Dir(filename))
	})
	if err := os.Chdir(projectRoot); err != nil {
		t.Fatalf("Failed to chdir to project root: %v", err)
	}
}

// requireFile fails the test if the required test file doesn't exist.
// We never skip tests - missing test data is a test failure.
func requireFile(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatalf("Required test file not found: %s", path)
	}
}

func findEntry(t *testing.T, log *parser.ParsedLog, lineNumber int) *parser.LogEntry {
	t.Helper()
	for _, e := range log.Entries {
		if e.LineNumber == lineNumber {
			return e
		}
	}
	t.Fatalf("No entry for line %d", lineNumber)
	return nil
}

func hasTag(e *parser.LogEntry, tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// TestE2E_SessionLog runs the full pipeline over a realistic session
// fixture: config load, dialect selection, streaming parse, and
// aggregate metadata.
func TestE2E_SessionLog(t *testing.T) {
	chdir(t)
	ctx := context.Background()

	logFile := filepath.Join("testdata", "logs", "session.zlg")
	configFile := filepath.Join("testdata", "configs", "e2e.yaml")
	requireFile(t, logFile)
	requireFile(t, configFile)

	cfg, err := config.Load(ctx, configFile)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	reg := registry.Default()
	dialect, err := reg.SelectParser(logFile)
	if err != nil {
		t.Fatalf("Failed to select parser: %v", err)
	}
	if dialect.Name() != "tagged-bracket" {
		t.Fatalf("Selected dialect %q, want tagged-bracket", dialect.Name())
	}

	result, err := parser.Parse(ctx, logFile, dialect, cfg.ParserOptions(), nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	meta := result.Metadata
	if meta.LineCount != 13 {
		t.Errorf("LineCount = %d, want 13", meta.LineCount)
	}
	if len(result.Entries) != 12 {
		t.Errorf("Entries = %d, want 12 (the blank line is skipped)", len(result.Entries))
	}
	if meta.ParsedLines != 11 {
		t.Errorf("ParsedLines = %d, want 11", meta.ParsedLines)
	}
	if meta.FailedLines != 1 {
		t.Errorf("FailedLines = %d, want 1", meta.FailedLines)
	}
	if meta.SessionCount != 2 {
		t.Errorf("SessionCount = %d, want 2", meta.SessionCount)
	}
	if meta.Format != "tagged-bracket" {
		t.Errorf("Format = %q, want tagged-bracket", meta.Format)
	}

	wantStart := time.Date(2024, 3, 15, 8, 0, 1, 0, time.UTC)
	wantEnd := time.Date(2024, 3, 15, 8, 10, 32, 0, time.UTC)
	if meta.StartDate == nil || !meta.StartDate.Equal(wantStart) {
		t.Errorf("StartDate = %v, want %v", meta.StartDate, wantStart)
	}
	if meta.EndDate == nil || !meta.EndDate.Equal(wantEnd) {
		t.Errorf("EndDate = %v, want %v", meta.EndDate, wantEnd)
	}

	// Multi-line SELECT with execution context
	sel := findEntry(t, result, 3)
	if sel.Type != parser.MessageTypeSQL {
		t.Errorf("Line 3 type = %s, want SQL", sel.Type)
	}
	if sel.Context.ProcessID != "4812" {
		t.Errorf("Line 3 pid = %q, want 4812", sel.Context.ProcessID)
	}
	if sel.Context.MemoryMB != 11.03 {
		t.Errorf("Line 3 memory = %v, want 11.03", sel.Context.MemoryMB)
	}
	if sel.SQL == nil {
		t.Fatal("Line 3 has no SQL info")
	}
	if !sel.SQL.IsMultiLine {
		t.Error("Line 3 statement spans line-break markup, IsMultiLine = false")
	}
	wantQuery := "SELECT * FROM clientes\nWHERE cidade = :cidade"
	if sel.SQL.Query != wantQuery {
		t.Errorf("Line 3 query = %q, want %q", sel.SQL.Query, wantQuery)
	}
	if len(sel.SQL.Tables) != 1 || sel.SQL.Tables[0] != "clientes" {
		t.Errorf("Line 3 tables = %v, want [clientes]", sel.SQL.Tables)
	}
	if !hasTag(sel, "select-all") {
		t.Errorf("Line 3 tags = %v, want select-all", sel.Tags)
	}

	// Bind parameters
	bind := findEntry(t, result, 4)
	if bind.Type != parser.MessageTypeSQLBind {
		t.Errorf("Line 4 type = %s, want SQL_BIND", bind.Type)
	}
	if bind.SQL == nil || bind.SQL.Binds["cidade"].String() != "Curitiba" {
		t.Errorf("Line 4 binds = %v, want cidade => Curitiba", bind.SQL)
	}

	// Performance line: 2.5s against the configured 0.5s threshold
	perf := findEntry(t, result, 6)
	if perf.Type != parser.MessageTypePerformance {
		t.Errorf("Line 6 type = %s, want PERFORMANCE", perf.Type)
	}
	if perf.Severity != parser.SeverityWarning {
		t.Errorf("Line 6 severity = %s, want WARNING", perf.Severity)
	}
	if perf.SQL == nil || perf.SQL.ExecutionTime == nil || *perf.SQL.ExecutionTime != 2.5 {
		t.Errorf("Line 6 execution time: %v, want 2.5", perf.SQL)
	}
	if perf.SQL.RecordsReturned == nil || *perf.SQL.RecordsReturned != 245 {
		t.Errorf("Line 6 records: %v, want 245", perf.SQL.RecordsReturned)
	}
	for _, tag := range []string{"slow-query", "very-slow-query", "large-result-set"} {
		if !hasTag(perf, tag) {
			t.Errorf("Line 6 tags = %v, missing %s", perf.Tags, tag)
		}
	}

	// Transaction boundaries
	for _, line := range []int{2, 7, 13} {
		e := findEntry(t, result, line)
		if e.Type != parser.MessageTypeTransaction {
			t.Errorf("Line %d type = %s, want TRANSACTION", line, e.Type)
		}
		if !hasTag(e, "transaction") {
			t.Errorf("Line %d tags = %v, want transaction", line, e.Tags)
		}
	}

	// Error line and its continuation
	errEntry := findEntry(t, result, 11)
	if errEntry.Type != parser.MessageTypeError {
		t.Errorf("Line 11 type = %s, want ERROR", errEntry.Type)
	}
	if errEntry.Severity != parser.SeverityError {
		t.Errorf("Line 11 severity = %s, want ERROR", errEntry.Severity)
	}

	cont := findEntry(t, result, 12)
	if !cont.HasIssues() {
		t.Error("Line 12 is a continuation line, expected a parsing issue")
	}
	if cont.Type != parser.MessageTypeUnknown {
		t.Errorf("Line 12 type = %s, want UNKNOWN", cont.Type)
	}
}

// TestE2E_FilteredReport exercises filters and the report formatters
// over the same fixture.
func TestE2E_FilteredReport(t *testing.T) {
	chdir(t)
	ctx := context.Background()

	logFile := filepath.Join("testdata", "logs", "session.zlg")
	requireFile(t, logFile)

	f, err := parser.NewFilter(parser.FilterInclude, parser.FilterFieldProcessID, "4812", false)
	if err != nil {
		t.Fatalf("Failed to build filter: %v", err)
	}

	opts := parser.DefaultOptions()
	opts.Filters = []*parser.Filter{f}

	reg := registry.Default()
	dialect, err := reg.SelectParser(logFile)
	if err != nil {
		t.Fatalf("Failed to select parser: %v", err)
	}

	result, err := parser.Parse(ctx, logFile, dialect, opts, nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	// The first session has 7 lines; everything else is filtered out
	if len(result.Entries) != 7 {
		t.Errorf("Entries = %d, want 7", len(result.Entries))
	}
	for _, e := range result.Entries {
		if e.Context.ProcessID != "4812" {
			t.Errorf("Line %d leaked through the filter: pid %q", e.LineNumber, e.Context.ProcessID)
		}
	}

	report := output.NewReport(result)
	if report.HasFailures() {
		t.Error("All fallback lines were filtered out, expected no failures")
	}

	var buf bytes.Buffer
	formatter := output.NewJSONFormatter(output.FormatOptions{})
	if err := formatter.Format(ctx, report, &buf); err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Report is not valid JSON: %v", err)
	}
}
