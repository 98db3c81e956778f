package parser

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Structural pattern of the tagged-bracket dialect:
//
//	[10:32:01] <Server 5.2.1> (Pid: 4812) (12.79 mb) [ConnIdx: 1.2.1] message
var bracketLineRe = regexp.MustCompile(
	`^\[(\d{2}:\d{2}:\d{2})\]\s*<([^>]*)>\s*\(Pid:\s*([^)]*)\)\s*\(([^)]*)\)\s*\[ConnIdx:\s*([^\]]*)\]\s*(.*)$`)

// Detection thresholds for the tagged-bracket dialect. Extension is a
// weak prior; content structure is the strong signal.
const (
	bracketDetectionSample = 10
	bracketStrongRatio     = 0.8
	bracketExtRatio        = 0.7

	bracketConfidenceExtAndRatio = 0.95
	bracketConfidenceRatioOnly   = 0.85
	bracketConfidenceExtOnly     = 0.6
)

// BracketDialect parses the tagged-bracket log format.
type BracketDialect struct{}

// NewBracketDialect creates the tagged-bracket dialect parser.
func NewBracketDialect() *BracketDialect {
	return &BracketDialect{}
}

// Name returns the dialect identifier.
func (d *BracketDialect) Name() string {
	return "tagged-bracket"
}

// SupportedExtensions returns the file extensions of this dialect.
func (d *BracketDialect) SupportedExtensions() []string {
	return []string{".zlg"}
}

// DetectFormat scores the sample by the fraction of its first 10
// non-empty lines matching the structural pattern.
func (d *BracketDialect) DetectFormat(filename string, sample []string) DetectionResult {
	ext := strings.ToLower(filepath.Ext(filename))
	extMatch := false
	for _, e := range d.SupportedExtensions() {
		if ext == e {
			extMatch = true
			break
		}
	}

	matched, considered := 0, 0
	for _, line := range sample {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if considered >= bracketDetectionSample {
			break
		}
		considered++
		if bracketLineRe.MatchString(line) {
			matched++
		}
	}

	var ratio float64
	if considered > 0 {
		ratio = float64(matched) / float64(considered)
	}

	switch {
	case extMatch && ratio > bracketExtRatio:
		return DetectionResult{
			CanParse:   true,
			Confidence: bracketConfidenceExtAndRatio,
			Format:     d.Name(),
			Reason:     fmt.Sprintf("extension %s and %d/%d lines match the structural pattern", ext, matched, considered),
		}
	case ratio > bracketStrongRatio:
		return DetectionResult{
			CanParse:   true,
			Confidence: bracketConfidenceRatioOnly,
			Format:     d.Name(),
			Reason:     fmt.Sprintf("%d/%d lines match the structural pattern", matched, considered),
		}
	case extMatch:
		return DetectionResult{
			CanParse:   true,
			Confidence: bracketConfidenceExtOnly,
			Format:     d.Name(),
			Reason:     fmt.Sprintf("extension %s matches but only %d/%d lines fit the structural pattern", ext, matched, considered),
		}
	default:
		return DetectionResult{
			Reason: fmt.Sprintf("no extension match and only %d/%d lines fit the structural pattern", matched, considered),
		}
	}
}

// ParseLine converts one physical line into a classified entry.
// Blank lines yield nil. Lines that do not match the structural
// pattern come back as degraded entries with a parsing issue recorded.
func (d *BracketDialect) ParseLine(line string, lineNumber int, opts *Options) *LogEntry {
	if strings.TrimSpace(line) == "" {
		return nil
	}

	classifier := opts.classifier()

	m := bracketLineRe.FindStringSubmatch(line)
	if m == nil {
		entry := &LogEntry{
			LineNumber:    lineNumber,
			Raw:           line,
			Message:       strings.TrimSpace(StripMarkup(line)),
			Type:          classifier.FallbackType(line),
			Severity:      SeverityInfo,
			ParsingIssues: []string{"Non-standard line format"},
		}
		entry.Tags = []string{entry.Type.Tag()}
		return entry
	}

	memory := strings.TrimSpace(m[4])
	ctx := ExecutionContext{
		Timestamp:       m[1],
		ServerInfo:      strings.TrimSpace(m[2]),
		ProcessID:       strings.TrimSpace(m[3]),
		MemoryUsage:     memory,
		MemoryMB:        ParseMemoryQuantity(memory),
		ConnectionIndex: strings.TrimSpace(m[5]),
	}
	if opts != nil && !opts.BaseDate.IsZero() {
		if full, ok := combineDate(opts.BaseDate, m[1]); ok {
			ctx.FullDate = &full
		}
	}

	entry := &LogEntry{
		LineNumber: lineNumber,
		Raw:        line,
		Context:    ctx,
		Message:    cleanMessage(m[6]),
	}
	classifier.Annotate(entry, m[6])

	return entry
}

// cleanMessage strips markup from the message body and collapses runs
// of spaces, keeping line-break markup as spaces so the body stays one
// logical line.
func cleanMessage(body string) string {
	body = lineBreakTagRe.ReplaceAllString(body, " ")
	body = StripMarkup(body)
	return strings.TrimSpace(spaceRunRe.ReplaceAllString(body, " "))
}

// combineDate anchors a time-of-day string to the base date's day.
func combineDate(base time.Time, timeOfDay string) (time.Time, bool) {
	t, err := time.Parse("15:04:05", timeOfDay)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(base.Year(), base.Month(), base.Day(),
		t.Hour(), t.Minute(), t.Second(), 0, base.Location()), true
}
