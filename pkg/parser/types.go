// Package parser provides the core log parsing pipeline: pattern
// extraction, line classification, dialect parsers, and the streaming
// engine that turns raw log files into classified entries.
package parser

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MessageType categorizes a log line by its content.
type MessageType string

const (
	MessageTypeSQL         MessageType = "SQL"
	MessageTypeSQLBind     MessageType = "SQL_BIND"
	MessageTypePerformance MessageType = "PERFORMANCE"
	MessageTypeTransaction MessageType = "TRANSACTION"
	MessageTypeError       MessageType = "ERROR"
	MessageTypeDebug       MessageType = "DEBUG"
	MessageTypeInfo        MessageType = "INFO"
	MessageTypeUnknown     MessageType = "UNKNOWN"
)

// Tag returns the message type as a lower-cased tag label.
func (m MessageType) Tag() string {
	return strings.ToLower(string(m))
}

// Severity is an ordered log severity level.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityCritical
)

var severityNames = map[Severity]string{
	SeverityDebug:    "DEBUG",
	SeverityInfo:     "INFO",
	SeverityWarning:  "WARNING",
	SeverityError:    "ERROR",
	SeverityCritical: "CRITICAL",
}

// String returns the canonical upper-case name of the severity.
func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return "INFO"
}

// ParseSeverity converts a severity name to a Severity.
// Returns SeverityInfo and false for unrecognized names.
func ParseSeverity(name string) (Severity, bool) {
	for sev, n := range severityNames {
		if strings.EqualFold(name, n) {
			return sev, true
		}
	}
	return SeverityInfo, false
}

// MarshalJSON encodes the severity as its string name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a severity from its string name.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	sev, ok := ParseSeverity(name)
	if !ok {
		return fmt.Errorf("unknown severity %q", name)
	}
	*s = sev
	return nil
}

// QueryType classifies a SQL statement by its first keyword.
type QueryType string

const (
	QueryTypeSelect QueryType = "select"
	QueryTypeInsert QueryType = "insert"
	QueryTypeUpdate QueryType = "update"
	QueryTypeDelete QueryType = "delete"
	QueryTypeOther  QueryType = "other"
)

// BindValue is a bind parameter value: either a string or an integer,
// decided when the value is extracted.
type BindValue struct {
	Str   string
	Int   int64
	IsInt bool
}

// StringBind creates a string-valued bind parameter.
func StringBind(s string) BindValue {
	return BindValue{Str: s}
}

// IntBind creates an integer-valued bind parameter.
func IntBind(n int64) BindValue {
	return BindValue{Int: n, IsInt: true}
}

// String returns the value as text regardless of kind.
func (b BindValue) String() string {
	if b.IsInt {
		return strconv.FormatInt(b.Int, 10)
	}
	return b.Str
}

// MarshalJSON encodes the value as a JSON number or string.
func (b BindValue) MarshalJSON() ([]byte, error) {
	if b.IsInt {
		return json.Marshal(b.Int)
	}
	return json.Marshal(b.Str)
}

// UnmarshalJSON decodes a JSON number or string into the tagged union.
func (b *BindValue) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*b = IntBind(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*b = StringBind(s)
	return nil
}

// ExecutionContext holds the execution metadata extracted from a log
// line's structural fields.
type ExecutionContext struct {
	// Timestamp is the wall-clock time-of-day string as it appeared.
	Timestamp string `json:"timestamp"`

	// FullDate is the absolute timestamp, present only when a base
	// date was supplied to anchor the time-of-day.
	FullDate *time.Time `json:"full_date,omitempty"`

	// ServerInfo is the opaque server/version tag.
	ServerInfo string `json:"server_info"`

	// ProcessID identifies the session within this file.
	ProcessID string `json:"process_id"`

	// MemoryUsage is the original textual memory quantity.
	MemoryUsage string `json:"memory_usage"`

	// MemoryMB is the memory usage normalized to megabytes.
	MemoryMB float64 `json:"memory_mb"`

	// ConnectionIndex is the dotted execution-path label.
	ConnectionIndex string `json:"connection_index"`
}

// SQLInfo holds the SQL semantics extracted from a SQL-related line.
type SQLInfo struct {
	Query string `json:"query,omitempty"`

	// Binds maps bind parameter names to their values.
	Binds map[string]BindValue `json:"binds,omitempty"`

	// DecodedQuery is the statement with binds substituted, present
	// only when the line carried a decoded form.
	DecodedQuery string `json:"decoded_query,omitempty"`

	// ExecutionTime is the execution time in seconds, when reported.
	ExecutionTime *float64 `json:"execution_time,omitempty"`

	// RecordsReturned is the reported row count, when present.
	RecordsReturned *int `json:"records_returned,omitempty"`

	QueryType QueryType `json:"query_type,omitempty"`

	// Tables lists the referenced table names, lower-cased and
	// deduplicated. Order is not significant.
	Tables []string `json:"tables,omitempty"`

	// IsMultiLine indicates the statement spanned embedded line-break
	// markup in the source line.
	IsMultiLine bool `json:"is_multi_line,omitempty"`
}

// IsEmpty reports whether no field of the SQLInfo was populated.
func (s *SQLInfo) IsEmpty() bool {
	return s.Query == "" && len(s.Binds) == 0 && s.DecodedQuery == "" &&
		s.ExecutionTime == nil && s.RecordsReturned == nil
}

// LogEntry is one classified record derived from one physical log line.
// Entries are immutable once emitted.
type LogEntry struct {
	// LineNumber is the 1-based physical line number in the file.
	LineNumber int `json:"line_number"`

	// Raw is the unmodified source line.
	Raw string `json:"raw"`

	Context ExecutionContext `json:"context"`

	// Message is the cleaned message body.
	Message string `json:"message"`

	Type     MessageType `json:"message_type"`
	Severity Severity    `json:"severity"`

	// SQL is present only for SQL-related message types with at least
	// one populated field.
	SQL *SQLInfo `json:"sql_info,omitempty"`

	// Tags are derived labels. The lower-cased message type is always
	// included.
	Tags []string `json:"tags"`

	// ParsingIssues is non-empty when the line was recovered through a
	// fallback path instead of the dialect's structural pattern.
	ParsingIssues []string `json:"parsing_issues,omitempty"`
}

// HasIssues reports whether the entry was recovered via a fallback path.
func (e *LogEntry) HasIssues() bool {
	return len(e.ParsingIssues) > 0
}

// HasTag reports whether the entry carries the given tag.
func (e *LogEntry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// DetectionResult is a dialect's self-assessment for a file sample.
// A confidence of 1.0 means "stop searching, this is certainly the
// right dialect".
type DetectionResult struct {
	CanParse   bool    `json:"can_parse"`
	Confidence float64 `json:"confidence"`

	// Format is the dialect name, set when CanParse is true.
	Format string `json:"format,omitempty"`

	// Reason is a diagnostic explanation of the score.
	Reason string `json:"reason,omitempty"`
}

// FileMetadata describes the parsed file and aggregate counts.
type FileMetadata struct {
	FilePath  string `json:"file_path"`
	FileSize  int64  `json:"file_size"`
	Encoding  string `json:"encoding"`
	Format    string `json:"format"`
	LineCount int    `json:"line_count"`

	// ParsedLines counts entries that matched the structural pattern.
	ParsedLines int `json:"parsed_lines"`

	// FailedLines counts entries recovered via the fallback path.
	FailedLines int `json:"failed_lines"`

	// SessionCount is the number of distinct process IDs seen.
	SessionCount int `json:"session_count"`

	// StartDate and EndDate bound the entries with a resolvable
	// absolute date. Nil when no entry had one.
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// ParsedLog is the aggregate result of parsing one file.
type ParsedLog struct {
	// ID identifies this parse run.
	ID uuid.UUID `json:"id"`

	Metadata FileMetadata `json:"metadata"`

	// Entries is the full ordered sequence of classified entries.
	Entries []*LogEntry `json:"entries"`

	// Duration is how long the parse took.
	Duration time.Duration `json:"duration"`
}
