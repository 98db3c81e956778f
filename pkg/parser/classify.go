package parser

import (
	"regexp"
	"strings"
)

// DefaultSlowQueryThreshold is the execution time in seconds above
// which a query is considered slow.
const DefaultSlowQueryThreshold = 0.1

// verySlowQueryThreshold marks queries slow enough for the stronger tag.
const verySlowQueryThreshold = 1.0

// largeResultSetThreshold is the row count above which a result set is
// tagged as large.
const largeResultSetThreshold = 100

// Message markers written by the source application. SQL statement
// bodies run from the label to the end-of-block marker or end of line.
var (
	sqlMarkers    = []string{"SQL Bruto:", "SQL Processado:", "SQL Executado:", "SQL:"}
	bindMarker    = "Binds:"
	decodeMarker  = "SQL Decodificado:"
	sqlEndMarker  = "[FIM_SQL]"
	debugMarkers  = []string{"STR->", "INT->"}
	transactionKw = []string{"BEGIN TRANSACTION", "COMMIT", "ROLLBACK"}

	criticalKeywords = []string{"fatal", "critical", "crítico", "exception", "exceção", "access violation"}
	errorKeywords    = []string{"error", "erro", "falha", "failed"}
	warningKeywords  = []string{"warning", "aviso", "alerta"}

	sqlBodyRe     = regexp.MustCompile(`(?is)SQL(?:\s+(?:Bruto|Processado|Executado))?:\s*(.*?)(?:\s*\[FIM_SQL\]|$)`)
	decodedRe     = regexp.MustCompile(`(?is)SQL\s+Decodificado:\s*(.*?)(?:\s*\[FIM_SQL\]|$)`)
	whereClauseRe = regexp.MustCompile(`(?i)\bWHERE\b`)
	selectAllRe   = regexp.MustCompile(`(?i)SELECT\s+\*`)
)

// Classifier decides message type, severity, SQL semantics, and tags
// for a cleaned message body. It is dialect-independent and stateless
// apart from its configuration.
type Classifier struct {
	slowQueryThreshold float64
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithSlowQueryThreshold overrides the slow-query threshold in seconds.
func WithSlowQueryThreshold(seconds float64) ClassifierOption {
	return func(c *Classifier) {
		if seconds > 0 {
			c.slowQueryThreshold = seconds
		}
	}
}

// NewClassifier creates a Classifier with default thresholds.
func NewClassifier(opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		slowQueryThreshold: DefaultSlowQueryThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Annotate fills the entry's Type, Severity, SQL, and Tags from the
// message body. The body still carries its markup so that statements
// spanning line-break markup are extracted whole; the entry's Message
// field holds the cleaned form.
func (c *Classifier) Annotate(e *LogEntry, body string) {
	e.Type = c.MessageTypeOf(body)
	e.SQL = c.ExtractSQLInfo(body, e.Type)
	e.Severity = c.InferSeverity(body, e.Type, e.SQL)
	e.Tags = c.DeriveTags(body, e.Type, e.SQL)
}

// MessageTypeOf decides the message category. The checks are
// priority-ordered; the first match wins.
func (c *Classifier) MessageTypeOf(message string) MessageType {
	if containsAny(message, sqlMarkers) {
		return MessageTypeSQL
	}
	if strings.Contains(message, bindMarker) || strings.Contains(message, decodeMarker) {
		return MessageTypeSQLBind
	}
	if _, ok := ExtractExecutionTime(message); ok {
		return MessageTypePerformance
	}
	upper := strings.ToUpper(message)
	for _, kw := range transactionKw {
		if strings.Contains(upper, kw) {
			return MessageTypeTransaction
		}
	}
	if containsAnyFold(message, errorKeywords) || containsAnyFold(message, criticalKeywords) {
		return MessageTypeError
	}
	if containsAny(message, debugMarkers) {
		return MessageTypeDebug
	}
	return MessageTypeInfo
}

// FallbackType classifies a line that did not match any structural
// pattern. Lines carrying the bind-decode marker are best-effort
// classified as SQL_BIND; everything else is UNKNOWN.
func (c *Classifier) FallbackType(line string) MessageType {
	if strings.Contains(line, decodeMarker) {
		return MessageTypeSQLBind
	}
	return MessageTypeUnknown
}

// ExtractSQLInfo extracts SQL semantics from a SQL-related message.
// Returns nil for non-SQL message types or when nothing was extracted.
// The statement, binds, decoded statement, execution time, and record
// count are independent; any subset may be present.
func (c *Classifier) ExtractSQLInfo(message string, mt MessageType) *SQLInfo {
	if !isSQLRelated(mt) {
		return nil
	}

	info := &SQLInfo{}

	if containsAny(message, sqlMarkers) {
		if m := sqlBodyRe.FindStringSubmatch(message); m != nil {
			info.IsMultiLine = lineBreakTagRe.MatchString(m[1])
			info.Query = CleanSQL(m[1])
		}
	}
	if info.Query != "" {
		info.QueryType = DetectQueryType(info.Query)
		info.Tables = ExtractTables(info.Query)
	}

	if strings.Contains(message, bindMarker) {
		if binds, ok := ParseBindParameters(message); ok {
			info.Binds = binds
		}
	}
	if strings.Contains(message, decodeMarker) {
		if m := decodedRe.FindStringSubmatch(message); m != nil {
			info.DecodedQuery = CleanSQL(m[1])
		}
	}
	if t, ok := ExtractExecutionTime(message); ok {
		info.ExecutionTime = &t
	}
	if n, ok := ExtractRecordsReturned(message); ok {
		info.RecordsReturned = &n
	}

	if info.IsEmpty() {
		return nil
	}
	return info
}

// InferSeverity computes the severity from keyword scans and the
// execution time, in fixed priority order.
func (c *Classifier) InferSeverity(message string, mt MessageType, sql *SQLInfo) Severity {
	if containsAnyFold(message, criticalKeywords) {
		return SeverityCritical
	}
	if containsAnyFold(message, errorKeywords) {
		return SeverityError
	}
	if containsAnyFold(message, warningKeywords) {
		return SeverityWarning
	}
	if sql != nil && sql.ExecutionTime != nil && *sql.ExecutionTime > c.slowQueryThreshold {
		return SeverityWarning
	}
	if mt == MessageTypeDebug || containsAny(message, debugMarkers) {
		return SeverityDebug
	}
	return SeverityInfo
}

// DeriveTags computes the entry's tag set. The lower-cased message
// type is always first; dialects may append their own tags but must
// not remove these.
func (c *Classifier) DeriveTags(message string, mt MessageType, sql *SQLInfo) []string {
	tags := []string{mt.Tag()}

	if sql != nil {
		if sql.ExecutionTime != nil {
			if *sql.ExecutionTime > c.slowQueryThreshold {
				tags = append(tags, "slow-query")
			}
			if *sql.ExecutionTime > verySlowQueryThreshold {
				tags = append(tags, "very-slow-query")
			}
		}

		if sql.Query != "" {
			if selectAllRe.MatchString(sql.Query) {
				tags = append(tags, "select-all")
			}
			if sql.QueryType == QueryTypeSelect && !whereClauseRe.MatchString(sql.Query) {
				tags = append(tags, "no-where-clause")
			}
		}

		if sql.RecordsReturned != nil && *sql.RecordsReturned > largeResultSetThreshold {
			tags = append(tags, "large-result-set")
		}
	}

	upper := strings.ToUpper(message)
	for _, kw := range transactionKw {
		if strings.Contains(upper, kw) {
			tags = appendUniqueTag(tags, "transaction")
			break
		}
	}

	return tags
}

// appendUniqueTag appends tag unless already present; tags are a set.
func appendUniqueTag(tags []string, tag string) []string {
	for _, t := range tags {
		if t == tag {
			return tags
		}
	}
	return append(tags, tag)
}

func isSQLRelated(mt MessageType) bool {
	return mt == MessageTypeSQL || mt == MessageTypeSQLBind || mt == MessageTypePerformance
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func containsAnyFold(s string, keywords []string) bool {
	lower := strings.ToLower(s)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
