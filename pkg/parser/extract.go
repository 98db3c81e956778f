package parser

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Extraction patterns for the sub-fields embedded in message bodies.
// The execution-time and record-count labels are the fixed Portuguese
// labels the source application writes.
var (
	memoryQuantityRe  = regexp.MustCompile(`(?i)([\d]+(?:[.,]\d+)?)\s*(kb|mb|gb)?`)
	executionTimeRe   = regexp.MustCompile(`(?i)Tempo\s+Execu[çc][ãa]o:\s*([\d]+(?:[.,]\d+)?)\s*segundo`)
	recordsReturnedRe = regexp.MustCompile(`(?i)Registros\s+Retornados:\s*(\d+)`)
	tableRefRe        = regexp.MustCompile(`(?i)\b(?:FROM|JOIN|INTO|UPDATE)\s+([A-Za-z_][A-Za-z0-9_.]*)`)
	bindPairRe        = regexp.MustCompile(`['"]?([A-Za-z_][A-Za-z0-9_]*)['"]?\s*=>\s*('[^']*'|"[^"]*"|-?\d+(?:\.\d+)?|[A-Za-z0-9_.]+)`)
	markupTagRe       = regexp.MustCompile(`<[^>]*>`)
	lineBreakTagRe    = regexp.MustCompile(`(?i)<br\s*/?>`)
	spaceRunRe        = regexp.MustCompile(`[ \t]+`)
)

// ParseMemoryQuantity parses a textual memory quantity such as
// "12.79 mb" or "1 gb" and returns the value normalized to megabytes.
// A missing unit defaults to megabytes; text without a numeric value
// yields 0.
func ParseMemoryQuantity(text string) float64 {
	m := memoryQuantityRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return 0
	}

	switch strings.ToLower(m[2]) {
	case "kb":
		return value / 1024
	case "gb":
		return value * 1024
	default:
		// "mb" or no unit
		return value
	}
}

// ExtractExecutionTime extracts the reported execution time in seconds.
// The second return value is false when the line carries no
// execution-time label.
func ExtractExecutionTime(text string) (float64, bool) {
	m := executionTimeRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// ExtractRecordsReturned extracts the reported row count.
// The second return value is false when the label is absent.
func ExtractRecordsReturned(text string) (int, bool) {
	m := recordsReturnedRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// DetectQueryType classifies a SQL statement by its first keyword.
func DetectQueryType(sql string) QueryType {
	trimmed := strings.ToUpper(strings.TrimSpace(sql))

	switch {
	case strings.HasPrefix(trimmed, "SELECT"):
		return QueryTypeSelect
	case strings.HasPrefix(trimmed, "INSERT"):
		return QueryTypeInsert
	case strings.HasPrefix(trimmed, "UPDATE"):
		return QueryTypeUpdate
	case strings.HasPrefix(trimmed, "DELETE"):
		return QueryTypeDelete
	default:
		return QueryTypeOther
	}
}

// ExtractTables returns the table identifiers referenced after FROM,
// JOIN, INTO, and UPDATE keywords, lower-cased and deduplicated.
// Order of the result is not significant; it is sorted for
// deterministic output.
func ExtractTables(sql string) []string {
	seen := make(map[string]bool)
	var tables []string

	for _, m := range tableRefRe.FindAllStringSubmatch(sql, -1) {
		name := strings.ToLower(m[1])
		if !seen[name] {
			seen[name] = true
			tables = append(tables, name)
		}
	}

	sort.Strings(tables)
	return tables
}

// ParseBindParameters extracts name=>value pairs from a serialized
// array representation embedded in the text. Numeric values become
// integer binds, everything else string binds. The second return value
// is false when no pairs are found.
func ParseBindParameters(text string) (map[string]BindValue, bool) {
	matches := bindPairRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil, false
	}

	binds := make(map[string]BindValue, len(matches))
	for _, m := range matches {
		name := m[1]
		raw := m[2]

		// Quoted values are always strings
		if len(raw) >= 2 && (raw[0] == '\'' || raw[0] == '"') {
			binds[name] = StringBind(raw[1 : len(raw)-1])
			continue
		}

		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			binds[name] = IntBind(n)
			continue
		}
		binds[name] = StringBind(raw)
	}

	return binds, true
}

// StripMarkup removes any <tag>-shaped markup from the text.
func StripMarkup(text string) string {
	return markupTagRe.ReplaceAllString(text, "")
}

// CleanSQL normalizes an embedded SQL statement: line-break markup
// becomes real line breaks, remaining markup is stripped, runs of
// spaces and tabs collapse to one space, and the result is trimmed.
func CleanSQL(text string) string {
	text = lineBreakTagRe.ReplaceAllString(text, "\n")
	text = StripMarkup(text)
	text = spaceRunRe.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
