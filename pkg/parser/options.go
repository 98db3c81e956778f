package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// FilterType determines whether a filter includes or excludes entries.
type FilterType string

const (
	FilterInclude FilterType = "include"
	FilterExclude FilterType = "exclude"
)

// FilterField names the entry field a filter evaluates.
type FilterField string

const (
	FilterFieldMessage     FilterField = "message"
	FilterFieldProcessID   FilterField = "processId"
	FilterFieldSeverity    FilterField = "severity"
	FilterFieldMessageType FilterField = "messageType"
)

// Filter matches entries by a single field, using either literal
// substring containment or a compiled regular expression. The choice
// is made at construction time.
type Filter struct {
	ftype   FilterType
	field   FilterField
	literal string
	pattern *regexp.Regexp
}

// NewFilter creates a filter. When isRegex is true the pattern is
// compiled immediately; a bad pattern is a construction error, never a
// match-time one.
func NewFilter(ftype FilterType, field FilterField, pattern string, isRegex bool) (*Filter, error) {
	switch ftype {
	case FilterInclude, FilterExclude:
	default:
		return nil, fmt.Errorf("invalid filter type %q (must be include or exclude)", ftype)
	}

	switch field {
	case FilterFieldMessage, FilterFieldProcessID, FilterFieldSeverity, FilterFieldMessageType:
	default:
		return nil, fmt.Errorf("invalid filter field %q (must be message, processId, severity, or messageType)", field)
	}

	f := &Filter{ftype: ftype, field: field}
	if isRegex {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
		f.pattern = re
	} else {
		f.literal = pattern
	}
	return f, nil
}

// Type returns the filter type.
func (f *Filter) Type() FilterType { return f.ftype }

// Field returns the filtered field.
func (f *Filter) Field() FilterField { return f.field }

// Allows reports whether the entry passes this filter: include
// filters require a match, exclude filters require the absence of one.
func (f *Filter) Allows(e *LogEntry) bool {
	matched := f.matches(e)
	if f.ftype == FilterInclude {
		return matched
	}
	return !matched
}

func (f *Filter) matches(e *LogEntry) bool {
	var value string
	switch f.field {
	case FilterFieldMessage:
		value = e.Message
	case FilterFieldProcessID:
		value = e.Context.ProcessID
	case FilterFieldSeverity:
		value = e.Severity.String()
	case FilterFieldMessageType:
		value = string(e.Type)
	}

	if f.pattern != nil {
		return f.pattern.MatchString(value)
	}
	return strings.Contains(value, f.literal)
}

// Options configures a single parse operation.
type Options struct {
	// BaseDate anchors time-of-day timestamps to an absolute day.
	// Zero means entries get no absolute date.
	BaseDate time.Time

	// SlowQueryThreshold overrides the default slow-query threshold
	// in seconds. Zero means use the default.
	SlowQueryThreshold float64

	// MaxLines caps the number of processed lines. Zero means
	// unbounded.
	MaxLines int

	// Encoding is the text encoding of the file. Empty means UTF-8.
	Encoding string

	// ChunkSize is a read-granularity hint in bytes.
	ChunkSize int

	// StopOnError aborts the parse on the first line recovered via
	// the fallback path.
	StopOnError bool

	// Filters are evaluated per entry; all must allow the entry for
	// it to be emitted.
	Filters []*Filter
}

// DefaultOptions returns options with the built-in defaults.
func DefaultOptions() *Options {
	return &Options{
		ChunkSize: 64 * 1024,
	}
}

// classifier returns a Classifier honoring the configured slow-query
// threshold.
func (o *Options) classifier() *Classifier {
	if o == nil || o.SlowQueryThreshold <= 0 {
		return defaultClassifier
	}
	return NewClassifier(WithSlowQueryThreshold(o.SlowQueryThreshold))
}

// allows reports whether an entry satisfies every configured filter.
func (o *Options) allows(e *LogEntry) bool {
	if o == nil {
		return true
	}
	for _, f := range o.Filters {
		if !f.Allows(e) {
			return false
		}
	}
	return true
}

var defaultClassifier = NewClassifier()
