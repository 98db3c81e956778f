// Package config provides configuration loading and validation for
// sqlog parse operations.
package config

import (
	"time"

	"github.com/mfreitas/sqlog/pkg/parser"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// BaseDate anchors time-of-day timestamps to an absolute day,
	// formatted as YYYY-MM-DD.
	BaseDate string `yaml:"base_date,omitempty"`

	// SlowQueryThreshold is the slow-query threshold in seconds.
	SlowQueryThreshold float64 `yaml:"slow_query_threshold,omitempty"`

	// MaxLines caps the number of processed lines. Zero is unbounded.
	MaxLines int `yaml:"max_lines,omitempty"`

	// Encoding is the text encoding of the log files.
	Encoding string `yaml:"encoding,omitempty"`

	// ChunkSize is a read-granularity hint in bytes.
	ChunkSize int `yaml:"chunk_size,omitempty"`

	// StopOnError aborts parsing at the first non-standard line.
	StopOnError bool `yaml:"stop_on_error,omitempty"`

	// Filters select which entries are emitted.
	Filters []FilterConfig `yaml:"filters,omitempty"`

	// parsedBaseDate is populated during validation.
	parsedBaseDate time.Time
}

// ParsedBaseDate returns the base date parsed during validation.
// Zero when base_date was not configured.
func (c *Config) ParsedBaseDate() time.Time {
	return c.parsedBaseDate
}

// FilterConfig defines a single entry filter.
type FilterConfig struct {
	// Type is "include" or "exclude".
	Type string `yaml:"type"`

	// Field is the entry field to match: message, processId,
	// severity, or messageType.
	Field string `yaml:"field"`

	// Pattern is the literal substring or regular expression.
	Pattern string `yaml:"pattern"`

	// Regex marks Pattern as a regular expression, compiled during
	// validation. The default is literal substring containment.
	Regex bool `yaml:"regex,omitempty"`

	// compiled is populated during validation.
	compiled *parser.Filter
}

// Compiled returns the filter built during validation.
func (f *FilterConfig) Compiled() *parser.Filter {
	return f.compiled
}
