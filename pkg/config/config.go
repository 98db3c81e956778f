package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mfreitas/sqlog/pkg/parser"
)

// Load reads and validates a configuration file.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks a configuration for errors, parses the base date,
// and builds the filters (compiling regex patterns).
func Validate(cfg *Config) error {
	if cfg.BaseDate != "" {
		t, err := time.Parse(BaseDateLayout, cfg.BaseDate)
		if err != nil {
			return fmt.Errorf("base_date: must be YYYY-MM-DD: %w", err)
		}
		cfg.parsedBaseDate = t
	}

	if cfg.SlowQueryThreshold < 0 {
		return errors.New("slow_query_threshold: must be >= 0")
	}

	if cfg.MaxLines < 0 {
		return errors.New("max_lines: must be >= 0")
	}

	if cfg.ChunkSize < 0 {
		return errors.New("chunk_size: must be >= 0")
	}

	for i := range cfg.Filters {
		if err := validateFilter(&cfg.Filters[i]); err != nil {
			return fmt.Errorf("filters[%d]: %w", i, err)
		}
	}

	return nil
}

func validateFilter(fc *FilterConfig) error {
	if fc.Pattern == "" {
		return errors.New("pattern is required")
	}

	f, err := parser.NewFilter(
		parser.FilterType(fc.Type),
		parser.FilterField(fc.Field),
		fc.Pattern,
		fc.Regex,
	)
	if err != nil {
		return err
	}

	fc.compiled = f
	return nil
}

// ParserOptions converts the configuration into parse options.
// The configuration must have been validated.
func (c *Config) ParserOptions() *parser.Options {
	opts := &parser.Options{
		BaseDate:           c.parsedBaseDate,
		SlowQueryThreshold: c.SlowQueryThreshold,
		MaxLines:           c.MaxLines,
		Encoding:           c.Encoding,
		ChunkSize:          c.ChunkSize,
		StopOnError:        c.StopOnError,
	}

	for i := range c.Filters {
		if f := c.Filters[i].Compiled(); f != nil {
			opts.Filters = append(opts.Filters, f)
		}
	}

	return opts
}
