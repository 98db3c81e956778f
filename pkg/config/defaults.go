package config

import "os"

// Default values for configuration.
const (
	DefaultChunkSize = 64 * 1024
	DefaultEncoding  = "utf-8"

	// BaseDateLayout is the accepted base_date format.
	BaseDateLayout = "2006-01-02"
)

// Environment variable names.
const (
	EnvEncoding = "SQLOG_ENCODING"
	EnvBaseDate = "SQLOG_BASE_DATE"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Encoding:  DefaultEncoding,
		ChunkSize: DefaultChunkSize,
	}
}

// applyEnvironmentOverrides applies environment variable overrides.
func (c *Config) applyEnvironmentOverrides() {
	if enc := os.Getenv(EnvEncoding); enc != "" {
		c.Encoding = enc
	}
	if date := os.Getenv(EnvBaseDate); date != "" {
		c.BaseDate = date
	}
}
