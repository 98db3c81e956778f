package parser

// Dialect implements one log file convention: a structural line
// pattern plus the detection heuristic for that convention.
// Implementations must be stateless with respect to any single file so
// that parses of different files may run concurrently.
type Dialect interface {
	// Name returns the dialect identifier.
	Name() string

	// SupportedExtensions returns the file extensions (with leading
	// dot, lower-case) this dialect is normally stored under.
	SupportedExtensions() []string

	// DetectFormat scores how likely the sampled content belongs to
	// this dialect. At most the first 10 non-empty sample lines are
	// considered.
	DetectFormat(filename string, sample []string) DetectionResult

	// ParseLine converts one physical line into an entry. Lines that
	// do not match the structural pattern are recovered as degraded
	// entries with a parsing issue recorded. Blank lines yield nil.
	ParseLine(line string, lineNumber int, opts *Options) *LogEntry
}
