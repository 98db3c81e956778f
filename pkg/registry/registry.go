// Package registry holds a priority-ordered set of dialect parsers and
// selects the best-matching one for a given log file.
package registry

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/mfreitas/sqlog/pkg/parser"
)

// DefaultSampleSize is the number of leading lines sampled for
// detection.
const DefaultSampleSize = 50

// ErrNoParser is returned when no registered dialect claims a file.
var ErrNoParser = fmt.Errorf("no compatible parser found")

type registration struct {
	dialect  parser.Dialect
	priority int
}

// Registry is an explicit, mutable set of dialect parsers. It is safe
// for concurrent use: selection operates on a snapshot of the
// registrations taken at call time.
type Registry struct {
	mu         sync.RWMutex
	entries    []registration
	sampleSize int
}

// Option configures a Registry.
type Option func(*Registry)

// WithSampleSize sets the number of leading lines sampled during
// selection (default 50).
func WithSampleSize(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.sampleSize = n
		}
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		sampleSize: DefaultSampleSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Default creates a registry with the built-in dialects registered.
// It is a convenience constructor, not a shared instance; callers that
// want full control build their own with New.
func Default(opts ...Option) *Registry {
	r := New(opts...)
	r.Register(parser.NewBracketDialect(), 100)
	return r
}

// Register adds a dialect. Higher priorities are consulted first;
// equal priorities keep their insertion order.
func (r *Registry) Register(d parser.Dialect, priority int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, registration{dialect: d, priority: priority})
	sort.SliceStable(r.entries, func(i, j int) bool {
		return r.entries[i].priority > r.entries[j].priority
	})
}

// Unregister removes the dialect with the given name. Returns false
// when no such dialect is registered.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, e := range r.entries {
		if e.dialect.Name() == name {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes all registrations.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}

// Names lists the registered dialect names in priority order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		names = append(names, e.dialect.Name())
	}
	return names
}

// Lookup returns the dialect with the given name.
func (r *Registry) Lookup(name string) (parser.Dialect, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.dialect.Name() == name {
			return e.dialect, true
		}
	}
	return nil, false
}

// ForExtension returns the dialects supporting the given file
// extension (with leading dot), in priority order.
func (r *Registry) ForExtension(ext string) []parser.Dialect {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var dialects []parser.Dialect
	for _, e := range r.entries {
		for _, supported := range e.dialect.SupportedExtensions() {
			if supported == ext {
				dialects = append(dialects, e.dialect)
				break
			}
		}
	}
	return dialects
}

// Stats returns the number of registered dialects per supported
// extension.
func (r *Registry) Stats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[string]int)
	for _, e := range r.entries {
		for _, ext := range e.dialect.SupportedExtensions() {
			stats[ext]++
		}
	}
	return stats
}

// SelectParser samples the file's leading content and returns the
// registered dialect with the highest detection confidence. A dialect
// reporting confidence >= 1.0 short-circuits the search. Returns
// ErrNoParser when no dialect claims the file, and the underlying
// error when the file cannot be read.
func (r *Registry) SelectParser(path string) (parser.Dialect, error) {
	dialect, _, err := r.detect(path)
	if err != nil {
		return nil, err
	}
	return dialect, nil
}

// DetectFormat is a read-only variant of selection for diagnostics.
// The result carries the winning dialect's name.
func (r *Registry) DetectFormat(path string) (parser.DetectionResult, error) {
	dialect, result, err := r.detect(path)
	if err != nil && err != ErrNoParser {
		return parser.DetectionResult{}, err
	}
	if dialect == nil {
		return parser.DetectionResult{Reason: "no registered dialect claims this file"}, nil
	}
	return result, nil
}

func (r *Registry) detect(path string) (parser.Dialect, parser.DetectionResult, error) {
	sample, err := r.sampleFile(path)
	if err != nil {
		return nil, parser.DetectionResult{}, err
	}

	r.mu.RLock()
	snapshot := make([]registration, len(r.entries))
	copy(snapshot, r.entries)
	r.mu.RUnlock()

	var best parser.Dialect
	var bestResult parser.DetectionResult

	for _, e := range snapshot {
		result := e.dialect.DetectFormat(path, sample)
		if !result.CanParse {
			continue
		}

		if result.Confidence >= 1.0 {
			return e.dialect, result, nil
		}
		if best == nil || result.Confidence > bestResult.Confidence {
			best = e.dialect
			bestResult = result
		}
	}

	if best == nil {
		return nil, parser.DetectionResult{}, ErrNoParser
	}
	return best, bestResult, nil
}

// sampleFile reads up to sampleSize leading lines, skipping blanks.
func (r *Registry) sampleFile(path string) ([]string, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() && len(lines) < r.sampleSize {
		line := scanner.Text()
		if line != "" {
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}
