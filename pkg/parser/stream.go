package parser

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
)

// maxLineSize caps the scanner's line buffer.
const maxLineSize = 1024 * 1024

// Stream reads a log file incrementally and yields one classified
// entry per pull. It is finite, single-pass, and not restartable.
// Streams must be accessed sequentially, not concurrently.
type Stream struct {
	file     *os.File
	path     string
	scanner  *bufio.Scanner
	dialect  Dialect
	opts     *Options
	encoding string

	lineNum   int
	bytesRead int64
}

// OpenStream opens path for sequential parsing with the given dialect.
// The caller must Close the stream, including on early abandonment.
func OpenStream(path string, dialect Dialect, opts *Options) (*Stream, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}

	reader, encoding, err := decodeReader(f, opts.Encoding)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	chunk := opts.ChunkSize
	if chunk <= 0 {
		chunk = 64 * 1024
	}
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, chunk), maxLineSize)

	s := &Stream{
		file:     f,
		path:     path,
		scanner:  scanner,
		dialect:  dialect,
		opts:     opts,
		encoding: encoding,
	}

	// Count consumed bytes at the split level, line terminators
	// included, so progress stays accurate for CRLF files and files
	// without a final newline.
	scanner.Split(func(data []byte, atEOF bool) (advance int, token []byte, err error) {
		advance, token, err = bufio.ScanLines(data, atEOF)
		s.bytesRead += int64(advance)
		return advance, token, err
	})

	return s, nil
}

// Next returns the next entry that passes the configured filters.
// Blank lines are skipped, the line counter still advancing for them.
// Returns io.EOF when the file or the configured line cap is
// exhausted. The stream's file is closed on any terminal result.
func (s *Stream) Next(ctx context.Context) (*LogEntry, error) {
	for {
		select {
		case <-ctx.Done():
			_ = s.Close()
			return nil, ctx.Err()
		default:
		}

		if s.opts.MaxLines > 0 && s.lineNum >= s.opts.MaxLines {
			_ = s.Close()
			return nil, io.EOF
		}

		if !s.scanner.Scan() {
			err := s.scanner.Err()
			_ = s.Close()
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", s.path, err)
			}
			return nil, io.EOF
		}

		s.lineNum++
		line := s.scanner.Text()

		entry := s.dialect.ParseLine(line, s.lineNum, s.opts)
		if entry == nil {
			continue
		}

		if s.opts.StopOnError && entry.HasIssues() {
			_ = s.Close()
			return nil, fmt.Errorf("line %d of %s: %s", entry.LineNumber, s.path, entry.ParsingIssues[0])
		}

		if !s.opts.allows(entry) {
			continue
		}

		return entry, nil
	}
}

// LineNumber returns the number of physical lines processed so far.
func (s *Stream) LineNumber() int {
	return s.lineNum
}

// BytesRead returns the number of decoded bytes consumed so far,
// line terminators included.
func (s *Stream) BytesRead() int64 {
	return s.bytesRead
}

// Encoding returns the canonical name of the configured text encoding.
func (s *Stream) Encoding() string {
	return s.encoding
}

// Close releases the underlying file. Safe to call more than once.
func (s *Stream) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// progressInterval is the line cadence of progress callbacks.
const progressInterval = 100

// Progress is a snapshot of an in-flight parse.
type Progress struct {
	// ProcessedLines is the number of physical lines consumed.
	ProcessedLines int `json:"processed_lines"`

	// Percentage is completion by bytes, 0-100.
	Percentage float64 `json:"percentage"`

	ProcessedBytes int64 `json:"processed_bytes"`
	TotalBytes     int64 `json:"total_bytes"`

	Elapsed time.Duration `json:"elapsed"`

	// EstimatedRemaining extrapolates linearly from elapsed time and
	// percentage. Valid only when HasEstimate is true (percentage > 0).
	EstimatedRemaining time.Duration `json:"estimated_remaining"`
	HasEstimate        bool          `json:"has_estimate"`
}

// ProgressFunc receives progress snapshots during a parse.
type ProgressFunc func(Progress)

// Parse drives a stream over the whole file and returns the aggregate
// result. onProgress, when non-nil, is invoked every 100 processed
// lines and once at completion.
func Parse(ctx context.Context, path string, dialect Dialect, opts *Options, onProgress ProgressFunc) (*ParsedLog, error) {
	start := time.Now()

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat log file: %w", err)
	}

	stream, err := OpenStream(path, dialect, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = stream.Close() }()

	var entries []*LogEntry
	lastReport := 0

	for {
		entry, err := stream.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)

		if onProgress != nil && stream.LineNumber()-lastReport >= progressInterval {
			lastReport = stream.LineNumber()
			onProgress(snapshot(stream, info.Size(), start))
		}
	}

	if onProgress != nil {
		onProgress(snapshot(stream, info.Size(), start))
	}

	log := &ParsedLog{
		ID:       uuid.New(),
		Entries:  entries,
		Duration: time.Since(start),
		Metadata: FileMetadata{
			FilePath:  path,
			FileSize:  info.Size(),
			Encoding:  stream.Encoding(),
			Format:    dialect.Name(),
			LineCount: stream.LineNumber(),
		},
	}
	summarize(log)

	return log, nil
}

// snapshot builds a progress report from the stream's counters.
func snapshot(s *Stream, totalBytes int64, start time.Time) Progress {
	p := Progress{
		ProcessedLines: s.LineNumber(),
		ProcessedBytes: s.BytesRead(),
		TotalBytes:     totalBytes,
		Elapsed:        time.Since(start),
	}

	if totalBytes > 0 {
		p.Percentage = float64(p.ProcessedBytes) / float64(totalBytes) * 100
		if p.Percentage > 100 {
			p.Percentage = 100
		}
	}

	if p.Percentage > 0 {
		remaining := float64(p.Elapsed) * (100 - p.Percentage) / p.Percentage
		p.EstimatedRemaining = time.Duration(remaining)
		p.HasEstimate = true
	}

	return p
}

// summarize fills the aggregate counts derived from the entries.
func summarize(log *ParsedLog) {
	sessions := make(map[string]bool)

	for _, e := range log.Entries {
		if e.HasIssues() {
			log.Metadata.FailedLines++
		} else {
			log.Metadata.ParsedLines++
		}

		if pid := e.Context.ProcessID; pid != "" {
			sessions[pid] = true
		}

		if d := e.Context.FullDate; d != nil {
			if log.Metadata.StartDate == nil || d.Before(*log.Metadata.StartDate) {
				log.Metadata.StartDate = d
			}
			if log.Metadata.EndDate == nil || d.After(*log.Metadata.EndDate) {
				log.Metadata.EndDate = d
			}
		}
	}

	log.Metadata.SessionCount = len(sessions)
}
