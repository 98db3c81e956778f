package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mfreitas/sqlog/pkg/config"
	"github.com/mfreitas/sqlog/pkg/output"
	"github.com/mfreitas/sqlog/pkg/parser"
	"github.com/mfreitas/sqlog/pkg/registry"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// ParseOptions holds command-line options for the parse command.
type ParseOptions struct {
	Config        string
	Dialect       string
	Output        string
	BaseDate      string
	SlowThreshold float64
	MaxLines      int
	Encoding      string
	Filters       []string
	Progress      bool
	Verbose       bool
	Quiet         bool
}

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	opts := &ParseOptions{}

	cmd := &cobra.Command{
		Use:   "parse <log-file...>",
		Short: "Parse log files into classified entries",
		Long: `Parse one or more log files into typed, classified entries.

The best-matching dialect is selected automatically by sampling each
file's leading content; use --dialect to force one. Glob patterns
(including **) are expanded.

Filters take the form type:field:pattern, e.g.:
  --filter include:severity:ERROR
  --filter exclude:message:heartbeat
Prefix the pattern with re: to match it as a regular expression.

Exit codes:
  0 - All lines matched the dialect's structural pattern
  1 - Some lines were recovered via the fallback path
  2 - Configuration or runtime error`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "YAML config file with parse options")
	cmd.Flags().StringVarP(&opts.Dialect, "dialect", "d", "", "Force a specific dialect (skip detection)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().StringVar(&opts.BaseDate, "base-date", "", "Anchor timestamps to this day (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&opts.SlowThreshold, "slow-threshold", 0, "Slow-query threshold in seconds")
	cmd.Flags().IntVar(&opts.MaxLines, "max-lines", 0, "Stop after this many lines (0 = unbounded)")
	cmd.Flags().StringVar(&opts.Encoding, "encoding", "", "Text encoding of the log files")
	cmd.Flags().StringSliceVar(&opts.Filters, "filter", nil, "Entry filter type:field:pattern (can be repeated)")
	cmd.Flags().BoolVar(&opts.Progress, "progress", false, "Report progress to stderr")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "List every parsed entry")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no details")

	return cmd
}

func runParse(cmd *cobra.Command, args []string, opts *ParseOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	parserOpts, err := buildParserOptions(ctx, opts)
	if err != nil {
		return err
	}

	files, err := parser.ExpandGlobs(args)
	if err != nil {
		return fmt.Errorf("expanding log file patterns: %w", err)
	}

	reg := registry.Default()

	formatter, err := newFormatter(opts.Output, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	})
	if err != nil {
		return err
	}

	for _, file := range files {
		if err := parseOne(ctx, reg, file, parserOpts, opts, formatter); err != nil {
			return err
		}
	}

	return nil
}

func parseOne(ctx context.Context, reg *registry.Registry, file string, parserOpts *parser.Options, opts *ParseOptions, formatter output.Formatter) error {
	dialect, err := selectDialect(reg, file, opts.Dialect)
	if err != nil {
		return err
	}

	slog.Debug("parsing file", "file", file, "dialect", dialect.Name())

	var onProgress parser.ProgressFunc
	if opts.Progress {
		onProgress = printProgress(file)
	}

	result, err := parser.Parse(ctx, file, dialect, parserOpts, onProgress)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", file, err)
	}

	report := output.NewReport(result)
	if err := formatter.Format(ctx, report, os.Stdout); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if report.HasFailures() {
		ExitCode = 1
	}

	return nil
}

func selectDialect(reg *registry.Registry, file, forced string) (parser.Dialect, error) {
	if forced != "" {
		dialect, ok := reg.Lookup(forced)
		if !ok {
			return nil, fmt.Errorf("unknown dialect %q (registered: %s)",
				forced, strings.Join(reg.Names(), ", "))
		}
		return dialect, nil
	}

	dialect, err := reg.SelectParser(file)
	if err != nil {
		return nil, fmt.Errorf("selecting parser for %s: %w", file, err)
	}
	return dialect, nil
}

// printProgress returns a progress callback writing to stderr.
func printProgress(file string) parser.ProgressFunc {
	return func(p parser.Progress) {
		remaining := "?"
		if p.HasEstimate {
			remaining = p.EstimatedRemaining.Round(time.Second).String()
		}
		fmt.Fprintf(os.Stderr, "%s: %d lines, %s of %s (%.1f%%), elapsed %s, remaining %s\n",
			file,
			p.ProcessedLines,
			humanize.Bytes(uint64(p.ProcessedBytes)),
			humanize.Bytes(uint64(p.TotalBytes)),
			p.Percentage,
			p.Elapsed.Round(time.Millisecond),
			remaining)
	}
}

// buildParserOptions merges the config file (when given) with flag
// overrides. Flags win.
func buildParserOptions(ctx context.Context, opts *ParseOptions) (*parser.Options, error) {
	parserOpts := parser.DefaultOptions()

	if opts.Config != "" {
		cfg, err := config.Load(ctx, opts.Config)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		parserOpts = cfg.ParserOptions()
	}

	if opts.BaseDate != "" {
		t, err := time.Parse(config.BaseDateLayout, opts.BaseDate)
		if err != nil {
			return nil, fmt.Errorf("invalid base-date %q: must be YYYY-MM-DD", opts.BaseDate)
		}
		parserOpts.BaseDate = t
	}
	if opts.SlowThreshold > 0 {
		parserOpts.SlowQueryThreshold = opts.SlowThreshold
	}
	if opts.MaxLines > 0 {
		parserOpts.MaxLines = opts.MaxLines
	}
	if opts.Encoding != "" {
		parserOpts.Encoding = opts.Encoding
	}

	for _, spec := range opts.Filters {
		f, err := parseFilterSpec(spec)
		if err != nil {
			return nil, err
		}
		parserOpts.Filters = append(parserOpts.Filters, f)
	}

	return parserOpts, nil
}

// parseFilterSpec parses a type:field:pattern filter flag. A pattern
// prefixed with re: is compiled as a regular expression.
func parseFilterSpec(spec string) (*parser.Filter, error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid filter %q (expected type:field:pattern)", spec)
	}

	pattern := parts[2]
	isRegex := false
	if strings.HasPrefix(pattern, "re:") {
		pattern = strings.TrimPrefix(pattern, "re:")
		isRegex = true
	}

	f, err := parser.NewFilter(parser.FilterType(parts[0]), parser.FilterField(parts[1]), pattern, isRegex)
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", spec, err)
	}
	return f, nil
}

func newFormatter(name string, opts output.FormatOptions) (output.Formatter, error) {
	switch name {
	case "json":
		return output.NewJSONFormatter(opts), nil
	case "text":
		return output.NewTextFormatter(opts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (must be text or json)", name)
	}
}
