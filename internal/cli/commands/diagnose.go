package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mfreitas/sqlog/pkg/parser"
	"github.com/mfreitas/sqlog/pkg/registry"
)

// DiagnoseOptions holds command-line options for the diagnose command.
type DiagnoseOptions struct {
	SampleSize int
	ShowLines  int
}

// NewDiagnoseCommand creates the diagnose command.
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose <log-file>",
		Short: "Explain how dialect detection scored a file",
		Long: `Diagnose dialect detection for a log file.

Shows, for every registered dialect, the detection score and its
reason, then previews how the best-matching dialect classifies the
sampled lines. Lines that fall back to the degraded path are called
out with their recorded parsing issue.

Use this when 'sqlog detect' reports no compatible dialect or a lower
confidence than expected.

Example:
  sqlog diagnose app.zlg
  sqlog diagnose --show 20 app.zlg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(cmd, args, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", registry.DefaultSampleSize, "Number of lines to sample")
	cmd.Flags().IntVar(&opts.ShowLines, "show", 10, "Number of sampled lines to preview")

	return cmd
}

func runDiagnose(cmd *cobra.Command, args []string, opts *DiagnoseOptions) error {
	logFile := args[0]

	sample, err := sampleLines(logFile, opts.SampleSize)
	if err != nil {
		return fmt.Errorf("sampling %s: %w", logFile, err)
	}

	fmt.Println("=== Detection Diagnosis ===")
	fmt.Println()
	fmt.Printf("File: %s\n", logFile)
	fmt.Printf("Lines sampled: %d\n", len(sample))
	fmt.Println()

	if len(sample) == 0 {
		fmt.Println("The file has no non-empty lines to sample.")
		return nil
	}

	reg := registry.Default(registry.WithSampleSize(opts.SampleSize))

	best := scoreDialects(reg, logFile, sample)

	if best == nil {
		fmt.Println("No dialect claims this file. The preview below uses the")
		fmt.Println("highest-priority registered dialect.")
		fmt.Println()
		if names := reg.Names(); len(names) > 0 {
			best, _ = reg.Lookup(names[0])
		}
	}

	if best != nil {
		previewClassification(best, sample, opts.ShowLines)
		printTypeHistogram(best, sample)
	}

	return nil
}

// scoreDialects prints every dialect's self-assessment and returns the
// best-scoring one, or nil when none can parse the file.
func scoreDialects(reg *registry.Registry, logFile string, sample []string) parser.Dialect {
	fmt.Println("--- Dialect scores ---")

	var best parser.Dialect
	bestConfidence := -1.0

	for _, name := range reg.Names() {
		dialect, ok := reg.Lookup(name)
		if !ok {
			continue
		}

		result := dialect.DetectFormat(logFile, sample)
		status := "no"
		if result.CanParse {
			status = fmt.Sprintf("yes (%.0f%%)", result.Confidence*100)
		}
		fmt.Printf("  %-16s can parse: %-10s %s\n", name, status, result.Reason)

		if result.CanParse && result.Confidence > bestConfidence {
			best = dialect
			bestConfidence = result.Confidence
		}
	}
	fmt.Println()

	return best
}

// previewClassification shows how the dialect handles the first sampled
// lines.
func previewClassification(dialect parser.Dialect, sample []string, limit int) {
	fmt.Printf("--- Line preview (%s) ---\n", dialect.Name())

	opts := parser.DefaultOptions()
	shown := 0
	fallbacks := 0

	for i, line := range sample {
		if shown >= limit {
			break
		}

		entry := dialect.ParseLine(line, i+1, opts)
		if entry == nil {
			continue
		}
		shown++

		if entry.HasIssues() {
			fallbacks++
			fmt.Printf("  %3d FALLBACK %s\n", i+1, truncate(line, 70))
			fmt.Printf("      issue: %s\n", entry.ParsingIssues[0])
			continue
		}

		fmt.Printf("  %3d %-11s %-8s %s\n", i+1, entry.Type, entry.Severity, truncate(entry.Message, 60))
	}

	fmt.Println()
	if fallbacks > 0 {
		fmt.Printf("%d of %d previewed lines did not match the structural pattern.\n", fallbacks, shown)
		fmt.Println("Those lines are still emitted, with a parsing issue recorded,")
		fmt.Println("but they are excluded from the parsed-line count.")
	} else {
		fmt.Println("All previewed lines match the structural pattern.")
	}
}

// printTypeHistogram classifies the whole sample and prints the count
// per message type.
func printTypeHistogram(dialect parser.Dialect, sample []string) {
	opts := parser.DefaultOptions()
	counts := make(map[parser.MessageType]int)
	var order []parser.MessageType

	for i, line := range sample {
		entry := dialect.ParseLine(line, i+1, opts)
		if entry == nil {
			continue
		}
		if counts[entry.Type] == 0 {
			order = append(order, entry.Type)
		}
		counts[entry.Type]++
	}

	fmt.Println("--- Message types in sample ---")
	for _, mt := range order {
		fmt.Printf("  %-12s %d\n", mt, counts[mt])
	}
	fmt.Println()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// sampleLines reads up to n non-empty leading lines from a file.
func sampleLines(path string, n int) ([]string, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() && len(lines) < n {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}
