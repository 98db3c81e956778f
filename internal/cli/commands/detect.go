package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mfreitas/sqlog/pkg/parser"
	"github.com/mfreitas/sqlog/pkg/registry"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	Output     string
	SampleSize int
}

// NewDetectCommand creates the detect command.
func NewDetectCommand() *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <log-file>",
		Short: "Detect the log dialect of a file",
		Long: `Analyze a log file to determine which registered dialect it belongs to.

Samples the file's leading lines and asks every registered dialect to
self-assess. Reports the best match with its confidence score; the
file extension is a weak prior, the content structure is the strong
signal.

Example:
  sqlog detect app.zlg
  sqlog detect --sample 200 big.zlg
  sqlog detect -o json app.zlg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", registry.DefaultSampleSize, "Number of lines to sample")

	return cmd
}

func runDetect(cmd *cobra.Command, args []string, opts *DetectOptions) error {
	logFile := args[0]

	// Check file exists
	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		return fmt.Errorf("log file not found: %s", logFile)
	}

	reg := registry.Default(registry.WithSampleSize(opts.SampleSize))

	result, err := reg.DetectFormat(logFile)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	switch opts.Output {
	case "json":
		return outputDetectJSON(result, logFile)
	default:
		return outputDetectText(result, logFile)
	}
}

func outputDetectText(result parser.DetectionResult, logFile string) error {
	fmt.Println("=== Dialect Detection ===")
	fmt.Println()
	fmt.Printf("File: %s\n", logFile)
	fmt.Println()

	if !result.CanParse {
		fmt.Println("No compatible dialect detected.")
		if result.Reason != "" {
			fmt.Printf("Reason: %s\n", result.Reason)
		}
		fmt.Println()
		fmt.Println("Tip: check the first few lines manually, or run 'sqlog diagnose'")
		fmt.Println("to see how each dialect scored the sample.")
		return nil
	}

	fmt.Printf("Detected dialect: %s\n", result.Format)
	fmt.Printf("Confidence: %.0f%%\n", result.Confidence*100)
	if result.Reason != "" {
		fmt.Printf("Reason: %s\n", result.Reason)
	}

	return nil
}

// detectJSON is the JSON output shape of the detect command.
type detectJSON struct {
	File       string  `json:"file"`
	CanParse   bool    `json:"can_parse"`
	Format     string  `json:"format,omitempty"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

func outputDetectJSON(result parser.DetectionResult, logFile string) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(detectJSON{
		File:       logFile,
		CanParse:   result.CanParse,
		Format:     result.Format,
		Confidence: result.Confidence,
		Reason:     result.Reason,
	})
}
