package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mfreitas/sqlog/pkg/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a sqlog configuration file without parsing anything.

Checks:
  - YAML syntax
  - base_date format
  - Numeric option ranges
  - Filter types, fields, and regex pattern validity`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	fmt.Printf("Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Printf("\nConfiguration valid!\n")
	fmt.Printf("  Encoding:   %s\n", cfg.Encoding)
	if cfg.BaseDate != "" {
		fmt.Printf("  Base date:  %s\n", cfg.BaseDate)
	}
	if cfg.SlowQueryThreshold > 0 {
		fmt.Printf("  Slow query: %.3fs\n", cfg.SlowQueryThreshold)
	}
	if cfg.MaxLines > 0 {
		fmt.Printf("  Max lines:  %d\n", cfg.MaxLines)
	}
	fmt.Printf("  Filters:    %d\n", len(cfg.Filters))

	for i, f := range cfg.Filters {
		kind := "literal"
		if f.Regex {
			kind = "regex"
		}
		fmt.Printf("    %d. [%s] %s %s %q\n", i+1, f.Type, f.Field, kind, f.Pattern)
	}

	return nil
}
