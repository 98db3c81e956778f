package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mfreitas/sqlog/pkg/registry"
)

// NewFormatsCommand creates the formats command.
func NewFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List registered log dialects",
		Long: `List the registered log dialects in priority order, with the file
extensions each one supports.`,
		RunE: runFormats,
	}
}

func runFormats(cmd *cobra.Command, args []string) error {
	reg := registry.Default()

	fmt.Println("Registered dialects (priority order):")
	for i, name := range reg.Names() {
		dialect, ok := reg.Lookup(name)
		if !ok {
			continue
		}
		fmt.Printf("  %d. %-16s extensions: %s\n",
			i+1, name, strings.Join(dialect.SupportedExtensions(), ", "))
	}

	stats := reg.Stats()
	if len(stats) == 0 {
		return nil
	}

	exts := make([]string, 0, len(stats))
	for ext := range stats {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	fmt.Println()
	fmt.Println("Dialects per extension:")
	for _, ext := range exts {
		fmt.Printf("  %-8s %d\n", ext, stats[ext])
	}

	return nil
}
