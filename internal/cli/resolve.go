package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pgload/internal/resolve"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <files_or_dirs...>",
	Short: "Show which table each file would be imported into",
	Long: `Resolve runs only the filename-to-table resolution and prints the result,
without touching the database. Useful for checking a pgload.yaml before an
import run.

Examples:
  pgload resolve ./incoming
  pgload resolve IxExpKonto.csv --config ./etl/pgload.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

var resolveConfigPath string

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().StringVar(&resolveConfigPath, "config", "",
		"Path to pgload.yaml (default: ./pgload.yaml, then each directory argument)")
}

func runResolve(cmd *cobra.Command, args []string) error {
	projectCfg, err := locateConfig(resolveConfigPath, args)
	if err != nil {
		return err
	}
	if err := projectCfg.Validate(); err != nil {
		return err
	}

	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no input files found under %v", args)
	}

	rules := projectCfg.ToResolutionRules()
	failures := 0

	for _, path := range files {
		filename := filepath.Base(path)

		spec, err := resolve.Resolve(filename, rules)
		switch {
		case err != nil:
			fmt.Fprintf(os.Stderr, "  ERROR   %-30s %v\n", filename, err)
			failures++
		case spec == nil:
			fmt.Printf("  skip    %-30s (no match)\n", filename)
		default:
			rebuild := ""
			if spec.Rebuild {
				rebuild = "  [rebuild]"
			}
			fmt.Printf("  %-38s -> %s.%s  key(%s)%s\n",
				filename, spec.SchemaName(), spec.TargetTable,
				strings.Join(spec.PrimaryKey, ", "), rebuild)
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d file(s) failed to resolve", failures)
	}
	return nil
}
