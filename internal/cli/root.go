package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pgload",
	Short: "Config-driven bulk CSV import for PostgreSQL",
	Long: asciiLogo + `

pgload streams delimited files into PostgreSQL through unlogged staging
tables and merges them into their targets with a single set-based upsert.
File-to-table mapping, keys, encodings, and delimiters live in pgload.yaml;
a failing file never takes the rest of the batch down with it.

Exit Codes:
  0  - Success
  1  - General error (some files failed)
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or parameters
  11 - Database connection failed
  12 - Import failed (no file succeeded)`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	// Free up -h for --host on subcommands; --help still works.
	rootCmd.PersistentFlags().Bool("help", false, "Help for pgload")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
