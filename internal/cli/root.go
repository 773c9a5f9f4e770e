package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "reviewseed",
	Short: "Seed a reviews table with synthetic bank reviews",
	Long: `reviewseed generates sample customer reviews for a bank and inserts them
into an existing Reviews table, all in one transaction.

The bank must already exist in the Banks table. reviewseed never creates
tables; it looks up bank_id by exact name, inserts the generated rows,
commits once, and reports the resulting row count.

Configuration is read from flags, the environment (a .env file is loaded
first), and reviewseed.yaml in the working directory, in that order.

Exit Codes:
  0  - Success
  1  - General error, or load interrupted (Ctrl+C, --timeout)
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or parameters
  11 - Database connection failed
  13 - A review could not be inserted (nothing was committed)
  15 - Bank not found in the Banks table`,
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
	// -h is taken by --host, as in psql
	rootCmd.PersistentFlags().Bool("help", false, "Help for reviewseed")
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
