package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/reviewseed/internal/logging"
	"github.com/vvka-141/reviewseed/internal/tui"
	"github.com/vvka-141/reviewseed/pkg/reviewseed"
)

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of rows in the Reviews table",
	Long: `Count connects and prints the Reviews row count.

With --bank, the bank's own review count is printed as well.

Examples:
  reviewseed count -d reviews
  reviewseed count -d reviews --bank "Commercial Bank of Ethiopia"`,
	Args: cobra.NoArgs,
	RunE: runCount,
}

type countFlagValues struct {
	connectionFlags
	bank    string
	timeout time.Duration
}

var countFlags countFlagValues

func init() {
	rootCmd.AddCommand(countCmd)
	registerCountFlags(countCmd, &countFlags)
}

func registerCountFlags(cmd *cobra.Command, f *countFlagValues) {
	addConnectionFlags(cmd, &f.connectionFlags)

	cmd.Flags().StringVar(&f.bank, "bank", "",
		"Also count the reviews of this bank (exact name)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", time.Minute,
		"Catastrophic failure protection timeout")
}

func buildCountConfig(cmd *cobra.Command, verbose bool) (reviewseed.CountConfig, time.Duration, error) {
	projectCfg, err := loadProjectConfig(countFlags.configPath)
	if err != nil {
		return reviewseed.CountConfig{}, 0, err
	}

	connConfig, err := resolveConnectionFromFlags(countFlags.connectionFlags, projectCfg, verbose)
	if err != nil {
		return reviewseed.CountConfig{}, 0, err
	}

	timeout, err := resolveEffectiveTimeout(cmd, projectCfg, countFlags.timeout)
	if err != nil {
		return reviewseed.CountConfig{}, 0, err
	}

	return reviewseed.CountConfig{Connection: connConfig, BankName: countFlags.bank}, timeout, nil
}

func runCount(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)

	cfg, timeout, err := buildCountConfig(cmd, verbose)
	if err != nil {
		return err
	}

	logger := logging.NewConsoleLogger(verbose)
	loader := newLoadService(cmd, logger)

	ctx, cancel := commandContext(timeout, "count")
	defer cancel()

	result, err := loader.Count(ctx, cfg)
	if err != nil {
		return fmt.Errorf("count failed: %w", err)
	}

	tui.WriteCountSummary(os.Stdout, result, tui.StdoutStyled())
	return nil
}
