package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vvka-141/reviewseed/internal/generator"
	"github.com/vvka-141/reviewseed/pkg/reviewseed"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Print generated reviews without touching a database",
	Long: `Generate prints sample reviews to stdout as YAML or JSON.

Nothing is written to a database. Use it to preview what load would insert,
or with --seed to produce a reproducible fixture.

Examples:
  reviewseed generate -n 5
  reviewseed generate -n 100 --format json --seed 42 > reviews.json`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

type generateFlagValues struct {
	bank        string
	count       int
	format      string
	descriptors string
	seed        uint64
}

var generateFlags generateFlagValues

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&generateFlags.bank, "bank", reviewseed.DefaultBankName,
		"Bank name the reviews are written for")
	generateCmd.Flags().IntVarP(&generateFlags.count, "count", "n", 10,
		"Number of reviews to generate")
	generateCmd.Flags().StringVar(&generateFlags.format, "format", "yaml",
		"Output format: yaml|json")
	generateCmd.Flags().StringVar(&generateFlags.descriptors, "descriptors", string(reviewseed.DescriptorMatched),
		"How the review text relates to its sentiment: matched|independent")
	generateCmd.Flags().Uint64Var(&generateFlags.seed, "seed", 0,
		"Seed for reproducible review content")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if generateFlags.count < 0 {
		return fmt.Errorf("--count cannot be negative (got %d): %w", generateFlags.count, reviewseed.ErrInvalidConfig)
	}
	if generateFlags.bank == "" {
		return fmt.Errorf("--bank cannot be empty: %w", reviewseed.ErrInvalidConfig)
	}
	mode := reviewseed.DescriptorMode(generateFlags.descriptors)
	if !mode.IsValid() {
		return fmt.Errorf("unknown descriptor mode %q: %w", mode, reviewseed.ErrInvalidConfig)
	}

	opts := []generator.Option{generator.WithDescriptors(mode)}
	if cmd.Flags().Changed("seed") {
		opts = append(opts, generator.WithSeed(generateFlags.seed))
	}
	reviews := generator.New(opts...).Generate(generateFlags.count, generateFlags.bank)

	return writeReviews(os.Stdout, reviews, generateFlags.format)
}

// writeReviews encodes reviews in the requested format.
func writeReviews(w io.Writer, reviews []reviewseed.Review, format string) error {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(reviews); err != nil {
			return fmt.Errorf("failed to encode reviews: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reviews); err != nil {
			return fmt.Errorf("failed to encode reviews: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q (expected yaml or json): %w", format, reviewseed.ErrInvalidConfig)
	}
}
