package cmd

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"aws-cost/internal/config"
	apperrors "aws-cost/internal/errors"
)

var (
	analyzeThreshold float64
	analyzeDays      int
)

// analyzeCmd lists the services above a cost threshold
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "List services whose spend exceeds a threshold",
	Long: `Fetch per-service costs for the window and print those above the
threshold, most expensive first, with their cancellation status.

Examples:
  aws-cost analyze
  aws-cost analyze --threshold 50 --days 7
  aws-cost analyze --format json`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Float64Var(&analyzeThreshold, "threshold", -1, "minimum cost in USD (default from config)")
	analyzeCmd.Flags().IntVar(&analyzeDays, "days", 0, "days of billing history (default from config)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	p, err := printer()
	if err != nil {
		return err
	}

	cfg := config.Get()
	threshold := cfg.Report.Threshold
	if cmd.Flags().Changed("threshold") {
		if analyzeThreshold < 0 {
			return apperrors.Input("--threshold must not be negative")
		}
		threshold = analyzeThreshold
	}
	days := analyzeDays
	if days <= 0 {
		days = cfg.Report.DaysBack
	}

	a, done, err := setup(cmd)
	if err != nil {
		return err
	}
	defer done()

	cutoff := decimal.NewFromFloat(threshold)
	entries, err := a.Analysis.AnalyzeCosts(cmd.Context(), cutoff, days)
	if err != nil {
		return err
	}
	return p.Services(entries, cutoff)
}
