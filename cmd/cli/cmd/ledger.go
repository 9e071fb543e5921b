package cmd

import (
	"github.com/spf13/cobra"

	"aws-cost/adapters/storage"
	"aws-cost/internal/config"
)

// ledgerCmd prints recorded cancellations; it needs no AWS credentials
var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Show the cancellation ledger",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := printer()
		if err != nil {
			return err
		}
		records, err := storage.NewFileLedger(config.Get().Ledger.Path).Load(cmd.Context())
		if err != nil {
			return err
		}
		return p.Ledger(records)
	},
}
