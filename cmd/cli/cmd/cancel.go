package cmd

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"aws-cost/core/cancellation"
	apperrors "aws-cost/internal/errors"
)

var errCancelFailed = errors.New("cancellation did not succeed")

var (
	cancelResourceID string
	cancelRegion     string
	cancelCost       string
	cancelConfirmed  bool
)

// cancelCmd shuts down the resource behind a billed service
var cancelCmd = &cobra.Command{
	Use:   "cancel SERVICE",
	Short: "Cancel a service or delete one of its resources",
	Long: `Dispatch a cancellation for a billed service name. Without --resource-id
the matching resources in the region are listed instead of deleted.
Services without an API (Marketplace subscriptions, Skill Builder) get a
console link and instructions. Once canceled in the console, rerun with
--confirm-manual to record it in the ledger.

Examples:
  aws-cost cancel "Amazon OpenSearch Service" --region us-west-2
  aws-cost cancel "AWS Lambda" --resource-id my-function --region us-east-1 --cost 12.40
  aws-cost cancel "AWS Skill Builder" --cost 29 --confirm-manual`,
	Args: cobra.ExactArgs(1),
	RunE: runCancel,
}

func init() {
	cancelCmd.Flags().StringVar(&cancelResourceID, "resource-id", "", "resource to delete (lists resources when empty)")
	cancelCmd.Flags().StringVarP(&cancelRegion, "region", "r", "", "AWS region of the resource")
	cancelCmd.Flags().StringVar(&cancelCost, "cost", "0", "cost recorded in the ledger, in USD")
	cancelCmd.Flags().BoolVar(&cancelConfirmed, "confirm-manual", false, "record a console-only cancellation already made")
}

func runCancel(cmd *cobra.Command, args []string) error {
	p, err := printer()
	if err != nil {
		return err
	}
	cost, err := decimal.NewFromString(cancelCost)
	if err != nil {
		return apperrors.Input("--cost must be a number")
	}

	a, done, err := setup(cmd)
	if err != nil {
		return err
	}
	defer done()

	result, err := a.Dispatcher.Cancel(cmd.Context(), cancellation.Request{
		Service:    args[0],
		ResourceID: cancelResourceID,
		Region:     cancelRegion,
		Cost:       cost,
		Confirmed:  cancelConfirmed,
	})
	if err != nil && result.Message == "" {
		return err
	}
	if perr := p.Cancel(result); perr != nil {
		return perr
	}
	if err != nil {
		return err
	}
	if !result.Success {
		return errCancelFailed
	}
	return nil
}
