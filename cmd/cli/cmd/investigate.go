package cmd

import (
	"github.com/spf13/cobra"
)

// investigateCmd explains what is generating a service's charges
var investigateCmd = &cobra.Command{
	Use:   "investigate SERVICE",
	Short: "Find the resources behind a service's charges",
	Long: `Break the service's bill down by usage type and region, scan those regions
for live resources, check the audit log for recent deletions and print
likely causes with console links.

Examples:
  aws-cost investigate "Amazon OpenSearch Service"
  aws-cost investigate "AWS Lambda" --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := printer()
		if err != nil {
			return err
		}
		a, done, err := setup(cmd)
		if err != nil {
			return err
		}
		defer done()

		findings, err := a.Detective.Investigate(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return p.Investigation(findings)
	},
}
