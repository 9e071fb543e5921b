package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"aws-cost/core/scanner"
	"aws-cost/core/types"
	apperrors "aws-cost/internal/errors"
)

var (
	scanTypes   []string
	scanRegions []string
)

// scanCmd enumerates live resources across regions
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List live resources across regions",
	Long: `Enumerate resources of each supported type in every region. Regions come
from --regions, the config file, billed activity, or EC2 discovery, in
that order.

Supported types: ` + typeList() + `

Examples:
  aws-cost scan
  aws-cost scan --type opensearch:domain --regions us-east-1,eu-west-1`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringSliceVarP(&scanTypes, "type", "t", nil, "resource types to scan (default all)")
	scanCmd.Flags().StringSliceVar(&scanRegions, "regions", nil, "regions to scan")
}

func typeList() string {
	all := types.AllResourceTypes()
	names := make([]string, len(all))
	for i, t := range all {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}

func runScan(cmd *cobra.Command, args []string) error {
	p, err := printer()
	if err != nil {
		return err
	}
	for _, t := range scanTypes {
		if !types.ResourceType(t).IsValid() {
			return apperrors.Newf(apperrors.TypeInput, "unknown resource type %q (supported: %s)", t, typeList())
		}
	}

	a, done, err := setup(cmd)
	if err != nil {
		return err
	}
	defer done()

	ctx := cmd.Context()
	regions := scanRegions
	if len(regions) == 0 {
		if regions, err = a.Regions.Regions(ctx); err != nil {
			return err
		}
	}

	if len(scanTypes) == 0 {
		return p.Scan(a.Scanner.ScanAll(ctx, regions))
	}
	results := make([]*scanner.ScanResult, 0, len(scanTypes))
	for _, t := range scanTypes {
		res, err := a.Scanner.Scan(ctx, types.ResourceType(t), regions)
		if err != nil {
			return err
		}
		results = append(results, res)
	}
	return p.Scan(results)
}
