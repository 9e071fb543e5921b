package aws

import (
	"context"
	"sort"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"aws-cost/core/ports"
	"aws-cost/core/types"
	"aws-cost/core/usagetype"
	"aws-cost/internal/logging"
)

// activeThreshold is the regional spend above which a region counts as active
var activeThreshold = decimal.RequireFromString("0.01")

// RegionSource implements ports.RegionSource
type RegionSource struct {
	fixed    []string
	ec2      EC2API
	costs    ports.CostDataPort
	daysBack int
	now      func() time.Time
	logger   *zap.Logger
}

// NewRegionSource lists regions from EC2. A non-empty fixed list wins.
func NewRegionSource(client EC2API, fixed []string) *RegionSource {
	return &RegionSource{fixed: fixed, ec2: client, now: time.Now, logger: logging.Named("regions")}
}

// WithActivity narrows discovery to regions billed over the last daysBack
// days, plus the common regions. The window is computed on every call.
func (r *RegionSource) WithActivity(costs ports.CostDataPort, daysBack int) *RegionSource {
	r.costs = costs
	r.daysBack = daysBack
	return r
}

// Regions returns the regions to scan, sorted. Discovery failures fall
// back to the common regions.
func (r *RegionSource) Regions(ctx context.Context) ([]string, error) {
	if len(r.fixed) > 0 {
		return lo.Uniq(r.fixed), nil
	}
	if r.costs != nil {
		active, err := r.ActiveRegions(ctx)
		if err == nil {
			return active, nil
		}
		r.logger.Warn("active region lookup failed", zap.Error(err))
	}
	if r.ec2 == nil {
		return append([]string(nil), usagetype.CommonRegions...), nil
	}

	out, err := r.ec2.DescribeRegions(ctx, &ec2.DescribeRegionsInput{})
	if err != nil {
		r.logger.Warn("region discovery failed, using common regions", zap.Error(Classify("DescribeRegions", err)))
		return append([]string(nil), usagetype.CommonRegions...), nil
	}
	regions := make([]string, 0, len(out.Regions))
	for _, reg := range out.Regions {
		if name := awssdk.ToString(reg.RegionName); name != "" {
			regions = append(regions, name)
		}
	}
	sort.Strings(regions)
	return regions, nil
}

// ActiveRegions returns regions with spend above one cent, plus the common regions
func (r *RegionSource) ActiveRegions(ctx context.Context) ([]string, error) {
	costs, err := r.costs.RegionCosts(ctx, types.LastDays(r.now(), r.daysBack), "")
	if err != nil {
		return nil, err
	}
	billed := lo.FilterMap(costs, func(c types.RegionCost, _ int) (string, bool) {
		return c.Region, c.Amount.GreaterThan(activeThreshold) && isRegional(c.Region)
	})
	regions := lo.Uniq(append(billed, usagetype.CommonRegions...))
	sort.Strings(regions)
	return regions, nil
}

func isRegional(region string) bool {
	switch region {
	case "", "global", "NoRegion", "Global":
		return false
	}
	return true
}
