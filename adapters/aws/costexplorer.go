package aws

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"aws-cost/core/types"
	"aws-cost/core/usagetype"
	"aws-cost/internal/logging"
)

// costMetric is the metric every query reads
const costMetric = "BlendedCost"

// breakdownSize is how many services a daily breakdown names
const breakdownSize = 3

// forecastConfidence is the prediction interval requested from the API
const forecastConfidence int32 = 80

// CostExplorer implements ports.CostDataPort
type CostExplorer struct {
	client  CostExplorerAPI
	timeout time.Duration
	logger  *zap.Logger
}

// NewCostExplorer creates the cost data adapter
func NewCostExplorer(client CostExplorerAPI, timeout time.Duration) *CostExplorer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CostExplorer{
		client:  client,
		timeout: timeout,
		logger:  logging.Named("costexplorer"),
	}
}

// costQuery describes one GetCostAndUsage request
type costQuery struct {
	period      types.DateRange
	granularity cetypes.Granularity
	groupBy     cetypes.Dimension
	service     string
}

// run pages through GetCostAndUsage and returns every result window
func (c *CostExplorer) run(ctx context.Context, q costQuery) ([]cetypes.ResultByTime, error) {
	in := &costexplorer.GetCostAndUsageInput{
		TimePeriod: &cetypes.DateInterval{
			Start: awssdk.String(q.period.Start),
			End:   awssdk.String(q.period.End),
		},
		Granularity: q.granularity,
		Metrics:     []string{costMetric},
	}
	if q.groupBy != "" {
		in.GroupBy = []cetypes.GroupDefinition{{
			Type: cetypes.GroupDefinitionTypeDimension,
			Key:  awssdk.String(string(q.groupBy)),
		}}
	}
	if q.service != "" {
		in.Filter = &cetypes.Expression{
			Dimensions: &cetypes.DimensionValues{
				Key:    cetypes.DimensionService,
				Values: []string{q.service},
			},
		}
	}

	var results []cetypes.ResultByTime
	for {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		out, err := c.client.GetCostAndUsage(callCtx, in)
		cancel()
		if err != nil {
			return nil, Classify("GetCostAndUsage", err)
		}
		results = append(results, out.ResultsByTime...)
		if out.NextPageToken == nil || *out.NextPageToken == "" {
			break
		}
		in.NextPageToken = out.NextPageToken
	}

	c.logger.Debug("cost query",
		zap.String("group_by", string(q.groupBy)),
		zap.String("granularity", string(q.granularity)),
		zap.Int("windows", len(results)))
	return results, nil
}

// grouped sums each group key across all result windows, in first-seen order
func grouped(results []cetypes.ResultByTime) ([]string, map[string]decimal.Decimal, types.Currency) {
	var order []string
	totals := make(map[string]decimal.Decimal)
	currency := types.CurrencyUSD

	for _, r := range results {
		for _, g := range r.Groups {
			if len(g.Keys) == 0 {
				continue
			}
			key := g.Keys[0]
			amount, unit := metricAmount(g.Metrics)
			if unit != "" {
				currency = types.Currency(unit)
			}
			if _, seen := totals[key]; !seen {
				order = append(order, key)
			}
			totals[key] = totals[key].Add(amount)
		}
	}
	return order, totals, currency
}

func metricAmount(metrics map[string]cetypes.MetricValue) (decimal.Decimal, string) {
	m, ok := metrics[costMetric]
	if !ok || m.Amount == nil {
		return decimal.Zero, ""
	}
	amount, err := decimal.NewFromString(*m.Amount)
	if err != nil {
		return decimal.Zero, ""
	}
	return amount, awssdk.ToString(m.Unit)
}

func (c *CostExplorer) lineItems(ctx context.Context, period types.DateRange, dim cetypes.Dimension) ([]types.CostLineItem, error) {
	results, err := c.run(ctx, costQuery{period: period, granularity: cetypes.GranularityMonthly, groupBy: dim})
	if err != nil {
		return nil, err
	}
	order, totals, currency := grouped(results)
	items := make([]types.CostLineItem, 0, len(order))
	for _, key := range order {
		items = append(items, types.CostLineItem{
			Period:   period,
			Service:  key,
			Amount:   totals[key],
			Currency: currency,
		})
	}
	return items, nil
}

// ServiceCosts returns cost per SERVICE over the period
func (c *CostExplorer) ServiceCosts(ctx context.Context, period types.DateRange) ([]types.CostLineItem, error) {
	return c.lineItems(ctx, period, cetypes.DimensionService)
}

// RecordTypeCosts returns cost per RECORD_TYPE over the period
func (c *CostExplorer) RecordTypeCosts(ctx context.Context, period types.DateRange) ([]types.CostLineItem, error) {
	return c.lineItems(ctx, period, cetypes.DimensionRecordType)
}

// DailyCosts returns per-day totals, each with the top services named
func (c *CostExplorer) DailyCosts(ctx context.Context, period types.DateRange) ([]types.DailyCost, error) {
	totals, err := c.run(ctx, costQuery{period: period, granularity: cetypes.GranularityDaily})
	if err != nil {
		return nil, err
	}
	byService, err := c.run(ctx, costQuery{period: period, granularity: cetypes.GranularityDaily, groupBy: cetypes.DimensionService})
	if err != nil {
		return nil, err
	}

	breakdowns := make(map[string]string, len(byService))
	for _, r := range byService {
		if r.TimePeriod == nil {
			continue
		}
		breakdowns[awssdk.ToString(r.TimePeriod.Start)] = Breakdown(r.Groups)
	}

	daily := make([]types.DailyCost, 0, len(totals))
	for _, r := range totals {
		if r.TimePeriod == nil {
			continue
		}
		date := awssdk.ToString(r.TimePeriod.Start)
		amount, _ := metricAmount(r.Total)
		breakdown, ok := breakdowns[date]
		if !ok {
			breakdown = "AWS Services"
		}
		daily = append(daily, types.DailyCost{Date: date, Amount: amount, Breakdown: breakdown})
	}
	return daily, nil
}

// Breakdown names the top three positive services of a day as
// "Name ($x.xx)", followed by ", +N more" when there are others
func Breakdown(groups []cetypes.Group) string {
	type svc struct {
		name   string
		amount decimal.Decimal
	}
	var services []svc
	for _, g := range groups {
		if len(g.Keys) == 0 {
			continue
		}
		amount, _ := metricAmount(g.Metrics)
		if amount.IsPositive() {
			services = append(services, svc{g.Keys[0], amount})
		}
	}
	if len(services) == 0 {
		return "No significant costs"
	}
	sort.SliceStable(services, func(i, j int) bool {
		return services[i].amount.GreaterThan(services[j].amount)
	})

	parts := make([]string, 0, breakdownSize)
	for i, s := range services {
		if i == breakdownSize {
			break
		}
		parts = append(parts, fmt.Sprintf("%s ($%s)", s.name, s.amount.StringFixed(2)))
	}
	out := strings.Join(parts, ", ")
	if extra := len(services) - breakdownSize; extra > 0 {
		out += fmt.Sprintf(", +%d more", extra)
	}
	return out
}

// UsageTypeCosts returns USAGE_TYPE groups for one service
func (c *CostExplorer) UsageTypeCosts(ctx context.Context, period types.DateRange, service string) ([]types.UsageCost, error) {
	results, err := c.run(ctx, costQuery{
		period:      period,
		granularity: cetypes.GranularityMonthly,
		groupBy:     cetypes.DimensionUsageType,
		service:     service,
	})
	if err != nil {
		return nil, err
	}
	order, totals, _ := grouped(results)
	out := make([]types.UsageCost, 0, len(order))
	for _, key := range order {
		out = append(out, types.UsageCost{UsageType: key, Amount: totals[key]})
	}
	return out, nil
}

// RegionCosts returns REGION groups, optionally filtered to one service.
// Billing region labels are converted to region codes.
func (c *CostExplorer) RegionCosts(ctx context.Context, period types.DateRange, service string) ([]types.RegionCost, error) {
	results, err := c.run(ctx, costQuery{
		period:      period,
		granularity: cetypes.GranularityMonthly,
		groupBy:     cetypes.DimensionRegion,
		service:     service,
	})
	if err != nil {
		return nil, err
	}
	order, totals, _ := grouped(results)
	out := make([]types.RegionCost, 0, len(order))
	for _, key := range order {
		out = append(out, types.RegionCost{Region: usagetype.RegionForBillingName(key), Amount: totals[key]})
	}
	return out, nil
}

// Forecast returns the blended-cost forecast for the period
func (c *CostExplorer) Forecast(ctx context.Context, period types.DateRange) (*types.Forecast, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.client.GetCostForecast(callCtx, &costexplorer.GetCostForecastInput{
		TimePeriod: &cetypes.DateInterval{
			Start: awssdk.String(period.Start),
			End:   awssdk.String(period.End),
		},
		Granularity:             cetypes.GranularityMonthly,
		Metric:                  cetypes.MetricBlendedCost,
		PredictionIntervalLevel: awssdk.Int32(forecastConfidence),
	})
	if err != nil {
		return nil, Classify("GetCostForecast", err)
	}

	f := &types.Forecast{Period: period}
	if out.Total != nil && out.Total.Amount != nil {
		if mean, err := decimal.NewFromString(*out.Total.Amount); err == nil {
			f.Mean = mean
		}
	}
	for _, r := range out.ForecastResultsByTime {
		f.Lower = f.Lower.Add(parseAmount(r.PredictionIntervalLowerBound))
		f.Upper = f.Upper.Add(parseAmount(r.PredictionIntervalUpperBound))
	}
	return f, nil
}

func parseAmount(s *string) decimal.Decimal {
	if s == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
