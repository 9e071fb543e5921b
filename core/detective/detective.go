// Package detective explains where a service's charges come from.
//
// It combines three signals: the usage-type breakdown from the bill, live
// resources found by the scanner, and audit-log events for recent deletions.
// The result is a set of findings plus direct console links.
package detective

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"aws-cost/core/cache"
	"aws-cost/core/catalog"
	"aws-cost/core/ports"
	"aws-cost/core/scanner"
	"aws-cost/core/types"
	"aws-cost/core/usagetype"
	apperrors "aws-cost/internal/errors"
	"aws-cost/internal/logging"
)

// LookbackDays is the billing window investigated
const LookbackDays = 30

// ServerlessRegions are the regions checked for serverless collections
var ServerlessRegions = []string{"us-east-1", "us-east-2", "us-west-2", "eu-west-1", "eu-central-1"}

var minCost = decimal.RequireFromString("0.01")

// profile describes how to investigate one family of services
type profile struct {
	families    []catalog.Family
	short       string
	noun        string
	primary     types.ResourceType
	secondary   types.ResourceType
	deleteEvent string
	eventSource string
	supportCode string
}

var profiles = []profile{
	{
		families:    []catalog.Family{catalog.FamilyOpenSearch, catalog.FamilyOpenSearchServerless},
		short:       "OpenSearch",
		noun:        "OpenSearch domains",
		primary:     types.ResourceOpenSearchDomain,
		secondary:   types.ResourceOpenSearchCollection,
		deleteEvent: "DeleteDomain",
		eventSource: "es.amazonaws.com",
		supportCode: "amazon-opensearch-service",
	},
	{
		families:    []catalog.Family{catalog.FamilyLambda},
		short:       "Lambda",
		noun:        "Lambda functions",
		primary:     types.ResourceLambdaFunction,
		eventSource: "lambda.amazonaws.com",
		supportCode: "aws-lambda",
	},
	{
		families:    []catalog.Family{catalog.FamilyEC2},
		short:       "EC2",
		noun:        "EC2 instances",
		primary:     types.ResourceEC2Instance,
		deleteEvent: "TerminateInstances",
		eventSource: "ec2.amazonaws.com",
		supportCode: "amazon-elastic-compute-cloud-linux",
	},
}

func profileFor(service string) (profile, bool) {
	family := catalog.FamilyOf(service)
	return lo.Find(profiles, func(p profile) bool {
		return lo.Contains(p.families, family)
	})
}

// Supports reports whether service can be investigated
func Supports(service string) bool {
	_, ok := profileFor(service)
	return ok
}

// BillingData is the bill's view of one service
type BillingData struct {
	HasCharges bool               `json:"has_charges"`
	Total      decimal.Decimal    `json:"total"`
	Regions    []types.RegionCost `json:"regions_with_costs"`
	UsageTypes []types.UsageCost  `json:"usage_types"`
}

// Findings is the result of an investigation
type Findings struct {
	Service           string                 `json:"service"`
	Billing           *BillingData           `json:"billing_data,omitempty"`
	DetectedResources []types.ResourceRecord `json:"detected_resources"`
	PossibleCauses    []string               `json:"possible_causes"`
	Recommendations   []string               `json:"recommendations"`
	ConsoleLinks      []types.ConsoleAction  `json:"console_links"`
	Actions           []types.ConsoleAction  `json:"actions,omitempty"`
	Warnings          []string               `json:"warnings,omitempty"`
}

// BillingSource is the best direct link to whatever is generating a charge
type BillingSource struct {
	Service    string               `json:"service"`
	Resolution usagetype.Resolution `json:"resolution"`
	Resource   string               `json:"resource,omitempty"`
	Action     types.ConsoleAction  `json:"action"`
}

// Detective investigates charges using the bill, the scanner, and the audit log
type Detective struct {
	costData ports.CostDataPort
	scanner  *scanner.Scanner
	audit    ports.AuditPort
	regions  ports.RegionSource
	sources  *cache.ReadThrough[BillingSource]
	timeout  time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// Option configures a Detective
type Option func(*Detective)

// WithAudit enables audit-log lookups
func WithAudit(audit ports.AuditPort) Option {
	return func(d *Detective) { d.audit = audit }
}

// WithRegionSource sets the regions scanned besides the billed ones
func WithRegionSource(src ports.RegionSource) Option {
	return func(d *Detective) { d.regions = src }
}

// WithCache caches billing-source lookups in store
func WithCache(store cache.Store, ttl time.Duration) Option {
	return func(d *Detective) { d.sources = cache.NewReadThrough[BillingSource](store, ttl) }
}

// WithCallTimeout bounds single audit-log calls
func WithCallTimeout(timeout time.Duration) Option {
	return func(d *Detective) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(d *Detective) { d.now = now }
}

// New creates a detective
func New(costData ports.CostDataPort, scan *scanner.Scanner, opts ...Option) *Detective {
	d := &Detective{
		costData: costData,
		scanner:  scan,
		timeout:  scanner.DefaultCallTimeout,
		now:      time.Now,
		logger:   logging.Named("detective"),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.sources == nil {
		d.sources = cache.NewReadThrough[BillingSource](nil, cache.DefaultTTL)
	}
	return d
}

// Billing returns the bill's region and usage-type breakdown for service.
// Groups at or below $0.01 are dropped.
func (d *Detective) Billing(ctx context.Context, service string) (*BillingData, error) {
	period := types.LastDays(d.now(), LookbackDays)

	regions, err := d.costData.RegionCosts(ctx, period, service)
	if err != nil {
		return nil, err
	}
	usage, err := d.costData.UsageTypeCosts(ctx, period, service)
	if err != nil {
		return nil, err
	}

	data := &BillingData{
		Regions: lo.Filter(regions, func(r types.RegionCost, _ int) bool {
			return r.Amount.GreaterThan(minCost)
		}),
		UsageTypes: lo.Filter(usage, func(u types.UsageCost, _ int) bool {
			return u.Amount.GreaterThan(minCost)
		}),
	}
	for i := range data.Regions {
		data.Regions[i].Region = usagetype.RegionForBillingName(data.Regions[i].Region)
		data.Total = data.Total.Add(data.Regions[i].Amount)
	}
	data.HasCharges = data.Total.IsPositive()
	return data, nil
}

// LocateBillingSource resolves the region and billing model behind a service's
// charges and returns the most direct console link. Results are cached.
func (d *Detective) LocateBillingSource(ctx context.Context, service string) (*BillingSource, error) {
	src, err := d.sources.Get(ctx, "billing-source:"+service, func(ctx context.Context) (BillingSource, error) {
		return d.locate(ctx, service)
	})
	if err != nil {
		return nil, err
	}
	return &src, nil
}

func (d *Detective) locate(ctx context.Context, service string) (BillingSource, error) {
	period := types.LastDays(d.now(), LookbackDays)
	groups, err := d.costData.UsageTypeCosts(ctx, period, service)
	if err != nil {
		return BillingSource{}, err
	}

	res := usagetype.Resolve(groups, usagetype.DefaultRegion)
	src := BillingSource{Service: service, Resolution: res}
	region := res.Region

	p, ok := profileFor(service)
	if !ok {
		src.Action = types.ConsoleAction{
			Name:         fmt.Sprintf("%s charges in %s", service, region),
			URL:          catalog.CostExplorerURL(service),
			Instructions: "Group by usage type in Cost Explorer to find the resource behind the charge.",
		}
		return src, nil
	}

	if res.Serverless && p.secondary != "" {
		src.Action = types.ConsoleAction{
			Name:         fmt.Sprintf("DIRECT LINK: %s Serverless in %s", p.short, region),
			URL:          catalog.ResourceConsoleURL(region, p.secondary, ""),
			Instructions: fmt.Sprintf("Serverless collections in %s that are incurring charges.", region),
		}
		return src, nil
	}

	if name := d.recentResource(ctx, p, region); name != "" {
		src.Resource = name
		src.Action = types.ConsoleAction{
			Name:         fmt.Sprintf("DIRECT LINK: %s '%s' in %s", p.short, name, region),
			URL:          catalog.ResourceConsoleURL(region, p.primary, name),
			Instructions: fmt.Sprintf("The %s resource '%s' in %s, most recently seen in the audit log.", p.short, name, region),
		}
		return src, nil
	}

	src.Action = types.ConsoleAction{
		Name:         fmt.Sprintf("DIRECT LINK: %s in %s", p.noun, region),
		URL:          catalog.ResourceConsoleURL(region, p.primary, ""),
		Instructions: fmt.Sprintf("All %s in %s.", p.noun, region),
	}
	return src, nil
}

// recentResource returns the resource named by the newest audit event from
// the profile's event source, or "" when the audit log has nothing usable
func (d *Detective) recentResource(ctx context.Context, p profile, region string) string {
	if d.audit == nil || p.eventSource == "" {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	end := d.now()
	events, err := d.audit.LookupEvents(ctx, region, types.AuditQuery{
		EventSource: p.eventSource,
		Start:       end.Add(-scanner.DeletionLookback),
		End:         end,
		MaxResults:  10,
	})
	if err != nil {
		d.logger.Debug("audit lookup failed",
			zap.String("region", region),
			zap.String("kind", string(apperrors.TypeOf(err))),
			zap.Error(err))
		return ""
	}
	for _, ev := range events {
		if name := scanner.ResourceNameFromEvent(ev); name != "" {
			return name
		}
	}
	return ""
}

// scanRegions is the billed regions first, then the configured or common ones
func (d *Detective) scanRegions(ctx context.Context, billing *BillingData) []string {
	billed := lo.FilterMap(billing.Regions, func(r types.RegionCost, _ int) (string, bool) {
		return r.Region, r.Region != "" && r.Region != "global" && r.Region != "NoRegion"
	})

	extra := usagetype.CommonRegions
	if d.regions != nil {
		if regions, err := d.regions.Regions(ctx); err == nil && len(regions) > 0 {
			extra = regions
		} else if err != nil {
			d.logger.Debug("region discovery failed, using common regions", zap.Error(err))
		}
	}
	return lo.Uniq(append(billed, extra...))
}

// Candidates returns live resources of the service's types in regions
func (d *Detective) Candidates(ctx context.Context, service string, regions []string) ([]types.ResourceRecord, []string) {
	p, ok := profileFor(service)
	if !ok || d.scanner == nil {
		return nil, nil
	}
	var records []types.ResourceRecord
	var warnings []string
	for _, rt := range lo.Compact([]types.ResourceType{p.primary, p.secondary}) {
		res, err := d.scanner.Scan(ctx, rt, regions)
		if err != nil {
			warnings = append(warnings, err.Error())
			continue
		}
		records = append(records, res.Resources...)
		warnings = append(warnings, scanWarnings(res)...)
	}
	return records, warnings
}

func scanWarnings(res *scanner.ScanResult) []string {
	return lo.Map(res.Errors, func(e scanner.ScanError, _ int) string {
		return fmt.Sprintf("%s scan failed in %s: %s", res.Type, e.Region, e.Message)
	})
}

// Investigate gathers everything known about a service's charges.
// Cost query failures are returned; scan and audit failures become warnings.
func (d *Detective) Investigate(ctx context.Context, service string) (*Findings, error) {
	p, ok := profileFor(service)
	if !ok {
		return nil, apperrors.NotSupported("investigate " + service)
	}

	f := &Findings{
		Service:           service,
		DetectedResources: []types.ResourceRecord{},
		PossibleCauses:    []string{},
		Recommendations:   []string{},
		ConsoleLinks:      []types.ConsoleAction{},
	}

	billing, err := d.Billing(ctx, service)
	if err != nil {
		return nil, err
	}
	f.Billing = billing
	if !billing.HasCharges {
		f.PossibleCauses = append(f.PossibleCauses, fmt.Sprintf("No %s charges detected in the last %d days", p.short, LookbackDays))
		f.Recommendations = append(f.Recommendations, "Check Cost Explorer for a longer time period")
		f.Actions = hiddenResourceActions(p, f)
		return f, nil
	}

	regions := d.scanRegions(ctx, billing)
	var foundPrimary, foundSecondary, foundDeleted bool

	if d.scanner != nil {
		primary, err := d.scanner.Scan(ctx, p.primary, regions)
		if err == nil {
			f.Warnings = append(f.Warnings, scanWarnings(primary)...)
			foundPrimary = len(primary.Resources) > 0
			f.addResources(p, primary.Resources)
		}
		if !foundPrimary {
			f.PossibleCauses = append(f.PossibleCauses, fmt.Sprintf("No standard %s found", p.noun))
		}

		if p.secondary != "" {
			secondary, err := d.scanner.Scan(ctx, p.secondary, ServerlessRegions)
			if err == nil {
				f.Warnings = append(f.Warnings, scanWarnings(secondary)...)
				foundSecondary = len(secondary.Resources) > 0
				f.addResources(p, secondary.Resources)
			}
		}

		if p.deleteEvent != "" {
			deleted, err := d.scanner.RecentlyDeleted(ctx, p.deleteEvent, p.primary, regions)
			if err == nil {
				f.Warnings = append(f.Warnings, scanWarnings(deleted)...)
				if len(deleted.Resources) > 0 {
					foundDeleted = true
					f.PossibleCauses = append(f.PossibleCauses,
						fmt.Sprintf("Recently deleted %s resources (may still incur charges)", p.short))
					f.DetectedResources = append(f.DetectedResources, deleted.Resources...)
				}
			} else {
				d.logger.Debug("deletion lookup skipped", zap.Error(err))
			}
		}
	}

	if !foundPrimary && !foundSecondary && !foundDeleted {
		f.PossibleCauses = append(f.PossibleCauses, "Resources might exist in a different AWS account")
		f.Recommendations = append(f.Recommendations,
			"Check AWS Organizations for linked accounts",
			"Verify you're using the correct AWS credentials")
	}

	f.ConsoleLinks = append(f.ConsoleLinks,
		types.ConsoleAction{Name: fmt.Sprintf("AWS Cost Explorer (filtered for %s)", p.short), URL: catalog.CostExplorerURL(service)},
		types.ConsoleAction{Name: "AWS Bill Details (current month)", URL: catalog.FallbackConsolePath},
	)

	if len(f.DetectedResources) == 0 {
		f.Recommendations = append(f.Recommendations, "Contact AWS Support to investigate hidden charges")
		f.ConsoleLinks = append(f.ConsoleLinks, types.ConsoleAction{
			Name: "Create AWS Support Case",
			URL:  catalog.SupportCaseURL(p.supportCode),
		})
	}

	f.Actions = hiddenResourceActions(p, f)
	return f, nil
}

func (f *Findings) addResources(p profile, records []types.ResourceRecord) {
	for _, r := range records {
		f.DetectedResources = append(f.DetectedResources, r)
		label := p.noun
		if r.Type == types.ResourceOpenSearchCollection {
			label = "OpenSearch Serverless Collection"
		}
		f.ConsoleLinks = append(f.ConsoleLinks, types.ConsoleAction{
			Name: fmt.Sprintf("%s: %s (%s)", label, r.Name, r.Region),
			URL:  r.ConsoleURL,
		})
	}
}

// hiddenResourceActions lists the manual steps for charges with no visible
// resource. With charges and nothing detected, it points at every billed
// region; otherwise it suggests verifying the bill and permissions.
func hiddenResourceActions(p profile, f *Findings) []types.ConsoleAction {
	var actions []types.ConsoleAction

	if f.Billing != nil && f.Billing.HasCharges && len(f.DetectedResources) == 0 {
		billed := make(map[string]bool)
		for _, rc := range f.Billing.Regions {
			billed[rc.Region] = true
			cost := rc.Amount.StringFixed(2)
			actions = append(actions, types.ConsoleAction{
				Name:         fmt.Sprintf("%s Hidden Resources in %s ($%s)", p.short, rc.Region, cost),
				URL:          catalog.ResourceConsoleURL(rc.Region, p.primary, ""),
				Instructions: fmt.Sprintf("Check for hidden %s resources in %s where we detected $%s in charges.", p.short, rc.Region, cost),
			})
		}
		if p.secondary != "" {
			for _, region := range ServerlessRegions {
				if !billed[region] {
					continue
				}
				actions = append(actions, types.ConsoleAction{
					Name:         fmt.Sprintf("%s Serverless in %s", p.short, region),
					URL:          catalog.ResourceConsoleURL(region, p.secondary, ""),
					Instructions: fmt.Sprintf("Check for serverless %s collections in %s.", p.short, region),
				})
			}
		}
		actions = append(actions,
			types.ConsoleAction{
				Name:         "Check CloudTrail for Deleted Resources",
				URL:          catalog.AuditSourceURL(usagetype.DefaultRegion, p.eventSource),
				Instructions: "Look for delete operations that might explain lingering charges.",
			},
			types.ConsoleAction{
				Name:         "Detailed Billing Analysis",
				URL:          catalog.CostExplorerURL(f.Service),
				Instructions: fmt.Sprintf("Group %s charges by usage type to identify specific resources.", p.short),
			},
			types.ConsoleAction{
				Name:         "Contact AWS Support",
				URL:          catalog.SupportCaseURL(p.supportCode),
				Instructions: fmt.Sprintf("Create a support case to investigate invisible %s charges. Include your account ID and billing period.", p.short),
			},
		)
		return actions
	}

	if len(f.DetectedResources) == 0 {
		actions = append(actions,
			types.ConsoleAction{
				Name:         "AWS Billing Console (Direct Link)",
				URL:          catalog.FallbackConsolePath,
				Instructions: "First, verify if charges actually exist by checking the billing console directly.",
			},
			types.ConsoleAction{
				Name:         "Check IAM Permissions",
				URL:          "https://us-east-1.console.aws.amazon.com/iamv2/home?region=us-east-1#/roles",
				Instructions: "Verify your IAM permissions include List and Describe access for the service.",
			},
		)
	}
	return actions
}
