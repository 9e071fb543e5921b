// Package analysis turns raw billing data into the per-service view the
// report and the threshold check are built from.
package analysis

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"aws-cost/core/cache"
	"aws-cost/core/catalog"
	"aws-cost/core/detective"
	"aws-cost/core/ports"
	"aws-cost/core/types"
	"aws-cost/internal/logging"
)

// CostExplorerService is the entry synthesized from RECORD_TYPE groups
const CostExplorerService = "AWS Cost Explorer"

// recordTypeTerms mark RECORD_TYPE groups that are Cost Explorer charges
var recordTypeTerms = []string{"Cost Explorer", "Usage Analytics", "Billing"}

// Service is the cost analysis service
type Service struct {
	costData  ports.CostDataPort
	ledger    ports.LedgerReader
	catalog   *catalog.Catalog
	detective *detective.Detective
	generator ports.ReportGenerator
	paths     *cache.ReadThrough[string]
	now       func() time.Time
	logger    *zap.Logger
}

// Option configures a Service
type Option func(*Service)

// WithDetective enables billing-source links and resource annotation
func WithDetective(d *detective.Detective) Option {
	return func(s *Service) { s.detective = d }
}

// WithReportGenerator sets the renderer used by GenerateReport
func WithReportGenerator(g ports.ReportGenerator) Option {
	return func(s *Service) { s.generator = g }
}

// WithPathCache caches console paths in store
func WithPathCache(store cache.Store, ttl time.Duration) Option {
	return func(s *Service) { s.paths = cache.NewReadThrough[string](store, ttl) }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an analysis service
func NewService(costData ports.CostDataPort, ledger ports.LedgerReader, cat *catalog.Catalog, opts ...Option) *Service {
	if cat == nil {
		cat = catalog.Default()
	}
	s := &Service{
		costData: costData,
		ledger:   ledger,
		catalog:  cat,
		now:      time.Now,
		logger:   logging.Named("analysis"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.paths == nil {
		s.paths = cache.NewReadThrough[string](nil, cache.DefaultTTL)
	}
	return s
}

// Catalog returns the service's catalog
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// GetServiceCosts returns one entry per billed service over the last daysBack
// days, sorted by absolute cost descending. Cost query errors are returned.
func (s *Service) GetServiceCosts(ctx context.Context, daysBack int) ([]types.ServiceCostEntry, error) {
	period := types.LastDays(s.now(), daysBack)

	items, err := s.costData.ServiceCosts(ctx, period)
	if err != nil {
		return nil, err
	}
	recordTypes, err := s.costData.RecordTypeCosts(ctx, period)
	if err != nil {
		return nil, err
	}

	ledger := s.loadLedger(ctx)

	var entries []types.ServiceCostEntry
	for _, item := range items {
		credit := isCredit(item.Service) && item.Amount.IsNegative()
		if !item.Amount.IsPositive() && !credit {
			continue
		}
		entries = append(entries, types.ServiceCostEntry{
			Name: NormalizeName(item.Service, item.Amount),
			Cost: item.Amount,
		})
	}

	if rt, ok := lo.Find(recordTypes, func(li types.CostLineItem) bool {
		return li.Amount.IsPositive() && lo.SomeBy(recordTypeTerms, func(term string) bool {
			return strings.Contains(li.Service, term)
		})
	}); ok {
		if !lo.ContainsBy(entries, func(e types.ServiceCostEntry) bool { return e.Name == CostExplorerService }) {
			entries = append(entries, types.ServiceCostEntry{Name: CostExplorerService, Cost: rt.Amount})
		}
	}

	entries = Consolidate(entries, s.catalog.Consolidation())

	for i := range entries {
		s.enrich(ctx, &entries[i], ledger)
	}

	SortByMagnitude(entries)
	return entries, nil
}

// AnalyzeCosts returns the services costing more than threshold
func (s *Service) AnalyzeCosts(ctx context.Context, threshold decimal.Decimal, daysBack int) ([]types.ServiceCostEntry, error) {
	entries, err := s.GetServiceCosts(ctx, daysBack)
	if err != nil {
		return nil, err
	}
	return FilterAboveThreshold(entries, threshold), nil
}

// DailyCosts returns per-day totals for the last daysBack days
func (s *Service) DailyCosts(ctx context.Context, daysBack int) ([]types.DailyCost, error) {
	return s.costData.DailyCosts(ctx, types.LastDays(s.now(), daysBack))
}

// FilterAboveThreshold keeps entries with cost strictly above threshold,
// sorted by cost descending then name. The input is not modified.
func FilterAboveThreshold(entries []types.ServiceCostEntry, threshold decimal.Decimal) []types.ServiceCostEntry {
	out := lo.Filter(entries, func(e types.ServiceCostEntry, _ int) bool {
		return e.Cost.GreaterThan(threshold)
	})
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Cost.Equal(out[j].Cost) {
			return out[i].Cost.GreaterThan(out[j].Cost)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Consolidate folds child entries into their parent and merges duplicate
// names, summing costs. The first occurrence keeps its position.
// Applying it twice gives the same result as applying it once.
func Consolidate(entries []types.ServiceCostEntry, mapping map[string]string) []types.ServiceCostEntry {
	index := make(map[string]int, len(entries))
	out := make([]types.ServiceCostEntry, 0, len(entries))

	for _, e := range entries {
		name := e.Name
		if parent, ok := catalog.ParentIn(mapping, name); ok {
			name = parent
		}
		if i, seen := index[name]; seen {
			out[i].Cost = out[i].Cost.Add(e.Cost)
			continue
		}
		e.Name = name
		index[name] = len(out)
		out = append(out, e)
	}
	return out
}

// SortByMagnitude orders entries by absolute cost descending, then name
func SortByMagnitude(entries []types.ServiceCostEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Cost.Abs(), entries[j].Cost.Abs()
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return entries[i].Name < entries[j].Name
	})
}

// NormalizeName turns a billing service label into its display name
func NormalizeName(raw string, amount decimal.Decimal) string {
	name := strings.TrimSpace(raw)
	switch {
	case isCredit(name) && amount.IsNegative():
		if strings.HasPrefix(name, "Credit/Refund (") {
			return name
		}
		return "Credit/Refund (AWS Skill Builder)"
	case strings.HasPrefix(name, "AWS "), strings.HasPrefix(name, "Amazon "):
		return name
	case strings.Contains(name, "Skill Builder"):
		return "AWS Skill Builder"
	case name == "Tax":
		return name
	default:
		return "AWS " + name
	}
}

func isCredit(name string) bool {
	return strings.Contains(name, "Refund") || strings.Contains(name, "Credit")
}

func (s *Service) loadLedger(ctx context.Context) map[string]types.CancellationRecord {
	if s.ledger == nil {
		return map[string]types.CancellationRecord{}
	}
	records, err := s.ledger.Load(ctx)
	if err != nil {
		s.logger.Warn("ledger unreadable, treating all services as active", zap.Error(err))
		return map[string]types.CancellationRecord{}
	}
	return records
}

// enrich fills status, detail and console link
func (s *Service) enrich(ctx context.Context, e *types.ServiceCostEntry, ledger map[string]types.CancellationRecord) {
	e.Detail = s.catalog.Detail(e.Name)
	e.ConsoleURL = s.consoleURL(ctx, e.Name)
	if related, ok := s.catalog.RelatedService(e.Name); ok {
		e.RelatedService = related
	}
	e.Status, e.CanceledOn = s.status(e.Name, e.RelatedService, ledger)
}

// status resolves ledger entries first, then the catalog's billing model
func (s *Service) status(name, related string, ledger map[string]types.CancellationRecord) (types.Status, string) {
	if rec, ok := ledger[name]; ok && rec.Status == types.LedgerStatusCanceled {
		return types.StatusCanceled, rec.CanceledOn
	}
	if related != "" {
		if rec, ok := ledger[related]; ok && rec.Status == types.LedgerStatusCanceled {
			return types.StatusCanceled, rec.CanceledOn
		}
	}
	switch s.catalog.Classify(name) {
	case catalog.Required:
		return types.StatusRequired, ""
	case catalog.PayAsYouGo:
		return types.StatusPayAsYouGo, ""
	default:
		return types.StatusActive, ""
	}
}

// consoleURL prefers the detective's direct link for services it can
// locate, falling back to the catalog path
func (s *Service) consoleURL(ctx context.Context, name string) string {
	url, err := s.paths.Get(ctx, "console-path:"+name, func(ctx context.Context) (string, error) {
		if s.detective != nil && detective.Supports(name) {
			src, err := s.detective.LocateBillingSource(ctx, name)
			if err != nil {
				return "", err
			}
			return src.Action.URL, nil
		}
		return s.catalog.ConsolePath(name), nil
	})
	if err != nil {
		s.logger.Debug("billing source lookup failed", zap.String("service", name), zap.Error(err))
		return s.catalog.ConsolePath(name)
	}
	return url
}
