// Package scanner enumerates live cloud resources across regions.
// Listers do the API calls; the Scanner fans them out over a bounded pool,
// isolates per-region failures, and annotates every record with a console link.
// NO cost logic belongs here.
package scanner

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"aws-cost/core/catalog"
	"aws-cost/core/ports"
	"aws-cost/core/types"
	apperrors "aws-cost/internal/errors"
	"aws-cost/internal/logging"
	"aws-cost/internal/telemetry"
)

const (
	// DefaultWorkers bounds concurrent per-region calls
	DefaultWorkers = 10

	// DefaultCallTimeout bounds one lister or audit call
	DefaultCallTimeout = 30 * time.Second

	// DeletionLookback is how far back audit logs are searched for deletions
	DeletionLookback = 30 * 24 * time.Hour
)

// Lister enumerates one resource type in one region
type Lister interface {
	// Type returns the resource type this lister produces
	Type() types.ResourceType

	// List returns the resources in region. A service that is not offered
	// in the region must be reported as a TypeNotSupported error.
	List(ctx context.Context, region string) ([]types.ResourceRecord, error)
}

// ScanResult contains the output of a scan operation
type ScanResult struct {
	// Type is the scanned resource type
	Type types.ResourceType `json:"type"`

	// Regions are the regions that were attempted
	Regions []string `json:"regions"`

	// Resources are the discovered records, region order then name
	Resources []types.ResourceRecord `json:"resources"`

	// Unsupported lists regions where the service is not offered
	Unsupported []string `json:"unsupported,omitempty"`

	// Errors are per-region failures; those regions contributed nothing
	Errors []ScanError `json:"errors,omitempty"`
}

// ScanError represents one region's failure
type ScanError struct {
	// Region is where the call failed
	Region string `json:"region"`

	// Message describes the error
	Message string `json:"message"`

	// Kind is the error classification
	Kind apperrors.Type `json:"kind"`

	// Err is the underlying error
	Err error `json:"-"`
}

// Error implements the error interface
func (e ScanError) Error() string {
	return e.Region + ": " + e.Message
}

// Unwrap returns the underlying error
func (e ScanError) Unwrap() error {
	return e.Err
}

// HasErrors returns true if any region failed
func (r *ScanResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Scanner runs listers across regions
type Scanner struct {
	registry *Registry
	audit    ports.AuditPort
	workers  int
	timeout  time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// Option configures a Scanner
type Option func(*Scanner)

// WithWorkers sets the pool size
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithCallTimeout sets the per-call timeout
func WithCallTimeout(d time.Duration) Option {
	return func(s *Scanner) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithAudit enables recently-deleted detection
func WithAudit(audit ports.AuditPort) Option {
	return func(s *Scanner) { s.audit = audit }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) { s.now = now }
}

// New creates a scanner over a lister registry
func New(registry *Registry, opts ...Option) *Scanner {
	s := &Scanner{
		registry: registry,
		workers:  DefaultWorkers,
		timeout:  DefaultCallTimeout,
		now:      time.Now,
		logger:   logging.Named("scanner"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Types returns the resource types this scanner can enumerate
func (s *Scanner) Types() []types.ResourceType {
	return s.registry.Types()
}

// regionOutcome is one worker's private slot
type regionOutcome struct {
	records     []types.ResourceRecord
	unsupported bool
	err         *ScanError
}

// Scan lists one resource type in every region. Per-region failures never
// fail the scan: NotSupported regions are skipped silently, other errors are
// logged and recorded in the result. The only error is an unregistered type.
func (s *Scanner) Scan(ctx context.Context, rt types.ResourceType, regions []string) (*ScanResult, error) {
	lister, ok := s.registry.Get(rt)
	if !ok {
		return nil, apperrors.NotSupported("scan " + rt.String())
	}

	outcomes := s.fanOut(ctx, regions, func(ctx context.Context, region string) ([]types.ResourceRecord, error) {
		ctx, span := telemetry.Tracer().Start(ctx, "scanner.list")
		span.SetAttributes(attribute.String("resource.type", rt.String()), attribute.String("aws.region", region))
		defer span.End()

		records, err := lister.List(ctx, region)
		if err != nil && !apperrors.IsType(err, apperrors.TypeNotSupported) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		for i := range records {
			records[i].Region = region
			records[i].Type = rt
			if records[i].Status == "" {
				records[i].Status = types.ResourceActive
			}
			if records[i].Name == "" {
				records[i].Name = records[i].ID
			}
			records[i].ConsoleURL = catalog.ResourceConsoleURL(region, rt, records[i].ID)
		}
		sort.SliceStable(records, func(a, b int) bool { return records[a].Name < records[b].Name })
		return records, err
	})

	return s.merge(rt, regions, outcomes), nil
}

// ScanAll scans every registered type
func (s *Scanner) ScanAll(ctx context.Context, regions []string) []*ScanResult {
	var results []*ScanResult
	for _, rt := range s.registry.Types() {
		res, err := s.Scan(ctx, rt, regions)
		if err != nil {
			continue
		}
		results = append(results, res)
	}
	return results
}

// RecentlyDeleted searches the audit log for eventName over the last 30 days
// in each region. Every matching event becomes a record with status deleted
// and the event time, typed as rt.
func (s *Scanner) RecentlyDeleted(ctx context.Context, eventName string, rt types.ResourceType, regions []string) (*ScanResult, error) {
	if s.audit == nil {
		return nil, apperrors.NotSupported("recently deleted lookup without audit log")
	}

	end := s.now()
	query := types.AuditQuery{
		EventName: eventName,
		Start:     end.Add(-DeletionLookback),
		End:       end,
	}

	outcomes := s.fanOut(ctx, regions, func(ctx context.Context, region string) ([]types.ResourceRecord, error) {
		ctx, span := telemetry.Tracer().Start(ctx, "scanner.audit")
		span.SetAttributes(attribute.String("audit.event", eventName), attribute.String("aws.region", region))
		defer span.End()

		events, err := s.audit.LookupEvents(ctx, region, query)
		if err != nil {
			return nil, err
		}
		records := make([]types.ResourceRecord, 0, len(events))
		for _, ev := range events {
			name := ResourceNameFromEvent(ev)
			if name == "" {
				continue
			}
			records = append(records, types.ResourceRecord{
				ID:         name,
				Name:       name,
				Region:     region,
				Type:       rt,
				Status:     types.ResourceDeleted,
				Timestamp:  ev.Time,
				ConsoleURL: catalog.AuditEventURL(region, ev.ID),
				Details: map[string]string{
					"event_id":   ev.ID,
					"event_name": ev.Name,
					"username":   ev.Username,
				},
			})
		}
		sort.SliceStable(records, func(a, b int) bool { return records[a].Timestamp.After(records[b].Timestamp) })
		return records, nil
	})

	return s.merge(rt, regions, outcomes), nil
}

// fanOut runs call once per region on the bounded pool. Each worker writes
// only its own slot, so no locking is needed.
func (s *Scanner) fanOut(ctx context.Context, regions []string, call func(context.Context, string) ([]types.ResourceRecord, error)) []regionOutcome {
	outcomes := make([]regionOutcome, len(regions))

	var g errgroup.Group
	g.SetLimit(s.workers)

	for i, region := range regions {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			records, err := call(callCtx, region)
			switch {
			case err == nil:
				outcomes[i].records = records
			case apperrors.IsType(err, apperrors.TypeNotSupported):
				s.logger.Debug("service not offered in region", zap.String("region", region))
				outcomes[i].unsupported = true
			default:
				kind := apperrors.TypeOf(err)
				if callCtx.Err() == context.DeadlineExceeded {
					kind = apperrors.TypeUnavailable
				}
				s.logger.Warn("region scan failed",
					zap.String("region", region),
					zap.String("kind", string(kind)),
					zap.Error(err))
				outcomes[i].err = &ScanError{Region: region, Message: err.Error(), Kind: kind, Err: err}
			}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (s *Scanner) merge(rt types.ResourceType, regions []string, outcomes []regionOutcome) *ScanResult {
	res := &ScanResult{
		Type:      rt,
		Regions:   regions,
		Resources: make([]types.ResourceRecord, 0),
	}
	for i, o := range outcomes {
		res.Resources = append(res.Resources, o.records...)
		if o.unsupported {
			res.Unsupported = append(res.Unsupported, regions[i])
		}
		if o.err != nil {
			res.Errors = append(res.Errors, *o.err)
		}
	}
	return res
}
