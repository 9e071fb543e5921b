package cancellation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"aws-cost/core/catalog"
	"aws-cost/core/ports"
	"aws-cost/core/types"
	"aws-cost/core/usagetype"
	apperrors "aws-cost/internal/errors"
	"aws-cost/internal/logging"
	"aws-cost/internal/telemetry"
)

// Actions reported in Result.Details["action"]
const (
	ActionListOnly       = "list_only"
	ActionDeleted        = "deleted"
	ActionTerminated     = "terminated"
	ActionDisabled       = "disabled"
	ActionNotImplemented = "not_implemented"
	ActionManual         = "manual"
	ActionConfirmed      = "confirmed"
	ActionError          = "error"
)

// Destructive reports whether an action ends the service's charges
func Destructive(action string) bool {
	switch action {
	case ActionDeleted, ActionTerminated, ActionDisabled, ActionConfirmed:
		return true
	}
	return false
}

// Request is one cancel request
type Request struct {
	// Service is the display name as shown in the report
	Service string `json:"service_name"`

	// ResourceID identifies the resource to delete; empty lists candidates
	ResourceID string `json:"resource_id,omitempty"`

	// Region defaults to us-east-1
	Region string `json:"region,omitempty"`

	// Cost is recorded in the ledger on success
	Cost decimal.Decimal `json:"cost"`

	// Confirmed marks a console-only cancellation as done by the user
	Confirmed bool `json:"confirmed,omitempty"`
}

// Outcome is what a handler reports back
type Outcome struct {
	Action    string
	Message   string
	Resources []types.ResourceRecord
	Details   map[string]any
}

// Result is the dispatcher's answer
type Result struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details"`
	ErrorCode string         `json:"error_code,omitempty"`
}

// Action returns Details["action"]
func (r Result) Action() string {
	action, _ := r.Details["action"].(string)
	return action
}

// Handler cancels one kind of resource
type Handler interface {
	// Kind returns the resource kind this handler serves
	Kind() ResourceKind

	// Cancel deletes req.ResourceID, or lists candidates when it is empty
	Cancel(ctx context.Context, req Request) (Outcome, error)
}

// Dispatcher routes requests to handlers and writes the ledger
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[ResourceKind]Handler
	ledger   ports.Ledger
	catalog  *catalog.Catalog
	timeout  time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithCallTimeout bounds one handler call
func WithCallTimeout(d time.Duration) Option {
	return func(x *Dispatcher) {
		if d > 0 {
			x.timeout = d
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(x *Dispatcher) { x.now = now }
}

// WithCatalog resolves the ledger key of confirmed manual cancellations
// through the catalog's relationship table
func WithCatalog(cat *catalog.Catalog) Option {
	return func(x *Dispatcher) { x.catalog = cat }
}

// NewDispatcher creates a dispatcher writing to ledger
func NewDispatcher(ledger ports.Ledger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[ResourceKind]Handler),
		ledger:   ledger,
		timeout:  30 * time.Second,
		now:      time.Now,
		logger:   logging.Named("cancellation"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register adds handlers, replacing any previous handler for the same kind
func (d *Dispatcher) Register(handlers ...Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, h := range handlers {
		d.handlers[h.Kind()] = h
	}
}

func (d *Dispatcher) handler(kind ResourceKind) (Handler, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.handlers[kind]
	return h, ok
}

// Cancel handles one request. Handler failures are reported in the Result
// with Success false; the returned error is reserved for invalid input and
// ledger write failures after a successful deletion.
func (d *Dispatcher) Cancel(ctx context.Context, req Request) (Result, error) {
	if req.Service == "" {
		return Result{}, apperrors.Input("service name is required")
	}
	if req.Region == "" {
		req.Region = usagetype.DefaultRegion
	}

	kind := KindForService(req.Service)

	ctx, span := telemetry.Tracer().Start(ctx, "cancellation.cancel")
	span.SetAttributes(
		attribute.String("service.name", req.Service),
		attribute.String("resource.kind", kind.String()),
		attribute.String("aws.region", req.Region))
	defer span.End()

	log := d.logger.With(
		zap.String("service", req.Service),
		zap.String("kind", kind.String()),
		zap.String("region", req.Region))

	var h Handler
	switch kind {
	case KindMarketplace:
		return d.manual(ctx, log, req)
	case KindOpenSearchDomain, KindOpenSearchCollection, KindRedshiftCluster, KindLambdaFunction,
		KindEC2Instance, KindRDSInstance, KindS3Bucket:
		var ok bool
		if h, ok = d.handler(kind); !ok {
			return notImplemented(req), nil
		}
	case KindUnknown:
		return notImplemented(req), nil
	}
	if h == nil {
		return notImplemented(req), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	outcome, err := h.Cancel(callCtx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn("cancellation failed", zap.String("resource_id", req.ResourceID), zap.Error(err))
		return Result{
			Success: false,
			Message: err.Error(),
			Details: map[string]any{
				"action": ActionError,
				"kind":   kind.String(),
				"region": req.Region,
			},
			ErrorCode: apperrors.CodeOf(err),
		}, nil
	}

	details := map[string]any{
		"action": outcome.Action,
		"kind":   kind.String(),
		"region": req.Region,
	}
	if req.ResourceID != "" {
		details["resource_id"] = req.ResourceID
	}
	if outcome.Resources != nil {
		details["resources"] = outcome.Resources
	}
	for k, v := range outcome.Details {
		details[k] = v
	}
	result := Result{Success: true, Message: outcome.Message, Details: details}

	if !Destructive(outcome.Action) {
		log.Info("cancellation finished without deletion", zap.String("action", outcome.Action))
		return result, nil
	}

	if err := d.record(ctx, req.Service, req.Cost); err != nil {
		log.Error("ledger write failed after cancellation", zap.Error(err))
		result.Details["ledger_error"] = err.Error()
		return result, apperrors.Persistence("record cancellation of "+req.Service, err)
	}

	log.Info("service canceled",
		zap.String("resource_id", req.ResourceID),
		zap.String("action", outcome.Action))
	return result, nil
}

// manual answers console-only services. Once the user confirms the console
// step, the cancellation is recorded under the service's ledger key.
func (d *Dispatcher) manual(ctx context.Context, log *zap.Logger, req Request) (Result, error) {
	action := catalog.ManualAction(req.Service)
	result := Result{
		Success: true,
		Message: fmt.Sprintf("%s has no API cancellation; cancel it in the console", req.Service),
		Details: map[string]any{
			"action":       ActionManual,
			"url":          action.URL,
			"instructions": action.Instructions,
		},
	}
	if !req.Confirmed {
		return result, nil
	}

	key := req.Service
	if d.catalog != nil {
		if related, ok := d.catalog.RelatedService(req.Service); ok {
			key = related
		}
	}
	result.Message = fmt.Sprintf("Recorded console cancellation of %s", req.Service)
	result.Details["action"] = ActionConfirmed
	result.Details["ledger_key"] = key
	if err := d.record(ctx, key, req.Cost); err != nil {
		log.Error("ledger write failed after manual cancellation", zap.Error(err))
		result.Details["ledger_error"] = err.Error()
		return result, apperrors.Persistence("record cancellation of "+key, err)
	}
	log.Info("manual cancellation recorded", zap.String("ledger_key", key))
	return result, nil
}

func (d *Dispatcher) record(ctx context.Context, service string, cost decimal.Decimal) error {
	return d.ledger.Record(ctx, types.CancellationRecord{
		Service:            service,
		Status:             types.LedgerStatusCanceled,
		CanceledOn:         d.now().Format(types.DateLayout),
		CostAtCancellation: cost.InexactFloat64(),
	})
}

func notImplemented(req Request) Result {
	return Result{
		Success: true,
		Message: fmt.Sprintf("Automated cancellation is not implemented for %s", req.Service),
		Details: map[string]any{"action": ActionNotImplemented},
	}
}
