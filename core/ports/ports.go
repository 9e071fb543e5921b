// Package ports defines the interfaces between the domain services and their adapters.
package ports

import (
	"context"

	"aws-cost/core/types"
)

// CostDataPort reads billing data for a date range.
// Implementations return *errors.Error values typed by failure kind.
type CostDataPort interface {
	// ServiceCosts returns one line item per billed service (SERVICE grouping)
	ServiceCosts(ctx context.Context, period types.DateRange) ([]types.CostLineItem, error)

	// RecordTypeCosts returns one line item per record type (RECORD_TYPE grouping);
	// the record type is carried in CostLineItem.Service
	RecordTypeCosts(ctx context.Context, period types.DateRange) ([]types.CostLineItem, error)

	// DailyCosts returns per-day totals with a top-services breakdown
	DailyCosts(ctx context.Context, period types.DateRange) ([]types.DailyCost, error)

	// UsageTypeCosts returns usage-type groups for one service
	UsageTypeCosts(ctx context.Context, period types.DateRange, service string) ([]types.UsageCost, error)

	// RegionCosts returns billing-region groups, filtered to service when non-empty
	RegionCosts(ctx context.Context, period types.DateRange, service string) ([]types.RegionCost, error)

	// Forecast returns the projected spend for a future window
	Forecast(ctx context.Context, period types.DateRange) (*types.Forecast, error)
}

// LedgerReader reads the cancellation ledger
type LedgerReader interface {
	// Load returns all records keyed by service name
	Load(ctx context.Context) (map[string]types.CancellationRecord, error)
}

// Ledger is the writable cancellation ledger. Only the cancellation dispatcher writes.
type Ledger interface {
	LedgerReader

	// Record persists one record immediately
	Record(ctx context.Context, rec types.CancellationRecord) error
}

// AuditPort looks up audit-log events in one region
type AuditPort interface {
	LookupEvents(ctx context.Context, region string, query types.AuditQuery) ([]types.AuditEvent, error)
}

// RegionSource lists the regions to scan
type RegionSource interface {
	Regions(ctx context.Context) ([]string, error)
}

// ReportGenerator renders a report to outputPath and returns the written path
type ReportGenerator interface {
	Generate(ctx context.Context, report *types.Report, outputPath string) (string, error)
}

// ClassificationSource discovers services billed purely per request
type ClassificationSource interface {
	PayAsYouGoServices(ctx context.Context) ([]string, error)
}
