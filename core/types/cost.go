// Package types - Cost data types
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the date format used by Cost Explorer and the ledger
const DateLayout = "2006-01-02"

// Currency represents a currency code
type Currency string

const (
	CurrencyUSD Currency = "USD"
)

// DateRange is a half-open [Start, End) billing window in DateLayout
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// LastDays returns the window ending at now's date and starting daysBack days earlier
func LastDays(now time.Time, daysBack int) DateRange {
	end := midnight(now)
	if daysBack <= 0 {
		daysBack = 1
	}
	return DateRange{
		Start: end.AddDate(0, 0, -daysBack).Format(DateLayout),
		End:   end.Format(DateLayout),
	}
}

// NextDays returns the forecast window starting tomorrow
func NextDays(now time.Time, daysForward int) DateRange {
	start := midnight(now).AddDate(0, 0, 1)
	if daysForward <= 0 {
		daysForward = 1
	}
	return DateRange{
		Start: start.Format(DateLayout),
		End:   start.AddDate(0, 0, daysForward).Format(DateLayout),
	}
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// CostLineItem is one billing observation for a period and group key
type CostLineItem struct {
	Period   DateRange       `json:"period"`
	Service  string          `json:"service"`
	Amount   decimal.Decimal `json:"amount"`
	Currency Currency        `json:"currency"`
}

// DailyCost is the total for one day with a short service breakdown
type DailyCost struct {
	Date      string          `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Breakdown string          `json:"breakdown"`
}

// UsageCost is the cost of one usage-type group for a service
type UsageCost struct {
	UsageType string          `json:"usage_type"`
	Amount    decimal.Decimal `json:"amount"`
}

// RegionCost is the cost attributed to one billing region
type RegionCost struct {
	Region string          `json:"region"`
	Amount decimal.Decimal `json:"amount"`
}

// ServiceCostEntry is the unit the report is built from
type ServiceCostEntry struct {
	Name           string           `json:"name"`
	Cost           decimal.Decimal  `json:"cost"`
	Status         Status           `json:"status"`
	CanceledOn     string           `json:"canceled_on,omitempty"`
	Detail         string           `json:"details"`
	ConsoleURL     string           `json:"console_url"`
	RelatedService string           `json:"related_service,omitempty"`
	Candidates     []ResourceRecord `json:"candidates,omitempty"`
	Actions        []ConsoleAction  `json:"actions,omitempty"`
}

// CancellationRecord is one persisted ledger entry, keyed by Service
type CancellationRecord struct {
	Service            string  `json:"-"`
	Status             string  `json:"status"`
	CanceledOn         string  `json:"canceled_on"`
	CostAtCancellation float64 `json:"cost_at_cancellation"`
}

// LedgerStatusCanceled is the only status value written to the ledger
const LedgerStatusCanceled = "Canceled"

// Forecast is a point estimate with an optional prediction interval
type Forecast struct {
	Period DateRange       `json:"period"`
	Mean   decimal.Decimal `json:"mean"`
	Lower  decimal.Decimal `json:"lower"`
	Upper  decimal.Decimal `json:"upper"`
}

// Anomaly is a day whose cost deviates from the window's mean
type Anomaly struct {
	Date      string          `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Expected  decimal.Decimal `json:"expected"`
	Deviation decimal.Decimal `json:"deviation"`
}

// Report is everything a renderer needs for one run
type Report struct {
	RunID         string                     `json:"run_id"`
	GeneratedAt   time.Time                  `json:"generated_at"`
	Period        DateRange                  `json:"period"`
	Services      []ServiceCostEntry         `json:"services"`
	Daily         []DailyCost                `json:"daily"`
	Total         decimal.Decimal            `json:"total"`
	Forecast      *Forecast                  `json:"forecast,omitempty"`
	Anomalies     []Anomaly                  `json:"anomalies,omitempty"`
	ServicePaths  map[string]string          `json:"service_paths,omitempty"`
	Relationships map[string]string          `json:"relationships,omitempty"`
	Resources     map[string][]ConsoleAction `json:"resources,omitempty"`
	Warnings      []string                   `json:"warnings,omitempty"`
}
