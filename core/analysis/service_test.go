package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"aws-cost/core/cancellation"
	"aws-cost/core/catalog"
	"aws-cost/core/types"
	apperrors "aws-cost/internal/errors"
)

type fakeCosts struct {
	services    []types.CostLineItem
	recordTypes []types.CostLineItem
	daily       []types.DailyCost
	forecast    *types.Forecast
	forecastErr error
	err         error
}

func (f *fakeCosts) ServiceCosts(context.Context, types.DateRange) ([]types.CostLineItem, error) {
	return f.services, f.err
}

func (f *fakeCosts) RecordTypeCosts(context.Context, types.DateRange) ([]types.CostLineItem, error) {
	return f.recordTypes, nil
}

func (f *fakeCosts) DailyCosts(context.Context, types.DateRange) ([]types.DailyCost, error) {
	return f.daily, nil
}

func (f *fakeCosts) UsageTypeCosts(context.Context, types.DateRange, string) ([]types.UsageCost, error) {
	return nil, nil
}

func (f *fakeCosts) RegionCosts(context.Context, types.DateRange, string) ([]types.RegionCost, error) {
	return nil, nil
}

func (f *fakeCosts) Forecast(context.Context, types.DateRange) (*types.Forecast, error) {
	return f.forecast, f.forecastErr
}

type fakeLedger struct {
	records map[string]types.CancellationRecord
	err     error
}

func (f fakeLedger) Load(context.Context) (map[string]types.CancellationRecord, error) {
	return f.records, f.err
}

func (f fakeLedger) Record(_ context.Context, rec types.CancellationRecord) error {
	f.records[rec.Service] = rec
	return nil
}

type captureGenerator struct {
	report *types.Report
}

func (g *captureGenerator) Generate(_ context.Context, r *types.Report, path string) (string, error) {
	g.report = r
	if path == "" {
		path = "aws_cost_report.html"
	}
	return path, nil
}

func usd(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func item(name, amount string) types.CostLineItem {
	return types.CostLineItem{Service: name, Amount: usd(amount), Currency: types.CurrencyUSD}
}

var fixedNow = time.Date(2025, 4, 21, 9, 0, 0, 0, time.UTC)

func newService(costs *fakeCosts, ledger fakeLedger, opts ...Option) *Service {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewService(costs, ledger, catalog.Default(), opts...)
}

func names(entries []types.ServiceCostEntry) string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = fmt.Sprintf("%s=%s", e.Name, e.Cost.StringFixed(2))
	}
	return strings.Join(out, ", ")
}

func TestAnalyzeCostsThresholdScenario(t *testing.T) {
	costs := &fakeCosts{services: []types.CostLineItem{
		item("AWS Lambda", "10.50"),
		item("Amazon S3", "5.25"),
		item("AWS Skill Builder", "29.00"),
	}}
	s := newService(costs, fakeLedger{})

	got, err := s.AnalyzeCosts(context.Background(), usd("10.0"), 30)
	if err != nil {
		t.Fatalf("AnalyzeCosts() error = %v", err)
	}
	want := "AWS Skill Builder=29.00, AWS Lambda=10.50"
	if names(got) != want {
		t.Errorf("AnalyzeCosts() = %s, want %s", names(got), want)
	}
}

func TestFilterAboveThresholdIsMonotonic(t *testing.T) {
	entries := []types.ServiceCostEntry{
		{Name: "A", Cost: usd("1.00")},
		{Name: "B", Cost: usd("10.00")},
		{Name: "C", Cost: usd("10.01")},
		{Name: "D", Cost: usd("250")},
		{Name: "Credit/Refund (AWS Skill Builder)", Cost: usd("-29.00")},
	}
	thresholds := []string{"-100", "0", "1", "9.99", "10", "10.01", "100", "1000"}

	prev := len(entries) + 1
	for _, th := range thresholds {
		got := FilterAboveThreshold(entries, usd(th))
		if len(got) > prev {
			t.Errorf("threshold %s returned %d entries, more than the lower threshold's %d", th, len(got), prev)
		}
		prev = len(got)
		for _, e := range got {
			if !e.Cost.GreaterThan(usd(th)) {
				t.Errorf("threshold %s kept %s (%s)", th, e.Name, e.Cost)
			}
		}
	}
	if names(FilterAboveThreshold(entries, usd("10"))) != "D=250.00, C=10.01" {
		t.Errorf("strict comparison violated: %s", names(FilterAboveThreshold(entries, usd("10"))))
	}
	if entries[0].Name != "A" {
		t.Error("input slice was reordered")
	}
}

func TestConsolidateIsIdempotent(t *testing.T) {
	mapping := catalog.Default().Consolidation()
	entries := []types.ServiceCostEntry{
		{Name: "Claude 3.5 Sonnet (Amazon Bedrock Edition)", Cost: usd("4.00")},
		{Name: "AWS Lambda", Cost: usd("1.00")},
		{Name: "Amazon Bedrock", Cost: usd("2.00")},
		{Name: "Claude 3 Haiku (Amazon Bedrock Edition)", Cost: usd("0.50")},
		{Name: "AWS Lambda", Cost: usd("0.25")},
	}

	once := Consolidate(entries, mapping)
	if names(once) != "Amazon Bedrock=6.50, AWS Lambda=1.25" {
		t.Fatalf("Consolidate() = %s", names(once))
	}
	twice := Consolidate(once, mapping)
	if names(twice) != names(once) {
		t.Errorf("second pass changed the list: %s != %s", names(twice), names(once))
	}
}

func TestGetServiceCostsStatusesAndNames(t *testing.T) {
	costs := &fakeCosts{
		services: []types.CostLineItem{
			item("Amazon OpenSearch Service", "42.10"),
			item("Tax", "3.20"),
			item("Refund", "-29.00"),
			item("Skill Builder Individual", "29.00"),
			item("Amazon Rekognition", "0.80"),
			item("EC2 - Other", "1.10"),
			item("Amazon Simple Notification Service", "0"),
			item("Claude 3.7 Sonnet (Amazon Bedrock Edition)", "5.00"),
		},
		recordTypes: []types.CostLineItem{
			item("Usage", "80.00"),
			item("Cost Explorer API", "0.40"),
		},
	}
	ledger := fakeLedger{records: map[string]types.CancellationRecord{
		"Amazon OpenSearch Service":    {Status: types.LedgerStatusCanceled, CanceledOn: "2025-04-15"},
		"AWS Skill Builder Individual": {Status: types.LedgerStatusCanceled, CanceledOn: "2025-04-10"},
	}}
	s := newService(costs, ledger)

	got, err := s.GetServiceCosts(context.Background(), 30)
	if err != nil {
		t.Fatalf("GetServiceCosts() error = %v", err)
	}

	want := "Amazon OpenSearch Service=42.10, AWS Skill Builder=29.00, Credit/Refund (AWS Skill Builder)=-29.00, " +
		"Amazon Bedrock=5.00, Tax=3.20, AWS EC2 - Other=1.10, Amazon Rekognition=0.80, AWS Cost Explorer=0.40"
	if names(got) != want {
		t.Fatalf("entries = %s\nwant      %s", names(got), want)
	}

	byName := make(map[string]types.ServiceCostEntry)
	for _, e := range got {
		byName[e.Name] = e
	}
	tests := map[string]types.Status{
		"Amazon OpenSearch Service":         types.StatusCanceled,
		"Credit/Refund (AWS Skill Builder)": types.StatusCanceled,
		"AWS Skill Builder":                 types.StatusCanceled,
		"Tax":                               types.StatusRequired,
		"Amazon Rekognition":                types.StatusPayAsYouGo,
		"Amazon Bedrock":                    types.StatusActive,
	}
	for name, want := range tests {
		if byName[name].Status != want {
			t.Errorf("%s status = %s, want %s", name, byName[name].Status, want)
		}
	}
	if byName["Amazon OpenSearch Service"].CanceledOn != "2025-04-15" {
		t.Errorf("CanceledOn = %q", byName["Amazon OpenSearch Service"].CanceledOn)
	}
	if byName["Credit/Refund (AWS Skill Builder)"].RelatedService != "AWS Skill Builder Individual" {
		t.Errorf("related service = %q", byName["Credit/Refund (AWS Skill Builder)"].RelatedService)
	}
	if byName["AWS Cost Explorer"].Detail != "API requests and analysis" {
		t.Errorf("Cost Explorer detail = %q", byName["AWS Cost Explorer"].Detail)
	}
	for _, e := range got {
		if e.ConsoleURL == "" {
			t.Errorf("%s has no console URL", e.Name)
		}
	}
}

func TestGetServiceCostsLedgerFailureDegrades(t *testing.T) {
	costs := &fakeCosts{services: []types.CostLineItem{item("AWS Lambda", "3.00")}}
	s := newService(costs, fakeLedger{err: errors.New("corrupt")})

	got, err := s.GetServiceCosts(context.Background(), 30)
	if err != nil {
		t.Fatalf("GetServiceCosts() error = %v", err)
	}
	if len(got) != 1 || got[0].Status != types.StatusActive {
		t.Errorf("entries = %+v", got)
	}
}

func TestGetServiceCostsSurfacesCostErrors(t *testing.T) {
	boom := apperrors.Unavailable("cost explorer unreachable", nil)
	s := newService(&fakeCosts{err: boom}, fakeLedger{})
	if _, err := s.GetServiceCosts(context.Background(), 30); !errors.Is(err, boom) {
		t.Errorf("err = %v, want the cost error", err)
	}
}

func TestConfirmedManualCancellationCancelsCreditLine(t *testing.T) {
	ledger := fakeLedger{records: map[string]types.CancellationRecord{}}
	cat := catalog.Default()
	d := cancellation.NewDispatcher(ledger,
		cancellation.WithCatalog(cat),
		cancellation.WithClock(func() time.Time { return fixedNow }))

	if _, err := d.Cancel(context.Background(), cancellation.Request{
		Service:   "AWS Skill Builder",
		Cost:      usd("29.00"),
		Confirmed: true,
	}); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	costs := &fakeCosts{services: []types.CostLineItem{
		item("Skill Builder Individual", "29.00"),
		item("Refund", "-29.00"),
	}}
	got, err := NewService(costs, ledger, cat, WithClock(func() time.Time { return fixedNow })).
		GetServiceCosts(context.Background(), 30)
	if err != nil {
		t.Fatalf("GetServiceCosts() error = %v", err)
	}
	for _, e := range got {
		if e.Status != types.StatusCanceled || e.CanceledOn != "2025-04-21" {
			t.Errorf("%s status = %s (%s), want Canceled (2025-04-21)", e.Name, e.Status, e.CanceledOn)
		}
	}
	if len(got) != 2 {
		t.Errorf("entries = %s", names(got))
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		raw    string
		amount string
		want   string
	}{
		{"Amazon Simple Storage Service", "1", "Amazon Simple Storage Service"},
		{"AWS Lambda", "1", "AWS Lambda"},
		{"Skill Builder Individual", "29", "AWS Skill Builder"},
		{"Tax", "3", "Tax"},
		{"EC2 - Other", "1", "AWS EC2 - Other"},
		{"Refund", "-29", "Credit/Refund (AWS Skill Builder)"},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.raw, usd(tt.amount)); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestDetectAnomalies(t *testing.T) {
	day := func(date, amount string) types.DailyCost {
		return types.DailyCost{Date: date, Amount: usd(amount)}
	}

	if got := DetectAnomalies([]types.DailyCost{day("2025-04-01", "1"), day("2025-04-02", "100")}); got != nil {
		t.Errorf("two days flagged %+v", got)
	}

	small := []types.DailyCost{day("2025-04-01", "2.00"), day("2025-04-02", "2.00"), day("2025-04-03", "8.00")}
	got := DetectAnomalies(small)
	if len(got) != 1 || got[0].Date != "2025-04-03" {
		t.Errorf("small window anomalies = %+v", got)
	}

	steady := []types.DailyCost{
		day("2025-04-01", "5.00"), day("2025-04-02", "5.10"), day("2025-04-03", "4.90"),
		day("2025-04-04", "5.00"), day("2025-04-05", "5.20"), day("2025-04-06", "4.80"),
	}
	if got := DetectAnomalies(steady); len(got) != 0 {
		t.Errorf("steady window anomalies = %+v", got)
	}

	spike := append(append([]types.DailyCost{}, steady...),
		day("2025-04-07", "5.00"), day("2025-04-08", "5.10"), day("2025-04-09", "40.00"))
	got = DetectAnomalies(spike)
	if len(got) != 1 || got[0].Date != "2025-04-09" || !got[0].Deviation.IsPositive() {
		t.Errorf("spike anomalies = %+v", got)
	}
}

func TestForecastUnavailableIsNil(t *testing.T) {
	s := newService(&fakeCosts{forecastErr: apperrors.Unavailable("no history", nil)}, fakeLedger{})
	f, err := s.Forecast(context.Background(), 30)
	if err != nil || f != nil {
		t.Errorf("Forecast() = %v, %v; want nil, nil", f, err)
	}

	denied := apperrors.New(apperrors.TypeDenied, "AccessDeniedException")
	s = newService(&fakeCosts{forecastErr: denied}, fakeLedger{})
	if _, err := s.Forecast(context.Background(), 30); !errors.Is(err, denied) {
		t.Errorf("err = %v, want denied", err)
	}
}

func TestGenerateReport(t *testing.T) {
	costs := &fakeCosts{
		services: []types.CostLineItem{item("AWS Lambda", "12.00"), item("Tax", "1.00")},
		daily: []types.DailyCost{
			{Date: "2025-04-19", Amount: usd("6.50")},
			{Date: "2025-04-20", Amount: usd("6.50")},
		},
		forecast:    &types.Forecast{Mean: usd("180")},
		forecastErr: nil,
	}
	gen := &captureGenerator{}
	s := newService(costs, fakeLedger{}, WithReportGenerator(gen))

	path, err := s.GenerateReport(context.Background(), ReportRequest{DaysBack: 30, OutputPath: "out/report.html"})
	if err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}
	if path != "out/report.html" {
		t.Errorf("path = %q", path)
	}

	r := gen.report
	if r.RunID == "" || !r.GeneratedAt.Equal(fixedNow) {
		t.Errorf("metadata = %q %v", r.RunID, r.GeneratedAt)
	}
	if !r.Total.Equal(usd("13.00")) {
		t.Errorf("Total = %s, want sum of daily costs", r.Total)
	}
	if r.Forecast == nil || !r.Forecast.Mean.Equal(usd("180")) {
		t.Errorf("Forecast = %+v", r.Forecast)
	}
	if _, ok := r.Resources["Tax"]; ok {
		t.Error("required service has cancellation actions")
	}
	if len(r.Resources["AWS Lambda"]) == 0 {
		t.Error("Lambda has no console actions")
	}
	if r.ServicePaths["AWS Lambda"] == "" {
		t.Error("service path missing")
	}
}

func TestGenerateReportWithoutGenerator(t *testing.T) {
	s := newService(&fakeCosts{}, fakeLedger{})
	if _, err := s.GenerateReport(context.Background(), ReportRequest{DaysBack: 30}); !apperrors.IsType(err, apperrors.TypeConfig) {
		t.Errorf("err = %v, want config error", err)
	}
}
