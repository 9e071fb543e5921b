package analysis

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"aws-cost/core/detective"
	"aws-cost/core/types"
	apperrors "aws-cost/internal/errors"
)

// DefaultForecastDays is the forecast window used in reports
const DefaultForecastDays = 30

// ReportRequest controls report generation
type ReportRequest struct {
	// DaysBack is the billing window
	DaysBack int

	// OutputPath is where the renderer writes; empty lets it choose
	OutputPath string

	// Annotate attaches billing-source links and live resources to entries
	Annotate bool

	// ForecastDays is the forecast window; zero uses DefaultForecastDays
	ForecastDays int
}

// Forecast returns projected spend for the next daysForward days.
// An unavailable or unsupported forecast yields nil without error.
func (s *Service) Forecast(ctx context.Context, daysForward int) (*types.Forecast, error) {
	if daysForward <= 0 {
		daysForward = DefaultForecastDays
	}
	f, err := s.costData.Forecast(ctx, types.NextDays(s.now(), daysForward))
	if err != nil {
		switch apperrors.TypeOf(err) {
		case apperrors.TypeUnavailable, apperrors.TypeNotSupported:
			s.logger.Info("no cost forecast available", zap.Error(err))
			return nil, nil
		}
		return nil, err
	}
	return f, nil
}

// BuildReport collects everything a renderer needs for one run
func (s *Service) BuildReport(ctx context.Context, req ReportRequest) (*types.Report, error) {
	period := types.LastDays(s.now(), req.DaysBack)

	services, err := s.GetServiceCosts(ctx, req.DaysBack)
	if err != nil {
		return nil, err
	}
	daily, err := s.costData.DailyCosts(ctx, period)
	if err != nil {
		return nil, err
	}

	report := &types.Report{
		RunID:         uuid.NewString(),
		GeneratedAt:   s.now(),
		Period:        period,
		Services:      services,
		Daily:         daily,
		Total:         decimal.Zero,
		Anomalies:     DetectAnomalies(daily),
		ServicePaths:  make(map[string]string, len(services)),
		Relationships: s.catalog.Relationships(),
		Resources:     make(map[string][]types.ConsoleAction),
	}
	for _, d := range daily {
		report.Total = report.Total.Add(d.Amount)
	}

	forecast, err := s.Forecast(ctx, req.ForecastDays)
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("forecast unavailable: %v", err))
	}
	report.Forecast = forecast

	for i := range report.Services {
		e := &report.Services[i]
		report.ServicePaths[e.Name] = e.ConsoleURL
		if e.Status == types.StatusRequired {
			continue
		}

		var regions []string
		if req.Annotate {
			regions, report.Warnings = s.annotate(ctx, e, report.Warnings)
		}
		e.Actions = append(e.Actions, s.catalog.Actions(e.Name, regions)...)
		report.Resources[e.Name] = e.Actions
	}

	s.logger.Info("report built",
		zap.String("run_id", report.RunID),
		zap.Int("services", len(report.Services)),
		zap.String("total", report.Total.StringFixed(2)))
	return report, nil
}

// annotate attaches the billing-source link and live resources for services
// the detective can locate. It returns the regions the service is billed in.
func (s *Service) annotate(ctx context.Context, e *types.ServiceCostEntry, warnings []string) ([]string, []string) {
	if s.detective == nil || !detective.Supports(e.Name) {
		return nil, warnings
	}

	src, err := s.detective.LocateBillingSource(ctx, e.Name)
	if err != nil {
		return nil, append(warnings, fmt.Sprintf("%s: billing source unavailable: %v", e.Name, err))
	}
	e.Actions = append(e.Actions, src.Action)
	regions := []string{src.Resolution.Region}

	candidates, scanWarnings := s.detective.Candidates(ctx, e.Name, regions)
	e.Candidates = candidates
	return regions, append(warnings, scanWarnings...)
}

// GenerateReport builds the report and hands it to the renderer.
// It returns the written path.
func (s *Service) GenerateReport(ctx context.Context, req ReportRequest) (string, error) {
	if s.generator == nil {
		return "", apperrors.Config("no report generator configured", nil)
	}
	report, err := s.BuildReport(ctx, req)
	if err != nil {
		return "", err
	}
	return s.generator.Generate(ctx, report, req.OutputPath)
}
