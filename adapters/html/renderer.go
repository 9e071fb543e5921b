// Package html renders a cost report as one self-contained HTML file.
package html

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"aws-cost/core/types"
	apperrors "aws-cost/internal/errors"
	"aws-cost/internal/logging"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

// FileName returns the default report file name for a day
func FileName(day time.Time) string {
	return fmt.Sprintf("aws_cost_report_%s.html", day.Format(types.DateLayout))
}

// Renderer implements ports.ReportGenerator
type Renderer struct {
	outputDir string
	tmpl      *template.Template
	now       func() time.Time
	logger    *zap.Logger
}

// NewRenderer creates a renderer writing into outputDir by default
func NewRenderer(outputDir string) (*Renderer, error) {
	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return nil, apperrors.Config("create report directory", err).WithContext("dir", outputDir)
		}
	}
	tmpl, err := template.New("report.html.tmpl").
		Funcs(template.FuncMap{"money": money}).
		ParseFS(templateFS, "templates/report.html.tmpl")
	if err != nil {
		return nil, apperrors.Internal("parse report template", err)
	}
	return &Renderer{
		outputDir: outputDir,
		tmpl:      tmpl,
		now:       time.Now,
		logger:    logging.Named("html"),
	}, nil
}

// OutputDir returns the default report directory
func (r *Renderer) OutputDir() string {
	return r.outputDir
}

// DefaultPath is where a report generated today lands
func (r *Renderer) DefaultPath() string {
	return filepath.Join(r.outputDir, FileName(r.now()))
}

// view is the data handed to the template
type view struct {
	Report     *types.Report
	ReportDate string
	Top        *types.ServiceCostEntry
	Cancelable []types.ServiceCostEntry
}

// Generate renders report to outputPath, or to DefaultPath when empty
func (r *Renderer) Generate(ctx context.Context, report *types.Report, outputPath string) (string, error) {
	if report == nil {
		return "", apperrors.Input("no report to render")
	}
	if outputPath == "" {
		outputPath = r.DefaultPath()
	}

	v := view{
		Report:     report,
		ReportDate: r.now().Format(types.DateLayout),
		Cancelable: lo.Filter(report.Services, func(s types.ServiceCostEntry, _ int) bool {
			return s.Status.Cancelable() && (len(s.Actions) > 0 || len(s.Candidates) > 0)
		}),
	}
	if top, ok := lo.Find(report.Services, func(s types.ServiceCostEntry) bool {
		return s.Cost.IsPositive()
	}); ok {
		v.Top = &top
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, v); err != nil {
		return "", apperrors.Internal("render report", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", apperrors.Persistence("create report directory", err)
	}
	if err := os.WriteFile(outputPath, buf.Bytes(), 0o644); err != nil {
		return "", apperrors.Persistence("write report", err)
	}

	abs, err := filepath.Abs(outputPath)
	if err != nil {
		abs = outputPath
	}
	r.logger.Info("report written",
		zap.String("path", abs),
		zap.String("run_id", report.RunID),
		zap.Int("services", len(report.Services)))
	return abs, nil
}

// money formats an amount as dollars with two decimals
func money(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	out := "$" + b.String() + "." + frac
	if d.IsNegative() && s != "0.00" {
		out = "-" + out
	}
	return out
}
