// Package cli renders command results for the terminal.
// Commands do the work; this package only formats.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"aws-cost/core/cancellation"
	"aws-cost/core/detective"
	"aws-cost/core/scanner"
	"aws-cost/core/types"
	apperrors "aws-cost/internal/errors"
)

// OutputFormat specifies the output format
type OutputFormat int

const (
	FormatTable OutputFormat = iota
	FormatJSON
	FormatMarkdown
)

// ParseFormat accepts cli, table, json and markdown
func ParseFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(s) {
	case "", "cli", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return FormatTable, apperrors.Newf(apperrors.TypeInput, "unknown output format %q", s)
}

const rule = "─────────────────────────────────────────────────────────────────────"

// Printer writes results in one format
type Printer struct {
	output io.Writer
	format OutputFormat
}

// NewPrinter creates a table printer on stdout
func NewPrinter() *Printer {
	return &Printer{output: os.Stdout, format: FormatTable}
}

// SetOutput sets the output writer
func (p *Printer) SetOutput(w io.Writer) {
	p.output = w
}

// SetFormat sets the output format
func (p *Printer) SetFormat(f OutputFormat) {
	p.format = f
}

func (p *Printer) json(v any) error {
	enc := json.NewEncoder(p.output)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *Printer) header(title string) {
	fmt.Fprintln(p.output, "")
	fmt.Fprintln(p.output, "╔══════════════════════════════════════════════════════════════════╗")
	fmt.Fprintf(p.output, "║ %-64s ║\n", title)
	fmt.Fprintln(p.output, "╚══════════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(p.output, "")
}

// Services prints analyzed services above threshold
func (p *Printer) Services(entries []types.ServiceCostEntry, threshold decimal.Decimal) error {
	switch p.format {
	case FormatJSON:
		return p.json(map[string]any{
			"threshold": threshold.StringFixed(2),
			"services":  entries,
		})
	case FormatMarkdown:
		fmt.Fprintf(p.output, "# Services above $%s\n\n", threshold.StringFixed(2))
		fmt.Fprintln(p.output, "| Service | Cost | Status |")
		fmt.Fprintln(p.output, "|---------|-----:|--------|")
		for _, e := range entries {
			fmt.Fprintf(p.output, "| %s | $%s | %s |\n", e.Name, e.Cost.StringFixed(2), e.Status)
		}
		return nil
	}

	if len(entries) == 0 {
		fmt.Fprintf(p.output, "\nNo services found above $%s threshold\n", threshold.StringFixed(2))
		return nil
	}
	fmt.Fprintf(p.output, "\n=== Services above $%s threshold ===\n", threshold.StringFixed(2))
	fmt.Fprintf(p.output, "%-44s %12s  %s\n", "SERVICE", "COST", "STATUS")
	fmt.Fprintln(p.output, rule)
	total := decimal.Zero
	for _, e := range entries {
		status := string(e.Status)
		if e.CanceledOn != "" {
			status += " (" + e.CanceledOn + ")"
		}
		fmt.Fprintf(p.output, "%-44s %12s  %s\n", truncate(e.Name, 44), "$"+e.Cost.StringFixed(2), status)
		total = total.Add(e.Cost)
	}
	fmt.Fprintln(p.output, rule)
	fmt.Fprintf(p.output, "%-44s %12s\n", "TOTAL", "$"+total.StringFixed(2))
	return nil
}

// Report prints where a report was written
func (p *Printer) Report(path string, report *types.Report) error {
	if p.format == FormatJSON {
		return p.json(map[string]any{"path": path, "run_id": report.RunID, "total": report.Total.StringFixed(2)})
	}
	fmt.Fprintf(p.output, "Report generated: %s\n", path)
	for _, w := range report.Warnings {
		fmt.Fprintf(p.output, "⚠ %s\n", w)
	}
	return nil
}

// Scan prints a scan result
func (p *Printer) Scan(results []*scanner.ScanResult) error {
	if p.format == FormatJSON {
		return p.json(results)
	}
	for _, res := range results {
		p.header("SCAN " + string(res.Type))
		fmt.Fprintf(p.output, "Regions: %s\n\n", strings.Join(res.Regions, ", "))
		p.records(res.Resources)
		if len(res.Unsupported) > 0 {
			fmt.Fprintf(p.output, "\nNot offered in: %s\n", strings.Join(res.Unsupported, ", "))
		}
		for _, e := range res.Errors {
			fmt.Fprintf(p.output, "⚠ %s: %s\n", e.Region, e.Message)
		}
	}
	return nil
}

func (p *Printer) records(records []types.ResourceRecord) {
	if len(records) == 0 {
		fmt.Fprintln(p.output, "No resources found")
		return
	}
	fmt.Fprintf(p.output, "%-36s %-16s %-8s %s\n", "NAME", "REGION", "STATUS", "DETAILS")
	fmt.Fprintln(p.output, rule)
	for _, r := range records {
		fmt.Fprintf(p.output, "%-36s %-16s %-8s %s\n", truncate(r.Name, 36), r.Region, r.Status, details(r.Details))
	}
}

// Cancel prints a cancellation result
func (p *Printer) Cancel(result cancellation.Result) error {
	if p.format == FormatJSON {
		return p.json(result)
	}
	mark := "✓"
	if !result.Success {
		mark = "✗"
	}
	fmt.Fprintf(p.output, "%s %s\n", mark, result.Message)
	fmt.Fprintf(p.output, "  action: %s\n", result.Action())
	if result.ErrorCode != "" {
		fmt.Fprintf(p.output, "  error code: %s\n", result.ErrorCode)
	}
	if url, ok := result.Details["url"].(string); ok {
		fmt.Fprintf(p.output, "  console: %s\n", url)
	}
	if instr, ok := result.Details["instructions"].(string); ok {
		fmt.Fprintf(p.output, "  %s\n", instr)
	}
	if key, ok := result.Details["ledger_key"].(string); ok {
		fmt.Fprintf(p.output, "  ledger: %s\n", key)
	}
	if res, ok := result.Details["resources"].([]types.ResourceRecord); ok {
		fmt.Fprintln(p.output, "")
		p.records(res)
	}
	return nil
}

// Investigation prints detective findings
func (p *Printer) Investigation(f *detective.Findings) error {
	if p.format == FormatJSON {
		return p.json(f)
	}
	p.header("INVESTIGATION " + f.Service)
	if f.Billing != nil {
		fmt.Fprintf(p.output, "Billed: $%s\n", f.Billing.Total.StringFixed(2))
		for _, u := range f.Billing.UsageTypes {
			fmt.Fprintf(p.output, "  %-50s $%s\n", truncate(u.UsageType, 50), u.Amount.StringFixed(2))
		}
		fmt.Fprintln(p.output, "")
	}
	fmt.Fprintln(p.output, "DETECTED RESOURCES")
	p.records(f.DetectedResources)
	p.list("POSSIBLE CAUSES", f.PossibleCauses)
	p.list("RECOMMENDATIONS", f.Recommendations)

	links := append(append([]types.ConsoleAction{}, f.ConsoleLinks...), f.Actions...)
	if len(links) > 0 {
		fmt.Fprintln(p.output, "\nCONSOLE LINKS")
		fmt.Fprintln(p.output, rule)
		for _, l := range links {
			fmt.Fprintf(p.output, "• %s\n  %s\n", l.Name, l.URL)
		}
	}
	for _, w := range f.Warnings {
		fmt.Fprintf(p.output, "⚠ %s\n", w)
	}
	return nil
}

func (p *Printer) list(title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(p.output, "\n%s\n%s\n", title, rule)
	for _, s := range items {
		fmt.Fprintf(p.output, "• %s\n", s)
	}
}

// Ledger prints the cancellation ledger sorted by service
func (p *Printer) Ledger(records map[string]types.CancellationRecord) error {
	if p.format == FormatJSON {
		return p.json(records)
	}
	if len(records) == 0 {
		fmt.Fprintln(p.output, "Ledger is empty")
		return nil
	}
	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(p.output, "%-44s %-10s %-12s %10s\n", "SERVICE", "STATUS", "CANCELED ON", "COST")
	fmt.Fprintln(p.output, rule)
	for _, name := range names {
		r := records[name]
		fmt.Fprintf(p.output, "%-44s %-10s %-12s %10s\n",
			truncate(name, 44), r.Status, r.CanceledOn, fmt.Sprintf("$%.2f", r.CostAtCancellation))
	}
	return nil
}

func details(d map[string]string) string {
	if len(d) == 0 {
		return ""
	}
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if d[k] != "" {
			parts = append(parts, k+"="+d[k])
		}
	}
	return strings.Join(parts, " ")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
