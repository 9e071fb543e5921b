package cmd

import (
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"aws-cost/core/analysis"
	"aws-cost/internal/config"
	"aws-cost/internal/logging"
)

var (
	reportDays     int
	reportOutput   string
	reportOpen     bool
	reportAnnotate bool
	reportForecast int
)

// reportCmd writes the HTML cost report
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate an HTML cost report",
	Long: `Fetch service costs, daily spend and the forecast for the window and
write them as a self-contained HTML report.

Examples:
  aws-cost report
  aws-cost report --days 7 --output ./weekly.html --open
  aws-cost report --annotate`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().IntVar(&reportDays, "days", 0, "days of billing history (default from config)")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "report file path (default in the report directory)")
	reportCmd.Flags().BoolVar(&reportOpen, "open", false, "open the report in a browser")
	reportCmd.Flags().BoolVar(&reportAnnotate, "annotate", false, "attach billing sources and live resources to each service")
	reportCmd.Flags().IntVar(&reportForecast, "forecast-days", analysis.DefaultForecastDays, "forecast window in days")
}

func runReport(cmd *cobra.Command, args []string) error {
	p, err := printer()
	if err != nil {
		return err
	}
	a, done, err := setup(cmd)
	if err != nil {
		return err
	}
	defer done()

	cfg := config.Get()
	days := reportDays
	if days <= 0 {
		days = cfg.Report.DaysBack
	}

	report, err := a.Analysis.BuildReport(cmd.Context(), analysis.ReportRequest{
		DaysBack:     days,
		Annotate:     reportAnnotate,
		ForecastDays: reportForecast,
	})
	if err != nil {
		return err
	}
	path, err := a.Renderer.Generate(cmd.Context(), report, reportOutput)
	if err != nil {
		return err
	}
	if err := p.Report(path, report); err != nil {
		return err
	}

	if reportOpen || cfg.Report.Open {
		if err := openBrowser(path); err != nil {
			logging.Warn("could not open report", zap.String("path", path), zap.Error(err))
		}
	}
	return nil
}

func openBrowser(path string) error {
	var c *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		c = exec.Command("open", path)
	case "windows":
		c = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		c = exec.Command("xdg-open", path)
	}
	return c.Start()
}
