// Package cmd provides the CLI commands for aws-cost.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"aws-cost/adapters/cli"
	httpadapter "aws-cost/adapters/http"
	"aws-cost/internal/app"
	"aws-cost/internal/config"
	"aws-cost/internal/logging"
	"aws-cost/internal/telemetry"
)

// version is set at build time with -ldflags "-X aws-cost/cmd/cli/cmd.version=..."
var version = "0.1.0"

var (
	cfgFile      string
	verbose      bool
	outputFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "aws-cost",
	Short: "Report AWS spend and cancel the services behind it",
	Long: `aws-cost reads Cost Explorer data for the account, flags the services
worth attention and helps shut down the resources that generate charges.

Examples:
  aws-cost report --days 30 --open
  aws-cost analyze --threshold 25 --format json
  aws-cost investigate "Amazon OpenSearch Service"
  aws-cost cancel "AWS Lambda" --resource-id my-function --region us-east-1`,
	SilenceUsage: true,
}

// Execute runs the CLI
func Execute() error {
	defer logging.Sync()
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	cobra.OnInitialize(initConfig)
	httpadapter.Version = version

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (.json, .yaml or .hcl)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "cli", "output format (cli, json, markdown)")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(investigateCmd)
	rootCmd.AddCommand(ledgerCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	config.Set(cfg)

	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
	logging.SetVerbose(verbose)
}

// setup wires the application and tracing for one command run.
// The returned func must be deferred.
func setup(cmd *cobra.Command) (*app.App, func(), error) {
	cfg := config.Get()
	shutdownTracer, err := telemetry.InitTracer("aws-cost", version, cfg.Telemetry)
	if err != nil {
		return nil, nil, err
	}
	a, err := app.Build(cmd.Context(), cfg)
	if err != nil {
		shutdownTracer()
		return nil, nil, err
	}
	return a, func() {
		a.Close()
		shutdownTracer()
	}, nil
}

func printer() (*cli.Printer, error) {
	format, err := cli.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	p := cli.NewPrinter()
	p.SetFormat(format)
	return p, nil
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("aws-cost version %s\n", version)
	},
}

// configCmd manages configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(config.Get())
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init PATH",
	Short: "Write the effective configuration to PATH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Get().Save(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", args[0])
		return nil
	},
}
