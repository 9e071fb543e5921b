package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveAddr string

// serveCmd runs the HTTP API and dashboard
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard and cancellation API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, done, err := setup(cmd)
		if err != nil {
			return err
		}
		defer done()
		return a.Serve(ctx, serveAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}
