package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/sandevgo/shopclerk/pkg/log"
	"github.com/sandevgo/shopclerk/pkg/srv"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the ShopClerk services",
	Long:  `Initializes and starts all configured transports (HTTP, CLI, Telegram, MCP) and background workers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		// logger setup
		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting shopclerk")

		// Define services using the setup.go logic
		services := NewServices(ctx)

		// Start services
		srv.StartServices(ctx, services)

		// Wait for shutdown signal
		srv.ShutdownServices(ctx, services)
		logger.Info().Msg("shopclerk has been shut down gracefully")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
