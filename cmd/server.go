package cmd

import (
	"log"
	"log/slog"

	"github.com/curaious/tasky/internal/api"
	"github.com/curaious/tasky/internal/clock"
	"github.com/curaious/tasky/internal/config"
	"github.com/curaious/tasky/internal/logger"
	"github.com/curaious/tasky/internal/services"
	"github.com/curaious/tasky/internal/telemetry"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the task tracker API",
	Run: func(cmd *cobra.Command, args []string) {
		conf := config.ReadConfig()
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			conf.SERVER_ADDR = addr
		}

		logger.Setup(conf)

		shutdownTelemetry := telemetry.NewProvider(conf.OTEL_EXPORTER_OTLP_ENDPOINT)
		defer shutdownTelemetry()

		var svc *services.Services
		if memory, _ := cmd.Flags().GetBool("memory"); memory {
			slog.Warn("Using in-memory storage, data is lost on exit")
			svc = services.NewMemoryServices(conf, clock.System())
		} else {
			svc = services.NewServices(conf)
		}

		s, err := api.New(conf, svc)
		if err != nil {
			log.Fatal(err)
		}
		s.Start()
	},
}

// Register the "server" command
func init() {
	serverCmd.Flags().Bool("memory", false, "Keep all data in process memory instead of Postgres")
	serverCmd.Flags().String("addr", "", "Listen address, overrides SERVER_ADDR")
	rootCmd.AddCommand(serverCmd)
}
