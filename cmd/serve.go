package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/patrolq/internal/api"
	"github.com/huangsam/patrolq/internal/contract"
	"github.com/huangsam/patrolq/internal/logging"
	"github.com/huangsam/patrolq/internal/results"
	"github.com/huangsam/patrolq/internal/tracking"
	"github.com/spf13/cobra"
)

// serveSetup loads the reader configuration and opens the tracking store so
// the API can list recorded runs. Metric sinks are never opened here.
func serveSetup(cmd *cobra.Command, args []string) error {
	if err := readerSetup(cmd, args); err != nil {
		return err
	}
	backend, err := contract.ParseBackend(input.TrackingBackend)
	if err != nil {
		return err
	}
	if err := contract.ValidateDatabaseConnectionString(backend, input.TrackingDBConnect); err != nil {
		return err
	}
	cfg.TrackingBackend = backend
	cfg.TrackingDBConnect = input.TrackingDBConnect

	if err := tracking.InitTracking(backend, cfg.TrackingDBConnect, contract.InfluxConfig{}, contract.KafkaConfig{}); err != nil {
		return fmt.Errorf("failed to initialize tracking: %w", err)
	}
	return nil
}

// serveCmd starts the read-only HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the stored results over a read-only HTTP API.",
	Long: `Start an HTTP server exposing the documents of the last run.

Endpoints:
  GET /health
  GET /api/v1/results
  GET /api/v1/results/best
  GET /api/v1/results/sweep?valid=true
  GET /api/v1/dimensionality
  GET /api/v1/profiles?limit=5
  GET /api/v1/runs

Every reply uses the {code, message, data} envelope. Before any run has
stored its documents, the document endpoints answer 404.

Examples:
  patrolq serve
  patrolq serve --listen 127.0.0.1:9000 --output-dir /srv/patrolq`,
	Args:    cobra.NoArgs,
	PreRunE: serveSetup,
	Run: func(_ *cobra.Command, _ []string) {
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger, closeLog, err := logging.New(logging.Options{Dir: cfg.LogDir, Console: os.Stderr})
		if err != nil {
			contract.LogFatal("Cannot open log", err)
		}
		defer func() { _ = closeLog() }()

		var store contract.TrackingStore
		if trackingManager != nil {
			store = trackingManager.GetStore()
		}
		h := api.NewHandler(results.NewStore(cfg.OutputDir), store)
		if err := api.Serve(ctx, cfg.Listen, h, logger); err != nil {
			contract.LogFatal("Cannot serve API", err)
		}
	},
}
