package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/patrolq/core"
	"github.com/huangsam/patrolq/internal/contract"
	"github.com/spf13/cobra"
)

// runCmd runs the full clustering pipeline.
var runCmd = &cobra.Command{
	Use:   "run [input-csv]",
	Short: "Clean incidents, sweep clustering models and store the results.",
	Long: `Run the crime clustering pipeline end to end.

Stages:
- Load and clean the incident CSV (bad coordinates and dates are dropped)
- Persist the cleaned dataset and an exploratory summary
- Sample, engineer features and standardize them
- Reduce to principal components
- Sweep K-means over the K range, plus DBSCAN and Ward clustering
- Select the best K and profile its clusters geographically
- Store the result and dimensionality documents atomically

Every run is recorded by the tracking backend. Tracking failures are
reported as warnings and never stop the pipeline.

Examples:
  # Cluster a city export with defaults
  patrolq run data/raw/crimes.csv

  # Narrow the sweep and keep the run reproducible
  patrolq run crimes.csv --k-min 4 --k-max 8 --seed 7

  # Full dataset, JSON summary, no tracking
  patrolq run crimes.csv --sample-size 0 --output json --tracking-backend none

  # Stream metrics to InfluxDB and Kafka while tracking in SQLite
  patrolq run crimes.csv --influx-url http://localhost:8086 --influx-org ops \
    --influx-bucket patrolq --kafka-brokers localhost:9092`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := core.ExecutePipeline(ctx, cfg, trackingManager); err != nil {
			contract.LogFatal("Cannot run pipeline", err)
		}
	},
}
