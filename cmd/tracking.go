package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/patrolq/internal/contract"
	"github.com/huangsam/patrolq/internal/tracking"
	"github.com/huangsam/patrolq/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// loadTrackingConfig reads and validates the tracking backend settings.
func loadTrackingConfig() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend, err := contract.ParseBackend(viper.GetString("tracking-backend"))
	if err != nil {
		return err
	}
	connStr := viper.GetString("tracking-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.TrackingBackend = backend
	cfg.TrackingDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// trackingSetup loads minimal configuration needed for tracking operations.
// This is used by commands that need the store without full shared setup.
func trackingSetup(_ *cobra.Command, _ []string) error {
	if err := loadTrackingConfig(); err != nil {
		return err
	}

	// Initialize the store only; metric sinks are for pipeline runs
	if err := tracking.InitTracking(cfg.TrackingBackend, cfg.TrackingDBConnect, contract.InfluxConfig{}, contract.KafkaConfig{}); err != nil {
		return fmt.Errorf("failed to initialize tracking: %w", err)
	}
	return nil
}

// trackingMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize stores or create tables,
// allowing migrations to run on a fresh database.
func trackingMigrateSetup(_ *cobra.Command, _ []string) error {
	if err := loadTrackingConfig(); err != nil {
		return err
	}

	// For SQLite backend with empty connection string, use default path
	if cfg.TrackingBackend == schema.SQLiteBackend && cfg.TrackingDBConnect == "" {
		cfg.TrackingDBConnect = tracking.GetTrackingDBFilePath()
	}
	return nil
}

// trackingCmd focused on run tracking data management.
//
// Note: Tracking subcommands use minimal initialization (trackingSetup) instead of
// the full sharedSetup used by the run command. This avoids input validation
// for simple tracking operations.
var trackingCmd = &cobra.Command{
	Use:   "tracking",
	Short: "Manage pipeline run tracking and exports",
	Long: `Manage the history of pipeline runs.

When enabled, patrolq tracks every pipeline run, storing:
- Run metadata (name, start and end time, duration, status)
- Run parameters (K range, sample size, seed, ...)
- Metrics (row counts, per-K silhouette and Davies-Bouldin, best K)

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show tracking statistics
  export  - Export runs and metrics to Parquet
  clear   - Remove all tracking data
  migrate - Run database schema migrations

Examples:
  # Check tracking status
  patrolq tracking status

  # Export for analysis in pandas/DuckDB
  patrolq tracking export --output-file tracking`,
}

// trackingClearCmd clears the tracking data.
var trackingClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all run tracking data",
	Long: `Delete all stored runs and metrics.

For SQLite the database file is removed; for MySQL and PostgreSQL the
tracking tables are dropped.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  patrolq tracking export --output-file backup
  patrolq tracking clear`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return loadTrackingConfig()
	},
	Run: func(_ *cobra.Command, _ []string) {
		dbFilePath := tracking.GetTrackingDBFilePath()
		if cfg.TrackingBackend == schema.SQLiteBackend && cfg.TrackingDBConnect != "" {
			dbFilePath = cfg.TrackingDBConnect
		}
		if err := tracking.ClearTracking(cfg.TrackingBackend, dbFilePath, cfg.TrackingDBConnect); err != nil {
			contract.LogFatal("Failed to clear tracking data", err)
		}
		fmt.Println("Tracking data cleared successfully.")
	},
}

// trackingStatusCmd shows tracking status.
var trackingStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run tracking statistics and connection details",
	Long: `Show detailed information about run tracking.

Displays:
- Backend type and connection status
- Total and failed runs
- Last and oldest run timestamps
- Total rows processed across runs
- Database table sizes

Examples:
  patrolq tracking status
  patrolq tracking status --tracking-backend postgresql --tracking-db-connect "host=db dbname=patrolq"`,
	PreRunE: trackingSetup,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := tracking.Manager.GetStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get tracking status", err)
		}
		tracking.PrintTrackingStatus(os.Stdout, status)
	},
}

// trackingExportCmd exports tracking data to Parquet files.
var trackingExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export runs and metrics to Parquet for BI tools and analytics",
	Long: `Export all stored tracking data to Parquet.

Writes two files next to the given prefix:
- <prefix>.runs.parquet    - one row per pipeline run
- <prefix>.metrics.parquet - one row per logged metric

Requires: --output-file parameter

Examples:
  patrolq tracking export --output-file tracking
  duckdb -c "SELECT * FROM read_parquet('tracking.metrics.parquet') WHERE metric_key = 'silhouette'"`,
	PreRunE: trackingSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := tracking.ExecuteTrackingExport(os.Stdout, tracking.Manager.GetStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export tracking data", err)
		}
	},
}

// trackingMigrateCmd runs database migrations for the tracking store.
var trackingMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the tracking store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  patrolq tracking migrate

  # Migrate to specific version
  patrolq tracking migrate --target-version 1

  # Rollback to initial state
  patrolq tracking migrate --target-version 0`,
	PreRunE: trackingMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := tracking.MigrateTracking(cfg.TrackingBackend, cfg.TrackingDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
