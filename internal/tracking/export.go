package tracking

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/patrolq/internal/contract"
	"github.com/huangsam/patrolq/internal/parquet"
)

// ExportPaths returns the Parquet files an export with prefix writes.
func ExportPaths(prefix string) (runs, metrics string) {
	return prefix + ".runs.parquet", prefix + ".metrics.parquet"
}

// ExecuteTrackingExport exports every tracked run and metric from store to
// two Parquet files named after outputFile.
func ExecuteTrackingExport(w io.Writer, store contract.TrackingStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("tracking store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get tracking status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no tracking data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total metric records: %d\n", status.TableSizes[metricsTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	metrics, err := store.GetAllMetrics()
	if err != nil {
		return fmt.Errorf("failed to retrieve metrics: %w", err)
	}

	runsFile, metricsFile := ExportPaths(outputFile)
	parquetRuns := parquet.ConvertRunRecords(runs)
	if err := parquet.WriteTrackingRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(parquetRuns), runsFile)

	parquetMetrics := parquet.ConvertMetricRecords(metrics)
	if err := parquet.WriteTrackingMetricsParquet(parquetMetrics, metricsFile); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d metric records to: %s\n", len(parquetMetrics), metricsFile)

	_, _ = fmt.Fprintln(w, "\nExport complete! The Parquet files can be used with:")
	_, _ = fmt.Fprintln(w, "  - Pandas (via pyarrow)")
	_, _ = fmt.Fprintln(w, "  - DuckDB")
	_, _ = fmt.Fprintln(w, "  - Apache Spark")
	return nil
}
