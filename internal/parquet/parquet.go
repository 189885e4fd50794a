// Package parquet exports patrolq data to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"time"

	"github.com/huangsam/patrolq/internal/contract"
	"github.com/huangsam/patrolq/schema"
	"github.com/parquet-go/parquet-go"
)

// TrackingRun represents a single tracked pipeline run.
// This struct maps to the patrolq_runs database table.
type TrackingRun struct {
	// RunID is the unique identifier of the run
	RunID string `parquet:"run_id,snappy"`

	// RunName is the human-readable name of the run
	RunName string `parquet:"run_name,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int64 `parquet:"run_duration_ms,optional,snappy"`

	// Status is RUNNING, FINISHED or FAILED
	Status string `parquet:"status,snappy"`

	// RowsProcessed is the number of rows the run modelled (nullable)
	RowsProcessed *int64 `parquet:"rows_processed,optional,snappy"`

	// Params contains the JSON-encoded run parameters (nullable)
	Params *string `parquet:"params,optional,snappy"`
}

// TrackingMetric represents one metric value logged for a run.
// This struct maps to the patrolq_metrics database table.
type TrackingMetric struct {
	RunID    string    `parquet:"run_id,snappy"`
	Key      string    `parquet:"metric_key,snappy"`
	Step     int64     `parquet:"step,snappy"`
	Value    float64   `parquet:"value,snappy"`
	LoggedAt time.Time `parquet:"logged_at,snappy"`
}

// CleanedIncident is one row of the cleaned dataset.
type CleanedIncident struct {
	ID                  string    `parquet:"id,snappy"`
	CaseNumber          string    `parquet:"case_number,snappy"`
	Date                time.Time `parquet:"date,snappy"`
	Block               string    `parquet:"block,snappy"`
	PrimaryType         string    `parquet:"primary_type,dict,snappy"`
	Description         string    `parquet:"description,snappy"`
	LocationDescription string    `parquet:"location_description,snappy"`
	Arrest              bool      `parquet:"arrest"`
	Domestic            bool      `parquet:"domestic"`
	District            string    `parquet:"district,dict,snappy"`
	Latitude            float64   `parquet:"latitude,snappy"`
	Longitude           float64   `parquet:"longitude,snappy"`
	Hour                int32     `parquet:"hour,snappy"`
	Day                 string    `parquet:"day,dict,snappy"`
	Month               int32     `parquet:"month,snappy"`
	IsWeekend           bool      `parquet:"is_weekend"`
}

// WriteTrackingRunsParquet writes tracked runs to a Parquet file.
func WriteTrackingRunsParquet(data []TrackingRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteTrackingMetricsParquet writes tracked metrics to a Parquet file.
func WriteTrackingMetricsParquet(data []TrackingMetric, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteCleanedParquet writes the cleaned dataset to a Parquet file.
func WriteCleanedParquet(records []schema.CleanedRecord, outputPath string) error {
	return writeParquet(ConvertCleanedRecords(records), outputPath)
}

// writeParquet replaces outputPath atomically with the rows of data.
// The schema is derived from the struct tags of T.
func writeParquet[T any](data []T, outputPath string) error {
	err := contract.WriteFileAtomic(outputPath, func(w io.Writer) error {
		writer := parquet.NewGenericWriter[T](w)
		if _, err := writer.Write(data); err != nil {
			_ = writer.Close()
			return fmt.Errorf("failed to write data to parquet file: %w", err)
		}
		return writer.Close()
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	return nil
}

// ConvertRunRecords converts schema.RunRecord to TrackingRun for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []TrackingRun {
	result := make([]TrackingRun, len(records))
	for i, record := range records {
		result[i] = TrackingRun{
			RunID:         record.RunID,
			RunName:       record.RunName,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			Status:        record.Status,
			RowsProcessed: record.RowsProcessed,
			Params:        record.Params,
		}
	}
	return result
}

// ConvertMetricRecords converts schema.MetricRecord to TrackingMetric for Parquet export.
func ConvertMetricRecords(records []schema.MetricRecord) []TrackingMetric {
	result := make([]TrackingMetric, len(records))
	for i, record := range records {
		result[i] = TrackingMetric(record)
	}
	return result
}

// ConvertCleanedRecords converts cleaned records to their Parquet rows.
func ConvertCleanedRecords(records []schema.CleanedRecord) []CleanedIncident {
	result := make([]CleanedIncident, len(records))
	for i, rec := range records {
		result[i] = CleanedIncident{
			ID:                  rec.ID,
			CaseNumber:          rec.CaseNumber,
			Date:                rec.Date,
			Block:               rec.Block,
			PrimaryType:         rec.PrimaryType,
			Description:         rec.Description,
			LocationDescription: rec.LocationDescription,
			Arrest:              rec.Arrest,
			Domestic:            rec.Domestic,
			District:            rec.District,
			Latitude:            rec.Latitude,
			Longitude:           rec.Longitude,
			Hour:                int32(rec.Hour),
			Day:                 rec.Day,
			Month:               int32(rec.Month),
			IsWeekend:           rec.IsWeekend,
		}
	}
	return result
}
