package parquet

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/patrolq/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll[T any](t *testing.T, path string) []T {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err, "Should be able to open output file")
	defer file.Close()

	reader := parquet.NewGenericReader[T](file)
	defer reader.Close()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err, "Should be able to read data")
	}
	return rows[:n]
}

func TestTrackingRunStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(TrackingRun))
	require.NotNil(t, s)

	for _, colName := range []string{"run_id", "run_name", "start_time", "end_time", "run_duration_ms", "status", "rows_processed", "params"} {
		col, ok := s.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
		require.NotNil(t, col)
	}
}

func TestCleanedIncidentStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(CleanedIncident))
	require.NotNil(t, s)
	assert.Len(t, s.Fields(), len(schema.CleanedColumns), "one column per cleaned field")
}

func TestWriteTrackingRunsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "runs.parquet")

	now := time.Now()
	end := now.Add(2 * time.Second)
	duration := int64(2000)
	rows := int64(1234)
	params := `{"seed":42}`
	data := ConvertRunRecords([]schema.RunRecord{
		{RunID: "a", RunName: "first", StartTime: now, EndTime: &end, RunDurationMs: &duration,
			Status: schema.RunStatusFinished, RowsProcessed: &rows, Params: &params},
		{RunID: "b", RunName: "second", StartTime: now, Status: schema.RunStatusRunning},
	})

	require.NoError(t, WriteTrackingRunsParquet(data, outputPath))
	got := readAll[TrackingRun](t, outputPath)
	require.Len(t, got, 2)

	assert.Equal(t, "a", got[0].RunID)
	require.NotNil(t, got[0].EndTime)
	assert.WithinDuration(t, end, *got[0].EndTime, time.Microsecond)
	require.NotNil(t, got[0].RowsProcessed)
	assert.Equal(t, rows, *got[0].RowsProcessed)
	require.NotNil(t, got[0].Params)
	assert.Equal(t, params, *got[0].Params)

	assert.Equal(t, schema.RunStatusRunning, got[1].Status)
	assert.Nil(t, got[1].EndTime)
	assert.Nil(t, got[1].RunDurationMs)
	assert.Nil(t, got[1].Params)
}

func TestWriteTrackingMetricsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "metrics.parquet")
	now := time.Now()
	data := ConvertMetricRecords([]schema.MetricRecord{
		{RunID: "a", Key: "silhouette", Step: 3, Value: 0.61, LoggedAt: now},
		{RunID: "a", Key: "silhouette", Step: 4, Value: 0.52, LoggedAt: now},
	})

	require.NoError(t, WriteTrackingMetricsParquet(data, outputPath))
	got := readAll[TrackingMetric](t, outputPath)
	require.Len(t, got, 2)
	assert.Equal(t, int64(4), got[1].Step)
	assert.InDelta(t, 0.52, got[1].Value, 1e-12)
}

func TestWriteCleanedParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "nested", schema.CleanedParquetFile)
	records := []schema.CleanedRecord{
		{ID: "1", Date: time.Date(2023, 1, 7, 14, 0, 0, 0, time.UTC), PrimaryType: "THEFT",
			Latitude: 41.8, Longitude: -87.6, Hour: 14, Day: "Saturday", Month: 1, IsWeekend: true, Arrest: true},
		{ID: "2", Date: time.Date(2023, 1, 9, 3, 0, 0, 0, time.UTC), PrimaryType: "BATTERY",
			Latitude: 41.9, Longitude: -87.7, Hour: 3, Day: "Monday", Month: 1},
	}

	require.NoError(t, WriteCleanedParquet(records, outputPath))
	got := readAll[CleanedIncident](t, outputPath)
	require.Len(t, got, 2)
	assert.Equal(t, "THEFT", got[0].PrimaryType)
	assert.Equal(t, int32(14), got[0].Hour)
	assert.True(t, got[0].IsWeekend)
	assert.InDelta(t, -87.7, got[1].Longitude, 1e-12)
	assert.Equal(t, "Monday", got[1].Day)
}

func TestWriteParquetEmptyData(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, WriteTrackingRunsParquet([]TrackingRun{}, outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err, "Output file should exist")
	assert.Greater(t, info.Size(), int64(0), "Output file should contain schema even if empty")
}

func TestWriteParquetInvalidPath(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	err := WriteTrackingMetricsParquet(nil, filepath.Join(file, "metrics.parquet"))
	require.Error(t, err, "Writing below a regular file should produce error")
}
