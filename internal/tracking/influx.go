package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/patrolq/internal/contract"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurements written to InfluxDB.
const (
	runMeasurement    = "pipeline_run"
	metricMeasurement = "pipeline_metric"
)

// influxTimeout bounds every write and the startup health check.
const influxTimeout = 10 * time.Second

// InfluxSink writes run events and metrics as InfluxDB points.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

var _ Sink = &InfluxSink{} // Compile-time check

// NewInfluxSink connects to InfluxDB and verifies it is healthy.
func NewInfluxSink(cfg contract.InfluxConfig) (*InfluxSink, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	ctx, cancel := context.WithTimeout(context.Background(), influxTimeout)
	defer cancel()
	if _, err := client.Health(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to InfluxDB at %s: %w", cfg.URL, err)
	}

	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}, nil
}

// OpenRun writes a RUNNING run point.
func (s *InfluxSink) OpenRun(runID, name string, startTime time.Time) error {
	return s.write(write.NewPoint(
		runMeasurement,
		map[string]string{"run_id": runID, "run_name": name},
		map[string]any{"status": "RUNNING"},
		startTime,
	))
}

// LogParams is a no-op: parameters are not a time series.
func (s *InfluxSink) LogParams(string, map[string]any) error {
	return nil
}

// LogMetric writes one metric point tagged by run and key.
func (s *InfluxSink) LogMetric(runID, key string, value float64, step int) error {
	return s.write(write.NewPoint(
		metricMeasurement,
		map[string]string{"run_id": runID, "key": key},
		map[string]any{"value": value, "step": step},
		time.Now(),
	))
}

// EndRun writes the final run point.
func (s *InfluxSink) EndRun(runID string, endTime time.Time, status string, rows int) error {
	return s.write(write.NewPoint(
		runMeasurement,
		map[string]string{"run_id": runID},
		map[string]any{"status": status, "rows_processed": rows},
		endTime,
	))
}

// Close closes the InfluxDB client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func (s *InfluxSink) write(point *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), influxTimeout)
	defer cancel()
	if err := s.writeAPI.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("failed to write %s point: %w", point.Name(), err)
	}
	return nil
}
