// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"time"

	"github.com/huangsam/patrolq/schema"
)

// Tracker is the experiment-tracking side-channel. The pipeline writes runs,
// parameters and metrics to it and never reads anything back.
type Tracker interface {
	// StartRun opens a new run and returns its unique ID
	StartRun(name string, startTime time.Time) (string, error)

	// LogParams records the configuration of a run
	LogParams(runID string, params map[string]any) error

	// LogMetric records one metric value; step orders repeated keys (K, component index)
	LogMetric(runID string, key string, value float64, step int) error

	// EndRun closes the run with its final status and processed row count
	EndRun(runID string, endTime time.Time, status string, rows int) error

	// Close releases the underlying connection
	Close() error
}

// TrackingStore is a Tracker backed by a queryable database.
type TrackingStore interface {
	Tracker

	// GetStatus returns status information about the tracking store
	GetStatus() (schema.TrackingStatus, error)

	// GetAllRuns returns every tracked run ordered by start time
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllMetrics returns every tracked metric ordered by run, key and step
	GetAllMetrics() ([]schema.MetricRecord, error)
}

// TrackingManager gives access to the configured tracking sinks.
// This allows the tracking layer to be mocked for testing.
type TrackingManager interface {
	GetTracker() Tracker
	GetStore() TrackingStore
}

// ResultReader loads the persisted pipeline documents for consumers.
type ResultReader interface {
	LoadResults() (*schema.ResultDocument, error)
	LoadDimensionality() (*schema.DimensionalityDocument, error)
}
