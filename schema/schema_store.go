package schema

import "time"

// Run status values recorded by the tracking store.
const (
	RunStatusRunning  = "RUNNING"
	RunStatusFinished = "FINISHED"
	RunStatusFailed   = "FAILED"
)

// RunRecord represents a row from the patrolq_runs table.
type RunRecord struct {
	RunID         string     `db:"run_id"`
	RunName       string     `db:"run_name"`
	StartTime     time.Time  `db:"start_time"`
	EndTime       *time.Time `db:"end_time"`
	RunDurationMs *int64     `db:"run_duration_ms"`
	Status        string     `db:"status"`
	RowsProcessed *int64     `db:"rows_processed"`
	Params        *string    `db:"params"`
}

// MetricRecord represents a row from the patrolq_metrics table.
type MetricRecord struct {
	RunID    string    `db:"run_id"`
	Key      string    `db:"metric_key"`
	Step     int64     `db:"step"`
	Value    float64   `db:"value"`
	LoggedAt time.Time `db:"logged_at"`
}
