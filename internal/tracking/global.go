package tracking

import (
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/patrolq/internal/contract"
	"github.com/huangsam/patrolq/schema"
	"github.com/jmoiron/sqlx"
)

// Global Manager instance for main logic.
var (
	Manager   = &SinkManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// GetTrackingDBFilePath returns the path to the SQLite DB file for run tracking.
func GetTrackingDBFilePath() string {
	return contract.GetTrackingDBFilePath()
}

// InitTracking initializes the global manager with the SQL store and any
// configured InfluxDB or Kafka sinks. An empty backend disables the store.
func InitTracking(backend schema.DatabaseBackend, connStr string, influx contract.InfluxConfig, kafka contract.KafkaConfig) error {
	var initErr error

	initOnce.Do(func() {
		store, sinks, err := openSinks(backend, connStr, influx, kafka)
		if err != nil {
			initErr = err
			return
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.store = store
		Manager.tracker = store
		if len(sinks) > 0 {
			Manager.tracker = NewFanout(store, sinks...)
		}
	})

	return initErr
}

// openSinks builds every configured sink, closing the opened ones on failure.
func openSinks(backend schema.DatabaseBackend, connStr string, influx contract.InfluxConfig, kafka contract.KafkaConfig) (contract.TrackingStore, []Sink, error) {
	if backend == "" {
		backend = schema.NoneBackend
	}
	store, err := NewTrackingStore(backend, connStr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize tracking store: %w", err)
	}

	var sinks []Sink
	closeAll := func() {
		for _, s := range sinks {
			_ = s.Close()
		}
		_ = store.Close()
	}

	if influx.Enabled() {
		sink, err := NewInfluxSink(influx)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to initialize InfluxDB sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if kafka.Enabled() {
		sink, err := NewKafkaSink(kafka)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to initialize Kafka sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	return store, sinks, nil
}

// CloseTracking should be called on application shutdown.
func CloseTracking() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.tracker != nil {
			// The fan-out closes the store along with its sinks
			_ = Manager.tracker.Close()
		}
	})
}

// ClearTracking clears the tracking data for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the tracking tables.
// For NoneBackend, it does nothing.
func ClearTracking(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		driverName, _ := driverFor(backend)
		for _, table := range []string{metricsTable, runsTable} {
			if err := clearSQLTable(driverName, connStr, quoteTableName(table, backend)); err != nil {
				return err
			}
		}
		return nil

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported tracking backend for clearing: %s", backend)
	}
}

// clearSQLTable connects to the SQL database and drops the table if it exists.
func clearSQLTable(driverName, connStr, tableName string) error {
	db, err := sqlx.Connect(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()

	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", tableName)
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", tableName, err)
	}
	return nil
}
