// Package tracking records pipeline runs, parameters and metrics to a SQL
// store and optional InfluxDB and Kafka sinks.
package tracking

import (
	"sync"

	"github.com/huangsam/patrolq/internal/contract"
)

// SinkManager holds the tracker the pipeline writes to and the store that
// the tracking commands read from.
type SinkManager struct {
	sync.RWMutex // Protects the pointers during initialization
	tracker      contract.Tracker
	store        contract.TrackingStore
}

var _ contract.TrackingManager = &SinkManager{} // Compile-time check

// GetTracker returns the tracker runs are written to.
func (mgr *SinkManager) GetTracker() contract.Tracker {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.tracker
}

// GetStore returns the SQL tracking store.
func (mgr *SinkManager) GetStore() contract.TrackingStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.store
}
