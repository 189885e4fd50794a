package tracking

import (
	"time"

	"github.com/huangsam/patrolq/internal/contract"
	"github.com/huangsam/patrolq/schema"
	"github.com/stretchr/testify/mock"
)

// MockTrackingManager is a mock implementation of TrackingManager for testing.
type MockTrackingManager struct {
	mock.Mock
}

var _ contract.TrackingManager = &MockTrackingManager{} // Compile-time check

// GetTracker implements the TrackingManager interface.
func (m *MockTrackingManager) GetTracker() contract.Tracker {
	ret := m.Called()
	tracker, _ := ret.Get(0).(contract.Tracker)
	return tracker
}

// GetStore implements the TrackingManager interface.
func (m *MockTrackingManager) GetStore() contract.TrackingStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.TrackingStore)
	return store
}

// MockTracker is a mock implementation of Tracker for testing.
type MockTracker struct {
	mock.Mock
}

var _ contract.Tracker = &MockTracker{} // Compile-time check

// StartRun implements the Tracker interface.
func (m *MockTracker) StartRun(name string, startTime time.Time) (string, error) {
	args := m.Called(name, startTime)
	return args.String(0), args.Error(1)
}

// LogParams implements the Tracker interface.
func (m *MockTracker) LogParams(runID string, params map[string]any) error {
	args := m.Called(runID, params)
	return args.Error(0)
}

// LogMetric implements the Tracker interface.
func (m *MockTracker) LogMetric(runID, key string, value float64, step int) error {
	args := m.Called(runID, key, value, step)
	return args.Error(0)
}

// EndRun implements the Tracker interface.
func (m *MockTracker) EndRun(runID string, endTime time.Time, status string, rows int) error {
	args := m.Called(runID, endTime, status, rows)
	return args.Error(0)
}

// Close implements the Tracker interface.
func (m *MockTracker) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockTrackingStore is a mock implementation of TrackingStore for testing.
type MockTrackingStore struct {
	MockTracker
}

var _ contract.TrackingStore = &MockTrackingStore{} // Compile-time check

// GetStatus implements the TrackingStore interface.
func (m *MockTrackingStore) GetStatus() (schema.TrackingStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.TrackingStatus), args.Error(1)
}

// GetAllRuns implements the TrackingStore interface.
func (m *MockTrackingStore) GetAllRuns() ([]schema.RunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.RunRecord)
	return runs, args.Error(1)
}

// GetAllMetrics implements the TrackingStore interface.
func (m *MockTrackingStore) GetAllMetrics() ([]schema.MetricRecord, error) {
	args := m.Called()
	metrics, _ := args.Get(0).([]schema.MetricRecord)
	return metrics, args.Error(1)
}
