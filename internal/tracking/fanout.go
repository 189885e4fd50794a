package tracking

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/patrolq/internal/contract"
)

// Sink receives run events under an ID assigned by the primary store.
type Sink interface {
	OpenRun(runID, name string, startTime time.Time) error
	LogParams(runID string, params map[string]any) error
	LogMetric(runID, key string, value float64, step int) error
	EndRun(runID string, endTime time.Time, status string, rows int) error
	Close() error
}

// Fanout forwards every event to a primary tracker and then to each sink.
// All sinks are attempted; their errors are joined.
type Fanout struct {
	primary contract.Tracker
	sinks   []Sink
}

var _ contract.Tracker = &Fanout{} // Compile-time check

// NewFanout creates a tracker that writes to primary and sinks.
func NewFanout(primary contract.Tracker, sinks ...Sink) *Fanout {
	return &Fanout{primary: primary, sinks: sinks}
}

// StartRun opens the run on the primary, falling back to a fresh UUID when
// the primary does not assign one. A sink that fails to open the run does
// not invalidate the returned ID.
func (f *Fanout) StartRun(name string, startTime time.Time) (string, error) {
	var runID string
	if f.primary != nil {
		id, err := f.primary.StartRun(name, startTime)
		if err != nil {
			return "", err
		}
		runID = id
	}
	if runID == "" {
		runID = uuid.NewString()
	}

	var errs []error
	for _, s := range f.sinks {
		errs = append(errs, s.OpenRun(runID, name, startTime))
	}
	return runID, errors.Join(errs...)
}

// LogParams implements the Tracker interface.
func (f *Fanout) LogParams(runID string, params map[string]any) error {
	return f.each(func(t contract.Tracker) error { return t.LogParams(runID, params) },
		func(s Sink) error { return s.LogParams(runID, params) })
}

// LogMetric implements the Tracker interface.
func (f *Fanout) LogMetric(runID, key string, value float64, step int) error {
	return f.each(func(t contract.Tracker) error { return t.LogMetric(runID, key, value, step) },
		func(s Sink) error { return s.LogMetric(runID, key, value, step) })
}

// EndRun implements the Tracker interface.
func (f *Fanout) EndRun(runID string, endTime time.Time, status string, rows int) error {
	return f.each(func(t contract.Tracker) error { return t.EndRun(runID, endTime, status, rows) },
		func(s Sink) error { return s.EndRun(runID, endTime, status, rows) })
}

// Close closes the primary and every sink.
func (f *Fanout) Close() error {
	return f.each(func(t contract.Tracker) error { return t.Close() },
		func(s Sink) error { return s.Close() })
}

func (f *Fanout) each(onPrimary func(contract.Tracker) error, onSink func(Sink) error) error {
	var errs []error
	if f.primary != nil {
		errs = append(errs, onPrimary(f.primary))
	}
	for _, s := range f.sinks {
		errs = append(errs, onSink(s))
	}
	return errors.Join(errs...)
}
