package tracking

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Shopify/sarama/mocks"
	"github.com/huangsam/patrolq/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// recordingSink records calls and fails on demand.
type recordingSink struct {
	calls []string
	fail  error
}

func (s *recordingSink) OpenRun(runID, _ string, _ time.Time) error {
	s.calls = append(s.calls, "open:"+runID)
	return s.fail
}

func (s *recordingSink) LogParams(runID string, _ map[string]any) error {
	s.calls = append(s.calls, "params:"+runID)
	return s.fail
}

func (s *recordingSink) LogMetric(_ string, key string, _ float64, _ int) error {
	s.calls = append(s.calls, "metric:"+key)
	return s.fail
}

func (s *recordingSink) EndRun(_ string, _ time.Time, status string, _ int) error {
	s.calls = append(s.calls, "end:"+status)
	return s.fail
}

func (s *recordingSink) Close() error {
	s.calls = append(s.calls, "close")
	return nil
}

func TestFanout_UsesPrimaryRunID(t *testing.T) {
	primary := &MockTracker{}
	primary.On("StartRun", "crime-clustering", mock.Anything).Return("run-1", nil)
	primary.On("LogMetric", "run-1", "best_k", 3.0, 0).Return(nil)
	primary.On("Close").Return(nil)

	sink := &recordingSink{}
	f := NewFanout(primary, sink)

	runID, err := f.StartRun("crime-clustering", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "run-1", runID)
	require.NoError(t, f.LogMetric(runID, "best_k", 3, 0))
	require.NoError(t, f.Close())

	assert.Equal(t, []string{"open:run-1", "metric:best_k", "close"}, sink.calls)
	primary.AssertExpectations(t)
}

func TestFanout_GeneratesIDWithoutPrimaryID(t *testing.T) {
	primary := &MockTracker{}
	primary.On("StartRun", mock.Anything, mock.Anything).Return("", nil)

	sink := &recordingSink{}
	runID, err := NewFanout(primary, sink).StartRun("crime-clustering", time.Now())
	require.NoError(t, err)
	assert.Len(t, runID, 36)
	assert.Equal(t, []string{"open:" + runID}, sink.calls)
}

func TestFanout_PrimaryFailureStopsStart(t *testing.T) {
	primary := &MockTracker{}
	primary.On("StartRun", mock.Anything, mock.Anything).Return("", errors.New("db down"))

	sink := &recordingSink{}
	runID, err := NewFanout(primary, sink).StartRun("crime-clustering", time.Now())
	assert.Error(t, err)
	assert.Empty(t, runID)
	assert.Empty(t, sink.calls)
}

func TestFanout_SinkErrorsAreJoined(t *testing.T) {
	failing := &recordingSink{fail: errors.New("sink down")}
	healthy := &recordingSink{}
	f := NewFanout(nil, failing, healthy)

	runID, err := f.StartRun("crime-clustering", time.Now())
	assert.ErrorContains(t, err, "sink down")
	assert.NotEmpty(t, runID, "a sink failure keeps the run ID")

	err = f.EndRun(runID, time.Now(), "FINISHED", 5)
	assert.ErrorContains(t, err, "sink down")
	assert.Equal(t, []string{"open:" + runID, "end:FINISHED"}, healthy.calls)
}

func TestKafkaSink_PublishesEvents(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	checkType := func(want string) mocks.ValueChecker {
		return func(val []byte) error {
			var event Event
			if err := json.Unmarshal(val, &event); err != nil {
				return err
			}
			if event.Type != want || event.RunID != "run-7" {
				return errors.New("unexpected event " + string(val))
			}
			return nil
		}
	}
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(checkType(EventRunStarted))
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(checkType(EventParams))
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(checkType(EventMetric))
	producer.ExpectSendMessageWithCheckerFunctionAndFail(checkType(EventRunEnded), errors.New("broker gone"))

	sink := newKafkaSink(producer, contract.DefaultKafkaTopic)
	require.NoError(t, sink.OpenRun("run-7", "crime-clustering", time.Now()))
	require.NoError(t, sink.LogParams("run-7", map[string]any{"seed": 42}))
	require.NoError(t, sink.LogMetric("run-7", "silhouette", 0.4, 3))
	assert.ErrorContains(t, sink.EndRun("run-7", time.Now(), "FINISHED", 10), "broker gone")
	require.NoError(t, sink.Close())
}

func TestInfluxSink_WritesPoints(t *testing.T) {
	var mu sync.Mutex
	var lines []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/health":
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"name":"influxdb","message":"ready","status":"pass","checks":[]}`)
		case strings.HasSuffix(r.URL.Path, "/api/v2/write"):
			body, _ := io.ReadAll(r.Body)
			mu.Lock()
			lines = append(lines, strings.TrimSpace(string(body)))
			mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	sink, err := NewInfluxSink(contract.InfluxConfig{URL: server.URL, Token: "t", Org: "o", Bucket: "b"})
	require.NoError(t, err)
	defer func() { _ = sink.Close() }()

	require.NoError(t, sink.OpenRun("r1", "crime-clustering", time.Now()))
	require.NoError(t, sink.LogParams("r1", map[string]any{"seed": 42}))
	require.NoError(t, sink.LogMetric("r1", "silhouette", 0.5, 3))
	require.NoError(t, sink.EndRun("r1", time.Now(), "FINISHED", 9))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, lines, 3, "params are not written")
	assert.True(t, strings.HasPrefix(lines[0], "pipeline_run,"))
	assert.Contains(t, lines[1], "pipeline_metric,key=silhouette,run_id=r1")
	assert.Contains(t, lines[1], "value=0.5")
	assert.Contains(t, lines[2], `status="FINISHED"`)
}
