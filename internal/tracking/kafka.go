package tracking

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Shopify/sarama"
	"github.com/huangsam/patrolq/internal/contract"
)

// Event types published to Kafka.
const (
	EventRunStarted = "run_started"
	EventParams     = "params"
	EventMetric     = "metric"
	EventRunEnded   = "run_ended"
)

// Event is the JSON message published for every tracking call.
type Event struct {
	Type   string         `json:"type"`
	RunID  string         `json:"run_id"`
	Time   time.Time      `json:"time"`
	Name   string         `json:"name,omitempty"`
	Params map[string]any `json:"params,omitempty"`
	Key    string         `json:"key,omitempty"`
	Value  *float64       `json:"value,omitempty"`
	Step   *int           `json:"step,omitempty"`
	Status string         `json:"status,omitempty"`
	Rows   *int           `json:"rows,omitempty"`
}

// KafkaSink publishes tracking events keyed by run ID, so one run's events
// stay ordered within a partition.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
}

var _ Sink = &KafkaSink{} // Compile-time check

// NewKafkaSink connects a synchronous producer to the configured brokers.
func NewKafkaSink(cfg contract.KafkaConfig) (*KafkaSink, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	saramaConfig.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Kafka brokers %v: %w", cfg.Brokers, err)
	}
	return newKafkaSink(producer, cfg.Topic), nil
}

func newKafkaSink(producer sarama.SyncProducer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

// OpenRun publishes a run_started event.
func (s *KafkaSink) OpenRun(runID, name string, startTime time.Time) error {
	return s.publish(Event{Type: EventRunStarted, RunID: runID, Time: startTime, Name: name})
}

// LogParams publishes a params event.
func (s *KafkaSink) LogParams(runID string, params map[string]any) error {
	return s.publish(Event{Type: EventParams, RunID: runID, Time: time.Now(), Params: params})
}

// LogMetric publishes a metric event.
func (s *KafkaSink) LogMetric(runID, key string, value float64, step int) error {
	return s.publish(Event{Type: EventMetric, RunID: runID, Time: time.Now(), Key: key, Value: &value, Step: &step})
}

// EndRun publishes a run_ended event.
func (s *KafkaSink) EndRun(runID string, endTime time.Time, status string, rows int) error {
	return s.publish(Event{Type: EventRunEnded, RunID: runID, Time: endTime, Status: status, Rows: &rows})
}

// Close closes the producer.
func (s *KafkaSink) Close() error {
	return s.producer.Close()
}

func (s *KafkaSink) publish(event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}
	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(event.RunID),
		Value: sarama.ByteEncoder(data),
	}
	if _, _, err := s.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}
