package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"SignalForge/internal/domain/models"
	pkgkafka "SignalForge/pkg/kafka"
)

// RunProducer is the part of the Kafka producer the run publisher needs.
type RunProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

var _ RunProducer = (*pkgkafka.Producer)(nil)

// KafkaRunPublisher publishes each run as one JSON message keyed by run id
// and, when signalTopic is set, every real signal keyed by symbol so a
// consumer sees one symbol's signals in order.
type KafkaRunPublisher struct {
	producer    RunProducer
	runTopic    string
	signalTopic string
}

func NewKafkaRunPublisher(p RunProducer, runTopic, signalTopic string) *KafkaRunPublisher {
	return &KafkaRunPublisher{producer: p, runTopic: runTopic, signalTopic: signalTopic}
}

func (k *KafkaRunPublisher) PublishRun(ctx context.Context, run *models.RunResult) error {
	if err := k.producer.Publish(ctx, k.runTopic, []byte(run.RunID), run); err != nil {
		return fmt.Errorf("publish run %s: %w", run.RunID, err)
	}
	if k.signalTopic == "" || run.Placeholder || len(run.Signals) == 0 {
		return nil
	}

	msgs := make([]pkgkafka.Message, 0, len(run.Signals))
	for _, sig := range run.Signals {
		msgs = append(msgs, pkgkafka.Message{
			Key:   []byte(sig.Symbol),
			Value: sig,
			Headers: map[string]string{
				"run_id":   run.RunID,
				"mode":     string(run.Mode),
				"category": string(sig.Category),
			},
		})
	}
	if err := k.producer.PublishBatch(ctx, k.signalTopic, msgs); err != nil {
		return fmt.Errorf("publish signals of run %s: %w", run.RunID, err)
	}
	return nil
}

func (k *KafkaRunPublisher) Close() error { return k.producer.Close() }

// StdoutPublisher writes each run as JSON to w.
type StdoutPublisher struct {
	mu     sync.Mutex
	w      io.Writer
	pretty bool
}

func NewStdoutPublisher(w io.Writer, pretty bool) *StdoutPublisher {
	return &StdoutPublisher{w: w, pretty: pretty}
}

func (s *StdoutPublisher) PublishRun(_ context.Context, run *models.RunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	enc := json.NewEncoder(s.w)
	if s.pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(run); err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	return nil
}

func (s *StdoutPublisher) Close() error { return nil }
