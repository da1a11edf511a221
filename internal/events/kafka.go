package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/inkfeed/inkfeed/internal/metrics"
)

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("publisher closed")

// KafkaConfig configures the Kafka producer.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	Retries int
	Timeout time.Duration
}

// KafkaPublisher publishes events through a sarama AsyncProducer.
// Delivery results are consumed in the background and only logged.
type KafkaPublisher struct {
	producer sarama.AsyncProducer
	topic    string
	logger   *slog.Logger
	metrics  metrics.Recorder

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewSaramaConfig returns the producer settings used for post events.
func NewSaramaConfig(cfg KafkaConfig) *sarama.Config {
	sc := sarama.NewConfig()
	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	sc.Producer.RequiredAcks = sarama.WaitForLocal
	sc.Producer.Partitioner = sarama.NewHashPartitioner
	if cfg.Retries > 0 {
		sc.Producer.Retry.Max = cfg.Retries
	}
	if cfg.Timeout > 0 {
		sc.Producer.Timeout = cfg.Timeout
	}
	return sc
}

// NewKafkaPublisher connects to the brokers and starts the delivery loops.
func NewKafkaPublisher(cfg KafkaConfig, logger *slog.Logger, recorder metrics.Recorder) (*KafkaPublisher, error) {
	producer, err := sarama.NewAsyncProducer(cfg.Brokers, NewSaramaConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, cfg.Topic, logger, recorder), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer. Used by tests.
func NewKafkaPublisherWithProducer(producer sarama.AsyncProducer, topic string, logger *slog.Logger, recorder metrics.Recorder) *KafkaPublisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	p := &KafkaPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger.With("component", "events.kafka", "topic", topic),
		metrics:  recorder,
	}

	p.wg.Add(2)
	go p.drainSuccesses()
	go p.drainErrors()

	return p
}

// Publish queues the event keyed by post ID so a post's events stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(event.PostID),
		Value:     sarama.ByteEncoder(value),
		Timestamp: event.OccurredAt,
		Headers: []sarama.RecordHeader{
			{Key: []byte("type"), Value: []byte(event.Type)},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	select {
	case p.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("enqueue event: %w", ctx.Err())
	}
}

// Close flushes buffered messages and stops the delivery loops.
// It implements server.ShutdownFunc.
func (p *KafkaPublisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.producer.AsyncClose()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("flush kafka producer: %w", ctx.Err())
	}
}

func (p *KafkaPublisher) drainSuccesses() {
	defer p.wg.Done()
	for msg := range p.producer.Successes() {
		p.metrics.IncPostEventPublished("success")
		p.logger.Debug("post event delivered",
			"partition", msg.Partition,
			"offset", msg.Offset,
		)
	}
}

func (p *KafkaPublisher) drainErrors() {
	defer p.wg.Done()
	for perr := range p.producer.Errors() {
		p.metrics.IncPostEventPublished("failed")
		p.logger.Warn("post event delivery failed", "error", perr.Err)
	}
}
