package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/oladanielT/support-system/internal/config"
)

// MessageWriter is the subset of *kafka.Writer the forwarder needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const defaultWriteTimeout = 2 * time.Second

// KafkaForwarder republishes lifecycle events onto a Kafka topic keyed by complaint id.
// Without a writer every call is a no-op.
type KafkaForwarder struct {
	writer       MessageWriter
	writeTimeout time.Duration
	logger       *zap.Logger
}

// NewKafkaForwarder builds a forwarder. Empty brokers or topic disable forwarding.
func NewKafkaForwarder(cfg config.KafkaConfig, logger *zap.Logger) *KafkaForwarder {
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return &KafkaForwarder{logger: logger, writeTimeout: timeout}
	}
	return &KafkaForwarder{
		logger:       logger,
		writeTimeout: timeout,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: timeout,
		},
	}
}

// NewKafkaForwarderWithWriter wires a custom writer. A non-positive writeTimeout falls back
// to the default.
func NewKafkaForwarderWithWriter(writer MessageWriter, writeTimeout time.Duration, logger *zap.Logger) *KafkaForwarder {
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &KafkaForwarder{writer: writer, writeTimeout: writeTimeout, logger: logger}
}

// Enabled reports whether events are forwarded.
func (f *KafkaForwarder) Enabled() bool {
	return f != nil && f.writer != nil
}

// Handle is an EventHandler. Each write is bounded by the write timeout since it runs on
// the publishing request's goroutine.
func (f *KafkaForwarder) Handle(ctx context.Context, event Event) error {
	if !f.Enabled() {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.ID, err)
	}
	msg := kafka.Message{
		Key:   []byte(event.ComplaintID),
		Value: body,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	ctx, cancel := context.WithTimeout(ctx, f.writeTimeout)
	defer cancel()
	if err := f.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write %s: %w", event.Type, err)
	}
	return nil
}

// Register subscribes the forwarder to every lifecycle event.
func (f *KafkaForwarder) Register(d Dispatcher) {
	if !f.Enabled() {
		if f != nil && f.logger != nil {
			f.logger.Info("kafka brokers not configured; event forwarding disabled")
		}
		return
	}
	SubscribeAll(d, f.Handle)
}

// Close flushes and closes the writer.
func (f *KafkaForwarder) Close() error {
	if !f.Enabled() {
		return nil
	}
	return f.writer.Close()
}
