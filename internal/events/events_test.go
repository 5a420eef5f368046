package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oladanielT/support-system/internal/config"
)

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockWriter) Close() error {
	return m.Called().Error(0)
}

func TestPublishContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var calls []string
	d.Subscribe(EventComplaintCreated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	d.Subscribe(EventComplaintCreated, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventComplaintDeleted, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventComplaintCreated})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestKafkaForwarderWritesKeyedMessage(t *testing.T) {
	w := &mockWriter{}
	var sent []kafka.Message
	w.On("WriteMessages", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(1).([]kafka.Message)
	}).Return(nil)

	f := NewKafkaForwarderWithWriter(w, time.Second, nil)
	d := NewInMemoryDispatcher(nil)
	f.Register(d)

	ev := Event{ID: "ev-1", Type: EventComplaintStatusChanged, ComplaintID: "c-1", Timestamp: time.Unix(100, 0)}
	require.NoError(t, d.Publish(context.Background(), ev))

	require.Len(t, sent, 1)
	assert.Equal(t, "c-1", string(sent[0].Key))
	var decoded Event
	require.NoError(t, json.Unmarshal(sent[0].Value, &decoded))
	assert.Equal(t, EventComplaintStatusChanged, decoded.Type)
	w.AssertExpectations(t)
}

func TestKafkaForwarderDisabledIsNoop(t *testing.T) {
	f := NewKafkaForwarder(config.KafkaConfig{Topic: "topic"}, nil)
	assert.False(t, f.Enabled())
	assert.NoError(t, f.Handle(context.Background(), Event{}))
	assert.NoError(t, f.Close())
}

// stalledWriter never acknowledges a write; it returns only when ctx ends.
type stalledWriter struct{}

func (stalledWriter) WriteMessages(ctx context.Context, _ ...kafka.Message) error {
	<-ctx.Done()
	return ctx.Err()
}

func (stalledWriter) Close() error { return nil }

func TestKafkaForwarderBoundsStalledWrite(t *testing.T) {
	f := NewKafkaForwarderWithWriter(stalledWriter{}, 50*time.Millisecond, nil)

	done := make(chan error, 1)
	go func() {
		done <- f.Handle(context.WithoutCancel(context.Background()), Event{ID: "ev-1", ComplaintID: "c-1"})
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("kafka write was not bounded by the write timeout")
	}
}
