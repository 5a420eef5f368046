package worker

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oladanielT/support-system/internal/config"
	"github.com/oladanielT/support-system/internal/domain"
	"github.com/oladanielT/support-system/internal/events"
	"github.com/oladanielT/support-system/internal/notify"
	"github.com/oladanielT/support-system/internal/repository/memory"
	"github.com/oladanielT/support-system/internal/service"
)

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	return m.Called(ctx, msgs).Error(0)
}

func (m *mockWriter) Close() error { return nil }

func TestStartEventSubscribersWiresNotificationsAndKafka(t *testing.T) {
	store := memory.NewStore()
	d := events.NewInMemoryDispatcher(nil)
	writer := &mockWriter{}
	writer.On("WriteMessages", mock.Anything, mock.Anything).Return(nil)

	notifications := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher: d,
		Sink:       notify.NewStoreSink(store.Notifications()),
		Inbox:      store.Notifications(),
	})
	StartEventSubscribers(d, Subscribers{
		Notifications: notifications,
		Forwarder:     events.NewKafkaForwarderWithWriter(writer, time.Second, nil),
	}, nil)

	err := d.Publish(context.Background(), events.Event{
		ID:          "evt-1",
		Type:        events.EventComplaintAssigned,
		ComplaintID: "c-1",
		Message:     "You have been assigned a complaint: Printer jam",
		Recipients:  []string{"eng-1"},
		Timestamp:   time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	writer.AssertNumberOfCalls(t, "WriteMessages", 1)
	inbox, err := notifications.List(context.Background(), domain.Actor{ID: "eng-1", Role: domain.RoleEngineer}, false, 0, 0)
	require.NoError(t, err)
	require.Len(t, inbox.Items, 1)
	assert.Equal(t, 1, inbox.UnreadCount)
}

func TestStartEventSubscribersWithoutKafka(t *testing.T) {
	d := events.NewInMemoryDispatcher(nil)
	assert.NotPanics(t, func() {
		StartEventSubscribers(d, Subscribers{Forwarder: events.NewKafkaForwarder(config.KafkaConfig{}, nil)}, nil)
	})
	assert.NoError(t, d.Publish(context.Background(), events.Event{Type: events.EventComplaintCreated}))
}
