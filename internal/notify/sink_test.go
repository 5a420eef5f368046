package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oladanielT/support-system/internal/domain"
	"github.com/oladanielT/support-system/internal/repository/memory"
)

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Name() string { return "mock" }

func (m *mockSink) Deliver(ctx context.Context, n domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}

type fakePublisher struct {
	channel string
	message any
	err     error
}

func (p *fakePublisher) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	p.channel = channel
	p.message = message
	cmd := redis.NewIntCmd(ctx)
	if p.err != nil {
		cmd.SetErr(p.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func sample() domain.Notification {
	return domain.Notification{ID: "n-1", RecipientID: "u-1", Message: "hello", CreatedAt: time.Unix(0, 0)}
}

func TestFanoutDeliversToAllAndJoinsErrors(t *testing.T) {
	ok := &mockSink{}
	ok.On("Deliver", mock.Anything, mock.Anything).Return(nil)
	bad := &mockSink{}
	bad.On("Deliver", mock.Anything, mock.Anything).Return(errors.New("down"))

	err := NewFanout(bad, nil, ok).Deliver(context.Background(), sample())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "down")
	ok.AssertNumberOfCalls(t, "Deliver", 1)
	bad.AssertNumberOfCalls(t, "Deliver", 1)
}

func TestRedisSinkPublishesOnRecipientChannel(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewRedisSink(pub, "")

	require.NoError(t, sink.Deliver(context.Background(), sample()))
	assert.Equal(t, "notifications:u-1", pub.channel)
	assert.Contains(t, string(pub.message.([]byte)), `"message":"hello"`)
}

func TestRedisSinkSurfacesPublishError(t *testing.T) {
	sink := NewRedisSink(&fakePublisher{err: errors.New("conn refused")}, "n")
	assert.Error(t, sink.Deliver(context.Background(), sample()))
}

func TestStoreSinkPersists(t *testing.T) {
	store := memory.NewStore()
	sink := NewStoreSink(store.Notifications())

	require.NoError(t, sink.Deliver(context.Background(), sample()))
	count, err := store.Notifications().CountUnread(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
