// Package notify delivers one-way messages to a single recipient. Delivery is best
// effort: callers log failures and move on.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oladanielT/support-system/internal/domain"
	"github.com/oladanielT/support-system/internal/repository"
)

// Sink records a notification for its recipient.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, n domain.Notification) error
}

// StoreSink persists notifications so recipients can read them from their inbox.
type StoreSink struct {
	repo repository.NotificationRepository
}

// NewStoreSink builds a sink over the notification repository.
func NewStoreSink(repo repository.NotificationRepository) *StoreSink {
	return &StoreSink{repo: repo}
}

func (s *StoreSink) Name() string { return "store" }

func (s *StoreSink) Deliver(ctx context.Context, n domain.Notification) error {
	return s.repo.Create(ctx, &n)
}

// Publisher is the subset of *redis.Client used by RedisSink.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisSink publishes each notification on "<prefix>:<recipient id>" for realtime clients.
type RedisSink struct {
	client Publisher
	prefix string
}

// NewRedisSink builds a sink publishing through client.
func NewRedisSink(client Publisher, prefix string) *RedisSink {
	if prefix == "" {
		prefix = "notifications"
	}
	return &RedisSink{client: client, prefix: prefix}
}

func (s *RedisSink) Name() string { return "redis" }

// Channel returns the pub/sub channel for recipientID.
func (s *RedisSink) Channel(recipientID string) string {
	return s.prefix + ":" + recipientID
}

type redisPayload struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

func (s *RedisSink) Deliver(ctx context.Context, n domain.Notification) error {
	body, err := json.Marshal(redisPayload{
		ID:        n.ID,
		Message:   n.Message,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, s.Channel(n.RecipientID), body).Err()
}

// Fanout delivers to every sink and reports the failures together.
type Fanout struct {
	sinks []Sink
}

// NewFanout drops nil sinks.
func NewFanout(sinks ...Sink) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

func (f *Fanout) Name() string { return "fanout" }

func (f *Fanout) Deliver(ctx context.Context, n domain.Notification) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Deliver(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
