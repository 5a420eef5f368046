package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oladanielT/support-system/internal/config"
	"github.com/oladanielT/support-system/internal/domain"
	"github.com/oladanielT/support-system/internal/events"
	"github.com/oladanielT/support-system/internal/notify"
	"github.com/oladanielT/support-system/internal/observability"
	"github.com/oladanielT/support-system/internal/repository"
	apperrors "github.com/oladanielT/support-system/pkg/util/errorutil"
)

const defaultInboxLimit = 50

// NotificationService turns lifecycle events into per-recipient notifications and
// serves the recipient's inbox.
type NotificationService struct {
	dispatcher events.Dispatcher
	sink       notify.Sink
	inbox      repository.NotificationRepository
	metrics    *observability.Metrics
	logger     *zap.Logger
	cfg        config.NotificationConfig
	now        func() time.Time
}

// NotificationDependencies bundles collaborators for the notification service.
type NotificationDependencies struct {
	Dispatcher events.Dispatcher
	Sink       notify.Sink
	Inbox      repository.NotificationRepository
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Config     config.NotificationConfig
	Clock      func() time.Time
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	n := &NotificationService{
		dispatcher: deps.Dispatcher,
		sink:       deps.Sink,
		inbox:      deps.Inbox,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		cfg:        deps.Config,
		now:        deps.Clock,
	}
	if n.logger == nil {
		n.logger = zap.NewNop()
	}
	if n.now == nil {
		n.now = func() time.Time { return time.Now().UTC() }
	}
	if n.cfg.DeliverTimeout <= 0 {
		n.cfg.DeliverTimeout = 3 * time.Second
	}
	return n
}

// RegisterHandlers subscribes to every lifecycle event.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil || n.sink == nil {
		return
	}
	events.SubscribeAll(n.dispatcher, n.handleEvent)
}

// handleEvent delivers event.Message to each recipient. Failures are logged per recipient
// and never reach the publisher.
func (n *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	if strings.TrimSpace(event.Message) == "" || len(event.Recipients) == 0 {
		return nil
	}
	for _, recipient := range event.Recipients {
		notification := domain.Notification{
			ID:          uuid.NewString(),
			RecipientID: recipient,
			Message:     event.Message,
			CreatedAt:   n.now(),
		}
		n.deliver(ctx, event, notification)
	}
	return nil
}

func (n *NotificationService) deliver(ctx context.Context, event events.Event, notification domain.Notification) {
	ctx, cancel := context.WithTimeout(ctx, n.cfg.DeliverTimeout)
	defer cancel()

	if err := n.sink.Deliver(ctx, notification); err != nil {
		n.metrics.RecordNotification(n.sink.Name(), "failed")
		n.logger.Warn("notification delivery failed",
			zap.String("event_type", string(event.Type)),
			zap.String("complaint_id", event.ComplaintID),
			zap.String("recipient_id", notification.RecipientID),
			zap.Error(err))
		return
	}
	n.metrics.RecordNotification(n.sink.Name(), "delivered")
	n.logger.Debug("notification delivered",
		zap.String("event_type", string(event.Type)),
		zap.String("recipient_id", notification.RecipientID))
}

// Inbox is a page of an actor's notifications.
type Inbox struct {
	Items       []domain.Notification
	UnreadCount int
}

// List returns actor's notifications, newest first.
func (n *NotificationService) List(ctx context.Context, actor domain.Actor, unreadOnly bool, limit, offset int) (*Inbox, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = defaultInboxLimit
	}
	if offset < 0 {
		offset = 0
	}
	items, err := n.inbox.ListByRecipient(ctx, actor.ID, unreadOnly, limit, offset)
	if err != nil {
		return nil, storeError(n.logger, err, "notification", "")
	}
	unread, err := n.inbox.CountUnread(ctx, actor.ID)
	if err != nil {
		return nil, storeError(n.logger, err, "notification", "")
	}
	if items == nil {
		items = []domain.Notification{}
	}
	return &Inbox{Items: items, UnreadCount: unread}, nil
}

// UnreadCount returns how many of actor's notifications are unread.
func (n *NotificationService) UnreadCount(ctx context.Context, actor domain.Actor) (int, error) {
	count, err := n.inbox.CountUnread(ctx, actor.ID)
	if err != nil {
		return 0, storeError(n.logger, err, "notification", "")
	}
	return count, nil
}

// MarkRead marks one notification read. Another recipient's notification is reported missing.
func (n *NotificationService) MarkRead(ctx context.Context, actor domain.Actor, id string) error {
	if err := n.inbox.MarkRead(ctx, actor.ID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("notification", map[string]any{"id": id})
		}
		return storeError(n.logger, err, "notification", id)
	}
	return nil
}

// MarkAllRead marks every notification of actor read and returns how many changed.
func (n *NotificationService) MarkAllRead(ctx context.Context, actor domain.Actor) (int, error) {
	count, err := n.inbox.MarkAllRead(ctx, actor.ID)
	if err != nil {
		return 0, storeError(n.logger, err, "notification", "")
	}
	return count, nil
}

// Clear deletes actor's notifications.
func (n *NotificationService) Clear(ctx context.Context, actor domain.Actor) (int, error) {
	count, err := n.inbox.DeleteAll(ctx, actor.ID)
	if err != nil {
		return 0, storeError(n.logger, err, "notification", "")
	}
	return count, nil
}
