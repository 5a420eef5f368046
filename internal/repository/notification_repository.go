package repository

import (
	"context"

	"github.com/oladanielT/support-system/internal/domain"
)

// NotificationRepository stores per-recipient inbox entries.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
	MarkRead(ctx context.Context, recipientID, id string) error
	MarkAllRead(ctx context.Context, recipientID string) (int, error)
	DeleteAll(ctx context.Context, recipientID string) (int, error)
}

type notificationRepository struct {
	db DBTX
}

// NewNotificationRepository constructs repository.
func NewNotificationRepository(db DBTX) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	const query = `
        INSERT INTO notifications (id, recipient_id, message, is_read, created_at)
        VALUES ($1,$2,$3,$4,$5)`
	_, err := r.db.Exec(ctx, query, n.ID, n.RecipientID, n.Message, n.Read, n.CreatedAt)
	return normalizeErr(err)
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT id, recipient_id, message, is_read, created_at
        FROM notifications
        WHERE recipient_id=$1 AND ($2 = FALSE OR is_read = FALSE)
        ORDER BY created_at DESC
        LIMIT $3 OFFSET $4`
	rows, err := r.db.Query(ctx, query, recipientID, unreadOnly, limit, max(offset, 0))
	if err != nil {
		return nil, normalizeErr(err)
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE recipient_id=$1 AND is_read = FALSE`, recipientID).Scan(&count)
	return count, normalizeErr(err)
}

func (r *notificationRepository) MarkRead(ctx context.Context, recipientID, id string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id=$1 AND recipient_id=$2`, id, recipientID)
	if err != nil {
		return normalizeErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE recipient_id=$1 AND is_read = FALSE`, recipientID)
	if err != nil {
		return 0, normalizeErr(err)
	}
	return int(cmd.RowsAffected()), nil
}

func (r *notificationRepository) DeleteAll(ctx context.Context, recipientID string) (int, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM notifications WHERE recipient_id=$1`, recipientID)
	if err != nil {
		return 0, normalizeErr(err)
	}
	return int(cmd.RowsAffected()), nil
}
