package repository

import (
	"context"

	"github.com/oladanielT/support-system/internal/domain"
)

// ComplaintUpdateRepository stores audit entries. There is no update or delete: entries are
// append-only.
type ComplaintUpdateRepository interface {
	Create(ctx context.Context, update *domain.ComplaintUpdate) error
	// ListByComplaint returns entries newest first.
	ListByComplaint(ctx context.Context, complaintID string) ([]domain.ComplaintUpdate, error)
}

type complaintUpdateRepository struct {
	db DBTX
}

// NewComplaintUpdateRepository builds repository.
func NewComplaintUpdateRepository(db DBTX) ComplaintUpdateRepository {
	return &complaintUpdateRepository{db: db}
}

func (r *complaintUpdateRepository) Create(ctx context.Context, update *domain.ComplaintUpdate) error {
	const query = `
        INSERT INTO complaint_updates (id, complaint_id, updated_by, update_type, message, old_status, new_status, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.db.Exec(ctx, query,
		update.ID,
		update.ComplaintID,
		update.UpdatedByID,
		update.UpdateType,
		update.Message,
		update.OldStatus,
		update.NewStatus,
		update.CreatedAt,
	)
	return normalizeErr(err)
}

func (r *complaintUpdateRepository) ListByComplaint(ctx context.Context, complaintID string) ([]domain.ComplaintUpdate, error) {
	const query = `
        SELECT u.id, u.complaint_id, u.updated_by, COALESCE(NULLIF(TRIM(usr.first_name || ' ' || usr.last_name), ''), usr.email),
               u.update_type, u.message, u.old_status, u.new_status, u.created_at
        FROM complaint_updates u
        JOIN users usr ON usr.id = u.updated_by
        WHERE u.complaint_id=$1
        ORDER BY u.created_at DESC, u.seq DESC`
	rows, err := r.db.Query(ctx, query, complaintID)
	if err != nil {
		return nil, normalizeErr(err)
	}
	defer rows.Close()

	var result []domain.ComplaintUpdate
	for rows.Next() {
		var update domain.ComplaintUpdate
		if err := rows.Scan(
			&update.ID,
			&update.ComplaintID,
			&update.UpdatedByID,
			&update.UpdatedByName,
			&update.UpdateType,
			&update.Message,
			&update.OldStatus,
			&update.NewStatus,
			&update.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, update)
	}
	return result, rows.Err()
}
