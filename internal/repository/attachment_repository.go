package repository

import (
	"context"

	"github.com/oladanielT/support-system/internal/domain"
)

// AttachmentRepository persists attachment metadata.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	ListByComplaint(ctx context.Context, complaintID string) ([]domain.Attachment, error)
}

type attachmentRepository struct {
	db DBTX
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(db DBTX) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	const query = `
        INSERT INTO complaint_attachments (id, complaint_id, storage_key, file_name, mime_type, size_bytes, uploaded_by, uploaded_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.db.Exec(ctx, query,
		attachment.ID,
		attachment.ComplaintID,
		attachment.StorageKey,
		attachment.FileName,
		attachment.MimeType,
		attachment.SizeBytes,
		attachment.UploadedBy,
		attachment.UploadedAt,
	)
	return normalizeErr(err)
}

func (r *attachmentRepository) ListByComplaint(ctx context.Context, complaintID string) ([]domain.Attachment, error) {
	const query = `
        SELECT id, complaint_id, storage_key, file_name, mime_type, size_bytes, uploaded_by, uploaded_at
        FROM complaint_attachments WHERE complaint_id=$1 ORDER BY uploaded_at ASC`
	rows, err := r.db.Query(ctx, query, complaintID)
	if err != nil {
		return nil, normalizeErr(err)
	}
	defer rows.Close()

	var result []domain.Attachment
	for rows.Next() {
		var attachment domain.Attachment
		if err := rows.Scan(
			&attachment.ID,
			&attachment.ComplaintID,
			&attachment.StorageKey,
			&attachment.FileName,
			&attachment.MimeType,
			&attachment.SizeBytes,
			&attachment.UploadedBy,
			&attachment.UploadedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, attachment)
	}
	return result, rows.Err()
}
