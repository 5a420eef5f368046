package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oladanielT/support-system/internal/blob"
	"github.com/oladanielT/support-system/internal/domain"
	"github.com/oladanielT/support-system/internal/policy"
	"github.com/oladanielT/support-system/internal/repository"
	apperrors "github.com/oladanielT/support-system/pkg/util/errorutil"
)

// BlobStore keeps attachment bytes outside the database.
type BlobStore interface {
	Store(ctx context.Context, key string, r io.Reader) (int64, error)
	Delete(ctx context.Context, key string) error
}

// UploadInput describes one uploaded file.
type UploadInput struct {
	FileName string
	MimeType string
	Body     io.Reader
}

// AttachmentService records files attached to complaints.
type AttachmentService struct {
	store    repository.Store
	blobs    BlobStore
	maxBytes int64
	logger   *zap.Logger
	now      func() time.Time
}

type AttachmentDependencies struct {
	Store    repository.Store
	Blobs    BlobStore
	MaxBytes int64
	Logger   *zap.Logger
	Clock    func() time.Time
}

func NewAttachmentService(deps AttachmentDependencies) *AttachmentService {
	s := &AttachmentService{
		store:    deps.Store,
		blobs:    deps.Blobs,
		maxBytes: deps.MaxBytes,
		logger:   deps.Logger,
		now:      deps.Clock,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// Upload stores the file and records its metadata. The blob is removed again if the
// metadata cannot be written.
func (s *AttachmentService) Upload(ctx context.Context, actor domain.Actor, complaintID string, input UploadInput) (*domain.Attachment, error) {
	name := filepath.Base(strings.TrimSpace(input.FileName))
	if name == "" || name == "." || name == "/" {
		return nil, apperrors.NewFieldError("file", "file name is required")
	}
	if input.Body == nil {
		return nil, apperrors.NewFieldError("file", "file is required")
	}

	complaint, err := s.store.Complaints().GetByID(ctx, complaintID)
	if err != nil {
		return nil, storeError(s.logger, err, "complaint", complaintID)
	}
	if !policy.CanView(actor, complaint) || !policy.Allowed(actor, policy.OpAttach, complaint) {
		return nil, notFoundComplaint(complaintID)
	}

	attachment := &domain.Attachment{
		ID:          uuid.NewString(),
		ComplaintID: complaint.ID,
		FileName:    name,
		MimeType:    input.MimeType,
		UploadedBy:  actor.ID,
		UploadedAt:  s.now(),
	}
	attachment.StorageKey = fmt.Sprintf("%s/%s/%s", complaint.ID, attachment.ID, name)

	size, err := s.blobs.Store(ctx, attachment.StorageKey, input.Body)
	if err != nil {
		if errors.Is(err, blob.ErrTooLarge) {
			return nil, apperrors.NewValidationError("file too large", map[string]any{"max_bytes": s.maxBytes})
		}
		s.logger.Error("blob store failed", zap.String("complaint_id", complaintID), zap.Error(err))
		return nil, apperrors.NewUnavailable(err)
	}
	attachment.SizeBytes = size

	if err := s.store.Attachments().Create(ctx, attachment); err != nil {
		if delErr := s.blobs.Delete(context.WithoutCancel(ctx), attachment.StorageKey); delErr != nil {
			s.logger.Warn("orphaned blob", zap.String("key", attachment.StorageKey), zap.Error(delErr))
		}
		return nil, storeError(s.logger, err, "attachment", attachment.ID)
	}
	return attachment, nil
}

// List returns the attachments of a complaint visible to actor.
func (s *AttachmentService) List(ctx context.Context, actor domain.Actor, complaintID string) ([]domain.Attachment, error) {
	complaint, err := s.store.Complaints().GetByID(ctx, complaintID)
	if err != nil {
		return nil, storeError(s.logger, err, "complaint", complaintID)
	}
	if !policy.CanView(actor, complaint) {
		return nil, notFoundComplaint(complaintID)
	}
	items, err := s.store.Attachments().ListByComplaint(ctx, complaintID)
	if err != nil {
		return nil, storeError(s.logger, err, "attachment", "")
	}
	if items == nil {
		items = []domain.Attachment{}
	}
	return items, nil
}
