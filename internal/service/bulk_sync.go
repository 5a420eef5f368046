package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/oladanielT/support-system/internal/domain"
	"github.com/oladanielT/support-system/internal/repository"
	apperrors "github.com/oladanielT/support-system/pkg/util/errorutil"
)

// BulkSyncFailure reports an item that could not be created.
type BulkSyncFailure struct {
	Index     int
	OfflineID string
	Code      string
	Message   string
}

// BulkSyncResult summarises a sync batch.
type BulkSyncResult struct {
	Created    int
	Skipped    int
	Failed     []BulkSyncFailure
	Complaints []*domain.Complaint
}

// BulkSync replays complaints captured offline. Items whose offline_id is already stored
// are skipped, including ones that lose an insert race. Each item commits on its own so
// a rejected item never undoes the ones before it; only an unavailable store stops the
// batch.
func (s *ComplaintService) BulkSync(ctx context.Context, actor domain.Actor, items []CreateComplaintInput) (*BulkSyncResult, error) {
	limit := s.cfg.MaxBulkSyncLen
	if limit <= 0 {
		limit = defaultBulkSyncLen
	}
	if len(items) > limit {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("a sync batch may hold at most %d complaints", limit),
			map[string]any{"items": len(items), "limit": limit},
		)
	}

	result := &BulkSyncResult{Failed: []BulkSyncFailure{}, Complaints: []*domain.Complaint{}}
	for i, item := range items {
		created, skipped, err := s.syncOne(ctx, actor, item)
		switch {
		case err == nil && skipped:
			result.Skipped++
		case err == nil:
			result.Created++
			result.Complaints = append(result.Complaints, created)
			s.publishCreated(ctx, actor, created)
		case apperrors.HasCode(err, apperrors.CodeUnavailable):
			s.logger.Warn("bulk sync aborted",
				zap.String("actor_id", actor.ID),
				zap.Int("processed", i),
				zap.Error(err))
			return nil, err
		default:
			domainErr := apperrors.ToDomainError(err)
			result.Failed = append(result.Failed, BulkSyncFailure{
				Index:     i,
				OfflineID: offlineIDOf(item),
				Code:      domainErr.Code,
				Message:   domainErr.Message,
			})
		}
	}

	s.logger.Info("bulk sync finished",
		zap.String("actor_id", actor.ID),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", len(result.Failed)))
	return result, nil
}

func (s *ComplaintService) syncOne(ctx context.Context, actor domain.Actor, item CreateComplaintInput) (*domain.Complaint, bool, error) {
	item.normalize()
	if err := item.validate(); err != nil {
		return nil, false, err
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	var created *domain.Complaint
	err := s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		if item.OfflineID != nil {
			exists, err := tx.Complaints().ExistsByOfflineID(ctx, *item.OfflineID)
			if err != nil {
				return err
			}
			if exists {
				return repository.ErrDuplicateOfflineID
			}
		}
		var err error
		created, err = s.createInTx(ctx, tx, actor, item, true)
		return err
	})
	if errors.Is(err, repository.ErrDuplicateOfflineID) {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, s.createError(err, item)
	}
	return created, false, nil
}

func offlineIDOf(item CreateComplaintInput) string {
	if item.OfflineID == nil {
		return ""
	}
	return *item.OfflineID
}
