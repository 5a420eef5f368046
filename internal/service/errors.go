package service

import (
	"errors"

	"go.uber.org/zap"

	"github.com/oladanielT/support-system/internal/repository"
	apperrors "github.com/oladanielT/support-system/pkg/util/errorutil"
)

// storeError translates repository failures into the error taxonomy. Domain errors raised
// inside a transaction pass through untouched.
func storeError(logger *zap.Logger, err error, resource, id string) error {
	if err == nil {
		return nil
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	case errors.Is(err, repository.ErrDuplicateOfflineID):
		return apperrors.NewConflict("complaint with this offline_id already exists", map[string]any{"offline_id": id})
	case errors.Is(err, repository.ErrDuplicateEmail):
		return apperrors.NewConflict("email already registered", nil)
	case apperrors.IsUnavailable(err):
		logger.Warn("store unavailable", zap.String("resource", resource), zap.Error(err))
		return apperrors.NewUnavailable(err)
	}
	logger.Error("store failure", zap.String("resource", resource), zap.Error(err))
	return apperrors.NewInternalError(err)
}
