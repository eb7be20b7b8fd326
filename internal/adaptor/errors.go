package adaptor

import (
	"errors"
	"net/http"

	"bank-backoffice/internal/data/repository"
	"bank-backoffice/internal/security"
	"bank-backoffice/internal/task"
	"bank-backoffice/internal/usecase"
	"bank-backoffice/pkg/utils"

	"go.uber.org/zap"
)

// handleServiceError maps service errors to responses. Denials keep their
// fixed message; infrastructure failures never leak their cause.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	switch {
	case errors.Is(err, usecase.ErrValidation):
		log.Warn(operation+" validation failed", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrInvalidCredentials):
		log.Warn(operation+" failed - invalid credentials")
		utils.ResponseUnauthorized(w, usecase.ErrInvalidCredentials.Error())

	case errors.Is(err, usecase.ErrVerificationFailed):
		log.Warn(operation + " failed - verification denied")
		utils.ResponseUnauthorized(w, usecase.ErrVerificationFailed.Error())

	case errors.Is(err, usecase.ErrAccountInactive):
		log.Warn(operation + " failed - account deactivated")
		utils.ResponseForbidden(w, usecase.ErrAccountInactive.Error())

	case errors.Is(err, usecase.ErrEmailTaken),
		errors.Is(err, usecase.ErrIDNumberTaken):
		log.Warn(operation+" failed - already exists", zap.Error(err))
		utils.ResponseConflict(w, err.Error())

	case errors.Is(err, usecase.ErrNotFound),
		errors.Is(err, security.ErrIdentityNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, "Not found")

	case errors.Is(err, repository.ErrNotFound):
		log.Warn(operation+" failed - session not found", zap.Error(err))
		utils.ResponseUnauthorized(w, "Invalid or expired session")

	case errors.Is(err, security.ErrStoreUnavailable),
		errors.Is(err, usecase.ErrDeliveryFailed),
		errors.Is(err, task.ErrQueueUnavailable):
		log.Error(operation+" failed - dependency unavailable", zap.Error(err))
		utils.ResponseServiceUnavailable(w, "Service temporarily unavailable")

	default:
		log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
