package helpers

import (
	"errors"

	"github.com/lanahead/lanahead/internal/auth"
	"github.com/lanahead/lanahead/internal/auth/providers"
	"github.com/lanahead/lanahead/internal/domain/repository"
	apperrors "github.com/lanahead/lanahead/internal/http/errors"
)

// DomainError maps service and repository errors onto the HTTP error
// catalog. Anything unrecognized surfaces as an internal error with the
// cause kept for the log.
func DomainError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, auth.ErrUnknownSite):
		return apperrors.ErrUnknownSite
	case errors.Is(err, auth.ErrAccountLinkedElsewhere):
		return apperrors.ErrAccountLinkedElsewhere
	case errors.Is(err, auth.ErrNoPendingRegistration):
		return apperrors.ErrNoPendingRegistration
	case errors.Is(err, auth.ErrInvalidUsername):
		return apperrors.ErrInvalidUsername
	case providers.IsAuthError(err):
		return apperrors.ErrAuthFailed.WithDetail(err.Error())
	case repository.IsNotFound(err):
		return apperrors.ErrNotFound
	case errors.Is(err, repository.ErrLastSignIn):
		return apperrors.ErrLastSignIn
	case repository.IsConflict(err):
		return apperrors.ErrConflict
	default:
		return apperrors.ErrInternal.WithErr(err)
	}
}
