package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"skill-journal/internal/analytics"
	"skill-journal/internal/delivery/http/middleware"
	"skill-journal/internal/docstore"
	"skill-journal/internal/domain/skill"
	"skill-journal/internal/infrastructure/oauth"
	"skill-journal/internal/journal"
	"skill-journal/internal/pkg/jwt"
	"skill-journal/internal/pkg/response"
	"skill-journal/internal/usecase"
	ucauth "skill-journal/internal/usecase/auth"
)

func mapAuthError(err error) error {
	switch {
	case errors.Is(err, ucauth.ErrEmailAlreadyRegistered):
		return middleware.NewAppError(fiber.StatusConflict, "Email already registered", nil, err)
	case errors.Is(err, ucauth.ErrWeakPassword):
		return middleware.NewAppError(fiber.StatusBadRequest, ucauth.ErrWeakPassword.Error(), nil, err)
	case errors.Is(err, ucauth.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	case errors.Is(err, ucauth.ErrInvalidCredentials):
		return middleware.NewAppError(fiber.StatusUnauthorized, "Invalid email or password", nil, err)
	case errors.Is(err, oauth.ErrUnknownProvider):
		return middleware.NewAppError(fiber.StatusNotFound, "Unknown sign-in provider", nil, err)
	case errors.Is(err, usecase.ErrRefreshTokenExpired):
		return middleware.Unauthenticated("Refresh token expired", err)
	case errors.Is(err, usecase.ErrInvalidRefreshToken),
		errors.Is(err, usecase.ErrTokenRevoked),
		errors.Is(err, jwt.ErrTokenInvalid):
		return middleware.Unauthenticated("Invalid refresh token", err)
	case errors.Is(err, usecase.ErrUnauthorized):
		return middleware.Unauthenticated("Unauthorized", err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}

func mapJournalError(err error) error {
	switch {
	case errors.Is(err, journal.ErrNameRequired),
		errors.Is(err, journal.ErrContentRequired),
		errors.Is(err, journal.ErrSkillRequired),
		errors.Is(err, journal.ErrEmptyPatch):
		return middleware.NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	case errors.Is(err, analytics.ErrInvalidDisplayMode):
		return middleware.NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
	case errors.Is(err, journal.ErrNotConfirmed):
		return middleware.NewAppError(fiber.StatusPreconditionRequired, "Repeat the request with confirm=true to delete", nil, err)
	case errors.Is(err, journal.ErrForbidden):
		return middleware.NewAppError(fiber.StatusForbidden, "Forbidden", nil, err)
	case errors.Is(err, docstore.ErrNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Not found", nil, err)
	case errors.Is(err, skill.ErrMalformedDocument):
		return middleware.NewAppError(fiber.StatusUnprocessableEntity, "Stored document is malformed", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}

func badRequest(cause error) error {
	return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, cause)
}

func owner(c fiber.Ctx) (string, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return "", middleware.Unauthenticated("Unauthorized", nil)
	}
	return id.String(), nil
}

// confirmation reads the ?confirm flag that stands in for an interactive
// confirmation prompt.
func confirmation(c fiber.Ctx) journal.Confirmer {
	ok, _ := strconv.ParseBool(c.Query("confirm"))
	if ok {
		return journal.Confirmed
	}
	return nil
}
