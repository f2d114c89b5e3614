package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"skill-journal/internal/delivery/http/dto"
	"skill-journal/internal/delivery/http/middleware"
	"skill-journal/internal/domain/user"
	"skill-journal/internal/pkg/response"
	"skill-journal/internal/usecase"
)

type UserHandler struct {
	uc usecase.AuthUsecase
}

func NewUserHandler(uc usecase.AuthUsecase) *UserHandler {
	return &UserHandler{uc: uc}
}

func (h *UserHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/me", h.GetMe)
}

func (h *UserHandler) GetMe(c fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return middleware.Unauthenticated("Unauthorized", nil)
	}

	u, err := h.uc.Me(c.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return middleware.Unauthenticated("User not found", err)
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewUserResponse(u))
}
