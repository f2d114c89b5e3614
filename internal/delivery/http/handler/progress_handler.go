package handler

import (
	"github.com/gofiber/fiber/v3"

	"skill-journal/internal/delivery/http/dto"
	"skill-journal/internal/pkg/response"
	"skill-journal/internal/usecase"
)

type ProgressHandler struct {
	uc usecase.JournalUsecase
}

func NewProgressHandler(uc usecase.JournalUsecase) *ProgressHandler {
	return &ProgressHandler{uc: uc}
}

func (h *ProgressHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/skills/:id/progress", h.ListForSkill)
	r.Post("/skills/:id/progress", h.Create)

	grp := r.Group("/progress")
	grp.Get("/", h.ListAll)
	grp.Patch("/:id", h.Update)
	grp.Delete("/:id", h.Delete)
}

func (h *ProgressHandler) ListAll(c fiber.Ctx) error {
	return h.list(c, "")
}

func (h *ProgressHandler) ListForSkill(c fiber.Ctx) error {
	return h.list(c, c.Params("id"))
}

func (h *ProgressHandler) list(c fiber.Ctx, skillID string) error {
	uid, err := owner(c)
	if err != nil {
		return err
	}
	items, err := h.uc.ListProgress(c.Context(), uid, skillID)
	if err != nil {
		return mapJournalError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, items)
}

func (h *ProgressHandler) Create(c fiber.Ctx) error {
	uid, err := owner(c)
	if err != nil {
		return err
	}
	var req dto.CreateProgressRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}
	in, ok := req.Input()
	if !ok {
		return badRequest(nil)
	}

	id, err := h.uc.CreateProgress(c.Context(), uid, c.Params("id"), in)
	if err != nil {
		return mapJournalError(err)
	}
	return response.Created(c, id)
}

func (h *ProgressHandler) Update(c fiber.Ctx) error {
	uid, err := owner(c)
	if err != nil {
		return err
	}
	var req dto.UpdateProgressRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}
	patch, ok := req.Patch()
	if !ok {
		return badRequest(nil)
	}

	id := c.Params("id")
	if err := h.uc.UpdateProgress(c.Context(), uid, id, patch); err != nil {
		return mapJournalError(err)
	}
	return response.Success(c, fiber.StatusOK, "Progress updated", response.IDData{ID: id})
}

func (h *ProgressHandler) Delete(c fiber.Ctx) error {
	uid, err := owner(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	if err := h.uc.DeleteProgress(c.Context(), uid, id, confirmation(c)); err != nil {
		return mapJournalError(err)
	}
	return response.Success(c, fiber.StatusOK, "Progress deleted", response.IDData{ID: id})
}
