package handler

import (
	"github.com/gofiber/fiber/v3"

	"skill-journal/internal/delivery/http/dto"
	"skill-journal/internal/pkg/response"
	"skill-journal/internal/usecase"
)

type SkillHandler struct {
	uc usecase.JournalUsecase
}

func NewSkillHandler(uc usecase.JournalUsecase) *SkillHandler {
	return &SkillHandler{uc: uc}
}

func (h *SkillHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	grp := r.Group("/skills")
	grp.Get("/", h.List)
	grp.Post("/", h.Create)
	grp.Get("/:id", h.Get)
	grp.Patch("/:id", h.Update)
	grp.Delete("/:id", h.Delete)
	grp.Put("/:id/level", h.UpdateLevel)
}

func (h *SkillHandler) List(c fiber.Ctx) error {
	uid, err := owner(c)
	if err != nil {
		return err
	}
	items, err := h.uc.ListSkills(c.Context(), uid)
	if err != nil {
		return mapJournalError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, items)
}

func (h *SkillHandler) Get(c fiber.Ctx) error {
	uid, err := owner(c)
	if err != nil {
		return err
	}
	s, err := h.uc.GetSkill(c.Context(), uid, c.Params("id"))
	if err != nil {
		return mapJournalError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, s)
}

func (h *SkillHandler) Create(c fiber.Ctx) error {
	uid, err := owner(c)
	if err != nil {
		return err
	}
	var req dto.CreateSkillRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}

	id, err := h.uc.CreateSkill(c.Context(), uid, req.Input())
	if err != nil {
		return mapJournalError(err)
	}
	return response.Created(c, id)
}

func (h *SkillHandler) Update(c fiber.Ctx) error {
	uid, err := owner(c)
	if err != nil {
		return err
	}
	var req dto.UpdateSkillRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}

	id := c.Params("id")
	if err := h.uc.UpdateSkill(c.Context(), uid, id, req.Patch()); err != nil {
		return mapJournalError(err)
	}
	return response.Success(c, fiber.StatusOK, "Skill updated", response.IDData{ID: id})
}

func (h *SkillHandler) UpdateLevel(c fiber.Ctx) error {
	uid, err := owner(c)
	if err != nil {
		return err
	}
	var req dto.LevelRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}

	id := c.Params("id")
	if err := h.uc.UpdateLevel(c.Context(), uid, id, req.Level); err != nil {
		return mapJournalError(err)
	}
	return response.Success(c, fiber.StatusOK, "Level updated", response.IDData{ID: id})
}

func (h *SkillHandler) Delete(c fiber.Ctx) error {
	uid, err := owner(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	if err := h.uc.DeleteSkill(c.Context(), uid, id, confirmation(c)); err != nil {
		return mapJournalError(err)
	}
	return response.Success(c, fiber.StatusOK, "Skill deleted", response.IDData{ID: id})
}
