package handler

import (
	"github.com/gofiber/fiber/v3"

	"skill-journal/internal/analytics"
	"skill-journal/internal/pkg/response"
	"skill-journal/internal/usecase"
)

type DashboardHandler struct {
	uc usecase.JournalUsecase
}

func NewDashboardHandler(uc usecase.JournalUsecase) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

func (h *DashboardHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/dashboard", h.Dashboard)
	r.Get("/dashboard/chart", h.Chart)
}

func (h *DashboardHandler) Dashboard(c fiber.Ctx) error {
	uid, err := owner(c)
	if err != nil {
		return err
	}
	d, err := h.uc.Dashboard(c.Context(), uid)
	if err != nil {
		return mapJournalError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, d)
}

func (h *DashboardHandler) Chart(c fiber.Ctx) error {
	uid, err := owner(c)
	if err != nil {
		return err
	}
	mode, err := analytics.ParseDisplayMode(c.Query("shape"), c.Query("metric"))
	if err != nil {
		return mapJournalError(err)
	}
	ds, err := h.uc.Chart(c.Context(), uid, mode)
	if err != nil {
		return mapJournalError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, ds)
}
