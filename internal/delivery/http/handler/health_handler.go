package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"skill-journal/internal/pkg/response"
)

// Pinger is a dependency the health check probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	checks map[string]Pinger
}

func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/health", h.Health)
}

type healthData struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	data := healthData{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	status := fiber.StatusOK
	for name, p := range h.checks {
		if p == nil {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			data.Checks[name] = err.Error()
			data.Status = "degraded"
			status = fiber.StatusServiceUnavailable
			continue
		}
		data.Checks[name] = "ok"
	}
	return response.Success(c, status, data.Status, data)
}
