package routes

import (
	"github.com/gofiber/fiber/v3"

	"skill-journal/internal/delivery/http/handler"
	v1 "skill-journal/internal/delivery/http/routes/v1"
)

// Registry mounts every HTTP surface on an app.
type Registry struct {
	health  *handler.HealthHandler
	api     v1.Handlers
	metrics fiber.Handler
	ws      fiber.Handler
}

func NewRegistry(health *handler.HealthHandler, api v1.Handlers, metrics, ws fiber.Handler) *Registry {
	return &Registry{health: health, api: api, metrics: metrics, ws: ws}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.health.RegisterRoutes(app)
	if r.metrics != nil {
		app.Get("/metrics", r.metrics)
	}
	if r.ws != nil {
		app.Get("/ws", r.ws)
	}
	api := app.Group("/api")
	v1.Register(api.Group("/v1"), r.api)
}
