package v1

import (
	"github.com/gofiber/fiber/v3"

	"skill-journal/internal/delivery/http/handler"
	"skill-journal/internal/delivery/http/middleware"
)

type Handlers struct {
	Auth      *handler.AuthHandler
	User      *handler.UserHandler
	Skill     *handler.SkillHandler
	Progress  *handler.ProgressHandler
	Dashboard *handler.DashboardHandler
	AuthMw    *middleware.AuthMiddleware
}

func Register(r fiber.Router, h Handlers) {
	if r == nil {
		return
	}

	h.Auth.RegisterRoutes(r.Group("/auth"))

	protected := r.Group("", h.AuthMw.Middleware())
	h.User.RegisterRoutes(protected.Group("/users"))
	h.Skill.RegisterRoutes(protected)
	h.Progress.RegisterRoutes(protected)
	h.Dashboard.RegisterRoutes(protected)
}
