package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"golang.org/x/sync/errgroup"

	"skill-journal/internal/config"
	"skill-journal/internal/delivery/http/handler"
	"skill-journal/internal/delivery/http/middleware"
	"skill-journal/internal/delivery/http/routes"
	v1 "skill-journal/internal/delivery/http/routes/v1"
	"skill-journal/internal/journal"
	"skill-journal/internal/metrics"
	"skill-journal/internal/ws"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

// New builds the Fiber app on top of c.
func New(c *Container) *App {
	errMw := middleware.NewErrorMiddleware(c.Logger)
	f := fiber.New(fiber.Config{
		AppName:      c.Config.App.AppName,
		ErrorHandler: errMw.Handler,
	})

	f.Use(middleware.NewAccessLogMiddleware(c.Logger, c.Metrics).Middleware())
	f.Use(errMw.Middleware())

	checks := map[string]handler.Pinger{"database": c.DB}
	if c.Config.Redis.Enabled() {
		checks["redis"] = c.Redis
	}

	api := v1.Handlers{
		Auth:      handler.NewAuthHandler(c.Auth),
		User:      handler.NewUserHandler(c.Auth),
		Skill:     handler.NewSkillHandler(c.Journal),
		Progress:  handler.NewProgressHandler(c.Journal),
		Dashboard: handler.NewDashboardHandler(c.Journal),
		AuthMw:    middleware.NewAuthMiddleware(c.JWT),
	}
	live := ws.NewHandler(c.Hub, c.Docs, c.Auth.Verify, c.Config.WS, c.Logger, journal.WithAutoSelect())

	routes.NewRegistry(
		handler.NewHealthHandler(checks),
		api,
		adaptor.HTTPHandler(metrics.Handler(c.Registry)),
		live.Fiber(),
	).Register(f)

	return &App{Fiber: f, Container: c}
}

// Bootstrap builds the container and the app. The returned cleanup closes
// the container.
func Bootstrap(ctx context.Context, cfg config.Config) (*App, func(), error) {
	c, err := NewContainer(ctx, cfg, NewLogger(cfg.Log))
	if err != nil {
		return nil, nil, err
	}
	return New(c), c.Close, nil
}

// Run serves HTTP and runs the hub and the change bus until ctx is done or
// one of them fails, then shuts the server down.
func (a *App) Run(ctx context.Context) error {
	cfg := a.Container.Config
	addr, err := ListenAddr(cfg.App.HTTPPort)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Container.Hub.Run(gctx) })
	g.Go(func() error { return a.Container.Bus.Run(gctx) })
	g.Go(func() error {
		a.Container.Logger.Info("HTTP server listening", slog.String("addr", addr))
		if err := a.Fiber.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		if err := a.Fiber.ShutdownWithContext(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		a.Container.Logger.Info("HTTP server stopped")
		return nil
	})
	return g.Wait()
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
