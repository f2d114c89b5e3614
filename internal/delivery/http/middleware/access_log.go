package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"skill-journal/internal/metrics"
)

const RequestIDHeader = "X-Request-ID"

type AccessLogMiddleware struct {
	log     *slog.Logger
	metrics metrics.Recorder
}

func NewAccessLogMiddleware(logger *slog.Logger, rec metrics.Recorder) *AccessLogMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &AccessLogMiddleware{log: logger.With(slog.String("component", "http.access")), metrics: rec}
}

func (m *AccessLogMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		rid := c.Get(RequestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(RequestIDHeader, rid)

		err := c.Next()

		dur := time.Since(start)
		status := c.Response().StatusCode()
		route := c.Route().Path

		m.metrics.RecordHTTP(c.Method(), route, status, dur)
		m.log.Info("HTTP access",
			slog.String("rid", rid),
			slog.String("ip", c.IP()),
			slog.String("method", c.Method()),
			slog.String("path", c.OriginalURL()),
			slog.String("route", route),
			slog.Int("status", status),
			slog.Duration("latency", dur),
			slog.Int("resp_bytes", len(c.Response().Body())),
			slog.String("ua", c.Get("User-Agent")),
		)
		return err
	}
}
