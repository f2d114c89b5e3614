package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"skill-journal/internal/analytics"
	"skill-journal/internal/config"
	"skill-journal/internal/docstore"
	"skill-journal/internal/journal"
	"skill-journal/internal/session"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gorilla/websocket"
)

// Handler upgrades requests to live journal connections. Each connection
// gets its own auth state and view; the client authenticates by sending an
// auth message.
type Handler struct {
	hub      *Hub
	docs     docstore.Store
	verify   session.VerifyFunc
	cfg      config.WSConfig
	logger   *slog.Logger
	base     *slog.Logger
	viewOpts []journal.ViewOption
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, docs docstore.Store, verify session.VerifyFunc, cfg config.WSConfig, logger *slog.Logger, opts ...journal.ViewOption) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		hub:      hub,
		docs:     docs,
		verify:   verify,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "ws")),
		base:     logger,
		viewOpts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Fiber mounts the handler on a Fiber route.
func (h *Handler) Fiber() fiber.Handler {
	return adaptor.HTTPHandler(h)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.hub == nil {
		http.Error(w, "live sync unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WS upgrade error", slog.Any("error", err))
		return
	}

	client := NewClient(conn, h.cfg, h.logger)
	if !h.hub.Register(client) {
		_ = conn.Close()
		return
	}

	c := h.open(client)
	go client.WritePump()
	go func() {
		client.ReadPump(c.handle)
		c.close()
		h.hub.Unregister(client)
	}()
}

type connection struct {
	client   *Client
	auth     *session.TokenAuth
	provider *session.Provider
	view     *journal.View
	stopSess func()
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *slog.Logger
}

func (h *Handler) open(client *Client) *connection {
	ctx, cancel := context.WithCancel(context.Background())
	c := &connection{
		client: client,
		auth:   session.NewTokenAuth(h.verify),
		ctx:    ctx,
		cancel: cancel,
		logger: h.logger,
	}
	c.provider = session.NewProvider(c.auth, h.base)
	c.stopSess = c.provider.Subscribe(c.sendSession)
	opts := append([]journal.ViewOption{journal.WithLogger(h.base)}, h.viewOpts...)
	c.view = journal.NewView(ctx, c.provider, h.docs, c.sendSnapshot, opts...)
	return c
}

func (c *connection) close() {
	c.view.Close()
	c.stopSess()
	c.provider.Close()
	c.cancel()
}

func (c *connection) handle(raw []byte) {
	var msg Inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("malformed message")
		return
	}

	switch msg.Type {
	case MsgAuth:
		if _, err := c.auth.Resolve(c.ctx, msg.Token); err != nil {
			c.sendError("invalid token")
		}
	case MsgLogout:
		c.provider.Logout(c.ctx)
	case MsgSelectSkill:
		c.view.SelectSkill(msg.SkillID)
	case MsgDisplayMode:
		mode, err := analytics.ParseDisplayMode(msg.Shape, msg.Metric)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		c.view.SetDisplayMode(mode)
	default:
		c.sendError("unknown message type")
	}
}

func (c *connection) sendSession(id *session.Identity) {
	c.send(Outbound{Type: MsgSession, Session: &SessionState{SignedIn: id != nil, Identity: id}})
}

func (c *connection) sendSnapshot(u journal.Update) {
	c.send(Outbound{Type: MsgSnapshot, Snapshot: &u})
}

func (c *connection) sendError(msg string) {
	c.send(Outbound{Type: MsgError, Error: msg})
}

func (c *connection) send(out Outbound) {
	b, err := json.Marshal(out)
	if err != nil {
		c.logger.Error("WS encode failed", slog.String("type", out.Type), slog.Any("error", err))
		return
	}
	c.client.Send(b)
}
