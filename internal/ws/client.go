package ws

import (
	"log/slog"
	"sync"
	"time"

	"skill-journal/internal/config"

	"github.com/gorilla/websocket"
)

// Client owns one connection. Writes go through a buffered queue drained by
// WritePump; a client whose queue is full is disconnected.
type Client struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	cfg       config.WSConfig
	logger    *slog.Logger
}

func NewClient(conn *websocket.Conn, cfg config.WSConfig, logger *slog.Logger) *Client {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 16
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = time.Minute
	}
	if cfg.MaxMessage <= 0 {
		cfg.MaxMessage = 4096
	}
	return &Client{
		conn:   conn,
		send:   make(chan []byte, cfg.SendBuffer),
		done:   make(chan struct{}),
		cfg:    cfg,
		logger: logger,
	}
}

// Send queues msg and reports whether it was accepted.
func (c *Client) Send(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	case <-c.done:
		return false
	default:
		c.logger.Warn("WS send buffer full, disconnecting")
		c.Close()
		return false
	}
}

// Close asks WritePump to say goodbye and drop the connection. Safe to call
// more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) pingPeriod() time.Duration {
	return c.cfg.PongTimeout * 9 / 10
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(c.pingPeriod())
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger.Debug("WS write failed", slog.Any("error", err))
				c.Close()
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}

		case <-c.done:
			deadline := time.Now().Add(c.cfg.WriteTimeout)
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return
		}
	}
}

// ReadPump hands every text frame to handle until the connection fails or
// the peer stops answering pings.
func (c *Client) ReadPump(handle func([]byte)) {
	defer c.Close()

	c.conn.SetReadLimit(c.cfg.MaxMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	})

	for {
		kind, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("WS read failed", slog.Any("error", err))
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		handle(msg)
	}
}
