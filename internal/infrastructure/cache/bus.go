package cache

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"skill-journal/internal/docstore"
)

type envelope struct {
	Origin string          `json:"origin"`
	Change docstore.Change `json:"change"`
}

// Bus fans document changes out over a Redis channel so every server instance
// re-reads its live queries. Changes are delivered to local handlers directly;
// messages a node published itself are skipped when they come back from Redis.
// Without Redis it behaves as a docstore.LocalBus.
type Bus struct {
	redis   *Redis
	channel string
	origin  string
	local   *docstore.LocalBus
	logger  *slog.Logger
}

var _ docstore.Bus = (*Bus)(nil)

func NewBus(r *Redis, channel string, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		redis:   r,
		channel: channel,
		origin:  uuid.NewString(),
		local:   docstore.NewLocalBus(),
		logger:  logger.With(slog.String("component", "cache.bus")),
	}
}

func (b *Bus) Publish(ctx context.Context, c docstore.Change) error {
	b.local.Deliver(c)
	if !b.redis.Available() {
		return nil
	}
	payload, err := json.Marshal(envelope{Origin: b.origin, Change: c})
	if err != nil {
		return err
	}
	if err := b.redis.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.redis.warnUnavailableOnce(err)
		return err
	}
	return nil
}

func (b *Bus) Subscribe(fn func(docstore.Change)) func() {
	return b.local.Subscribe(fn)
}

// Run relays changes published by other instances until ctx is done.
func (b *Bus) Run(ctx context.Context) error {
	if !b.redis.Available() {
		<-ctx.Done()
		return nil
	}

	ps := b.redis.client.Subscribe(ctx, b.channel)
	defer func() { _ = ps.Close() }()

	if _, err := ps.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	b.logger.Info("listening for remote changes", slog.String("channel", b.channel))

	msgs := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			b.handle(msg.Payload)
		}
	}
}

func (b *Bus) handle(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		b.logger.Warn("drop malformed change", slog.Any("error", err))
		return
	}
	if env.Origin == b.origin {
		return
	}
	b.local.Deliver(env.Change)
}
