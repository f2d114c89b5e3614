package cache

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"skill-journal/internal/config"
	"skill-journal/internal/docstore"
)

func TestUnconfiguredRedisDegrades(t *testing.T) {
	ctx := context.Background()
	r := NewRedis(config.RedisConfig{}, nil)

	assert.False(t, r.Available())
	assert.ErrorIs(t, r.Ping(ctx), ErrUnavailable)

	stored, err := r.SetIfNotExists(ctx, "k", "v", time.Minute)
	assert.NoError(t, err)
	assert.False(t, stored)

	d := NewDenylist(r)
	first, err := d.Revoke(ctx, "jti", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, first)
	revoked, err := d.IsRevoked(ctx, "jti")
	assert.NoError(t, err)
	assert.False(t, revoked)
}

func TestBusWithoutRedisDeliversLocally(t *testing.T) {
	bus := NewBus(NewRedis(config.RedisConfig{}, nil), "changes", nil)

	var got []docstore.Change
	cancel := bus.Subscribe(func(c docstore.Change) { got = append(got, c) })
	defer cancel()

	require.NoError(t, bus.Publish(context.Background(), docstore.Change{Collection: "skills", ID: "s1"}))
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].ID)

	ctx, stop := context.WithCancel(context.Background())
	stop()
	assert.NoError(t, bus.Run(ctx))
}

func TestBusSkipsOwnMessagesAndMalformedPayloads(t *testing.T) {
	bus := NewBus(NewRedis(config.RedisConfig{}, nil), "changes", nil)

	var got []string
	bus.Subscribe(func(c docstore.Change) { got = append(got, c.ID) })

	bus.handle(`not json`)
	bus.handle(fmt.Sprintf(`{"origin":%q,"change":{"collection":"skills","id":"own"}}`, bus.origin))
	bus.handle(`{"origin":"other-node","change":{"collection":"skills","id":"remote","after":{"userId":"u1"}}}`)

	assert.Equal(t, []string{"remote"}, got)
}

func TestIntegrationBusAcrossInstances(t *testing.T) {
	if os.Getenv("JOURNAL_INTEGRATION") != "1" {
		t.Skip("set JOURNAL_INTEGRATION=1 to run against a Redis container")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	newBus := func() *Bus {
		client := redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()})
		t.Cleanup(func() { _ = client.Close() })
		return NewBus(NewRedisWithClient(client, nil), "journal:test", nil)
	}
	a, b := newBus(), newBus()

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() { defer wg.Done(); _ = b.Run(runCtx) }()

	received := make(chan docstore.Change, 1)
	b.Subscribe(func(c docstore.Change) {
		select {
		case received <- c:
		default:
		}
	})

	// the subscriber may not be attached yet; publish until it is
	require.Eventually(t, func() bool {
		_ = a.Publish(ctx, docstore.Change{Collection: "skills", ID: "s1"})
		select {
		case c := <-received:
			return c.ID == "s1"
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 10*time.Second, 200*time.Millisecond)

	stop()
	wg.Wait()
}

func TestIntegrationDenylistRevokesOnce(t *testing.T) {
	if os.Getenv("JOURNAL_INTEGRATION") != "1" {
		t.Skip("set JOURNAL_INTEGRATION=1 to run against a Redis container")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()})
	t.Cleanup(func() { _ = client.Close() })
	d := NewDenylist(NewRedisWithClient(client, nil))

	until := time.Now().Add(time.Hour)
	first, err := d.Revoke(ctx, "jti-1", until)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := d.Revoke(ctx, "jti-1", until)
	require.NoError(t, err)
	assert.False(t, again)

	revoked, err := d.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}
