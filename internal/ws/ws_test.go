package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skill-journal/internal/analytics"
	"skill-journal/internal/config"
	"skill-journal/internal/docstore/memory"
	"skill-journal/internal/journal"
	"skill-journal/internal/session"
)

var testCfg = config.WSConfig{
	WriteTimeout: time.Second,
	PongTimeout:  10 * time.Second,
	MaxMessage:   4096,
	SendBuffer:   64,
}

// wireMsg mirrors Outbound with the snapshot fields the tests look at.
type wireMsg struct {
	Type     string        `json:"type"`
	Session  *SessionState `json:"session"`
	Error    string        `json:"error"`
	Snapshot *struct {
		Identity *session.Identity `json:"identity"`
		Loading  bool              `json:"loading"`
		Skills   []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"skills"`
		Summary struct {
			TotalSkills int `json:"totalSkills"`
		} `json:"summary"`
		Mode  analytics.DisplayMode `json:"mode"`
		Chart analytics.Dataset     `json:"chart"`
	} `json:"snapshot"`
}

func verifyTokens(_ context.Context, token string) (session.Identity, error) {
	switch token {
	case "alice-token":
		return session.Identity{UserID: "alice", Email: "alice@example.com"}, nil
	default:
		return session.Identity{}, errors.New("bad token")
	}
}

type fixture struct {
	docs   *memory.Store
	hub    *Hub
	server *httptest.Server
	cancel context.CancelFunc
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	docs := memory.New()
	hub := NewHub(slog.Default(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		_ = hub.Run(ctx)
		close(stopped)
	}()

	server := httptest.NewServer(NewHandler(hub, docs, verifyTokens, testCfg, slog.Default()))
	t.Cleanup(func() {
		cancel()
		<-stopped
		server.Close()
	})
	return &fixture{docs: docs, hub: hub, server: server, cancel: cancel}
}

func (f *fixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg Inbound) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

func readUntil(t *testing.T, conn *websocket.Conn, match func(wireMsg) bool) wireMsg {
	t.Helper()
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg wireMsg
		require.NoError(t, json.Unmarshal(raw, &msg))
		if match(msg) {
			return msg
		}
	}
}

func isSnapshot(fn func(wireMsg) bool) func(wireMsg) bool {
	return func(m wireMsg) bool { return m.Type == MsgSnapshot && m.Snapshot != nil && fn(m) }
}

func isSession(signedIn bool) func(wireMsg) bool {
	return func(m wireMsg) bool { return m.Type == MsgSession && m.Session != nil && m.Session.SignedIn == signedIn }
}

func isError(m wireMsg) bool { return m.Type == MsgError }

func TestLiveSync_LoadingUntilAuthenticated(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)

	first := readUntil(t, conn, isSnapshot(func(wireMsg) bool { return true }))
	assert.True(t, first.Snapshot.Loading)
	assert.Nil(t, first.Snapshot.Identity)

	send(t, conn, Inbound{Type: MsgAuth, Token: "nope"})
	readUntil(t, conn, isSession(false))
	msg := readUntil(t, conn, isError)
	assert.Equal(t, "invalid token", msg.Error)

	send(t, conn, Inbound{Type: MsgAuth, Token: "alice-token"})
	sess := readUntil(t, conn, isSession(true))
	require.NotNil(t, sess.Session.Identity)
	assert.Equal(t, "alice", sess.Session.Identity.UserID)

	snap := readUntil(t, conn, isSnapshot(func(m wireMsg) bool {
		return !m.Snapshot.Loading && m.Snapshot.Identity != nil
	}))
	assert.Equal(t, "alice@example.com", snap.Snapshot.Identity.Email)
	assert.Empty(t, snap.Snapshot.Skills)
}

func TestLiveSync_PushesWritesAndModes(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)
	send(t, conn, Inbound{Type: MsgAuth, Token: "alice-token"})
	readUntil(t, conn, isSession(true))

	draft := journal.NewSkillDraft()
	draft.Name = "Go"
	_, err := journal.NewSkillStore(f.docs, "alice", nil).Add(context.Background(), &draft)
	require.NoError(t, err)

	snap := readUntil(t, conn, isSnapshot(func(m wireMsg) bool { return len(m.Snapshot.Skills) == 1 }))
	assert.Equal(t, "Go", snap.Snapshot.Skills[0].Name)
	assert.Equal(t, 1, snap.Snapshot.Summary.TotalSkills)

	send(t, conn, Inbound{Type: MsgDisplayMode, Shape: "line", Metric: "progress"})
	snap = readUntil(t, conn, isSnapshot(func(m wireMsg) bool { return m.Snapshot.Mode.Shape == analytics.ShapeLine }))
	assert.Equal(t, analytics.MetricProgress, snap.Snapshot.Chart.Metric)
	assert.Equal(t, []string{"Go"}, snap.Snapshot.Chart.Labels)

	send(t, conn, Inbound{Type: MsgDisplayMode, Shape: "pie"})
	msg := readUntil(t, conn, isError)
	assert.Contains(t, msg.Error, "invalid display mode")

	send(t, conn, Inbound{Type: "dance"})
	msg = readUntil(t, conn, isError)
	assert.Equal(t, "unknown message type", msg.Error)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	msg = readUntil(t, conn, isError)
	assert.Equal(t, "malformed message", msg.Error)
}

func TestLiveSync_LogoutDropsSubscriptions(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)
	send(t, conn, Inbound{Type: MsgAuth, Token: "alice-token"})
	readUntil(t, conn, isSession(true))
	require.Eventually(t, func() bool { return f.docs.Subscribers() == 2 }, 2*time.Second, 10*time.Millisecond)

	send(t, conn, Inbound{Type: MsgLogout})
	readUntil(t, conn, isSession(false))
	snap := readUntil(t, conn, isSnapshot(func(m wireMsg) bool { return m.Snapshot.Identity == nil }))
	assert.Empty(t, snap.Snapshot.Skills)
	assert.Equal(t, 0, f.docs.Subscribers())
}

func TestLiveSync_DisconnectUnregisters(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)
	send(t, conn, Inbound{Type: MsgAuth, Token: "alice-token"})
	readUntil(t, conn, isSession(true))
	require.Eventually(t, func() bool { return f.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return f.hub.ClientCount() == 0 && f.docs.Subscribers() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)
	send(t, conn, Inbound{Type: MsgAuth, Token: "alice-token"})
	readUntil(t, conn, isSession(true))
	require.Eventually(t, func() bool { return f.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	f.cancel()

	var err error
	for err == nil {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, _, err = conn.ReadMessage()
	}
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	require.Eventually(t, func() bool { return f.docs.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, f.hub.ClientCount())
}

func TestHub_RefusesAfterStop(t *testing.T) {
	hub := NewHub(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, hub.Run(ctx))

	c := NewClient(nil, config.WSConfig{}, slog.Default())
	assert.False(t, hub.Register(c))
	select {
	case <-c.Done():
	default:
		t.Fatal("client left open")
	}
	hub.Unregister(c)
	assert.False(t, c.Send([]byte("late")))
}
