package journal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skill-journal/internal/docstore"
	"skill-journal/internal/docstore/memory"
	"skill-journal/internal/domain/skill"
)

func stepClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Minute)
		return t
	}
}

func names(skills []skill.Skill) []string {
	out := make([]string, len(skills))
	for i, s := range skills {
		out[i] = s.Name
	}
	return out
}

// scriptedStore hands subscription callbacks to the test instead of a backend.
type scriptedStore struct {
	*memory.Store
	unordered bool

	mu        sync.Mutex
	callbacks []docstore.SnapshotFunc
	unsubs    int
}

func (s *scriptedStore) Subscribe(_ context.Context, q docstore.Query, fn docstore.SnapshotFunc) (docstore.Subscription, error) {
	if s.unordered && q.OrderBy != nil {
		return nil, docstore.ErrIndexRequired
	}
	s.mu.Lock()
	s.callbacks = append(s.callbacks, fn)
	s.mu.Unlock()
	return docstore.SubscriptionFunc(func() {
		s.mu.Lock()
		s.unsubs++
		s.mu.Unlock()
	}), nil
}

func (s *scriptedStore) deliver(docs []docstore.Document, err error) {
	s.mu.Lock()
	fn := s.callbacks[len(s.callbacks)-1]
	s.mu.Unlock()
	fn(docstore.Snapshot{Docs: docs}, err)
}

func TestSkillListIsOwnerScopedAndNewestFirst(t *testing.T) {
	ctx := context.Background()
	docs := memory.New(memory.WithClock(stepClock()))
	s := NewSkillStore(docs, "u1", nil)
	require.NoError(t, s.Start(ctx))
	defer s.Close()

	other := NewSkillStore(docs, "u2", nil)
	for _, n := range []string{"Go", "Rust"} {
		d := SkillDraft{Name: n}
		_, err := s.Add(ctx, &d)
		require.NoError(t, err)
	}
	d := SkillDraft{Name: "Elm"}
	_, err := other.Add(ctx, &d)
	require.NoError(t, err)

	assert.Equal(t, []string{"Rust", "Go"}, names(s.Items()))
}

func TestFallbackSortsLocallyWhenOrderingUnavailable(t *testing.T) {
	ctx := context.Background()
	docs := memory.New(memory.WithClock(stepClock()), memory.WithoutOrdering(), memory.WithPendingWrites())
	s := NewProgressStore(docs, "u1", "", nil)
	require.NoError(t, s.Start(ctx))
	defer s.Close()

	var sawPendingFirst bool
	s.OnChange(func(items []skill.ProgressEntry) {
		if len(items) == 2 && items[0].CreatedAt.IsPending() {
			sawPendingFirst = true
		}
	})

	for _, c := range []string{"first", "second"} {
		d := ProgressDraft{SkillID: "s1", Content: c, Hours: 1}
		_, err := s.Add(ctx, &d)
		require.NoError(t, err)
	}

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "second", items[0].Content)
	assert.Equal(t, "first", items[1].Content)
	assert.True(t, sawPendingFirst, "a pending timestamp sorts ahead of resolved ones")

	fetched, err := s.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", fetched[0].Content)
}

func TestLocalSortPutsAbsentTimestampsLast(t *testing.T) {
	ctx := context.Background()
	docs := &scriptedStore{Store: memory.New(), unordered: true}
	s := NewSkillStore(docs, "u1", nil)
	require.NoError(t, s.Start(ctx))

	docs.deliver([]docstore.Document{
		{ID: "a", Fields: docstore.Fields{"name": "absent", "userId": "u1"}},
		{ID: "b", Fields: docstore.Fields{"name": "old", "userId": "u1", "createdAt": docstore.At(time.Unix(10, 0))}},
		{ID: "c", Fields: docstore.Fields{"name": "pending", "userId": "u1", "createdAt": docstore.PendingTimestamp()}},
		{ID: "d", Fields: docstore.Fields{"name": "new", "userId": "u1", "createdAt": docstore.At(time.Unix(20, 0))}},
	}, nil)

	assert.Equal(t, []string{"pending", "new", "old", "absent"}, names(s.Items()))
}

func TestSnapshotErrorsKeepLastList(t *testing.T) {
	ctx := context.Background()
	docs := &scriptedStore{Store: memory.New()}
	s := NewSkillStore(docs, "u1", nil)
	require.NoError(t, s.Start(ctx))

	docs.deliver([]docstore.Document{
		{ID: "a", Fields: docstore.Fields{"name": "Go", "userId": "u1"}},
		{ID: "bad", Fields: docstore.Fields{"userId": "u1"}},
	}, nil)
	assert.Equal(t, []string{"Go"}, names(s.Items()), "malformed documents are skipped")

	docs.deliver(nil, errors.New("permission denied"))
	assert.Equal(t, []string{"Go"}, names(s.Items()))
}

func TestCloseIsIdempotentAndIgnoresLateSnapshots(t *testing.T) {
	ctx := context.Background()
	docs := &scriptedStore{Store: memory.New()}
	s := NewSkillStore(docs, "u1", nil)
	require.NoError(t, s.Start(ctx))

	calls := 0
	s.OnChange(func([]skill.Skill) { calls++ })

	s.Close()
	s.Close()
	docs.mu.Lock()
	assert.Equal(t, 1, docs.unsubs)
	docs.mu.Unlock()

	docs.deliver([]docstore.Document{{ID: "a", Fields: docstore.Fields{"name": "Go", "userId": "u1"}}}, nil)
	assert.Zero(t, calls)
	assert.Empty(t, s.Items())

	assert.ErrorIs(t, s.Start(ctx), ErrClosed)
}

func TestStartTwice(t *testing.T) {
	s := NewSkillStore(memory.New(), "u1", nil)
	require.NoError(t, s.Start(context.Background()))
	defer s.Close()
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyStarted)
}

func TestItemsReturnsCopy(t *testing.T) {
	ctx := context.Background()
	docs := memory.New()
	s := NewSkillStore(docs, "u1", nil)
	require.NoError(t, s.Start(ctx))
	defer s.Close()

	d := SkillDraft{Name: "Go"}
	_, err := s.Add(ctx, &d)
	require.NoError(t, err)

	items := s.Items()
	items[0].Name = "changed"
	assert.Equal(t, "Go", s.Items()[0].Name)
}
