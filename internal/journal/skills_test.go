package journal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skill-journal/internal/docstore"
	"skill-journal/internal/docstore/memory"
	"skill-journal/internal/domain/skill"
)

type failingStore struct {
	docstore.Store
	err error
}

func (s failingStore) Add(context.Context, string, docstore.Fields) (string, error) {
	return "", s.err
}

var refuse = ConfirmFunc(func(context.Context, string) bool { return false })

func TestAddSkillAppliesDefaultsAndResetsDraft(t *testing.T) {
	ctx := context.Background()
	docs := memory.New(memory.WithClock(stepClock()))
	s := NewSkillStore(docs, "u1", nil)
	require.NoError(t, s.Start(ctx))
	defer s.Close()

	d := SkillDraft{Name: "  Go  ", Description: "lang", Milestones: []string{"tour", " ", "book"}}
	id, err := s.Add(ctx, &d)
	require.NoError(t, err)
	assert.Equal(t, NewSkillDraft(), d)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Go", got.Name)
	assert.Equal(t, 1, got.CurrentLevel)
	assert.Equal(t, skill.DraftTargetLevel, got.TargetLevel)
	assert.Equal(t, []string{"tour", "book"}, got.Milestones)
	assert.True(t, got.CreatedAt.IsResolved())
	assert.True(t, got.UpdatedAt.IsResolved())
}

func TestAddSkillValidation(t *testing.T) {
	ctx := context.Background()
	s := NewSkillStore(memory.New(), "u1", nil)

	d := SkillDraft{Name: "   ", TargetLevel: 7}
	_, err := s.Add(ctx, &d)
	assert.ErrorIs(t, err, ErrNameRequired)
	assert.Equal(t, 7, d.TargetLevel, "draft is kept on failure")

	_, err = NewSkillStore(memory.New(), "", nil).Add(ctx, &SkillDraft{Name: "Go"})
	assert.ErrorIs(t, err, ErrNoOwner)
}

func TestAddSkillWriteFailureKeepsDraft(t *testing.T) {
	boom := errors.New("unavailable")
	s := NewSkillStore(failingStore{Store: memory.New(), err: boom}, "u1", nil)

	d := SkillDraft{Name: "Go", TargetLevel: 8}
	_, err := s.Add(context.Background(), &d)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, SkillDraft{Name: "Go", TargetLevel: 8}, d)
}

func TestUpdateSkill(t *testing.T) {
	ctx := context.Background()
	docs := memory.New()
	s := NewSkillStore(docs, "u1", nil)
	id, err := s.Add(ctx, &SkillDraft{Name: "Go"})
	require.NoError(t, err)

	require.NoError(t, s.UpdateLevel(ctx, id, 4))
	name := "Golang"
	require.NoError(t, s.Update(ctx, id, SkillPatch{Name: &name}))

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Golang", got.Name)
	assert.Equal(t, 4, got.CurrentLevel)

	empty := " "
	assert.ErrorIs(t, s.Update(ctx, id, SkillPatch{Name: &empty}), ErrNameRequired)
	assert.ErrorIs(t, s.Update(ctx, id, SkillPatch{}), ErrEmptyPatch)
	assert.ErrorIs(t, s.UpdateLevel(ctx, "missing", 2), docstore.ErrNotFound)
}

func TestOtherUsersSkillsAreForbidden(t *testing.T) {
	ctx := context.Background()
	docs := memory.New()
	mine := NewSkillStore(docs, "u1", nil)
	theirs := NewSkillStore(docs, "u2", nil)

	id, err := theirs.Add(ctx, &SkillDraft{Name: "Elm"})
	require.NoError(t, err)

	assert.ErrorIs(t, mine.UpdateLevel(ctx, id, 3), ErrForbidden)
	assert.ErrorIs(t, mine.Remove(ctx, id, Confirmed), ErrForbidden)
	_, err = mine.Get(ctx, id)
	assert.ErrorIs(t, err, ErrForbidden)

	entries := NewProgressStore(docs, "u1", "", nil)
	_, err = entries.Add(ctx, &ProgressDraft{SkillID: id, Content: "peek", Hours: 1})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestRemoveSkillNeedsConfirmationAndKeepsEntries(t *testing.T) {
	ctx := context.Background()
	docs := memory.New()
	skills := NewSkillStore(docs, "u1", nil)
	entries := NewProgressStore(docs, "u1", "", nil)
	require.NoError(t, entries.Start(ctx))
	defer entries.Close()

	id, err := skills.Add(ctx, &SkillDraft{Name: "Go"})
	require.NoError(t, err)
	_, err = entries.Add(ctx, &ProgressDraft{SkillID: id, Content: "tour", Hours: 2})
	require.NoError(t, err)

	assert.ErrorIs(t, skills.Remove(ctx, id, refuse), ErrNotConfirmed)
	assert.ErrorIs(t, skills.Remove(ctx, id, nil), ErrNotConfirmed)
	_, err = skills.Get(ctx, id)
	require.NoError(t, err)

	require.NoError(t, skills.Remove(ctx, id, Confirmed))
	_, err = skills.Get(ctx, id)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
	assert.Len(t, entries.Items(), 1)
}

func TestProgressEntryLifecycle(t *testing.T) {
	ctx := context.Background()
	docs := memory.New()
	skills := NewSkillStore(docs, "u1", nil)
	skillID, err := skills.Add(ctx, &SkillDraft{Name: "Go"})
	require.NoError(t, err)

	s := NewProgressStore(docs, "u1", skillID, nil)
	require.NoError(t, s.Start(ctx))
	defer s.Close()

	d := NewProgressDraft("")
	d.Content = "read the tour"
	d.Hours = 2
	value := 7.5
	d.Value = &value
	d.Period = skill.PeriodWeekly
	id, err := s.Add(ctx, &d)
	require.NoError(t, err)
	assert.Equal(t, NewProgressDraft(""), d)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, skillID, items[0].SkillID)
	require.NotNil(t, items[0].Value)
	assert.Equal(t, 7.5, *items[0].Value)
	assert.Equal(t, skill.PeriodWeekly, items[0].Period)

	hours := 3.5
	require.NoError(t, s.Update(ctx, id, ProgressPatch{Hours: &hours}))
	assert.Equal(t, 3.5, s.Items()[0].Hours)

	assert.ErrorIs(t, s.Remove(ctx, id, refuse), ErrNotConfirmed)
	require.NoError(t, s.Remove(ctx, id, Confirmed))
	assert.Empty(t, s.Items())
}

func TestProgressValidation(t *testing.T) {
	ctx := context.Background()
	s := NewProgressStore(memory.New(), "u1", "", nil)

	d := ProgressDraft{Content: "x", Hours: 1}
	_, err := s.Add(ctx, &d)
	assert.ErrorIs(t, err, ErrSkillRequired)

	d = ProgressDraft{SkillID: "s1", Content: "  ", Hours: 4}
	_, err = s.Add(ctx, &d)
	assert.ErrorIs(t, err, ErrContentRequired)
	assert.Equal(t, 4.0, d.Hours)

	empty := ""
	assert.ErrorIs(t, s.Update(ctx, "e1", ProgressPatch{Content: &empty}), ErrContentRequired)
	assert.ErrorIs(t, s.Update(ctx, "e1", ProgressPatch{}), ErrEmptyPatch)
}

func TestProgressResetKeepsSkill(t *testing.T) {
	d := ProgressDraft{SkillID: "s1", Content: "x", Hours: 5}
	d.Reset()
	assert.Equal(t, ProgressDraft{SkillID: "s1", Hours: 1}, d)
}
