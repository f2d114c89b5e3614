package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skill-journal/internal/analytics"
	"skill-journal/internal/docstore/memory"
	"skill-journal/internal/journal"
)

func newJournal() *Journal {
	at := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	tick := func() time.Time {
		at = at.Add(time.Minute)
		return at
	}
	j := NewJournalUsecase(memory.New(memory.WithClock(tick)), nil, nil)
	j.now = func() time.Time { return time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC) }
	return j
}

func TestJournalCreateSanitizesInput(t *testing.T) {
	ctx := context.Background()
	j := newJournal()

	id, err := j.CreateSkill(ctx, "u1", SkillInput{Name: "<b>Go</b>", Description: "<script>x</script>typed", Milestones: []string{"<i>tour</i>"}})
	require.NoError(t, err)

	s, err := j.GetSkill(ctx, "u1", id)
	require.NoError(t, err)
	assert.Equal(t, "Go", s.Name)
	assert.Equal(t, "typed", s.Description)
	assert.Equal(t, []string{"tour"}, s.Milestones)
	assert.Equal(t, 5, s.TargetLevel)
}

func TestJournalLevelBounds(t *testing.T) {
	ctx := context.Background()
	j := newJournal()

	_, err := j.CreateSkill(ctx, "u1", SkillInput{Name: "Go", TargetLevel: 11})
	assert.ErrorIs(t, err, ErrInvalidInput)

	id, err := j.CreateSkill(ctx, "u1", SkillInput{Name: "Go"})
	require.NoError(t, err)
	assert.ErrorIs(t, j.UpdateLevel(ctx, "u1", id, 0), ErrInvalidInput)
	require.NoError(t, j.UpdateLevel(ctx, "u1", id, 10))
}

func TestJournalDashboardAndChart(t *testing.T) {
	ctx := context.Background()
	j := newJournal()

	goID, err := j.CreateSkill(ctx, "u1", SkillInput{Name: "Go", TargetLevel: 4})
	require.NoError(t, err)
	_, err = j.CreateProgress(ctx, "u1", goID, ProgressInput{Content: "tour", Hours: 2})
	require.NoError(t, err)
	_, err = j.CreateProgress(ctx, "u1", goID, ProgressInput{Content: "book", Hours: 1.5})
	require.NoError(t, err)
	_, err = j.CreateProgress(ctx, "u2", "", ProgressInput{Content: "x", Hours: 1})
	assert.ErrorIs(t, err, journal.ErrSkillRequired)

	d, err := j.Dashboard(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, d.Skills, 1)
	assert.Len(t, d.Entries, 2)
	assert.Equal(t, 3.5, d.Summary.TotalHours)
	assert.Equal(t, 2, d.Summary.SessionCount)

	ds, err := j.Chart(ctx, "u1", analytics.DisplayMode{Shape: analytics.ShapeBar, Metric: analytics.MetricSessions})
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, ds.Values)

	entries, err := j.ListProgress(ctx, "u1", goID)
	require.NoError(t, err)
	assert.Equal(t, "book", entries[0].Content)
}

func TestJournalDeleteRequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	j := newJournal()
	id, err := j.CreateSkill(ctx, "u1", SkillInput{Name: "Go"})
	require.NoError(t, err)

	assert.ErrorIs(t, j.DeleteSkill(ctx, "u1", id, nil), journal.ErrNotConfirmed)
	assert.ErrorIs(t, j.DeleteSkill(ctx, "u2", id, journal.Confirmed), journal.ErrForbidden)
	require.NoError(t, j.DeleteSkill(ctx, "u1", id, journal.Confirmed))
}

func TestJournalHoursMustBePositive(t *testing.T) {
	ctx := context.Background()
	j := newJournal()
	for _, h := range []float64{-1, 0} {
		_, err := j.CreateProgress(ctx, "u1", "s1", ProgressInput{Content: "x", Hours: h})
		assert.ErrorIs(t, err, ErrInvalidInput, "hours %v", h)
	}

	goID, err := j.CreateSkill(ctx, "u1", SkillInput{Name: "Go", TargetLevel: 4})
	require.NoError(t, err)
	id, err := j.CreateProgress(ctx, "u1", goID, ProgressInput{Content: "tour", Hours: 0.5})
	require.NoError(t, err)

	zero := 0.0
	assert.ErrorIs(t, j.UpdateProgress(ctx, "u1", id, journal.ProgressPatch{Hours: &zero}), ErrInvalidInput)
	half := 1.5
	assert.NoError(t, j.UpdateProgress(ctx, "u1", id, journal.ProgressPatch{Hours: &half}))
}
