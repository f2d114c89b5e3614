package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skill-journal/internal/docstore"
	"skill-journal/internal/domain/skill"
)

func sk(id, name string, current, target int) skill.Skill {
	return skill.Skill{ID: id, Name: name, CurrentLevel: current, TargetLevel: target}
}

func entry(skillID string, hours float64, at docstore.Timestamp) skill.ProgressEntry {
	return skill.ProgressEntry{SkillID: skillID, Hours: hours, CreatedAt: at}
}

func TestProgressRatio(t *testing.T) {
	assert.Equal(t, 0.5, ProgressRatio(sk("a", "a", 5, 10)))
	assert.Equal(t, 50.0, ProgressPercent(sk("a", "a", 5, 10)))
	assert.Equal(t, 0.0, ProgressRatio(sk("a", "a", 5, 0)), "zero target is default-safe")
	assert.Equal(t, 0.0, ProgressRatio(sk("a", "a", 5, -2)))
}

func TestCategoryBoundaries(t *testing.T) {
	tests := []struct {
		ratio float64
		want  Category
	}{
		{0, Beginner},
		{0.29, Beginner},
		{0.3, Intermediate},
		{0.69, Intermediate},
		{0.7, Advanced},
		{0.99, Advanced},
		{1, Completed},
		{1.5, Completed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CategoryOf(tt.ratio), "ratio %v", tt.ratio)
	}
}

func TestCategorizePartitionsSkills(t *testing.T) {
	skills := []skill.Skill{
		sk("a", "a", 1, 10),
		sk("b", "b", 3, 10),
		sk("c", "c", 7, 10),
		sk("d", "d", 10, 10),
		sk("e", "e", 12, 10),
		sk("f", "f", 1, 0),
	}
	c := Categorize(skills)
	assert.Equal(t, len(skills), c.Total())
	assert.Equal(t, CategoryCounts{Beginner: 2, Intermediate: 1, Advanced: 1, Completed: 2}, c)
}

func TestLevelChangeMovesCategory(t *testing.T) {
	react := sk("r", "React", 1, 10)
	assert.Equal(t, Beginner, CategoryOf(ProgressRatio(react)))

	react.CurrentLevel = 8
	assert.Equal(t, Advanced, CategoryOf(ProgressRatio(react)))
}

func TestMostImproved(t *testing.T) {
	skills := []skill.Skill{sk("a", "A", 5, 10), sk("b", "B", 9, 10), sk("c", "C", 3, 10)}
	best, ok := MostImproved(skills)
	require.True(t, ok)
	assert.Equal(t, "b", best.ID)

	_, ok = MostImproved(nil)
	assert.False(t, ok)

	tied := []skill.Skill{sk("x", "X", 5, 10), sk("y", "Y", 5, 10)}
	best, _ = MostImproved(tied)
	assert.Equal(t, "y", best.ID, "later skill wins ties")

	tied = []skill.Skill{sk("x", "X", 2, 4), sk("top", "Top", 9, 10), sk("y", "Y", 1, 2), sk("z", "Z", 90, 100)}
	best, _ = MostImproved(tied)
	assert.Equal(t, "z", best.ID)
}

func TestLastSevenDaysWindow(t *testing.T) {
	loc := time.FixedZone("test", 3*3600)
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, loc)
	entries := []skill.ProgressEntry{
		entry("a", 1, docstore.At(now)),
		entry("a", 2, docstore.At(now.AddDate(0, 0, -2))),
		entry("a", 4, docstore.At(now.AddDate(0, 0, -10))),
		entry("a", 8, docstore.PendingTimestamp()),
		entry("a", 16, docstore.Timestamp{}),
	}

	buckets := LastSevenDays(entries, now)
	require.Len(t, buckets, 7)

	var inside int
	var hours float64
	for _, b := range buckets {
		inside += b.Sessions
		hours += b.Hours
	}
	assert.Equal(t, 2, inside)
	assert.Equal(t, 3.0, hours)
	assert.Equal(t, 1.0, buckets[6].Hours)
	assert.Equal(t, 2.0, buckets[4].Hours)
	assert.Equal(t, "Wed", buckets[6].Label)
	assert.Equal(t, time.Date(2026, 10, 8, 0, 0, 0, 0, loc), buckets[0].Date)
}

func TestLastSevenDaysUsesLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("east", 10*3600)
	now := time.Date(2026, 10, 14, 8, 0, 0, 0, loc)
	// 2026-10-13T23:00Z is already the 14th in this zone.
	e := entry("a", 1, docstore.At(time.Date(2026, 10, 13, 23, 0, 0, 0, time.UTC)))

	buckets := LastSevenDays([]skill.ProgressEntry{e}, now)
	assert.Equal(t, 1.0, buckets[6].Hours)
}

func TestHoursBySkillGroupsUnknown(t *testing.T) {
	skills := []skill.Skill{sk("a", "Go", 1, 10), sk("b", "Rust", 1, 10)}
	entries := []skill.ProgressEntry{
		entry("a", 1.5, docstore.Timestamp{}),
		entry("missing", 2, docstore.Timestamp{}),
		entry("a", 0.5, docstore.Timestamp{}),
		entry("gone", 1, docstore.Timestamp{}),
	}

	got := HoursBySkill(skills, entries)
	require.Len(t, got, 3)
	assert.Equal(t, SkillHours{SkillID: "a", Name: "Go", Hours: 2, Sessions: 2}, got[0])
	assert.Equal(t, SkillHours{SkillID: "b", Name: "Rust"}, got[1])
	assert.Equal(t, SkillHours{Name: UnknownSkillName, Hours: 3, Sessions: 2}, got[2])
}

func TestAverageValues(t *testing.T) {
	v := func(f float64) *float64 { return &f }
	skills := []skill.Skill{sk("a", "Go", 1, 10), sk("b", "Rust", 1, 10)}
	entries := []skill.ProgressEntry{
		{SkillID: "a", Value: v(10), CreatedAt: docstore.At(time.Unix(300, 0))},
		{SkillID: "a", Value: v(20), CreatedAt: docstore.At(time.Unix(100, 0))},
		{SkillID: "a"},
		{SkillID: "zzz", Value: v(4)},
	}

	avg := AverageValueBySkill(skills, entries)
	require.Len(t, avg, 2)
	assert.Equal(t, SkillValue{SkillID: "a", Name: "Go", Average: 15, Samples: 2}, avg[0])
	assert.Equal(t, UnknownSkillName, avg[1].Name)

	timeline := ValueTimeline(entries, "a")
	require.Len(t, timeline, 2)
	assert.Equal(t, 20.0, timeline[0].Value)
	assert.Equal(t, 10.0, timeline[1].Value)
}

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	skills := []skill.Skill{sk("a", "Go", 5, 10), sk("b", "Rust", 10, 10)}
	entries := []skill.ProgressEntry{entry("a", 2, docstore.At(now)), entry("b", 1.5, docstore.At(now))}

	s := Summarize(skills, entries, now)
	assert.Equal(t, 2, s.TotalSkills)
	assert.Equal(t, 3.5, s.TotalHours)
	assert.Equal(t, 2, s.SessionCount)
	assert.Equal(t, 75.0, s.AverageProgress)
	require.NotNil(t, s.MostImproved)
	assert.Equal(t, "b", s.MostImproved.SkillID)
	assert.Equal(t, 3.5, s.LastSevenDays[6].Hours)

	empty := Summarize(nil, nil, now)
	assert.Nil(t, empty.MostImproved)
	assert.Zero(t, empty.AverageProgress)
	assert.Len(t, empty.LastSevenDays, 7)
}
