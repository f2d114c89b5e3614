package seeder

import (
	"context"

	"skill-journal/internal/domain/skill"
	"skill-journal/internal/journal"
)

type demoEntry struct {
	Content string
	Hours   float64
	Value   *float64
	Period  skill.Period
}

func value(v float64) *float64 { return &v }

var demoEntries = []demoEntry{
	{Content: "Read the docs", Hours: 1},
	{Content: "Built a small project", Hours: 2.5, Value: value(7), Period: skill.PeriodWeekly},
	{Content: "Reviewed notes", Hours: 0.5, Value: value(5), Period: skill.PeriodDaily},
}

// ProgressSeeder logs a few sessions for every skill that has none.
type ProgressSeeder struct{}

func (ProgressSeeder) Name() string { return "progress" }

func (ProgressSeeder) Run(ctx context.Context, t Target) error {
	skills, err := journal.NewSkillStore(t.Docs, t.Owner, t.Logger).Fetch(ctx)
	if err != nil {
		return err
	}
	entries, err := journal.NewProgressStore(t.Docs, t.Owner, "", t.Logger).Fetch(ctx)
	if err != nil {
		return err
	}
	logged := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		logged[e.SkillID] = struct{}{}
	}

	store := journal.NewProgressStore(t.Docs, t.Owner, "", t.Logger)
	for _, s := range skills {
		if _, ok := logged[s.ID]; ok {
			continue
		}
		for _, it := range demoEntries {
			draft := journal.ProgressDraft{
				SkillID: s.ID,
				Content: it.Content,
				Hours:   it.Hours,
				Value:   it.Value,
				Period:  it.Period,
			}
			if _, err := store.Add(ctx, &draft); err != nil {
				return err
			}
		}
	}
	return nil
}
