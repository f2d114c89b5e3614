package seeder

import (
	"context"
	"strings"

	"skill-journal/internal/journal"
)

type demoSkill struct {
	Name        string
	Description string
	Level       int
	Target      int
	Milestones  []string
}

var demoSkills = []demoSkill{
	{Name: "Go", Description: "Backend services", Level: 6, Target: 10, Milestones: []string{"Finish Tour of Go", "Ship a REST API"}},
	{Name: "PostgreSQL", Description: "Query tuning", Level: 3, Target: 8, Milestones: []string{"Read EXPLAIN output"}},
	{Name: "Docker", Level: 7, Target: 7},
	{Name: "Spanish", Description: "Conversational", Level: 1, Target: 10},
}

// SkillsSeeder adds the demo skills the user does not have yet, matched by name.
type SkillsSeeder struct{}

func (SkillsSeeder) Name() string { return "skills" }

func (SkillsSeeder) Run(ctx context.Context, t Target) error {
	store := journal.NewSkillStore(t.Docs, t.Owner, t.Logger)
	existing, err := store.Fetch(ctx)
	if err != nil {
		return err
	}
	have := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		have[strings.ToLower(s.Name)] = struct{}{}
	}

	for _, it := range demoSkills {
		if _, ok := have[strings.ToLower(it.Name)]; ok {
			continue
		}
		draft := journal.SkillDraft{
			Name:        it.Name,
			Description: it.Description,
			TargetLevel: it.Target,
			Milestones:  it.Milestones,
		}
		id, err := store.Add(ctx, &draft)
		if err != nil {
			return err
		}
		if it.Level > 0 {
			if err := store.UpdateLevel(ctx, id, it.Level); err != nil {
				return err
			}
		}
	}
	return nil
}
