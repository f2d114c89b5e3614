package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"skill-journal/internal/analytics"
	"skill-journal/internal/docstore"
	"skill-journal/internal/domain/skill"
	"skill-journal/internal/journal"
	"skill-journal/internal/pkg/sanitize"
)

var ErrInvalidInput = errors.New("invalid input")

type SkillInput struct {
	Name        string
	Description string
	TargetLevel int
	Milestones  []string
}

type ProgressInput struct {
	Content string
	Hours   float64
	Value   *float64
	Period  skill.Period
}

// Journal serves one-shot reads and writes for request/response clients. Live
// clients use journal.View instead.
type Journal struct {
	docs  docstore.Store
	clean *sanitize.Sanitizer
	now   func() time.Time
	log   *slog.Logger
}

func NewJournalUsecase(docs docstore.Store, clean *sanitize.Sanitizer, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	if clean == nil {
		clean = sanitize.New()
	}
	return &Journal{docs: docs, clean: clean, now: time.Now, log: logger}
}

func (j *Journal) skills(owner string) *journal.SkillStore {
	return journal.NewSkillStore(j.docs, owner, j.log)
}

func (j *Journal) progress(owner, skillID string) *journal.ProgressStore {
	return journal.NewProgressStore(j.docs, owner, skillID, j.log)
}

func (j *Journal) ListSkills(ctx context.Context, owner string) ([]skill.Skill, error) {
	return j.skills(owner).Fetch(ctx)
}

func (j *Journal) GetSkill(ctx context.Context, owner, id string) (skill.Skill, error) {
	return j.skills(owner).Get(ctx, id)
}

func (j *Journal) CreateSkill(ctx context.Context, owner string, in SkillInput) (string, error) {
	d := journal.SkillDraft{
		Name:        j.clean.Text(in.Name),
		Description: j.clean.Text(in.Description),
		TargetLevel: in.TargetLevel,
		Milestones:  j.clean.Texts(in.Milestones),
	}
	if err := checkLevel(d.TargetLevel, true); err != nil {
		return "", err
	}
	return j.skills(owner).Add(ctx, &d)
}

func (j *Journal) UpdateSkill(ctx context.Context, owner, id string, p journal.SkillPatch) error {
	p.Name = j.clean.TextPtr(p.Name)
	p.Description = j.clean.TextPtr(p.Description)
	if p.Milestones != nil {
		m := j.clean.Texts(*p.Milestones)
		p.Milestones = &m
	}
	if p.CurrentLevel != nil {
		if err := checkLevel(*p.CurrentLevel, false); err != nil {
			return err
		}
	}
	if p.TargetLevel != nil {
		if err := checkLevel(*p.TargetLevel, false); err != nil {
			return err
		}
	}
	return j.skills(owner).Update(ctx, id, p)
}

func (j *Journal) UpdateLevel(ctx context.Context, owner, id string, level int) error {
	if err := checkLevel(level, false); err != nil {
		return err
	}
	return j.skills(owner).UpdateLevel(ctx, id, level)
}

func (j *Journal) DeleteSkill(ctx context.Context, owner, id string, c journal.Confirmer) error {
	return j.skills(owner).Remove(ctx, id, c)
}

// ListProgress returns the owner's entries, or only those of skillID.
func (j *Journal) ListProgress(ctx context.Context, owner, skillID string) ([]skill.ProgressEntry, error) {
	return j.progress(owner, skillID).Fetch(ctx)
}

func (j *Journal) CreateProgress(ctx context.Context, owner, skillID string, in ProgressInput) (string, error) {
	if in.Hours <= 0 {
		return "", ErrInvalidInput
	}
	d := journal.ProgressDraft{
		SkillID: skillID,
		Content: j.clean.Text(in.Content),
		Hours:   in.Hours,
		Value:   in.Value,
		Period:  in.Period,
	}
	return j.progress(owner, skillID).Add(ctx, &d)
}

func (j *Journal) UpdateProgress(ctx context.Context, owner, id string, p journal.ProgressPatch) error {
	if p.Hours != nil && *p.Hours <= 0 {
		return ErrInvalidInput
	}
	p.Content = j.clean.TextPtr(p.Content)
	return j.progress(owner, "").Update(ctx, id, p)
}

func (j *Journal) DeleteProgress(ctx context.Context, owner, id string, c journal.Confirmer) error {
	return j.progress(owner, "").Remove(ctx, id, c)
}

type Dashboard struct {
	Skills  []skill.Skill         `json:"skills"`
	Entries []skill.ProgressEntry `json:"entries"`
	Summary analytics.Summary     `json:"summary"`
}

func (j *Journal) Dashboard(ctx context.Context, owner string) (Dashboard, error) {
	skills, entries, err := j.load(ctx, owner)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{Skills: skills, Entries: entries, Summary: analytics.Summarize(skills, entries, j.now())}, nil
}

func (j *Journal) Chart(ctx context.Context, owner string, mode analytics.DisplayMode) (analytics.Dataset, error) {
	skills, entries, err := j.load(ctx, owner)
	if err != nil {
		return analytics.Dataset{}, err
	}
	return analytics.BuildDataset(mode, skills, entries), nil
}

func (j *Journal) load(ctx context.Context, owner string) ([]skill.Skill, []skill.ProgressEntry, error) {
	skills, err := j.ListSkills(ctx, owner)
	if err != nil {
		return nil, nil, err
	}
	entries, err := j.ListProgress(ctx, owner, "")
	if err != nil {
		return nil, nil, err
	}
	return skills, entries, nil
}

// checkLevel accepts 1..MaxLevel; zero is allowed where it selects a default.
func checkLevel(level int, zeroOK bool) error {
	if level == 0 && zeroOK {
		return nil
	}
	if level < 1 || level > skill.MaxLevel {
		return ErrInvalidInput
	}
	return nil
}

type JournalUsecase interface {
	ListSkills(ctx context.Context, owner string) ([]skill.Skill, error)
	GetSkill(ctx context.Context, owner, id string) (skill.Skill, error)
	CreateSkill(ctx context.Context, owner string, in SkillInput) (string, error)
	UpdateSkill(ctx context.Context, owner, id string, p journal.SkillPatch) error
	UpdateLevel(ctx context.Context, owner, id string, level int) error
	DeleteSkill(ctx context.Context, owner, id string, c journal.Confirmer) error
	ListProgress(ctx context.Context, owner, skillID string) ([]skill.ProgressEntry, error)
	CreateProgress(ctx context.Context, owner, skillID string, in ProgressInput) (string, error)
	UpdateProgress(ctx context.Context, owner, id string, p journal.ProgressPatch) error
	DeleteProgress(ctx context.Context, owner, id string, c journal.Confirmer) error
	Dashboard(ctx context.Context, owner string) (Dashboard, error)
	Chart(ctx context.Context, owner string, mode analytics.DisplayMode) (analytics.Dataset, error)
}

var _ JournalUsecase = (*Journal)(nil)
