package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"skill-journal/internal/docstore"
	"skill-journal/internal/domain/skill"
)

var (
	ErrNameRequired    = errors.New("skill name is required")
	ErrContentRequired = errors.New("progress content is required")
	ErrEmptyPatch      = errors.New("nothing to update")
	ErrForbidden       = errors.New("document belongs to another user")
	ErrNoOwner         = errors.New("no signed-in user")
)

// SkillDraft is the add-skill form state.
type SkillDraft struct {
	Name        string
	Description string
	TargetLevel int
	Milestones  []string
}

func NewSkillDraft() SkillDraft {
	return SkillDraft{TargetLevel: skill.DraftTargetLevel}
}

func (d *SkillDraft) Reset() { *d = NewSkillDraft() }

// SkillPatch holds the fields to change; nil fields are left alone.
type SkillPatch struct {
	Name         *string
	Description  *string
	CurrentLevel *int
	TargetLevel  *int
	Milestones   *[]string
}

func (p SkillPatch) fields() (docstore.Fields, error) {
	f := docstore.Fields{}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		f[skill.FieldName] = name
	}
	if p.Description != nil {
		f[skill.FieldDescription] = strings.TrimSpace(*p.Description)
	}
	if p.CurrentLevel != nil {
		f[skill.FieldCurrentLevel] = *p.CurrentLevel
	}
	if p.TargetLevel != nil {
		f[skill.FieldTargetLevel] = *p.TargetLevel
	}
	if p.Milestones != nil {
		f[skill.FieldMilestones] = cleanMilestones(*p.Milestones)
	}
	if len(f) == 0 {
		return nil, ErrEmptyPatch
	}
	f[skill.FieldUpdatedAt] = docstore.ServerTimestamp
	return f, nil
}

// SkillStore is the live skill list of one user plus the writes on it.
type SkillStore struct {
	*EntityStore[skill.Skill]
	docs  docstore.Store
	owner string
	log   *slog.Logger
}

func NewSkillStore(store docstore.Store, owner string, logger *slog.Logger) *SkillStore {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "journal.skills"), slog.String("user_id", owner))
	q := docstore.Collection(skill.SkillsCollection).Where(skill.FieldUserID, owner)
	return &SkillStore{
		EntityStore: newEntityStore(store, q, skill.DecodeSkill, func(s skill.Skill) docstore.Timestamp { return s.CreatedAt }, logger),
		docs:        store,
		owner:       owner,
		log:         logger,
	}
}

// Add writes a new skill from d and resets d on success.
func (s *SkillStore) Add(ctx context.Context, d *SkillDraft) (string, error) {
	if s.owner == "" {
		return "", ErrNoOwner
	}
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return "", ErrNameRequired
	}
	target := d.TargetLevel
	if target == 0 {
		target = skill.DraftTargetLevel
	}

	id, err := s.docs.Add(ctx, skill.SkillsCollection, docstore.Fields{
		skill.FieldName:         name,
		skill.FieldDescription:  strings.TrimSpace(d.Description),
		skill.FieldCurrentLevel: skill.DefaultCurrentLevel,
		skill.FieldTargetLevel:  target,
		skill.FieldUserID:       s.owner,
		skill.FieldMilestones:   cleanMilestones(d.Milestones),
		skill.FieldCreatedAt:    docstore.ServerTimestamp,
		skill.FieldUpdatedAt:    docstore.ServerTimestamp,
	})
	if err != nil {
		s.log.Error("add skill failed", slog.Any("error", err))
		return "", fmt.Errorf("add skill: %w", err)
	}
	d.Reset()
	return id, nil
}

func (s *SkillStore) Update(ctx context.Context, id string, p SkillPatch) error {
	f, err := p.fields()
	if err != nil {
		return err
	}
	if err := s.checkOwner(ctx, id); err != nil {
		return err
	}
	if err := s.docs.Update(ctx, skill.SkillsCollection, id, f); err != nil {
		s.log.Error("update skill failed", slog.String("skill_id", id), slog.Any("error", err))
		return fmt.Errorf("update skill: %w", err)
	}
	return nil
}

func (s *SkillStore) UpdateLevel(ctx context.Context, id string, level int) error {
	return s.Update(ctx, id, SkillPatch{CurrentLevel: &level})
}

// Remove deletes a skill once c approves. Its progress entries are kept.
func (s *SkillStore) Remove(ctx context.Context, id string, c Confirmer) error {
	if !confirmed(ctx, c, "Delete this skill?") {
		return ErrNotConfirmed
	}
	if err := s.checkOwner(ctx, id); err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, skill.SkillsCollection, id); err != nil {
		s.log.Error("delete skill failed", slog.String("skill_id", id), slog.Any("error", err))
		return fmt.Errorf("delete skill: %w", err)
	}
	return nil
}

// Get reads one skill of this owner.
func (s *SkillStore) Get(ctx context.Context, id string) (skill.Skill, error) {
	doc, err := s.docs.Doc(ctx, skill.SkillsCollection, id)
	if err != nil {
		return skill.Skill{}, err
	}
	sk, err := skill.DecodeSkill(doc)
	if err != nil {
		return skill.Skill{}, err
	}
	if sk.UserID != s.owner {
		return skill.Skill{}, ErrForbidden
	}
	return sk, nil
}

func (s *SkillStore) checkOwner(ctx context.Context, id string) error {
	return checkOwner(ctx, s.docs, skill.SkillsCollection, id, s.owner)
}

func checkOwner(ctx context.Context, store docstore.Store, collection, id, owner string) error {
	doc, err := store.Doc(ctx, collection, id)
	if err != nil {
		return err
	}
	if got, _ := doc.Fields.String(skill.FieldUserID); got != owner {
		return ErrForbidden
	}
	return nil
}

func cleanMilestones(in []string) []string {
	out := make([]string, 0, len(in))
	for _, m := range in {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}
