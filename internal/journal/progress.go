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

var ErrSkillRequired = errors.New("skill id is required")

// ProgressDraft is the log-session form state.
type ProgressDraft struct {
	SkillID string
	Content string
	Hours   float64
	Value   *float64
	Period  skill.Period
}

func NewProgressDraft(skillID string) ProgressDraft {
	return ProgressDraft{SkillID: skillID, Hours: 1}
}

// Reset clears the form but keeps the chosen skill.
func (d *ProgressDraft) Reset() { *d = NewProgressDraft(d.SkillID) }

type ProgressPatch struct {
	Content *string
	Hours   *float64
	Value   *float64
	Period  *skill.Period
}

func (p ProgressPatch) fields() (docstore.Fields, error) {
	f := docstore.Fields{}
	if p.Content != nil {
		content := strings.TrimSpace(*p.Content)
		if content == "" {
			return nil, ErrContentRequired
		}
		f[skill.FieldContent] = content
	}
	if p.Hours != nil {
		f[skill.FieldHours] = *p.Hours
	}
	if p.Value != nil {
		f[skill.FieldValue] = *p.Value
	}
	if p.Period != nil {
		f[skill.FieldPeriod] = string(*p.Period)
	}
	if len(f) == 0 {
		return nil, ErrEmptyPatch
	}
	return f, nil
}

// ProgressStore is the live list of a user's progress entries, optionally
// narrowed to one skill.
type ProgressStore struct {
	*EntityStore[skill.ProgressEntry]
	docs    docstore.Store
	owner   string
	skillID string
	log     *slog.Logger
}

// NewProgressStore follows every entry of owner, or only those of skillID when
// it is not empty.
func NewProgressStore(store docstore.Store, owner, skillID string, logger *slog.Logger) *ProgressStore {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "journal.progress"), slog.String("user_id", owner))
	q := docstore.Collection(skill.ProgressCollection).Where(skill.FieldUserID, owner)
	if skillID != "" {
		q = q.Where(skill.FieldSkillID, skillID)
		logger = logger.With(slog.String("skill_id", skillID))
	}
	return &ProgressStore{
		EntityStore: newEntityStore(store, q, skill.DecodeProgressEntry, func(e skill.ProgressEntry) docstore.Timestamp { return e.CreatedAt }, logger),
		docs:        store,
		owner:       owner,
		skillID:     skillID,
		log:         logger,
	}
}

func (s *ProgressStore) SkillID() string { return s.skillID }

// Add records a session from d and resets d on success. The entry goes to the
// draft's skill, or the store's skill when the draft names none.
func (s *ProgressStore) Add(ctx context.Context, d *ProgressDraft) (string, error) {
	if s.owner == "" {
		return "", ErrNoOwner
	}
	skillID := d.SkillID
	if skillID == "" {
		skillID = s.skillID
	}
	if skillID == "" {
		return "", ErrSkillRequired
	}
	content := strings.TrimSpace(d.Content)
	if content == "" {
		return "", ErrContentRequired
	}
	if err := s.checkSkill(ctx, skillID); err != nil {
		return "", err
	}

	f := docstore.Fields{
		skill.FieldSkillID:   skillID,
		skill.FieldContent:   content,
		skill.FieldHours:     d.Hours,
		skill.FieldUserID:    s.owner,
		skill.FieldCreatedAt: docstore.ServerTimestamp,
	}
	if d.Value != nil {
		f[skill.FieldValue] = *d.Value
	}
	if d.Period != skill.PeriodNone {
		f[skill.FieldPeriod] = string(d.Period)
	}

	id, err := s.docs.Add(ctx, skill.ProgressCollection, f)
	if err != nil {
		s.log.Error("add progress failed", slog.Any("error", err))
		return "", fmt.Errorf("add progress: %w", err)
	}
	d.Reset()
	return id, nil
}

func (s *ProgressStore) Update(ctx context.Context, id string, p ProgressPatch) error {
	f, err := p.fields()
	if err != nil {
		return err
	}
	if err := checkOwner(ctx, s.docs, skill.ProgressCollection, id, s.owner); err != nil {
		return err
	}
	if err := s.docs.Update(ctx, skill.ProgressCollection, id, f); err != nil {
		s.log.Error("update progress failed", slog.String("entry_id", id), slog.Any("error", err))
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

func (s *ProgressStore) Remove(ctx context.Context, id string, c Confirmer) error {
	if !confirmed(ctx, c, "Delete this progress entry?") {
		return ErrNotConfirmed
	}
	if err := checkOwner(ctx, s.docs, skill.ProgressCollection, id, s.owner); err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, skill.ProgressCollection, id); err != nil {
		s.log.Error("delete progress failed", slog.String("entry_id", id), slog.Any("error", err))
		return fmt.Errorf("delete progress: %w", err)
	}
	return nil
}

// checkSkill rejects entries for another user's skill. A missing skill is
// allowed; such entries show up under the unknown-skill group.
func (s *ProgressStore) checkSkill(ctx context.Context, skillID string) error {
	err := checkOwner(ctx, s.docs, skill.SkillsCollection, skillID, s.owner)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil
	}
	return err
}
