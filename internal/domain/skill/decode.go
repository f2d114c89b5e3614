package skill

import (
	"errors"
	"fmt"
	"strings"

	"skill-journal/internal/docstore"
)

var ErrMalformedDocument = errors.New("malformed document")

func malformed(doc docstore.Document, reason string) error {
	return fmt.Errorf("%w: %s/%s: %s", ErrMalformedDocument, doc.Collection, doc.ID, reason)
}

// DecodeSkill maps a stored skill to a fully populated Skill. Optional fields
// take their defaults; a document without a name or owner is rejected.
func DecodeSkill(doc docstore.Document) (Skill, error) {
	f := doc.Fields
	name, _ := f.String(FieldName)
	if strings.TrimSpace(name) == "" {
		return Skill{}, malformed(doc, "missing name")
	}
	owner, _ := f.String(FieldUserID)
	if owner == "" {
		return Skill{}, malformed(doc, "missing owner")
	}

	s := Skill{
		ID:           doc.ID,
		Name:         name,
		CurrentLevel: DefaultCurrentLevel,
		TargetLevel:  DefaultTargetLevel,
		UserID:       owner,
		Milestones:   []string{},
		CreatedAt:    f.Timestamp(FieldCreatedAt),
		UpdatedAt:    f.Timestamp(FieldUpdatedAt),
	}
	if v, ok := f.String(FieldDescription); ok {
		s.Description = v
	}
	if v, ok := f.Int(FieldCurrentLevel); ok {
		s.CurrentLevel = v
	}
	if v, ok := f.Int(FieldTargetLevel); ok {
		s.TargetLevel = v
	}
	if v, ok := f.Strings(FieldMilestones); ok {
		s.Milestones = v
	}
	return s, nil
}

// DecodeProgressEntry maps a stored progress entry. Content falls back to the
// legacy note field; missing hours count as zero.
func DecodeProgressEntry(doc docstore.Document) (ProgressEntry, error) {
	f := doc.Fields
	skillID, _ := f.String(FieldSkillID)
	if skillID == "" {
		return ProgressEntry{}, malformed(doc, "missing skill id")
	}
	owner, _ := f.String(FieldUserID)
	if owner == "" {
		return ProgressEntry{}, malformed(doc, "missing owner")
	}

	e := ProgressEntry{
		ID:        doc.ID,
		SkillID:   skillID,
		UserID:    owner,
		Value:     f.FloatPtr(FieldValue),
		CreatedAt: f.Timestamp(FieldCreatedAt),
	}
	if v, ok := f.String(FieldContent); ok && v != "" {
		e.Content = v
	} else if v, ok := f.String(FieldNote); ok {
		e.Content = v
	}
	if v, ok := f.Float(FieldHours); ok {
		e.Hours = v
	}
	if v, ok := f.String(FieldPeriod); ok {
		if p, ok := ParsePeriod(v); ok {
			e.Period = p
		}
	}
	return e, nil
}
