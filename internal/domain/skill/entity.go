package skill

import (
	"strings"

	"skill-journal/internal/docstore"
)

const (
	SkillsCollection   = "skills"
	ProgressCollection = "progress"
)

// Document field names shared by writers and decoders.
const (
	FieldName         = "name"
	FieldDescription  = "description"
	FieldCurrentLevel = "currentLevel"
	FieldTargetLevel  = "targetLevel"
	FieldUserID       = "userId"
	FieldMilestones   = "milestones"
	FieldCreatedAt    = "createdAt"
	FieldUpdatedAt    = "updatedAt"

	FieldSkillID = "skillId"
	FieldContent = "content"
	FieldNote    = "note"
	FieldHours   = "hours"
	FieldValue   = "value"
	FieldPeriod  = "period"
)

const (
	DefaultCurrentLevel = 1
	DefaultTargetLevel  = 10
	// DraftTargetLevel is what a fresh add-skill form proposes.
	DraftTargetLevel = 5
	MaxLevel         = 10
)

type Skill struct {
	ID           string             `json:"id"            yaml:"id"`
	Name         string             `json:"name"          yaml:"name"`
	Description  string             `json:"description"   yaml:"description,omitempty"`
	CurrentLevel int                `json:"currentLevel"  yaml:"currentLevel"`
	TargetLevel  int                `json:"targetLevel"   yaml:"targetLevel"`
	UserID       string             `json:"userId"        yaml:"-"`
	Milestones   []string           `json:"milestones"    yaml:"milestones,omitempty"`
	CreatedAt    docstore.Timestamp `json:"createdAt"     yaml:"-"`
	UpdatedAt    docstore.Timestamp `json:"updatedAt"     yaml:"-"`
}

type Period string

const (
	PeriodNone   Period = ""
	PeriodDaily  Period = "daily"
	PeriodWeekly Period = "weekly"
)

func ParsePeriod(s string) (Period, bool) {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case PeriodNone:
		return PeriodNone, true
	case PeriodDaily:
		return PeriodDaily, true
	case PeriodWeekly:
		return PeriodWeekly, true
	default:
		return PeriodNone, false
	}
}

type ProgressEntry struct {
	ID        string             `json:"id"               yaml:"id"`
	SkillID   string             `json:"skillId"          yaml:"skillId"`
	Content   string             `json:"content"          yaml:"content"`
	Hours     float64            `json:"hours"            yaml:"hours"`
	Value     *float64           `json:"value,omitempty"  yaml:"value,omitempty"`
	Period    Period             `json:"period,omitempty" yaml:"period,omitempty"`
	UserID    string             `json:"userId"           yaml:"-"`
	CreatedAt docstore.Timestamp `json:"createdAt"        yaml:"-"`
}

// ParseMilestones splits comma separated input, dropping blanks.
func ParseMilestones(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
