package dto

import (
	"skill-journal/internal/domain/skill"
	"skill-journal/internal/journal"
	"skill-journal/internal/usecase"
)

type CreateSkillRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	TargetLevel int      `json:"targetLevel"`
	Milestones  []string `json:"milestones"`
}

func (r CreateSkillRequest) Input() usecase.SkillInput {
	return usecase.SkillInput{Name: r.Name, Description: r.Description, TargetLevel: r.TargetLevel, Milestones: r.Milestones}
}

type UpdateSkillRequest struct {
	Name         *string   `json:"name"`
	Description  *string   `json:"description"`
	CurrentLevel *int      `json:"currentLevel"`
	TargetLevel  *int      `json:"targetLevel"`
	Milestones   *[]string `json:"milestones"`
}

func (r UpdateSkillRequest) Patch() journal.SkillPatch {
	return journal.SkillPatch{
		Name:         r.Name,
		Description:  r.Description,
		CurrentLevel: r.CurrentLevel,
		TargetLevel:  r.TargetLevel,
		Milestones:   r.Milestones,
	}
}

type LevelRequest struct {
	Level int `json:"level"`
}

type CreateProgressRequest struct {
	Content string   `json:"content"`
	Hours   *float64 `json:"hours"`
	Value   *float64 `json:"value"`
	Period  string   `json:"period"`
}

// Input defaults hours to one session hour when the field is omitted.
func (r CreateProgressRequest) Input() (usecase.ProgressInput, bool) {
	period, ok := skill.ParsePeriod(r.Period)
	if !ok {
		return usecase.ProgressInput{}, false
	}
	hours := 1.0
	if r.Hours != nil {
		hours = *r.Hours
	}
	return usecase.ProgressInput{Content: r.Content, Hours: hours, Value: r.Value, Period: period}, true
}

type UpdateProgressRequest struct {
	Content *string  `json:"content"`
	Hours   *float64 `json:"hours"`
	Value   *float64 `json:"value"`
	Period  *string  `json:"period"`
}

func (r UpdateProgressRequest) Patch() (journal.ProgressPatch, bool) {
	p := journal.ProgressPatch{Content: r.Content, Hours: r.Hours, Value: r.Value}
	if r.Period != nil {
		period, ok := skill.ParsePeriod(*r.Period)
		if !ok {
			return journal.ProgressPatch{}, false
		}
		p.Period = &period
	}
	return p, true
}
