// Package report renders a user's journal dashboard for the command line.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"skill-journal/internal/analytics"
	"skill-journal/internal/domain/skill"
)

var ErrUnknownFormat = errors.New("unknown output format")

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

type SkillLine struct {
	Name     string             `json:"name"     yaml:"name"`
	Level    int                `json:"level"    yaml:"level"`
	Target   int                `json:"target"   yaml:"target"`
	Percent  float64            `json:"percent"  yaml:"percent"`
	Category analytics.Category `json:"category" yaml:"category"`
	Hours    float64            `json:"hours"    yaml:"hours"`
}

type Report struct {
	User        string            `json:"user"        yaml:"user"`
	GeneratedAt time.Time         `json:"generatedAt" yaml:"generatedAt"`
	Skills      []SkillLine       `json:"skills"      yaml:"skills"`
	Summary     analytics.Summary `json:"summary"     yaml:"summary"`
	Chart       analytics.Dataset `json:"chart"       yaml:"chart"`
}

func Build(user string, skills []skill.Skill, entries []skill.ProgressEntry, mode analytics.DisplayMode, now time.Time) Report {
	hours := make(map[string]float64, len(skills))
	for _, h := range analytics.HoursBySkill(skills, entries) {
		if h.SkillID != "" {
			hours[h.SkillID] = h.Hours
		}
	}

	lines := make([]SkillLine, 0, len(skills))
	for _, s := range skills {
		lines = append(lines, SkillLine{
			Name:     s.Name,
			Level:    s.CurrentLevel,
			Target:   s.TargetLevel,
			Percent:  analytics.ProgressPercent(s),
			Category: analytics.CategoryOf(analytics.ProgressRatio(s)),
			Hours:    hours[s.ID],
		})
	}

	return Report{
		User:        user,
		GeneratedAt: now.UTC(),
		Skills:      lines,
		Summary:     analytics.Summarize(skills, entries, now),
		Chart:       analytics.BuildDataset(mode, skills, entries),
	}
}

func Render(w io.Writer, r Report, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		return renderText(w, r)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func renderText(w io.Writer, r Report) error {
	s := r.Summary
	fmt.Fprintf(w, "Journal of %s\n\n", r.User)
	fmt.Fprintf(w, "Skills: %d  Hours: %.1f  Sessions: %d  Average progress: %.0f%%\n",
		s.TotalSkills, s.TotalHours, s.SessionCount, s.AverageProgress)
	if s.MostImproved != nil {
		fmt.Fprintf(w, "Most improved: %s (%.0f%%)\n", s.MostImproved.Name, s.MostImproved.Percent)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SKILL\tLEVEL\tPROGRESS\tCATEGORY\tHOURS")
	for _, l := range r.Skills {
		fmt.Fprintf(tw, "%s\t%d/%d\t%.0f%%\t%s\t%.1f\n", l.Name, l.Level, l.Target, l.Percent, l.Category, l.Hours)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nLast 7 days:")
	for _, d := range s.LastSevenDays {
		fmt.Fprintf(w, " %s=%.1fh", d.Label, d.Hours)
	}
	fmt.Fprintf(w, "\n\n%s (%s):\n", r.Chart.Label, r.Chart.Shape)
	for i, label := range r.Chart.Labels {
		fmt.Fprintf(w, "  %-20s %.1f\n", label, r.Chart.Values[i])
	}
	return nil
}
