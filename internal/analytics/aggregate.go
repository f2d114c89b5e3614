// Package analytics derives dashboard figures from a user's skills and
// progress entries. Everything here is a pure function of its inputs.
package analytics

import (
	"sort"
	"time"

	"skill-journal/internal/domain/skill"
)

type Category string

const (
	Beginner     Category = "beginner"
	Intermediate Category = "intermediate"
	Advanced     Category = "advanced"
	Completed    Category = "completed"
)

// UnknownSkillName labels entries whose skill is not in the current skill list.
const UnknownSkillName = "Unknown Skill"

// ProgressRatio is currentLevel/targetLevel. A non-positive target yields 0.
func ProgressRatio(s skill.Skill) float64 {
	if s.TargetLevel <= 0 {
		return 0
	}
	return float64(s.CurrentLevel) / float64(s.TargetLevel)
}

func ProgressPercent(s skill.Skill) float64 {
	return ProgressRatio(s) * 100
}

func CategoryOf(ratio float64) Category {
	switch {
	case ratio >= 1:
		return Completed
	case ratio >= 0.7:
		return Advanced
	case ratio >= 0.3:
		return Intermediate
	default:
		return Beginner
	}
}

type CategoryCounts struct {
	Beginner     int `json:"beginner"     yaml:"beginner"`
	Intermediate int `json:"intermediate" yaml:"intermediate"`
	Advanced     int `json:"advanced"     yaml:"advanced"`
	Completed    int `json:"completed"    yaml:"completed"`
}

func (c CategoryCounts) Total() int {
	return c.Beginner + c.Intermediate + c.Advanced + c.Completed
}

func Categorize(skills []skill.Skill) CategoryCounts {
	var c CategoryCounts
	for _, s := range skills {
		switch CategoryOf(ProgressRatio(s)) {
		case Beginner:
			c.Beginner++
		case Intermediate:
			c.Intermediate++
		case Advanced:
			c.Advanced++
		case Completed:
			c.Completed++
		}
	}
	return c
}

func TotalHours(entries []skill.ProgressEntry) float64 {
	var total float64
	for _, e := range entries {
		total += e.Hours
	}
	return total
}

func SessionCount(entries []skill.ProgressEntry) int {
	return len(entries)
}

// AverageProgress is the mean progress percentage, 0 for no skills.
func AverageProgress(skills []skill.Skill) float64 {
	if len(skills) == 0 {
		return 0
	}
	var sum float64
	for _, s := range skills {
		sum += ProgressPercent(s)
	}
	return sum / float64(len(skills))
}

type SkillHours struct {
	SkillID  string  `json:"skillId"  yaml:"skillId"`
	Name     string  `json:"name"     yaml:"name"`
	Hours    float64 `json:"hours"    yaml:"hours"`
	Sessions int     `json:"sessions" yaml:"sessions"`
}

// HoursBySkill totals hours and sessions per skill in skill-list order. Entries
// for skills missing from the list are grouped last under UnknownSkillName with
// an empty SkillID.
func HoursBySkill(skills []skill.Skill, entries []skill.ProgressEntry) []SkillHours {
	out := make([]SkillHours, len(skills))
	index := make(map[string]int, len(skills))
	for i, s := range skills {
		out[i] = SkillHours{SkillID: s.ID, Name: s.Name}
		if _, dup := index[s.ID]; !dup {
			index[s.ID] = i
		}
	}

	var unknown *SkillHours
	for _, e := range entries {
		i, ok := index[e.SkillID]
		if !ok {
			if unknown == nil {
				unknown = &SkillHours{Name: UnknownSkillName}
			}
			unknown.Hours += e.Hours
			unknown.Sessions++
			continue
		}
		out[i].Hours += e.Hours
		out[i].Sessions++
	}
	if unknown != nil {
		out = append(out, *unknown)
	}
	return out
}

type SkillProgress struct {
	SkillID string  `json:"skillId" yaml:"skillId"`
	Name    string  `json:"name"    yaml:"name"`
	Ratio   float64 `json:"ratio"   yaml:"ratio"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// MostImproved returns the skill with the highest progress ratio. The last
// skill wins ties; ok is false for an empty list.
func MostImproved(skills []skill.Skill) (skill.Skill, bool) {
	if len(skills) == 0 {
		return skill.Skill{}, false
	}
	best := 0
	bestRatio := ProgressRatio(skills[0])
	for i := 1; i < len(skills); i++ {
		if r := ProgressRatio(skills[i]); r >= bestRatio {
			best, bestRatio = i, r
		}
	}
	return skills[best], true
}

type DayBucket struct {
	Date     time.Time `json:"date"     yaml:"date"`
	Label    string    `json:"label"    yaml:"label"`
	Hours    float64   `json:"hours"    yaml:"hours"`
	Sessions int       `json:"sessions" yaml:"sessions"`
}

// LastSevenDays buckets hours into the seven calendar days ending on now's day,
// oldest first, using now's location. Entries without a resolved creation time
// are left out.
func LastSevenDays(entries []skill.ProgressEntry, now time.Time) []DayBucket {
	loc := now.Location()
	y, m, d := now.Date()

	buckets := make([]DayBucket, 7)
	for i := range buckets {
		day := time.Date(y, m, d-6+i, 0, 0, 0, 0, loc)
		buckets[i] = DayBucket{Date: day, Label: day.Weekday().String()[:3]}
	}

	for _, e := range entries {
		at, ok := e.CreatedAt.Time()
		if !ok {
			continue
		}
		ey, em, ed := at.In(loc).Date()
		day := time.Date(ey, em, ed, 0, 0, 0, 0, loc)
		for i := range buckets {
			if buckets[i].Date.Equal(day) {
				buckets[i].Hours += e.Hours
				buckets[i].Sessions++
				break
			}
		}
	}
	return buckets
}

type SkillValue struct {
	SkillID string  `json:"skillId" yaml:"skillId"`
	Name    string  `json:"name"    yaml:"name"`
	Average float64 `json:"average" yaml:"average"`
	Samples int     `json:"samples" yaml:"samples"`
}

// AverageValueBySkill is the mean recorded value per skill, for skills with at
// least one valued entry.
func AverageValueBySkill(skills []skill.Skill, entries []skill.ProgressEntry) []SkillValue {
	type acc struct {
		sum float64
		n   int
	}
	sums := make(map[string]*acc)
	for _, e := range entries {
		if e.Value == nil {
			continue
		}
		a, ok := sums[e.SkillID]
		if !ok {
			a = &acc{}
			sums[e.SkillID] = a
		}
		a.sum += *e.Value
		a.n++
	}

	out := make([]SkillValue, 0, len(sums))
	seen := make(map[string]bool, len(skills))
	for _, s := range skills {
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		if a, ok := sums[s.ID]; ok {
			out = append(out, SkillValue{SkillID: s.ID, Name: s.Name, Average: a.sum / float64(a.n), Samples: a.n})
		}
	}

	var unknown acc
	for id, a := range sums {
		if !seen[id] {
			unknown.sum += a.sum
			unknown.n += a.n
		}
	}
	if unknown.n > 0 {
		out = append(out, SkillValue{Name: UnknownSkillName, Average: unknown.sum / float64(unknown.n), Samples: unknown.n})
	}
	return out
}

type ValuePoint struct {
	At     time.Time    `json:"at"               yaml:"at"`
	Value  float64      `json:"value"            yaml:"value"`
	Period skill.Period `json:"period,omitempty" yaml:"period,omitempty"`
}

// ValueTimeline lists the recorded values of one skill oldest first, skipping
// entries without a resolved creation time.
func ValueTimeline(entries []skill.ProgressEntry, skillID string) []ValuePoint {
	out := make([]ValuePoint, 0)
	for _, e := range entries {
		if e.SkillID != skillID || e.Value == nil {
			continue
		}
		at, ok := e.CreatedAt.Time()
		if !ok {
			continue
		}
		out = append(out, ValuePoint{At: at, Value: *e.Value, Period: e.Period})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}

type Summary struct {
	TotalSkills     int            `json:"totalSkills" yaml:"totalSkills"`
	TotalHours      float64        `json:"totalHours" yaml:"totalHours"`
	SessionCount    int            `json:"sessionCount" yaml:"sessionCount"`
	AverageProgress float64        `json:"averageProgress" yaml:"averageProgress"`
	Categories      CategoryCounts `json:"categories" yaml:"categories"`
	MostImproved    *SkillProgress `json:"mostImproved" yaml:"mostImproved"`
	HoursBySkill    []SkillHours   `json:"hoursBySkill" yaml:"hoursBySkill"`
	LastSevenDays   []DayBucket    `json:"lastSevenDays" yaml:"lastSevenDays"`
	AverageValues   []SkillValue   `json:"averageValues" yaml:"averageValues"`
}

func Summarize(skills []skill.Skill, entries []skill.ProgressEntry, now time.Time) Summary {
	sum := Summary{
		TotalSkills:     len(skills),
		TotalHours:      TotalHours(entries),
		SessionCount:    SessionCount(entries),
		AverageProgress: AverageProgress(skills),
		Categories:      Categorize(skills),
		HoursBySkill:    HoursBySkill(skills, entries),
		LastSevenDays:   LastSevenDays(entries, now),
		AverageValues:   AverageValueBySkill(skills, entries),
	}
	if s, ok := MostImproved(skills); ok {
		sum.MostImproved = &SkillProgress{
			SkillID: s.ID,
			Name:    s.Name,
			Ratio:   ProgressRatio(s),
			Percent: ProgressPercent(s),
		}
	}
	return sum
}
