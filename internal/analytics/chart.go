package analytics

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"skill-journal/internal/domain/skill"
)

type Shape string

const (
	ShapeBar  Shape = "bar"
	ShapeLine Shape = "line"
)

type Metric string

const (
	MetricHours    Metric = "hours"
	MetricProgress Metric = "progress"
	MetricSessions Metric = "sessions"
	MetricValue    Metric = "value"
)

var metricLabels = map[Metric]string{
	MetricHours:    "Hours practiced",
	MetricProgress: "Progress (%)",
	MetricSessions: "Sessions",
	MetricValue:    "Average value",
}

var ErrInvalidDisplayMode = errors.New("invalid display mode")

// DisplayMode selects the chart shape and the metric it plots.
type DisplayMode struct {
	Shape  Shape  `json:"shape"  yaml:"shape"`
	Metric Metric `json:"metric" yaml:"metric"`
}

var DefaultDisplayMode = DisplayMode{Shape: ShapeBar, Metric: MetricHours}

// ParseDisplayMode reads a shape and metric, falling back to the defaults for
// empty values.
func ParseDisplayMode(shape, metric string) (DisplayMode, error) {
	mode := DefaultDisplayMode
	if s := Shape(strings.ToLower(strings.TrimSpace(shape))); s != "" {
		if s != ShapeBar && s != ShapeLine {
			return DisplayMode{}, fmt.Errorf("%w: shape %q", ErrInvalidDisplayMode, shape)
		}
		mode.Shape = s
	}
	if m := Metric(strings.ToLower(strings.TrimSpace(metric))); m != "" {
		if _, ok := metricLabels[m]; !ok {
			return DisplayMode{}, fmt.Errorf("%w: metric %q", ErrInvalidDisplayMode, metric)
		}
		mode.Metric = m
	}
	return mode, nil
}

// Dataset is one chart series. Labels and Values are parallel and sorted by
// value, highest first.
type Dataset struct {
	Shape  Shape     `json:"shape"  yaml:"shape"`
	Metric Metric    `json:"metric" yaml:"metric"`
	Label  string    `json:"label"  yaml:"label"`
	Labels []string  `json:"labels" yaml:"labels"`
	Values []float64 `json:"values" yaml:"values"`
}

type point struct {
	label string
	value float64
}

func BuildDataset(mode DisplayMode, skills []skill.Skill, entries []skill.ProgressEntry) Dataset {
	if _, ok := metricLabels[mode.Metric]; !ok {
		mode.Metric = DefaultDisplayMode.Metric
	}
	if mode.Shape != ShapeBar && mode.Shape != ShapeLine {
		mode.Shape = DefaultDisplayMode.Shape
	}

	var points []point
	switch mode.Metric {
	case MetricHours:
		for _, h := range HoursBySkill(skills, entries) {
			points = append(points, point{h.Name, h.Hours})
		}
	case MetricSessions:
		for _, h := range HoursBySkill(skills, entries) {
			points = append(points, point{h.Name, float64(h.Sessions)})
		}
	case MetricProgress:
		for _, s := range skills {
			points = append(points, point{s.Name, ProgressPercent(s)})
		}
	case MetricValue:
		for _, v := range AverageValueBySkill(skills, entries) {
			points = append(points, point{v.Name, v.Average})
		}
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].value > points[j].value })

	ds := Dataset{
		Shape:  mode.Shape,
		Metric: mode.Metric,
		Label:  metricLabels[mode.Metric],
		Labels: make([]string, len(points)),
		Values: make([]float64, len(points)),
	}
	for i, p := range points {
		ds.Labels[i] = p.label
		ds.Values[i] = p.value
	}
	return ds
}
