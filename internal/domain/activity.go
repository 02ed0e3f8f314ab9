package domain

import (
	"fmt"
	"strings"
)

// EstimateKind records how an activity's duration was supplied.
type EstimateKind string

const (
	// EstimateThreePoint marks activities built from optimistic, most likely,
	// and pessimistic estimates.
	EstimateThreePoint EstimateKind = "three-point"
	// EstimateSingle marks activities built from one duration, stored as all
	// three estimates.
	EstimateSingle EstimateKind = "single"
)

// Activity is one schedulable unit of work. Estimates and derived statistics
// are fixed at construction; the schedule fields are owned by the analysis
// passes and are meaningless until an analysis has run.
type Activity struct {
	ID          string
	Description string
	Kind        EstimateKind

	Optimistic  float64
	MostLikely  float64
	Pessimistic float64
	DependsOn   []string

	ExpectedTime float64
	Variance     float64
	StdDev       float64

	EarlyStart  float64
	EarlyFinish float64
	LateStart   float64
	LateFinish  float64
	Slack       float64
}

type ActivityInput struct {
	ID          string
	Description string
	Optimistic  float64
	MostLikely  float64
	Pessimistic float64
	DependsOn   []string
}

type SingleEstimateInput struct {
	ID          string
	Description string
	Duration    float64
	DependsOn   []string
}

// NewActivity builds a three-point activity. Estimates must satisfy
// 0 <= optimistic <= most likely <= pessimistic.
func NewActivity(in ActivityInput) (*Activity, error) {
	if in.Optimistic < 0 || in.MostLikely < 0 || in.Pessimistic < 0 {
		return nil, ErrInvalidEstimate
	}
	if in.Optimistic > in.MostLikely || in.MostLikely > in.Pessimistic {
		return nil, ErrInvalidEstimate
	}
	return newActivity(in.ID, in.Description, EstimateThreePoint, in.Optimistic, in.MostLikely, in.Pessimistic, in.DependsOn)
}

// NewSingleEstimateActivity builds an activity from one duration, recorded as
// all three estimates so the passes need no special case.
func NewSingleEstimateActivity(in SingleEstimateInput) (*Activity, error) {
	if in.Duration < 0 {
		return nil, ErrInvalidEstimate
	}
	return newActivity(in.ID, in.Description, EstimateSingle, in.Duration, in.Duration, in.Duration, in.DependsOn)
}

func newActivity(id, description string, kind EstimateKind, optimistic, mostLikely, pessimistic float64, dependsOn []string) (*Activity, error) {
	id = NormalizeID(id)
	if id == "" {
		return nil, ErrInvalidID
	}
	description = strings.TrimSpace(description)
	if description == "" {
		description = fmt.Sprintf("Activity %s", id)
	}

	return &Activity{
		ID:           id,
		Description:  description,
		Kind:         kind,
		Optimistic:   optimistic,
		MostLikely:   mostLikely,
		Pessimistic:  pessimistic,
		DependsOn:    normalizeDependencies(dependsOn),
		ExpectedTime: (optimistic + 4*mostLikely + pessimistic) / 6,
		Variance:     ((pessimistic - optimistic) / 6) * ((pessimistic - optimistic) / 6),
		StdDev:       (pessimistic - optimistic) / 6,
	}, nil
}

// ResetSchedule zeroes the analysis-owned fields.
func (a *Activity) ResetSchedule() {
	a.EarlyStart = 0
	a.EarlyFinish = 0
	a.LateStart = 0
	a.LateFinish = 0
	a.Slack = 0
}

// NormalizeID canonicalizes an activity identifier.
func NormalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

func normalizeDependencies(deps []string) []string {
	out := make([]string, 0, len(deps))
	seen := map[string]struct{}{}
	for _, raw := range deps {
		dep := NormalizeID(raw)
		if dep == "" {
			continue
		}
		if _, ok := seen[dep]; ok {
			continue
		}
		seen[dep] = struct{}{}
		out = append(out, dep)
	}
	return out
}
