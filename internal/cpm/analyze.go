// Package cpm implements critical path method scheduling over a project's
// dependency graph: forward and backward timing passes, slack, and critical
// path extraction.
package cpm

import (
	"errors"
	"fmt"

	"github.com/tautline/taut/internal/domain"
)

// ErrNoActivities reports an analysis request against an empty project.
var ErrNoActivities = errors.New("project has no activities")

// Analyze runs the full schedule computation in fixed order: dependency
// resolution, forward pass, backward pass, slack. Activities are mutated in
// place; each phase assumes the prior one ran over the whole graph. Re-running
// on an unmodified project yields identical fields.
func Analyze(p *domain.Project) error {
	if p == nil || p.Len() == 0 {
		return ErrNoActivities
	}

	acts := p.Activities()
	byID := make(map[string]*domain.Activity, len(acts))
	for _, a := range acts {
		byID[a.ID] = a
	}
	if err := resolveDependencies(acts, byID); err != nil {
		return err
	}

	for _, a := range acts {
		a.ResetSchedule()
	}
	if err := forwardPass(acts, byID); err != nil {
		return err
	}
	if err := backwardPass(acts, successorsOf(acts), maxEarlyFinish(acts)); err != nil {
		return err
	}
	applySlack(acts)
	return nil
}

// resolveDependencies verifies every dependency id names an activity in the
// same project.
func resolveDependencies(acts []*domain.Activity, byID map[string]*domain.Activity) error {
	for _, a := range acts {
		for _, dep := range a.DependsOn {
			if _, ok := byID[dep]; !ok {
				return fmt.Errorf("activity %s depends on unknown activity %q: %w", a.ID, dep, domain.ErrUnknownDependency)
			}
		}
	}
	return nil
}

// successorsOf inverts the dependency relation, preserving insertion order.
func successorsOf(acts []*domain.Activity) map[string][]*domain.Activity {
	successors := make(map[string][]*domain.Activity, len(acts))
	for _, a := range acts {
		for _, dep := range a.DependsOn {
			successors[dep] = append(successors[dep], a)
		}
	}
	return successors
}

func maxEarlyFinish(acts []*domain.Activity) float64 {
	var max float64
	for _, a := range acts {
		if a.EarlyFinish > max {
			max = a.EarlyFinish
		}
	}
	return max
}
