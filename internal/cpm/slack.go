package cpm

import (
	"math"
	"sort"

	"github.com/tautline/taut/internal/domain"
)

// slackTolerance absorbs floating-point drift: magnitudes below it clamp to
// exactly zero so critical-path membership is a clean equality test.
const slackTolerance = 1e-3

// applySlack derives slack from the two passes.
func applySlack(acts []*domain.Activity) {
	for _, a := range acts {
		slack := a.LateStart - a.EarlyStart
		if math.Abs(slack) < slackTolerance {
			slack = 0
		}
		a.Slack = slack
	}
}

// CriticalPath returns the zero-slack activities ordered by early start,
// insertion order breaking ties. Meaningful only after Analyze.
func CriticalPath(p *domain.Project) []*domain.Activity {
	if p == nil {
		return nil
	}
	path := make([]*domain.Activity, 0, p.Len())
	for _, a := range p.Activities() {
		if a.Slack == 0 {
			path = append(path, a)
		}
	}
	sort.SliceStable(path, func(i, j int) bool {
		return path[i].EarlyStart < path[j].EarlyStart
	})
	return path
}

// Duration returns the project duration, max early finish over all
// activities. Meaningful only after Analyze.
func Duration(p *domain.Project) float64 {
	if p == nil {
		return 0
	}
	return maxEarlyFinish(p.Activities())
}
