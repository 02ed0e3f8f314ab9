// Package pert derives probabilistic schedule statistics from an analyzed
// project: aggregate variance over the critical path, a banded completion
// probability, and a best/worst case risk envelope.
package pert

import (
	"math"

	"github.com/tautline/taut/internal/cpm"
	"github.com/tautline/taut/internal/domain"
)

// ActivityVariance is one critical-path activity's contribution to the
// project variance.
type ActivityVariance struct {
	ID       string
	Variance float64
}

// Summary holds the statistics of one analyzed project against a target
// completion time. All values are in canonical days.
type Summary struct {
	Duration    float64
	PerActivity []ActivityVariance
	Variance    float64
	StdDev      float64

	TargetTime  float64
	ZScore      float64
	Probability string

	BestCase       float64
	WorstCase      float64
	ConfidenceLow  float64
	ConfidenceHigh float64
}

// Analyze aggregates statistics over the critical path of a project that has
// been through a schedule analysis. Variance sums critical-path activities
// only; activities with slack do not move the end date.
func Analyze(p *domain.Project, target float64) Summary {
	path := cpm.CriticalPath(p)
	duration := cpm.Duration(p)

	s := Summary{
		Duration:    duration,
		PerActivity: make([]ActivityVariance, 0, len(path)),
		TargetTime:  target,
	}
	for _, a := range path {
		s.PerActivity = append(s.PerActivity, ActivityVariance{ID: a.ID, Variance: a.Variance})
		s.Variance += a.Variance
		s.BestCase += a.Optimistic
		s.WorstCase += a.Pessimistic
	}
	s.StdDev = math.Sqrt(s.Variance)
	s.ZScore = zScore(target, duration, s.StdDev)
	s.Probability = Band(s.ZScore)
	s.ConfidenceLow = duration - s.StdDev
	s.ConfidenceHigh = duration + s.StdDev
	return s
}

// zScore standardizes the target's distance from the expected duration. A
// zero standard deviation pins z to 0 rather than dividing by it.
func zScore(target, duration, stdDev float64) float64 {
	if stdDev <= 0 {
		return 0
	}
	return (target - duration) / stdDev
}

// Band maps a z-score onto the fixed probability step table, a coarse
// stand-in for the normal CDF.
func Band(z float64) string {
	switch {
	case z >= 2:
		return "> 95%"
	case z >= 1:
		return "~ 85%"
	case z >= 0:
		return "~ 50%"
	case z >= -1:
		return "~ 15%"
	default:
		return "< 5%"
	}
}
