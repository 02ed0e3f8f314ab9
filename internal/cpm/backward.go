package cpm

import (
	"fmt"

	"github.com/tautline/taut/internal/domain"
)

// backwardPass computes late start and finish for every activity. Every
// activity starts at late finish = project duration; activities with no
// successors keep it. Tightening runs in genuine reverse-topological order via
// a fixed point symmetric to the forward pass, driven by successors-processed
// counts. Sorting by descending early finish is not a substitute: ties from
// zero-duration activities or parallel paths can order a predecessor before
// its successor and freeze a late finish that was never tightened.
func backwardPass(acts []*domain.Activity, successors map[string][]*domain.Activity, projectDuration float64) error {
	for _, a := range acts {
		a.LateFinish = projectDuration
		a.LateStart = projectDuration - a.ExpectedTime
	}

	processed := make(map[string]bool, len(acts))
	for len(processed) < len(acts) {
		progressed := false
		for _, a := range acts {
			if processed[a.ID] {
				continue
			}
			ready := true
			for _, succ := range successors[a.ID] {
				if !processed[succ.ID] {
					ready = false
					break
				}
			}
			if !ready {
				continue
			}
			if succ := successors[a.ID]; len(succ) > 0 {
				tightened := minLateStart(succ)
				if tightened < a.LateFinish {
					a.LateFinish = tightened
					a.LateStart = tightened - a.ExpectedTime
				}
			}
			processed[a.ID] = true
			progressed = true
		}
		if !progressed {
			// Unreachable after a clean forward pass; kept so a direct caller
			// cannot loop forever on a cyclic graph.
			return fmt.Errorf("backward pass stuck on %s: %w", joinUnprocessed(acts, processed), domain.ErrCyclicDependency)
		}
	}
	return nil
}

func minLateStart(acts []*domain.Activity) float64 {
	min := acts[0].LateStart
	for _, a := range acts[1:] {
		if a.LateStart < min {
			min = a.LateStart
		}
	}
	return min
}
