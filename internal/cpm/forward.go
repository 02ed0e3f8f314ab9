package cpm

import (
	"fmt"
	"strings"

	"github.com/tautline/taut/internal/domain"
)

// forwardPass computes early start and finish for every activity by repeated
// fixed-point scanning: each full scan processes every activity whose
// dependencies have all been processed. The scan order is irrelevant to the
// result. A full scan that processes nothing while work remains means the
// graph holds a cycle.
func forwardPass(acts []*domain.Activity, byID map[string]*domain.Activity) error {
	processed := make(map[string]bool, len(acts))
	for len(processed) < len(acts) {
		progressed := false
		for _, a := range acts {
			if processed[a.ID] {
				continue
			}
			ready := true
			start := 0.0
			for _, dep := range a.DependsOn {
				d := byID[dep]
				if !processed[d.ID] {
					ready = false
					break
				}
				if d.EarlyFinish > start {
					start = d.EarlyFinish
				}
			}
			if !ready {
				continue
			}
			a.EarlyStart = start
			a.EarlyFinish = start + a.ExpectedTime
			processed[a.ID] = true
			progressed = true
		}
		if !progressed {
			return fmt.Errorf("forward pass stuck on %s: %w", joinUnprocessed(acts, processed), domain.ErrCyclicDependency)
		}
	}
	return nil
}

// joinUnprocessed lists the ids a stuck scan could not place, in insertion
// order.
func joinUnprocessed(acts []*domain.Activity, processed map[string]bool) string {
	stuck := make([]string, 0, len(acts))
	for _, a := range acts {
		if !processed[a.ID] {
			stuck = append(stuck, a.ID)
		}
	}
	return strings.Join(stuck, ", ")
}
