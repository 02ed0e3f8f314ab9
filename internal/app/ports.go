package app

import (
	"context"
	"time"

	"github.com/tautline/taut/internal/domain"
	"github.com/tautline/taut/internal/timeunit"
)

// ProjectRecord is the stored unit of work: one project graph plus the
// bookkeeping the engine does not own. AnalyzedAt is zero until an analysis
// succeeds; every mutation clears it again so stale schedules cannot be read.
type ProjectRecord struct {
	ID         string
	Project    *domain.Project
	Unit       timeunit.Unit
	CreatedAt  time.Time
	AnalyzedAt time.Time
}

// Analyzed reports whether the record holds a current schedule.
func (r ProjectRecord) Analyzed() bool {
	return !r.AnalyzedAt.IsZero()
}

// ProjectStore keeps project records for the lifetime of the process.
// Implementations return ErrProjectNotFound for unknown ids.
type ProjectStore interface {
	Put(context.Context, ProjectRecord) error
	Get(context.Context, string) (ProjectRecord, error)
	List(context.Context) ([]ProjectRecord, error)
	Delete(context.Context, string) error
}
