package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tautline/taut/internal/cpm"
	"github.com/tautline/taut/internal/domain"
	"github.com/tautline/taut/internal/timeunit"
)

// SnapshotVersion identifies the snapshot document layout this build reads
// and writes.
const SnapshotVersion = "taut.snapshot.v1"

// Snapshot is the portable JSON document holding every stored project
// record. The store is process-local, so snapshots are how project data
// moves between runs, machines, and hand edits.
type Snapshot struct {
	Version    string            `json:"version"`
	ExportedAt time.Time         `json:"exported_at"`
	Projects   []SnapshotProject `json:"projects"`
}

// SnapshotProject carries one project record. AnalyzedAt is present only
// when the record held a current schedule at export time; import re-runs
// the analysis for those records and keeps the original stamp.
type SnapshotProject struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Unit       string             `json:"unit"`
	CreatedAt  time.Time          `json:"created_at"`
	AnalyzedAt *time.Time         `json:"analyzed_at,omitempty"`
	Activities []SnapshotActivity `json:"activities"`
}

// SnapshotActivity carries one activity. Estimates are in canonical days
// regardless of the project's display unit, so documents stay comparable
// across unit changes. Activity order is insertion order and is preserved.
type SnapshotActivity struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Kind        string   `json:"kind,omitempty"`
	Optimistic  float64  `json:"optimistic"`
	MostLikely  float64  `json:"most_likely"`
	Pessimistic float64  `json:"pessimistic"`
	DependsOn   []string `json:"depends_on,omitempty"`
}

// ExportSnapshot captures every stored project record.
func (s *Service) ExportSnapshot(ctx context.Context) (Snapshot, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: s.clock().UTC(),
		Projects:   make([]SnapshotProject, 0, len(records)),
	}
	for _, rec := range records {
		snap.Projects = append(snap.Projects, snapshotProjectFromRecord(rec))
	}
	snap.sort()
	return snap, nil
}

// ImportSnapshot validates a snapshot and upserts its projects into the
// store, replacing records that share an id. Projects exported with a
// current schedule are re-analyzed so the derived fields are populated
// again; their original analysis stamp is kept.
func (s *Service) ImportSnapshot(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	snap.sort()

	for i, sp := range snap.Projects {
		rec, err := sp.toRecord()
		if err != nil {
			return fmt.Errorf("projects[%d]: %w", i, err)
		}
		if sp.AnalyzedAt != nil {
			if err := cpm.Analyze(rec.Project); err != nil {
				return fmt.Errorf("projects[%d]: %w", i, err)
			}
			rec.AnalyzedAt = sp.AnalyzedAt.UTC()
		}
		if err := s.store.Put(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the snapshot and normalizes identifiers, units, and
// dependency lists in place. Dangling dependencies are allowed here for the
// same reason the project type allows them: the next analysis reports them.
func (s *Snapshot) Validate() error {
	if s.Version != "" && s.Version != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version: %q", s.Version)
	}

	projectIDs := map[string]struct{}{}
	for i := range s.Projects {
		p := &s.Projects[i]
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" {
			return fmt.Errorf("projects[%d].id is required", i)
		}
		if _, exists := projectIDs[p.ID]; exists {
			return fmt.Errorf("duplicate project id: %q", p.ID)
		}
		projectIDs[p.ID] = struct{}{}
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("projects[%d].name is required", i)
		}
		if p.CreatedAt.IsZero() {
			return fmt.Errorf("projects[%d].created_at is required", i)
		}
		if p.AnalyzedAt != nil && p.AnalyzedAt.IsZero() {
			p.AnalyzedAt = nil
		}
		if strings.TrimSpace(p.Unit) == "" {
			p.Unit = string(timeunit.Default)
		}
		unit, err := timeunit.Parse(p.Unit)
		if err != nil {
			return fmt.Errorf("projects[%d].unit: %w", i, err)
		}
		p.Unit = string(unit)

		activityIDs := map[string]struct{}{}
		for j := range p.Activities {
			a := &p.Activities[j]
			a.ID = domain.NormalizeID(a.ID)
			if a.ID == "" {
				return fmt.Errorf("projects[%d].activities[%d].id is required", i, j)
			}
			if _, exists := activityIDs[a.ID]; exists {
				return fmt.Errorf("projects[%d] duplicate activity id: %q", i, a.ID)
			}
			activityIDs[a.ID] = struct{}{}
			switch domain.EstimateKind(a.Kind) {
			case domain.EstimateThreePoint, domain.EstimateSingle:
			default:
				if strings.TrimSpace(a.Kind) != "" {
					return fmt.Errorf("projects[%d].activities[%d].kind must be three-point|single", i, j)
				}
				a.Kind = string(domain.EstimateThreePoint)
			}
			if a.Optimistic < 0 || a.MostLikely < 0 || a.Pessimistic < 0 {
				return fmt.Errorf("projects[%d].activities[%d] estimates must be >= 0", i, j)
			}
			if a.Optimistic > a.MostLikely || a.MostLikely > a.Pessimistic {
				return fmt.Errorf("projects[%d].activities[%d] estimates must satisfy optimistic <= most_likely <= pessimistic", i, j)
			}
			if domain.EstimateKind(a.Kind) == domain.EstimateSingle && (a.Optimistic != a.MostLikely || a.MostLikely != a.Pessimistic) {
				return fmt.Errorf("projects[%d].activities[%d] single-estimate values must match", i, j)
			}

			deps := make([]string, 0, len(a.DependsOn))
			seen := map[string]struct{}{}
			for _, raw := range a.DependsOn {
				dep := domain.NormalizeID(raw)
				if dep == "" {
					continue
				}
				if _, dup := seen[dep]; dup {
					continue
				}
				seen[dep] = struct{}{}
				deps = append(deps, dep)
			}
			if len(deps) == 0 {
				deps = nil
			}
			a.DependsOn = deps
		}
	}
	return nil
}

// sort orders projects by creation time then id so exports diff cleanly.
// Activity order inside a project is part of the record and is left alone.
func (s *Snapshot) sort() {
	sort.Slice(s.Projects, func(i, j int) bool {
		a := s.Projects[i]
		b := s.Projects[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

// DecodeSnapshot parses snapshot JSON, checking it against the document
// schema first so hand-edited files fail with a field path instead of a
// decode error.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	if err := snapshotPayloadSchema.ValidatePayload(data); err != nil {
		return Snapshot{}, fmt.Errorf("invalid snapshot document: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// EncodeSnapshot renders a snapshot as indented JSON with a trailing
// newline, the form the export command writes.
func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// snapshotProjectFromRecord converts one stored record.
func snapshotProjectFromRecord(rec ProjectRecord) SnapshotProject {
	sp := SnapshotProject{
		ID:         rec.ID,
		Name:       rec.Project.Name,
		Unit:       rec.Unit.String(),
		CreatedAt:  rec.CreatedAt.UTC(),
		Activities: make([]SnapshotActivity, 0, rec.Project.Len()),
	}
	if rec.Analyzed() {
		at := rec.AnalyzedAt.UTC()
		sp.AnalyzedAt = &at
	}
	for _, a := range rec.Project.Activities() {
		sp.Activities = append(sp.Activities, snapshotActivityFromDomain(a))
	}
	return sp
}

// snapshotActivityFromDomain converts one activity. Derived statistics and
// schedule fields are recomputed on import, so only the inputs travel.
func snapshotActivityFromDomain(a *domain.Activity) SnapshotActivity {
	return SnapshotActivity{
		ID:          a.ID,
		Description: a.Description,
		Kind:        string(a.Kind),
		Optimistic:  a.Optimistic,
		MostLikely:  a.MostLikely,
		Pessimistic: a.Pessimistic,
		DependsOn:   append([]string(nil), a.DependsOn...),
	}
}

// toRecord rebuilds a project record from validated snapshot data.
func (p SnapshotProject) toRecord() (ProjectRecord, error) {
	project, err := domain.NewProject(p.Name)
	if err != nil {
		return ProjectRecord{}, err
	}
	for _, sa := range p.Activities {
		activity, err := sa.toDomain()
		if err != nil {
			return ProjectRecord{}, fmt.Errorf("activity %s: %w", sa.ID, err)
		}
		if err := project.Add(activity); err != nil {
			return ProjectRecord{}, fmt.Errorf("activity %s: %w", sa.ID, err)
		}
	}
	unit := timeunit.Unit(p.Unit)
	if !unit.Valid() {
		unit = timeunit.Default
	}
	return ProjectRecord{
		ID:        p.ID,
		Project:   project,
		Unit:      unit,
		CreatedAt: p.CreatedAt.UTC(),
	}, nil
}

// toDomain rebuilds one activity from canonical-day estimates, bypassing
// the unit conversion the service applies to interactive input.
func (a SnapshotActivity) toDomain() (*domain.Activity, error) {
	if domain.EstimateKind(a.Kind) == domain.EstimateSingle {
		return domain.NewSingleEstimateActivity(domain.SingleEstimateInput{
			ID:          a.ID,
			Description: a.Description,
			Duration:    a.MostLikely,
			DependsOn:   a.DependsOn,
		})
	}
	return domain.NewActivity(domain.ActivityInput{
		ID:          a.ID,
		Description: a.Description,
		Optimistic:  a.Optimistic,
		MostLikely:  a.MostLikely,
		Pessimistic: a.Pessimistic,
		DependsOn:   a.DependsOn,
	})
}
