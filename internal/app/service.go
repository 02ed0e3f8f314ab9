package app

import (
	"context"
	"time"

	"github.com/tautline/taut/internal/cpm"
	"github.com/tautline/taut/internal/domain"
	"github.com/tautline/taut/internal/pert"
	"github.com/tautline/taut/internal/timeunit"
)

// IDGenerator returns unique identifiers for new project records.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	DefaultUnit timeunit.Unit
}

// Service coordinates project records, the scheduling engine, and unit
// conversion at the input boundary. The engine works in canonical days;
// estimates arrive in the record's display unit and are converted here.
type Service struct {
	store       ProjectStore
	idGen       IDGenerator
	clock       Clock
	defaultUnit timeunit.Unit
}

// NewService constructs a new value for this package.
func NewService(store ProjectStore, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	if !cfg.DefaultUnit.Valid() {
		cfg.DefaultUnit = timeunit.Default
	}
	return &Service{
		store:       store,
		idGen:       idGen,
		clock:       clock,
		defaultUnit: cfg.DefaultUnit,
	}
}

// DefaultUnit returns the unit new projects pick up when none is requested.
func (s *Service) DefaultUnit() timeunit.Unit {
	return s.defaultUnit
}

// CreateProjectInput holds input values for create project operations.
type CreateProjectInput struct {
	Name string
	Unit timeunit.Unit
}

// CreateProject creates an empty project record.
func (s *Service) CreateProject(ctx context.Context, in CreateProjectInput) (ProjectRecord, error) {
	unit := in.Unit
	if !unit.Valid() {
		unit = s.defaultUnit
	}
	project, err := domain.NewProject(in.Name)
	if err != nil {
		return ProjectRecord{}, err
	}
	rec := ProjectRecord{
		ID:        s.idGen(),
		Project:   project,
		Unit:      unit,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.store.Put(ctx, rec); err != nil {
		return ProjectRecord{}, err
	}
	return rec, nil
}

// Project returns one project record.
func (s *Service) Project(ctx context.Context, id string) (ProjectRecord, error) {
	return s.store.Get(ctx, id)
}

// Projects returns all project records in creation order.
func (s *Service) Projects(ctx context.Context) ([]ProjectRecord, error) {
	return s.store.List(ctx)
}

// DeleteProject removes one project record.
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// AddActivityInput holds input values for three-point activity operations.
// Estimates are in the project's display unit.
type AddActivityInput struct {
	ProjectID   string
	ID          string
	Description string
	Optimistic  float64
	MostLikely  float64
	Pessimistic float64
	DependsOn   []string
}

// AddActivity validates and inserts a three-point activity, converting its
// estimates to canonical days. The record's schedule becomes stale.
func (s *Service) AddActivity(ctx context.Context, in AddActivityInput) (ProjectRecord, error) {
	rec, err := s.store.Get(ctx, in.ProjectID)
	if err != nil {
		return ProjectRecord{}, err
	}
	activity, err := domain.NewActivity(domain.ActivityInput{
		ID:          in.ID,
		Description: in.Description,
		Optimistic:  rec.Unit.ToCanonical(in.Optimistic),
		MostLikely:  rec.Unit.ToCanonical(in.MostLikely),
		Pessimistic: rec.Unit.ToCanonical(in.Pessimistic),
		DependsOn:   in.DependsOn,
	})
	if err != nil {
		return ProjectRecord{}, err
	}
	return s.insertActivity(ctx, rec, activity)
}

// AddSingleEstimateInput holds input values for single-estimate activity
// operations. Duration is in the project's display unit.
type AddSingleEstimateInput struct {
	ProjectID   string
	ID          string
	Description string
	Duration    float64
	DependsOn   []string
}

// AddSingleEstimateActivity validates and inserts a single-estimate activity.
func (s *Service) AddSingleEstimateActivity(ctx context.Context, in AddSingleEstimateInput) (ProjectRecord, error) {
	rec, err := s.store.Get(ctx, in.ProjectID)
	if err != nil {
		return ProjectRecord{}, err
	}
	activity, err := domain.NewSingleEstimateActivity(domain.SingleEstimateInput{
		ID:          in.ID,
		Description: in.Description,
		Duration:    rec.Unit.ToCanonical(in.Duration),
		DependsOn:   in.DependsOn,
	})
	if err != nil {
		return ProjectRecord{}, err
	}
	return s.insertActivity(ctx, rec, activity)
}

func (s *Service) insertActivity(ctx context.Context, rec ProjectRecord, activity *domain.Activity) (ProjectRecord, error) {
	if err := rec.Project.Add(activity); err != nil {
		return ProjectRecord{}, err
	}
	rec.AnalyzedAt = time.Time{}
	if err := s.store.Put(ctx, rec); err != nil {
		return ProjectRecord{}, err
	}
	return rec, nil
}

// RemoveActivity deletes one activity and marks the schedule stale.
func (s *Service) RemoveActivity(ctx context.Context, projectID, activityID string) (ProjectRecord, error) {
	rec, err := s.store.Get(ctx, projectID)
	if err != nil {
		return ProjectRecord{}, err
	}
	if !rec.Project.Remove(activityID) {
		return ProjectRecord{}, ErrActivityNotFound
	}
	rec.AnalyzedAt = time.Time{}
	if err := s.store.Put(ctx, rec); err != nil {
		return ProjectRecord{}, err
	}
	return rec, nil
}

// RunAnalysis executes the full schedule computation and stamps the record.
func (s *Service) RunAnalysis(ctx context.Context, projectID string) (ProjectRecord, error) {
	rec, err := s.store.Get(ctx, projectID)
	if err != nil {
		return ProjectRecord{}, err
	}
	if err := cpm.Analyze(rec.Project); err != nil {
		return ProjectRecord{}, err
	}
	rec.AnalyzedAt = s.clock().UTC()
	if err := s.store.Put(ctx, rec); err != nil {
		return ProjectRecord{}, err
	}
	return rec, nil
}

// CriticalPath returns the zero-slack activities of an analyzed project in
// early-start order.
func (s *Service) CriticalPath(ctx context.Context, projectID string) ([]*domain.Activity, error) {
	rec, err := s.store.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !rec.Analyzed() {
		return nil, ErrAnalysisRequired
	}
	return cpm.CriticalPath(rec.Project), nil
}

// Statistics computes PERT statistics for an analyzed project. The target
// arrives in the project's display unit.
func (s *Service) Statistics(ctx context.Context, projectID string, target float64) (pert.Summary, error) {
	rec, err := s.store.Get(ctx, projectID)
	if err != nil {
		return pert.Summary{}, err
	}
	if !rec.Analyzed() {
		return pert.Summary{}, ErrAnalysisRequired
	}
	return pert.Analyze(rec.Project, rec.Unit.ToCanonical(target)), nil
}

// ImportProject is a placeholder for spreadsheet import.
func (s *Service) ImportProject(ctx context.Context, path string) (ProjectRecord, error) {
	return ProjectRecord{}, ErrImportUnavailable
}
