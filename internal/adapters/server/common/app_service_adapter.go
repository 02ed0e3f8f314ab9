package common

import (
	"context"
	"errors"
	"fmt"

	"github.com/tautline/taut/internal/app"
	"github.com/tautline/taut/internal/cpm"
	"github.com/tautline/taut/internal/domain"
	"github.com/tautline/taut/internal/pert"
	"github.com/tautline/taut/internal/timeunit"
)

// AppServiceAdapter maps transport contracts onto the app.Service scheduling APIs.
type AppServiceAdapter struct {
	service *app.Service
}

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{service: service}
}

// CreateProject creates one empty project record.
func (a *AppServiceAdapter) CreateProject(ctx context.Context, in CreateProjectRequest) (ProjectView, error) {
	if a == nil || a.service == nil {
		return ProjectView{}, fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}

	var unit timeunit.Unit
	if in.TimeUnit != "" {
		parsed, err := timeunit.Parse(in.TimeUnit)
		if err != nil {
			return ProjectView{}, fmt.Errorf("time_unit %q is unsupported: %w", in.TimeUnit, ErrInvalidRequest)
		}
		unit = parsed
	}

	rec, err := a.service.CreateProject(ctx, app.CreateProjectInput{Name: in.Name, Unit: unit})
	if err != nil {
		return ProjectView{}, mapAppError("create project", err)
	}
	return projectView(rec, false), nil
}

// ListProjects lists all project records in creation order.
func (a *AppServiceAdapter) ListProjects(ctx context.Context) ([]ProjectView, error) {
	if a == nil || a.service == nil {
		return nil, fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}

	recs, err := a.service.Projects(ctx)
	if err != nil {
		return nil, mapAppError("list projects", err)
	}
	views := make([]ProjectView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, projectView(rec, false))
	}
	return views, nil
}

// Project returns one project record with its activities.
func (a *AppServiceAdapter) Project(ctx context.Context, id string) (ProjectView, error) {
	if a == nil || a.service == nil {
		return ProjectView{}, fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}

	rec, err := a.service.Project(ctx, id)
	if err != nil {
		return ProjectView{}, mapAppError("get project", err)
	}
	return projectView(rec, true), nil
}

// AddActivity inserts one activity, dispatching on the estimate shape.
func (a *AppServiceAdapter) AddActivity(ctx context.Context, in AddActivityRequest) (ActivityView, error) {
	if a == nil || a.service == nil {
		return ActivityView{}, fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}

	threePoint := in.Optimistic != nil && in.MostLikely != nil && in.Pessimistic != nil
	var rec app.ProjectRecord
	var err error
	switch {
	case in.Duration != nil && in.Optimistic == nil && in.MostLikely == nil && in.Pessimistic == nil:
		rec, err = a.service.AddSingleEstimateActivity(ctx, app.AddSingleEstimateInput{
			ProjectID:   in.ProjectID,
			ID:          in.ID,
			Description: in.Description,
			Duration:    *in.Duration,
			DependsOn:   in.DependsOn,
		})
	case in.Duration == nil && threePoint:
		rec, err = a.service.AddActivity(ctx, app.AddActivityInput{
			ProjectID:   in.ProjectID,
			ID:          in.ID,
			Description: in.Description,
			Optimistic:  *in.Optimistic,
			MostLikely:  *in.MostLikely,
			Pessimistic: *in.Pessimistic,
			DependsOn:   in.DependsOn,
		})
	default:
		return ActivityView{}, fmt.Errorf("provide either duration or all of optimistic, most_likely, pessimistic: %w", ErrInvalidRequest)
	}
	if err != nil {
		return ActivityView{}, mapAppError("add activity", err)
	}

	activity, ok := rec.Project.Activity(in.ID)
	if !ok {
		return ActivityView{}, fmt.Errorf("add activity: inserted activity %q missing from project", in.ID)
	}
	return activityView(activity, rec.Unit), nil
}

// RunAnalysis executes the schedule computation and returns the full schedule.
func (a *AppServiceAdapter) RunAnalysis(ctx context.Context, projectID string) (ScheduleView, error) {
	if a == nil || a.service == nil {
		return ScheduleView{}, fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}

	rec, err := a.service.RunAnalysis(ctx, projectID)
	if err != nil {
		return ScheduleView{}, mapAppError("run analysis", err)
	}
	return scheduleView(rec), nil
}

// CriticalPath returns the zero-slack activities of an analyzed project.
func (a *AppServiceAdapter) CriticalPath(ctx context.Context, projectID string) (CriticalPathView, error) {
	if a == nil || a.service == nil {
		return CriticalPathView{}, fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}

	rec, err := a.service.Project(ctx, projectID)
	if err != nil {
		return CriticalPathView{}, mapAppError("critical path", err)
	}
	path, err := a.service.CriticalPath(ctx, projectID)
	if err != nil {
		return CriticalPathView{}, mapAppError("critical path", err)
	}

	view := CriticalPathView{
		ProjectID: rec.ID,
		TimeUnit:  rec.Unit.String(),
		Duration:  rec.Unit.FromCanonical(cpm.Duration(rec.Project)),
	}
	for _, activity := range path {
		view.Activities = append(view.Activities, scheduleRow(activity, rec.Unit, true))
	}
	return view, nil
}

// Statistics computes the probabilistic schedule statistics.
func (a *AppServiceAdapter) Statistics(ctx context.Context, in StatisticsRequest) (StatisticsView, error) {
	if a == nil || a.service == nil {
		return StatisticsView{}, fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}

	rec, err := a.service.Project(ctx, in.ProjectID)
	if err != nil {
		return StatisticsView{}, mapAppError("statistics", err)
	}
	sum, err := a.service.Statistics(ctx, in.ProjectID, in.Target)
	if err != nil {
		return StatisticsView{}, mapAppError("statistics", err)
	}
	return statisticsView(rec, sum, in.Target), nil
}

// LoadSample loads the built-in demonstration project.
func (a *AppServiceAdapter) LoadSample(ctx context.Context) (ProjectView, error) {
	if a == nil || a.service == nil {
		return ProjectView{}, fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}

	rec, err := a.service.SampleProject(ctx)
	if err != nil {
		return ProjectView{}, mapAppError("load sample", err)
	}
	return projectView(rec, true), nil
}

// projectView converts one record into its transport view.
func projectView(rec app.ProjectRecord, includeActivities bool) ProjectView {
	view := ProjectView{
		ID:            rec.ID,
		Name:          rec.Project.Name,
		TimeUnit:      rec.Unit.String(),
		ActivityCount: rec.Project.Len(),
		Analyzed:      rec.Analyzed(),
		CreatedAt:     rec.CreatedAt,
	}
	if includeActivities {
		for _, activity := range rec.Project.Activities() {
			view.Activities = append(view.Activities, activityView(activity, rec.Unit))
		}
	}
	return view
}

// activityView converts one activity's estimates into the display unit.
func activityView(activity *domain.Activity, unit timeunit.Unit) ActivityView {
	return ActivityView{
		ID:           activity.ID,
		Description:  activity.Description,
		Optimistic:   unit.FromCanonical(activity.Optimistic),
		MostLikely:   unit.FromCanonical(activity.MostLikely),
		Pessimistic:  unit.FromCanonical(activity.Pessimistic),
		ExpectedTime: unit.FromCanonical(activity.ExpectedTime),
		StdDev:       unit.FromCanonical(activity.StdDev),
		DependsOn:    append([]string(nil), activity.DependsOn...),
	}
}

// scheduleRow converts one activity's computed schedule into the display unit.
func scheduleRow(activity *domain.Activity, unit timeunit.Unit, critical bool) ScheduleRow {
	return ScheduleRow{
		ID:          activity.ID,
		Description: activity.Description,
		EarlyStart:  unit.FromCanonical(activity.EarlyStart),
		EarlyFinish: unit.FromCanonical(activity.EarlyFinish),
		LateStart:   unit.FromCanonical(activity.LateStart),
		LateFinish:  unit.FromCanonical(activity.LateFinish),
		Slack:       unit.FromCanonical(activity.Slack),
		Critical:    critical,
	}
}

// scheduleView builds the full analysis view from an analyzed record.
func scheduleView(rec app.ProjectRecord) ScheduleView {
	critical := map[string]bool{}
	var path []string
	for _, activity := range cpm.CriticalPath(rec.Project) {
		critical[activity.ID] = true
		path = append(path, activity.ID)
	}

	view := ScheduleView{
		ProjectID:    rec.ID,
		TimeUnit:     rec.Unit.String(),
		Duration:     rec.Unit.FromCanonical(cpm.Duration(rec.Project)),
		CriticalPath: path,
		AnalyzedAt:   rec.AnalyzedAt,
	}
	for _, activity := range rec.Project.Activities() {
		view.Activities = append(view.Activities, scheduleRow(activity, rec.Unit, critical[activity.ID]))
	}
	return view
}

// statisticsView converts one statistics summary into the display unit. The
// probability fields stay zero unless a positive target was requested.
func statisticsView(rec app.ProjectRecord, sum pert.Summary, target float64) StatisticsView {
	view := StatisticsView{
		ProjectID:      rec.ID,
		TimeUnit:       rec.Unit.String(),
		Duration:       rec.Unit.FromCanonical(sum.Duration),
		Variance:       rec.Unit.ConvertVariance(sum.Variance),
		StdDev:         rec.Unit.FromCanonical(sum.StdDev),
		BestCase:       rec.Unit.FromCanonical(sum.BestCase),
		WorstCase:      rec.Unit.FromCanonical(sum.WorstCase),
		ConfidenceLow:  rec.Unit.FromCanonical(sum.ConfidenceLow),
		ConfidenceHigh: rec.Unit.FromCanonical(sum.ConfidenceHigh),
	}
	for _, av := range sum.PerActivity {
		view.PerActivity = append(view.PerActivity, ActivityVarianceView{
			ID:       av.ID,
			Variance: rec.Unit.ConvertVariance(av.Variance),
		})
	}
	if target > 0 {
		view.TargetTime = target
		view.ZScore = sum.ZScore
		view.Probability = sum.Probability
	}
	return view
}

// mapAppError classifies service errors into transport sentinels.
func mapAppError(operation string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, app.ErrProjectNotFound), errors.Is(err, app.ErrActivityNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, app.ErrAnalysisRequired):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrAnalysisRequired, err))
	case errors.Is(err, app.ErrImportUnavailable):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotImplemented, err))
	case errors.Is(err, domain.ErrDuplicateActivity):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrDuplicateActivity, err))
	case errors.Is(err, domain.ErrUnknownDependency):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrUnknownDependency, err))
	case errors.Is(err, domain.ErrCyclicDependency):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrCyclicDependency, err))
	case errors.Is(err, cpm.ErrNoActivities):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrEmptyProject, err))
	case errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidEstimate):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}
