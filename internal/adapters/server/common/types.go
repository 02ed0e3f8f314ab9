// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidRequest reports malformed or unvalidatable transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrDuplicateActivity reports an activity id already present in the project.
var ErrDuplicateActivity = errors.New("duplicate activity")

// ErrUnknownDependency reports a dependency on an activity the project does not contain.
var ErrUnknownDependency = errors.New("unknown dependency")

// ErrCyclicDependency reports a dependency cycle detected by the analysis.
var ErrCyclicDependency = errors.New("cyclic dependency")

// ErrEmptyProject reports an analysis request against a project with no activities.
var ErrEmptyProject = errors.New("project has no activities")

// ErrAnalysisRequired reports a schedule read against a stale or never-analyzed project.
var ErrAnalysisRequired = errors.New("analysis required")

// ErrNotImplemented reports operations the service does not offer yet.
var ErrNotImplemented = errors.New("not implemented")

// ProjectView summarizes one project record for transport responses. Times
// are in the project's display unit.
type ProjectView struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	TimeUnit      string         `json:"time_unit"`
	ActivityCount int            `json:"activity_count"`
	Analyzed      bool           `json:"analyzed"`
	CreatedAt     time.Time      `json:"created_at"`
	Activities    []ActivityView `json:"activities,omitempty"`
}

// ActivityView represents one activity's estimates in the display unit.
type ActivityView struct {
	ID           string   `json:"id"`
	Description  string   `json:"description"`
	Optimistic   float64  `json:"optimistic"`
	MostLikely   float64  `json:"most_likely"`
	Pessimistic  float64  `json:"pessimistic"`
	ExpectedTime float64  `json:"expected_time"`
	StdDev       float64  `json:"std_dev"`
	DependsOn    []string `json:"depends_on,omitempty"`
}

// ScheduleRow represents one activity's computed schedule in the display unit.
type ScheduleRow struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	EarlyStart  float64 `json:"early_start"`
	EarlyFinish float64 `json:"early_finish"`
	LateStart   float64 `json:"late_start"`
	LateFinish  float64 `json:"late_finish"`
	Slack       float64 `json:"slack"`
	Critical    bool    `json:"critical"`
}

// ScheduleView is the full analysis result returned by run_analysis.
type ScheduleView struct {
	ProjectID    string        `json:"project_id"`
	TimeUnit     string        `json:"time_unit"`
	Duration     float64       `json:"duration"`
	CriticalPath []string      `json:"critical_path"`
	Activities   []ScheduleRow `json:"activities"`
	AnalyzedAt   time.Time     `json:"analyzed_at"`
}

// CriticalPathView lists the zero-slack activities in early-start order.
type CriticalPathView struct {
	ProjectID  string        `json:"project_id"`
	TimeUnit   string        `json:"time_unit"`
	Duration   float64       `json:"duration"`
	Activities []ScheduleRow `json:"activities"`
}

// ActivityVarianceView is one critical-path activity's variance contribution.
type ActivityVarianceView struct {
	ID       string  `json:"id"`
	Variance float64 `json:"variance"`
}

// StatisticsView carries the probabilistic schedule statistics in the display
// unit. Target fields are zero when no target time was requested.
type StatisticsView struct {
	ProjectID      string                 `json:"project_id"`
	TimeUnit       string                 `json:"time_unit"`
	Duration       float64                `json:"duration"`
	Variance       float64                `json:"variance"`
	StdDev         float64                `json:"std_dev"`
	PerActivity    []ActivityVarianceView `json:"per_activity,omitempty"`
	TargetTime     float64                `json:"target_time,omitempty"`
	ZScore         float64                `json:"z_score,omitempty"`
	Probability    string                 `json:"probability,omitempty"`
	BestCase       float64                `json:"best_case"`
	WorstCase      float64                `json:"worst_case"`
	ConfidenceLow  float64                `json:"confidence_low"`
	ConfidenceHigh float64                `json:"confidence_high"`
}

// CreateProjectRequest captures input for new project records.
type CreateProjectRequest struct {
	Name     string `json:"name"`
	TimeUnit string `json:"time_unit,omitempty"`
}

// AddActivityRequest captures input for one new activity. Either Duration or
// all three of Optimistic, MostLikely, Pessimistic must be set.
type AddActivityRequest struct {
	ProjectID   string   `json:"-"`
	ID          string   `json:"id"`
	Description string   `json:"description,omitempty"`
	Optimistic  *float64 `json:"optimistic,omitempty"`
	MostLikely  *float64 `json:"most_likely,omitempty"`
	Pessimistic *float64 `json:"pessimistic,omitempty"`
	Duration    *float64 `json:"duration,omitempty"`
	DependsOn   []string `json:"depends_on,omitempty"`
}

// StatisticsRequest captures one statistics query. Target is in the
// project's display unit; zero means no target was requested.
type StatisticsRequest struct {
	ProjectID string
	Target    float64
}

// SchedulingService defines the scheduling operations exposed to transport adapters.
type SchedulingService interface {
	CreateProject(context.Context, CreateProjectRequest) (ProjectView, error)
	ListProjects(context.Context) ([]ProjectView, error)
	Project(context.Context, string) (ProjectView, error)
	AddActivity(context.Context, AddActivityRequest) (ActivityView, error)
	RunAnalysis(context.Context, string) (ScheduleView, error)
	CriticalPath(context.Context, string) (CriticalPathView, error)
	Statistics(context.Context, StatisticsRequest) (StatisticsView, error)
	LoadSample(context.Context) (ProjectView, error)
}
