package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/tautline/taut/internal/adapters/storage/memory"
	"github.com/tautline/taut/internal/app"
	"github.com/tautline/taut/internal/domain"
	"github.com/tautline/taut/internal/pert"
	"github.com/tautline/taut/internal/report"
	"github.com/tautline/taut/internal/timeunit"
)

// fakeService wraps the real application service so model tests exercise the
// actual engine, with per-operation error injection on top.
type fakeService struct {
	*app.Service

	createErr error
	addErr    error
	removeErr error
	runErr    error
	statsErr  error
	sampleErr error
	importErr error
}

func (f *fakeService) CreateProject(ctx context.Context, in app.CreateProjectInput) (app.ProjectRecord, error) {
	if f.createErr != nil {
		return app.ProjectRecord{}, f.createErr
	}
	return f.Service.CreateProject(ctx, in)
}

func (f *fakeService) AddActivity(ctx context.Context, in app.AddActivityInput) (app.ProjectRecord, error) {
	if f.addErr != nil {
		return app.ProjectRecord{}, f.addErr
	}
	return f.Service.AddActivity(ctx, in)
}

func (f *fakeService) AddSingleEstimateActivity(ctx context.Context, in app.AddSingleEstimateInput) (app.ProjectRecord, error) {
	if f.addErr != nil {
		return app.ProjectRecord{}, f.addErr
	}
	return f.Service.AddSingleEstimateActivity(ctx, in)
}

func (f *fakeService) RemoveActivity(ctx context.Context, projectID, activityID string) (app.ProjectRecord, error) {
	if f.removeErr != nil {
		return app.ProjectRecord{}, f.removeErr
	}
	return f.Service.RemoveActivity(ctx, projectID, activityID)
}

func (f *fakeService) RunAnalysis(ctx context.Context, projectID string) (app.ProjectRecord, error) {
	if f.runErr != nil {
		return app.ProjectRecord{}, f.runErr
	}
	return f.Service.RunAnalysis(ctx, projectID)
}

func (f *fakeService) Statistics(ctx context.Context, projectID string, target float64) (pert.Summary, error) {
	if f.statsErr != nil {
		return pert.Summary{}, f.statsErr
	}
	return f.Service.Statistics(ctx, projectID, target)
}

func (f *fakeService) SampleProject(ctx context.Context) (app.ProjectRecord, error) {
	if f.sampleErr != nil {
		return app.ProjectRecord{}, f.sampleErr
	}
	return f.Service.SampleProject(ctx)
}

func (f *fakeService) ImportProject(ctx context.Context, path string) (app.ProjectRecord, error) {
	if f.importErr != nil {
		return app.ProjectRecord{}, f.importErr
	}
	return f.Service.ImportProject(ctx, path)
}

func newFakeService() *fakeService {
	counter := 0
	idGen := func() string {
		counter++
		return fmt.Sprintf("p%d", counter)
	}
	clock := func() time.Time {
		return time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	}
	svc := app.NewService(memory.New(), idGen, clock, app.ServiceConfig{DefaultUnit: timeunit.Days})
	return &fakeService{Service: svc}
}

func applyCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	currentCmd := cmd
	for i := 0; i < 8 && currentCmd != nil; i++ {
		msg := currentCmd()
		if msg == nil {
			return m
		}
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, sub := range batch {
				m = applyCmd(t, m, sub)
			}
			return m
		}
		next, nextCmd := m.Update(msg)
		model, ok := next.(Model)
		if !ok {
			t.Fatalf("unexpected model type %T", next)
		}
		m = model
		currentCmd = nextCmd
	}
	return m
}

func applyMsg(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return applyCmd(t, model, cmd)
}

func loadReadyModel(t *testing.T, m Model) Model {
	t.Helper()
	m = applyCmd(t, m, m.Init())
	return applyMsg(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
}

func keyRune(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func keyEnter() tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: tea.KeyEnter}
}

func keyEsc() tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: tea.KeyEscape}
}

func keyTab() tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: tea.KeyTab}
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m = applyMsg(t, m, keyRune(r))
	}
	return m
}

// loadSample drives the menu's sample entry and returns the model on the
// schedule view.
func loadSample(t *testing.T, m Model) Model {
	t.Helper()
	m = applyMsg(t, m, keyRune('3'))
	if m.view != viewResults {
		t.Fatalf("expected results view after sample load, got %v", m.view)
	}
	return m
}

func TestNewModelDefaults(t *testing.T) {
	m := NewModel(newFakeService())
	if m.view != viewMenu {
		t.Fatalf("expected menu view, got %v", m.view)
	}
	if m.mode != modeNone {
		t.Fatalf("expected no input mode, got %v", m.mode)
	}
	if m.status != "loading..." {
		t.Fatalf("unexpected initial status %q", m.status)
	}
	if m.formKind != domain.EstimateThreePoint {
		t.Fatalf("unexpected default estimate kind %q", m.formKind)
	}
	if m.reportOpts.Unit != timeunit.Days || m.reportOpts.Decimals != 1 {
		t.Fatalf("unexpected default report options %+v", m.reportOpts)
	}
	if !m.reportOpts.ShowVariance || !m.reportOpts.ShowRisk {
		t.Fatalf("expected variance and risk sections on by default")
	}
}

func TestNewModelOptions(t *testing.T) {
	m := NewModel(newFakeService(), WithReportOptions(report.Options{Decimals: 2, ShowRisk: true}), nil)
	if m.reportOpts.Decimals != 2 {
		t.Fatalf("expected decimals override, got %d", m.reportOpts.Decimals)
	}
	if m.reportOpts.Unit != timeunit.Days {
		t.Fatalf("expected invalid unit to keep the default, got %q", m.reportOpts.Unit)
	}

	m = NewModel(newFakeService(), WithDisplayUnit(timeunit.Weeks))
	if m.reportOpts.Unit != timeunit.Weeks {
		t.Fatalf("expected weeks display unit, got %q", m.reportOpts.Unit)
	}

	m = NewModel(newFakeService(), WithDisplayUnit(timeunit.Unit("fortnights")))
	if m.reportOpts.Unit != timeunit.Days {
		t.Fatalf("expected invalid unit option to be ignored, got %q", m.reportOpts.Unit)
	}
}

func TestLoadReadyShowsMenu(t *testing.T) {
	m := loadReadyModel(t, NewModel(newFakeService()))
	if !m.ready {
		t.Fatal("expected model to be ready after window size")
	}
	if m.err != nil {
		t.Fatalf("unexpected load error: %v", m.err)
	}
	if m.status != "ready" {
		t.Fatalf("unexpected status %q", m.status)
	}
	if m.defaultUnit != timeunit.Days {
		t.Fatalf("expected service default unit, got %q", m.defaultUnit)
	}

	menu := m.renderMenu()
	for _, want := range []string{
		"1. Enter project data (single time estimates)",
		"2. Enter project data (three-point estimates)",
		"3. Use the sample project",
		"4. Import activities from a spreadsheet",
		"5. Quit",
	} {
		if !strings.Contains(menu, want) {
			t.Fatalf("menu missing %q:\n%s", want, menu)
		}
	}
}

func TestLoadErrorShowsErrorView(t *testing.T) {
	svc := newFakeService()
	m := NewModel(svc)
	m = applyMsg(t, m, loadedMsg{err: errors.New("store offline")})
	if m.err == nil || !strings.Contains(m.err.Error(), "store offline") {
		t.Fatalf("expected load error to stick, got %v", m.err)
	}
}

func TestMenuNavigation(t *testing.T) {
	m := loadReadyModel(t, NewModel(newFakeService()))

	m = applyMsg(t, m, keyRune('j'))
	m = applyMsg(t, m, keyRune('j'))
	if m.menuIndex != 2 {
		t.Fatalf("expected menu index 2, got %d", m.menuIndex)
	}
	m = applyMsg(t, m, keyRune('k'))
	if m.menuIndex != 1 {
		t.Fatalf("expected menu index 1, got %d", m.menuIndex)
	}
	for i := 0; i < 10; i++ {
		m = applyMsg(t, m, keyRune('j'))
	}
	if m.menuIndex != len(menuEntries)-1 {
		t.Fatalf("expected menu index to clamp at %d, got %d", len(menuEntries)-1, m.menuIndex)
	}

	next, cmd := m.Update(keyRune('q'))
	if cmd == nil {
		t.Fatal("expected quit command from q on the menu")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected quit message, got %T", cmd())
	}
	_ = next
}

func TestSampleFlowReachesResults(t *testing.T) {
	m := loadReadyModel(t, NewModel(newFakeService()))
	m = loadSample(t, m)

	rec, ok := m.selectedProject()
	if !ok {
		t.Fatal("expected a selected project after sample load")
	}
	if rec.Project.Name != "Software Development Project" {
		t.Fatalf("unexpected sample project name %q", rec.Project.Name)
	}
	if !rec.Analyzed() {
		t.Fatal("expected sample project to be analyzed")
	}
	if !strings.Contains(m.status, "loaded sample project") {
		t.Fatalf("unexpected status %q", m.status)
	}

	results := m.renderResults()
	if !strings.Contains(results, "A → B → C → D") {
		t.Fatalf("schedule view missing critical path:\n%s", results)
	}
	if !strings.Contains(results, "25.5") {
		t.Fatalf("schedule view missing total duration:\n%s", results)
	}
}

func TestCreateProjectWizard(t *testing.T) {
	m := loadReadyModel(t, NewModel(newFakeService()))

	m = applyMsg(t, m, keyRune('1'))
	if m.mode != modeUnitPicker {
		t.Fatalf("expected unit picker, got mode %v", m.mode)
	}
	if m.formKind != domain.EstimateSingle {
		t.Fatalf("expected single estimate kind, got %q", m.formKind)
	}
	if m.unitChoices[m.unitIndex] != timeunit.Days {
		t.Fatalf("expected default unit preselected, got %q", m.unitChoices[m.unitIndex])
	}

	m = applyMsg(t, m, keyEnter())
	if m.mode != modeProjectForm {
		t.Fatalf("expected project form after unit pick, got mode %v", m.mode)
	}
	if m.pendingUnit != timeunit.Days {
		t.Fatalf("unexpected pending unit %q", m.pendingUnit)
	}

	m = typeText(t, m, "Website Launch")
	m = applyMsg(t, m, keyEnter())
	if m.view != viewBoard {
		t.Fatalf("expected board view after create, got %v", m.view)
	}
	if m.mode != modeActivityForm {
		t.Fatalf("expected activity form to open for the first activity, got mode %v", m.mode)
	}
	if len(m.formInputs) != 4 {
		t.Fatalf("expected 4 single-estimate fields, got %d", len(m.formInputs))
	}
	rec, ok := m.selectedProject()
	if !ok || rec.Project.Name != "Website Launch" {
		t.Fatalf("expected created project to be selected, got %+v ok=%v", rec, ok)
	}

	m = typeText(t, m, "A")
	m = applyMsg(t, m, keyTab())
	m = typeText(t, m, "Design pages")
	m = applyMsg(t, m, keyTab())
	m = typeText(t, m, "3")
	m = applyMsg(t, m, keyEnter())

	if m.mode != modeActivityForm {
		t.Fatalf("expected form to stay open for the next activity, got mode %v", m.mode)
	}
	if m.status != "added activity A" {
		t.Fatalf("unexpected status %q", m.status)
	}
	if got := m.formInputs[0].Value(); got != "" {
		t.Fatalf("expected cleared form after submit, field holds %q", got)
	}

	m = typeText(t, m, "B")
	m = applyMsg(t, m, keyTab())
	m = typeText(t, m, "Write copy")
	m = applyMsg(t, m, keyTab())
	m = typeText(t, m, "2")
	m = applyMsg(t, m, keyTab())
	m = typeText(t, m, "A")
	m = applyMsg(t, m, keyEnter())
	m = applyMsg(t, m, keyEsc())

	if m.mode != modeNone {
		t.Fatalf("expected form closed after esc, got mode %v", m.mode)
	}
	rec, _ = m.selectedProject()
	if rec.Project.Len() != 2 {
		t.Fatalf("expected 2 activities, got %d", rec.Project.Len())
	}
	b, ok := rec.Project.Activity("B")
	if !ok {
		t.Fatal("expected activity B to exist")
	}
	if len(b.DependsOn) != 1 || b.DependsOn[0] != "A" {
		t.Fatalf("unexpected dependencies %v", b.DependsOn)
	}
}

func TestProjectFormValidation(t *testing.T) {
	m := loadReadyModel(t, NewModel(newFakeService()))
	m = applyMsg(t, m, keyRune('2'))
	m = applyMsg(t, m, keyEnter())
	if m.mode != modeProjectForm {
		t.Fatalf("expected project form, got mode %v", m.mode)
	}

	m = applyMsg(t, m, keyEnter())
	if m.status != "project name is required" {
		t.Fatalf("unexpected status %q", m.status)
	}
	if m.mode != modeProjectForm {
		t.Fatalf("expected to stay in the form, got mode %v", m.mode)
	}

	m = applyMsg(t, m, keyEsc())
	if m.mode != modeNone || m.status != "cancelled" {
		t.Fatalf("expected cancelled form, mode=%v status=%q", m.mode, m.status)
	}
}

func TestActivityFormValidation(t *testing.T) {
	m := loadReadyModel(t, NewModel(newFakeService()))
	m = applyMsg(t, m, keyRune('2'))
	m = applyMsg(t, m, keyEnter())
	m = typeText(t, m, "Rollout")
	m = applyMsg(t, m, keyEnter())
	if m.mode != modeActivityForm || len(m.formInputs) != 6 {
		t.Fatalf("expected three-point form with 6 fields, got mode=%v fields=%d", m.mode, len(m.formInputs))
	}

	m = applyMsg(t, m, keyEnter())
	if m.status != "activity id is required" {
		t.Fatalf("unexpected status %q", m.status)
	}

	m = typeText(t, m, "A")
	m = applyMsg(t, m, keyTab())
	m = applyMsg(t, m, keyTab())
	m = typeText(t, m, "fast")
	m = applyMsg(t, m, keyEnter())
	if !strings.Contains(m.status, "optimistic must be a number") {
		t.Fatalf("unexpected status %q", m.status)
	}

	// Service-side validation errors surface in the status line.
	m.formInputs[2].SetValue("7")
	m = applyMsg(t, m, keyTab())
	m = typeText(t, m, "5")
	m = applyMsg(t, m, keyTab())
	m = typeText(t, m, "9")
	m = applyMsg(t, m, keyEnter())
	if !strings.Contains(m.status, "error:") {
		t.Fatalf("expected estimate ordering error in status, got %q", m.status)
	}
	if m.mode != modeActivityForm {
		t.Fatalf("expected to stay in the form after a service error, got mode %v", m.mode)
	}
}

func TestActivityFormKindToggle(t *testing.T) {
	m := loadReadyModel(t, NewModel(newFakeService()))
	m = applyMsg(t, m, keyRune('2'))
	m = applyMsg(t, m, keyEnter())
	m = typeText(t, m, "Rollout")
	m = applyMsg(t, m, keyEnter())
	if len(m.formInputs) != 6 {
		t.Fatalf("expected 6 fields before toggle, got %d", len(m.formInputs))
	}

	m = applyMsg(t, m, tea.KeyPressMsg{Code: 't', Mod: tea.ModCtrl})
	if m.formKind != domain.EstimateSingle || len(m.formInputs) != 4 {
		t.Fatalf("expected single-estimate form after toggle, kind=%q fields=%d", m.formKind, len(m.formInputs))
	}

	m = applyMsg(t, m, tea.KeyPressMsg{Code: 't', Mod: tea.ModCtrl})
	if m.formKind != domain.EstimateThreePoint || len(m.formInputs) != 6 {
		t.Fatalf("expected three-point form after second toggle, kind=%q fields=%d", m.formKind, len(m.formInputs))
	}
}

func TestRunAnalysisFromBoard(t *testing.T) {
	svc := newFakeService()
	ctx := context.Background()
	rec, err := svc.Service.CreateProject(ctx, app.CreateProjectInput{Name: "Rollout"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if _, err := svc.Service.AddSingleEstimateActivity(ctx, app.AddSingleEstimateInput{
		ProjectID: rec.ID, ID: "A", Description: "Stage", Duration: 2,
	}); err != nil {
		t.Fatalf("AddSingleEstimateActivity: %v", err)
	}
	if _, err := svc.Service.AddSingleEstimateActivity(ctx, app.AddSingleEstimateInput{
		ProjectID: rec.ID, ID: "B", Description: "Ship", Duration: 3, DependsOn: []string{"A"},
	}); err != nil {
		t.Fatalf("AddSingleEstimateActivity: %v", err)
	}

	m := loadReadyModel(t, NewModel(svc))
	m.view = viewBoard
	m = applyMsg(t, m, keyRune('r'))
	if m.view != viewResults {
		t.Fatalf("expected results view after analysis, got %v", m.view)
	}
	if m.status != "analysis complete" {
		t.Fatalf("unexpected status %q", m.status)
	}
	results := m.renderResults()
	if !strings.Contains(results, "A → B") {
		t.Fatalf("schedule view missing critical path:\n%s", results)
	}
	if !strings.Contains(results, "5.0") {
		t.Fatalf("schedule view missing total duration:\n%s", results)
	}
}

func TestRunAnalysisErrorStaysOnBoard(t *testing.T) {
	svc := newFakeService()
	if _, err := svc.Service.CreateProject(context.Background(), app.CreateProjectInput{Name: "Empty"}); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	m := loadReadyModel(t, NewModel(svc))
	m.view = viewBoard
	m = applyMsg(t, m, keyRune('r'))
	if m.view != viewBoard {
		t.Fatalf("expected to stay on the board after a failed analysis, got %v", m.view)
	}
	if !strings.Contains(m.status, "error:") {
		t.Fatalf("expected error status, got %q", m.status)
	}
}

func TestDeletePickerRemovesActivity(t *testing.T) {
	m := loadReadyModel(t, NewModel(newFakeService()))
	m = loadSample(t, m)
	m = applyMsg(t, m, keyRune('q'))
	if m.view != viewBoard {
		t.Fatalf("expected board after q, got %v", m.view)
	}

	m = applyMsg(t, m, keyRune('x'))
	if m.mode != modeDeletePicker {
		t.Fatalf("expected delete picker, got mode %v", m.mode)
	}
	m = applyMsg(t, m, keyRune('j'))
	m = applyMsg(t, m, keyEnter())
	if m.status != "deleted activity B" {
		t.Fatalf("unexpected status %q", m.status)
	}
	rec, _ := m.selectedProject()
	if rec.Project.Len() != 3 {
		t.Fatalf("expected 3 activities after delete, got %d", rec.Project.Len())
	}
	if rec.Analyzed() {
		t.Fatal("expected delete to mark the schedule stale")
	}
}

func TestStatisticsFlow(t *testing.T) {
	m := loadReadyModel(t, NewModel(newFakeService()))
	m = loadSample(t, m)

	m = applyMsg(t, m, keyRune('s'))
	if m.mode != modeTargetForm {
		t.Fatalf("expected target form, got mode %v", m.mode)
	}
	m = typeText(t, m, "27")
	m = applyMsg(t, m, keyEnter())
	if m.view != viewStats {
		t.Fatalf("expected stats view, got %v", m.view)
	}
	if m.stats.Duration != 25.5 {
		t.Fatalf("unexpected expected duration %v", m.stats.Duration)
	}
	if m.stats.Probability == "" {
		t.Fatal("expected a probability band for a positive target")
	}

	stats := m.renderStats()
	if !strings.Contains(stats, "PERT Analysis") {
		t.Fatalf("stats view missing heading:\n%s", stats)
	}
}

func TestStatisticsTargetValidation(t *testing.T) {
	m := loadReadyModel(t, NewModel(newFakeService()))
	m = loadSample(t, m)

	m = applyMsg(t, m, keyRune('s'))
	m = typeText(t, m, "soon")
	m = applyMsg(t, m, keyEnter())
	if !strings.Contains(m.status, `target must be a number, got "soon"`) {
		t.Fatalf("unexpected status %q", m.status)
	}
	if m.mode != modeTargetForm {
		t.Fatalf("expected to stay in the target form, got mode %v", m.mode)
	}

	m = applyMsg(t, m, keyEsc())
	if m.mode != modeNone {
		t.Fatalf("expected closed form, got mode %v", m.mode)
	}
}

func TestStatisticsRequiresAnalysis(t *testing.T) {
	svc := newFakeService()
	if _, err := svc.Service.CreateProject(context.Background(), app.CreateProjectInput{Name: "Fresh"}); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	m := loadReadyModel(t, NewModel(svc))
	m.view = viewBoard
	m = applyMsg(t, m, keyRune('s'))
	if m.mode != modeNone {
		t.Fatalf("expected no target form without analysis, got mode %v", m.mode)
	}
	if m.status != "run the analysis before reading statistics" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestYankCopiesSchedule(t *testing.T) {
	m := loadReadyModel(t, NewModel(newFakeService()))
	m = loadSample(t, m)

	var copied string
	m.copyText = func(text string) error {
		copied = text
		return nil
	}
	m = applyMsg(t, m, keyRune('y'))
	if m.status != "copied schedule to clipboard" {
		t.Fatalf("unexpected status %q", m.status)
	}
	if !strings.Contains(copied, "Total project duration: 25.5 days") {
		t.Fatalf("copied text missing duration:\n%s", copied)
	}
	if strings.Contains(copied, "\x1b[") {
		t.Fatal("expected styling to be stripped from the copied text")
	}

	m.copyText = func(string) error { return errors.New("no display") }
	m = applyMsg(t, m, keyRune('y'))
	if !strings.Contains(m.status, "clipboard unavailable") {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestYankStatsCopiesMarkdown(t *testing.T) {
	m := loadReadyModel(t, NewModel(newFakeService()))
	m = loadSample(t, m)
	m = applyMsg(t, m, keyRune('s'))
	m = applyMsg(t, m, keyEnter())
	if m.view != viewStats {
		t.Fatalf("expected stats view, got %v", m.view)
	}

	var copied string
	m.copyText = func(text string) error {
		copied = text
		return nil
	}
	m = applyMsg(t, m, keyRune('y'))
	if m.status != "copied statistics to clipboard" {
		t.Fatalf("unexpected status %q", m.status)
	}
	if !strings.Contains(copied, "# PERT Analysis: Software Development Project") {
		t.Fatalf("copied text missing markdown heading:\n%s", copied)
	}
}

func TestUnitPickerChangesDisplayUnit(t *testing.T) {
	m := loadReadyModel(t, NewModel(newFakeService()))
	m = loadSample(t, m)

	m = applyMsg(t, m, keyRune('u'))
	if m.mode != modeUnitPicker || m.unitPurpose != unitPickerDisplay {
		t.Fatalf("expected display unit picker, mode=%v purpose=%v", m.mode, m.unitPurpose)
	}
	// Move from days to weeks.
	m = applyMsg(t, m, keyRune('j'))
	m = applyMsg(t, m, keyEnter())
	if m.reportOpts.Unit != timeunit.Weeks || !m.unitOverridden {
		t.Fatalf("expected weeks override, got %q overridden=%v", m.reportOpts.Unit, m.unitOverridden)
	}
	if m.status != "display unit: weeks" {
		t.Fatalf("unexpected status %q", m.status)
	}

	results := m.renderResults()
	if !strings.Contains(results, "weeks") {
		t.Fatalf("schedule view missing weeks unit:\n%s", results)
	}
}

func TestDisplayOptsFollowRecordUnit(t *testing.T) {
	m := NewModel(newFakeService())
	project, err := domain.NewProject("Rollout")
	if err != nil {
		t.Fatalf("NewProject: %v", err)
	}
	rec := app.ProjectRecord{ID: "p1", Project: project, Unit: timeunit.Hours}

	opts := m.displayOpts(rec)
	if opts.Unit != timeunit.Hours {
		t.Fatalf("expected record unit before override, got %q", opts.Unit)
	}

	m.reportOpts.Unit = timeunit.Weeks
	m.unitOverridden = true
	opts = m.displayOpts(rec)
	if opts.Unit != timeunit.Weeks {
		t.Fatalf("expected overridden unit, got %q", opts.Unit)
	}
}

func TestImportShowsUnavailable(t *testing.T) {
	m := loadReadyModel(t, NewModel(newFakeService()))
	m = applyMsg(t, m, keyRune('4'))
	if m.mode != modeImportForm {
		t.Fatalf("expected import form, got mode %v", m.mode)
	}

	m = applyMsg(t, m, keyEnter())
	if m.status != "file path is required" {
		t.Fatalf("unexpected status %q", m.status)
	}

	m = typeText(t, m, "plan.xlsx")
	m = applyMsg(t, m, keyEnter())
	if !strings.Contains(m.status, "not available yet") {
		t.Fatalf("unexpected status %q", m.status)
	}
	if m.mode != modeNone {
		t.Fatalf("expected closed form, got mode %v", m.mode)
	}
}

func TestHelpToggleAndReload(t *testing.T) {
	m := loadReadyModel(t, NewModel(newFakeService()))
	if m.help.ShowAll {
		t.Fatal("expected short help by default")
	}
	m = applyMsg(t, m, keyRune('?'))
	if !m.help.ShowAll {
		t.Fatal("expected full help after toggle")
	}
	m = applyMsg(t, m, keyRune('?'))
	if m.help.ShowAll {
		t.Fatal("expected short help after second toggle")
	}

	m = applyMsg(t, m, keyRune('R'))
	if m.err != nil {
		t.Fatalf("unexpected error after reload: %v", m.err)
	}
}

func TestViewNavigationKeys(t *testing.T) {
	m := loadReadyModel(t, NewModel(newFakeService()))
	m = loadSample(t, m)

	m = applyMsg(t, m, keyRune('s'))
	m = applyMsg(t, m, keyEnter())
	if m.view != viewStats {
		t.Fatalf("expected stats view, got %v", m.view)
	}
	m = applyMsg(t, m, keyRune('q'))
	if m.view != viewResults {
		t.Fatalf("expected schedule view after q, got %v", m.view)
	}
	m = applyMsg(t, m, keyEsc())
	if m.view != viewBoard {
		t.Fatalf("expected board after esc, got %v", m.view)
	}
	m = applyMsg(t, m, keyRune('q'))
	if m.view != viewMenu {
		t.Fatalf("expected menu after q, got %v", m.view)
	}
}

func TestBoardWithoutProject(t *testing.T) {
	m := loadReadyModel(t, NewModel(newFakeService()))
	m.view = viewBoard
	m = applyMsg(t, m, keyRune('a'))
	if m.status != "no project selected" {
		t.Fatalf("unexpected status %q", m.status)
	}
	m = applyMsg(t, m, keyRune('x'))
	if m.status != "no activities to delete" {
		t.Fatalf("unexpected status %q", m.status)
	}
	if !strings.Contains(m.renderBoard(), "No project selected.") {
		t.Fatal("expected empty board hint")
	}
}

func TestWindowBounds(t *testing.T) {
	cases := []struct {
		name     string
		total    int
		selected int
		window   int
		start    int
		end      int
	}{
		{"empty", 0, 0, 9, 0, 0},
		{"fits", 4, 2, 9, 0, 4},
		{"clamps low", 20, 0, 9, 0, 9},
		{"centers", 20, 10, 9, 6, 15},
		{"clamps high", 20, 19, 9, 11, 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end := windowBounds(tc.total, tc.selected, tc.window)
			if start != tc.start || end != tc.end {
				t.Fatalf("windowBounds(%d, %d, %d) = (%d, %d), expected (%d, %d)",
					tc.total, tc.selected, tc.window, start, end, tc.start, tc.end)
			}
		})
	}
}

func TestFitLines(t *testing.T) {
	if got := fitLines("a\nb\nc", 2); got != "a\n…" {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := fitLines("a", 3); got != "a\n\n" {
		t.Fatalf("unexpected padding %q", got)
	}
	if got := fitLines("a\nb", 0); got != "" {
		t.Fatalf("expected empty output for zero budget, got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("scheduling", 6); got != "sched…" {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := truncate("plan", 10); got != "plan" {
		t.Fatalf("expected unchanged string, got %q", got)
	}
	if got := truncate("plan", 0); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestParseDependencyList(t *testing.T) {
	if got := parseDependencyList(""); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
	got := parseDependencyList(" a, b ,, c ")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected dependency list %v", got)
	}
}
