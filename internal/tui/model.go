// Package tui implements the interactive terminal front end: a menu that
// builds projects through forms, a board with the estimate table, and views
// for the computed schedule and its statistics.
package tui

import (
	"context"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/x/ansi"

	"github.com/tautline/taut/internal/app"
	"github.com/tautline/taut/internal/domain"
	"github.com/tautline/taut/internal/pert"
	"github.com/tautline/taut/internal/report"
	"github.com/tautline/taut/internal/timeunit"
)

// Service represents service data used by this package.
type Service interface {
	DefaultUnit() timeunit.Unit
	Projects(context.Context) ([]app.ProjectRecord, error)
	CreateProject(context.Context, app.CreateProjectInput) (app.ProjectRecord, error)
	AddActivity(context.Context, app.AddActivityInput) (app.ProjectRecord, error)
	AddSingleEstimateActivity(context.Context, app.AddSingleEstimateInput) (app.ProjectRecord, error)
	RemoveActivity(context.Context, string, string) (app.ProjectRecord, error)
	RunAnalysis(context.Context, string) (app.ProjectRecord, error)
	Statistics(context.Context, string, float64) (pert.Summary, error)
	SampleProject(context.Context) (app.ProjectRecord, error)
	ImportProject(context.Context, string) (app.ProjectRecord, error)
}

// viewState represents a top-level screen.
type viewState int

// viewKeep and related constants define package defaults.
const (
	viewKeep viewState = iota
	viewMenu
	viewBoard
	viewResults
	viewStats
)

// inputMode represents a selectable mode.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeUnitPicker
	modeProjectForm
	modeActivityForm
	modeDeletePicker
	modeTargetForm
	modeImportForm
)

// unitPickerPurpose distinguishes picking a unit for a new project from
// changing the display unit of the current views.
type unitPickerPurpose int

const (
	unitPickerCreate unitPickerPurpose = iota
	unitPickerDisplay
)

var menuEntries = []string{
	"Enter project data (single time estimates)",
	"Enter project data (three-point estimates)",
	"Use the sample project",
	"Import activities from a spreadsheet",
	"Quit",
}

// loadedMsg carries the reloaded project list.
type loadedMsg struct {
	defaultUnit timeunit.Unit
	projects    []app.ProjectRecord
	err         error
}

// actionMsg reports the outcome of a service call made from a key handler.
type actionMsg struct {
	err       error
	status    string
	reload    bool
	projectID string
	goTo      viewState
}

// statsMsg carries a computed statistics summary.
type statsMsg struct {
	err     error
	summary pert.Summary
}

// Model represents model data used by this package.
type Model struct {
	svc Service

	ready  bool
	width  int
	height int

	err    error
	status string

	view viewState
	mode inputMode

	help help.Model
	keys keyMap

	projects   []app.ProjectRecord
	selectedID string

	defaultUnit    timeunit.Unit
	reportOpts     report.Options
	unitOverridden bool

	menuIndex int

	unitChoices []timeunit.Unit
	unitIndex   int
	unitPurpose unitPickerPurpose
	pendingUnit timeunit.Unit

	formKind       domain.EstimateKind
	formInputs     []textinput.Model
	formFocus      int
	openFormOnLoad bool

	nameInput   textinput.Model
	targetInput textinput.Model
	pathInput   textinput.Model

	deleteIndex int

	stats pert.Summary

	md       *markdownRenderer
	copyText func(string) error
}

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:         svc,
		status:      "loading...",
		help:        h,
		keys:        newKeyMap(),
		view:        viewMenu,
		reportOpts:  DefaultReportOptions(),
		formKind:    domain.EstimateThreePoint,
		nameInput:   newModalInput("", "project name", "", 120),
		targetInput: newModalInput("", "", "", 32),
		pathInput:   newModalInput("", "path to .xlsx or .csv", "", 512),
		md:          &markdownRenderer{},
		copyText:    clipboard.WriteAll,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return m.loadData
}

// loadData loads data.
func (m Model) loadData() tea.Msg {
	ctx := context.Background()
	projects, err := m.svc.Projects(ctx)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{defaultUnit: m.svc.DefaultUnit(), projects: projects}
}

// Update handles update.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.projects = msg.projects
		if msg.defaultUnit.Valid() {
			m.defaultUnit = msg.defaultUnit
		}
		if _, ok := m.findProject(m.selectedID); !ok {
			m.selectedID = ""
		}
		if m.selectedID == "" && len(m.projects) > 0 {
			m.selectedID = m.projects[len(m.projects)-1].ID
		}
		if m.status == "loading..." {
			m.status = "ready"
		}
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.status = "error: " + msg.err.Error()
			return m, nil
		}
		if msg.status != "" {
			m.status = msg.status
		}
		if msg.projectID != "" {
			m.selectedID = msg.projectID
		}
		if msg.goTo != viewKeep {
			m.view = msg.goTo
		}
		var cmds []tea.Cmd
		if m.openFormOnLoad && msg.projectID != "" {
			m.openFormOnLoad = false
			if cmd := m.startActivityForm(m.formKind, m.pendingUnit); cmd != nil {
				cmds = append(cmds, cmd)
			}
		} else if m.mode == modeActivityForm && msg.reload {
			// Keep the form open for the next activity.
			if cmd := m.resetActivityForm(); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
		if msg.reload {
			cmds = append(cmds, m.loadData)
		}
		return m, tea.Batch(cmds...)

	case statsMsg:
		if msg.err != nil {
			m.status = "error: " + msg.err.Error()
			return m, nil
		}
		m.stats = msg.summary
		m.view = viewStats
		m.status = "ready"
		return m, nil

	case tea.KeyPressMsg:
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		return m.handleNormalModeKey(msg)
	}
	return m, nil
}

// handleNormalModeKey handles key presses outside of form and picker modes.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch {
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.reload):
		return m, m.loadData
	}
	switch m.view {
	case viewMenu:
		return m.handleMenuKey(msg)
	case viewBoard:
		return m.handleBoardKey(msg)
	case viewResults:
		return m.handleResultsKey(msg)
	case viewStats:
		return m.handleStatsKey(msg)
	}
	return m, nil
}

// handleMenuKey handles menu key.
func (m Model) handleMenuKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "j", "down":
		m.menuIndex = clamp(m.menuIndex+1, 0, len(menuEntries)-1)
		return m, nil
	case "k", "up":
		m.menuIndex = clamp(m.menuIndex-1, 0, len(menuEntries)-1)
		return m, nil
	case "enter":
		return m.activateMenuEntry(m.menuIndex)
	case "1", "2", "3", "4", "5":
		return m.activateMenuEntry(int(msg.String()[0] - '1'))
	}
	return m, nil
}

// activateMenuEntry runs one menu entry.
func (m Model) activateMenuEntry(idx int) (tea.Model, tea.Cmd) {
	switch idx {
	case 0:
		m.formKind = domain.EstimateSingle
		m.startUnitPicker(unitPickerCreate)
		return m, nil
	case 1:
		m.formKind = domain.EstimateThreePoint
		m.startUnitPicker(unitPickerCreate)
		return m, nil
	case 2:
		m.formKind = domain.EstimateThreePoint
		m.status = "loading sample project..."
		return m, m.loadSampleCmd()
	case 3:
		m.mode = modeImportForm
		m.pathInput.SetValue("")
		return m, m.pathInput.Focus()
	case 4:
		return m, tea.Quit
	}
	return m, nil
}

// loadSampleCmd loads the bundled sample project and analyzes it so the
// schedule view has something to show right away.
func (m Model) loadSampleCmd() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		rec, err := m.svc.SampleProject(ctx)
		if err != nil {
			return actionMsg{err: err}
		}
		rec, err = m.svc.RunAnalysis(ctx, rec.ID)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{
			status:    fmt.Sprintf("loaded sample project %q", rec.Project.Name),
			reload:    true,
			projectID: rec.ID,
			goTo:      viewResults,
		}
	}
}

// handleBoardKey handles board key.
func (m Model) handleBoardKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.view = viewMenu
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.quit):
		m.view = viewMenu
		return m, nil
	case key.Matches(msg, m.keys.addActivity):
		rec, ok := m.selectedProject()
		if !ok {
			m.status = "no project selected"
			return m, nil
		}
		return m, m.startActivityForm(m.formKind, rec.Unit)
	case key.Matches(msg, m.keys.deleteActivity):
		rec, ok := m.selectedProject()
		if !ok || rec.Project.Len() == 0 {
			m.status = "no activities to delete"
			return m, nil
		}
		m.mode = modeDeletePicker
		m.deleteIndex = 0
		return m, nil
	case key.Matches(msg, m.keys.runAnalysis):
		return m.runAnalysis()
	case key.Matches(msg, m.keys.statistics):
		return m.startStatistics()
	case key.Matches(msg, m.keys.yank):
		return m.yankSchedule()
	case key.Matches(msg, m.keys.changeUnit):
		m.startUnitPicker(unitPickerDisplay)
		return m, nil
	}
	return m, nil
}

// handleResultsKey handles results key.
func (m Model) handleResultsKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.view = viewBoard
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.quit):
		m.view = viewBoard
		return m, nil
	case key.Matches(msg, m.keys.runAnalysis):
		return m.runAnalysis()
	case key.Matches(msg, m.keys.statistics):
		return m.startStatistics()
	case key.Matches(msg, m.keys.yank):
		return m.yankSchedule()
	case key.Matches(msg, m.keys.changeUnit):
		m.startUnitPicker(unitPickerDisplay)
		return m, nil
	}
	return m, nil
}

// handleStatsKey handles stats key.
func (m Model) handleStatsKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.view = viewResults
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.quit):
		m.view = viewResults
		return m, nil
	case key.Matches(msg, m.keys.statistics):
		return m.startStatistics()
	case key.Matches(msg, m.keys.yank):
		return m.yankStats()
	case key.Matches(msg, m.keys.changeUnit):
		m.startUnitPicker(unitPickerDisplay)
		return m, nil
	}
	return m, nil
}

// runAnalysis kicks off the schedule computation for the selected project.
func (m Model) runAnalysis() (tea.Model, tea.Cmd) {
	rec, ok := m.selectedProject()
	if !ok {
		m.status = "no project selected"
		return m, nil
	}
	projectID := rec.ID
	m.status = "running analysis..."
	return m, func() tea.Msg {
		rec, err := m.svc.RunAnalysis(context.Background(), projectID)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{
			status:    "analysis complete",
			reload:    true,
			projectID: rec.ID,
			goTo:      viewResults,
		}
	}
}

// startStatistics opens the target prompt for the statistics view.
func (m Model) startStatistics() (tea.Model, tea.Cmd) {
	rec, ok := m.selectedProject()
	if !ok {
		m.status = "no project selected"
		return m, nil
	}
	if !rec.Analyzed() {
		m.status = "run the analysis before reading statistics"
		return m, nil
	}
	m.mode = modeTargetForm
	m.targetInput = newModalInput("", fmt.Sprintf("target duration in %s (optional)", rec.Unit), "", 32)
	return m, m.targetInput.Focus()
}

// yankSchedule copies the current table to the system clipboard, stripped of
// styling so it pastes as plain text.
func (m Model) yankSchedule() (tea.Model, tea.Cmd) {
	rec, ok := m.selectedProject()
	if !ok {
		m.status = "no project selected"
		return m, nil
	}
	var summary string
	if rec.Analyzed() {
		summary = report.ScheduleTable(rec.Project, m.displayOpts(rec))
	} else {
		summary = report.ActivityTable(rec.Project, m.displayOpts(rec))
	}
	if err := m.copyText(ansi.Strip(summary)); err != nil {
		m.status = "clipboard unavailable: " + err.Error()
		return m, nil
	}
	m.status = "copied schedule to clipboard"
	return m, nil
}

// yankStats copies the statistics markdown to the system clipboard.
func (m Model) yankStats() (tea.Model, tea.Cmd) {
	rec, ok := m.selectedProject()
	if !ok {
		m.status = "no project selected"
		return m, nil
	}
	markdown := report.StatsMarkdown(rec.Project.Name, m.stats, m.displayOpts(rec))
	if err := m.copyText(markdown); err != nil {
		m.status = "clipboard unavailable: " + err.Error()
		return m, nil
	}
	m.status = "copied statistics to clipboard"
	return m, nil
}

// handleInputModeKey handles input mode key.
func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeUnitPicker:
		return m.handleUnitPickerKey(msg)
	case modeProjectForm:
		return m.handleProjectFormKey(msg)
	case modeActivityForm:
		return m.handleActivityFormKey(msg)
	case modeDeletePicker:
		return m.handleDeletePickerKey(msg)
	case modeTargetForm:
		return m.handleTargetFormKey(msg)
	case modeImportForm:
		return m.handleImportFormKey(msg)
	}
	return m, nil
}

// startUnitPicker opens the time unit picker, preselecting the unit the
// purpose implies.
func (m *Model) startUnitPicker(purpose unitPickerPurpose) {
	m.mode = modeUnitPicker
	m.unitPurpose = purpose
	m.unitChoices = timeunit.Units()
	preselect := m.reportOpts.Unit
	if purpose == unitPickerCreate && m.defaultUnit.Valid() {
		preselect = m.defaultUnit
	}
	m.unitIndex = 0
	for i, u := range m.unitChoices {
		if u == preselect {
			m.unitIndex = i
			break
		}
	}
}

// handleUnitPickerKey handles unit picker key.
func (m Model) handleUnitPickerKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "esc":
		m.mode = modeNone
		m.status = "cancelled"
		return m, nil
	case msg.String() == "j" || msg.String() == "down":
		m.unitIndex = clamp(m.unitIndex+1, 0, len(m.unitChoices)-1)
		return m, nil
	case msg.String() == "k" || msg.String() == "up":
		m.unitIndex = clamp(m.unitIndex-1, 0, len(m.unitChoices)-1)
		return m, nil
	case msg.Code == tea.KeyEnter || msg.String() == "enter":
		if len(m.unitChoices) == 0 {
			m.mode = modeNone
			return m, nil
		}
		unit := m.unitChoices[clamp(m.unitIndex, 0, len(m.unitChoices)-1)]
		if m.unitPurpose == unitPickerDisplay {
			m.reportOpts.Unit = unit
			m.unitOverridden = true
			m.mode = modeNone
			m.status = "display unit: " + unit.String()
			return m, nil
		}
		m.pendingUnit = unit
		m.mode = modeProjectForm
		m.nameInput = newModalInput("", "project name", "", 120)
		return m, m.nameInput.Focus()
	}
	return m, nil
}

// handleProjectFormKey handles project form key.
func (m Model) handleProjectFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "esc":
		m.mode = modeNone
		m.nameInput.Blur()
		m.status = "cancelled"
		return m, nil
	case msg.Code == tea.KeyEnter || msg.String() == "enter":
		name := strings.TrimSpace(m.nameInput.Value())
		if name == "" {
			m.status = "project name is required"
			return m, nil
		}
		in := app.CreateProjectInput{Name: name, Unit: m.pendingUnit}
		m.mode = modeNone
		m.nameInput.Blur()
		m.openFormOnLoad = true
		return m, func() tea.Msg {
			rec, err := m.svc.CreateProject(context.Background(), in)
			if err != nil {
				return actionMsg{err: err}
			}
			return actionMsg{
				status:    fmt.Sprintf("created project %q", rec.Project.Name),
				reload:    true,
				projectID: rec.ID,
				goTo:      viewBoard,
			}
		}
	}
	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

// activityFormLabels returns the field labels for one estimate kind.
func activityFormLabels(kind domain.EstimateKind) []string {
	if kind == domain.EstimateSingle {
		return []string{"ID", "Description", "Duration", "Depends On"}
	}
	return []string{"ID", "Description", "Optimistic", "Most Likely", "Pessimistic", "Depends On"}
}

// activityFormPlaceholders returns the placeholder texts for one estimate kind.
func activityFormPlaceholders(kind domain.EstimateKind, unit timeunit.Unit) []string {
	deps := "comma-separated ids (optional)"
	if kind == domain.EstimateSingle {
		return []string{"short id, e.g. A", "what this step does", "duration in " + unit.String(), deps}
	}
	return []string{
		"short id, e.g. A",
		"what this step does",
		"best case in " + unit.String(),
		"most likely in " + unit.String(),
		"worst case in " + unit.String(),
		deps,
	}
}

// startActivityForm opens a blank activity form for the given estimate kind.
func (m *Model) startActivityForm(kind domain.EstimateKind, unit timeunit.Unit) tea.Cmd {
	m.mode = modeActivityForm
	m.formKind = kind
	labels := activityFormLabels(kind)
	placeholders := activityFormPlaceholders(kind, unit)
	inputs := make([]textinput.Model, len(labels))
	for i := range labels {
		limit := 64
		if labels[i] == "Description" {
			limit = 200
		}
		inputs[i] = newModalInput("", placeholders[i], "", limit)
	}
	m.formInputs = inputs
	return m.focusFormField(0)
}

// resetActivityForm clears the form values so the next activity can be typed
// without reopening the form.
func (m *Model) resetActivityForm() tea.Cmd {
	for i := range m.formInputs {
		m.formInputs[i].SetValue("")
	}
	return m.focusFormField(0)
}

// focusFormField focuses one form field and blurs the rest.
func (m *Model) focusFormField(idx int) tea.Cmd {
	if len(m.formInputs) == 0 {
		return nil
	}
	idx = clamp(idx, 0, len(m.formInputs)-1)
	m.formFocus = idx
	for i := range m.formInputs {
		m.formInputs[i].Blur()
	}
	return m.formInputs[idx].Focus()
}

// handleActivityFormKey handles activity form key.
func (m Model) handleActivityFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if len(m.formInputs) == 0 {
		m.mode = modeNone
		return m, nil
	}
	switch {
	case msg.String() == "esc":
		m.mode = modeNone
		m.formInputs = nil
		m.status = "cancelled"
		return m, nil
	case msg.String() == "ctrl+t":
		rec, ok := m.selectedProject()
		unit := m.pendingUnit
		if ok {
			unit = rec.Unit
		}
		kind := domain.EstimateThreePoint
		if m.formKind == domain.EstimateThreePoint {
			kind = domain.EstimateSingle
		}
		m.status = "switched to " + string(kind) + " estimates"
		return m, m.startActivityForm(kind, unit)
	case msg.Code == tea.KeyTab || msg.String() == "tab" || msg.String() == "ctrl+i" || msg.String() == "down":
		return m, m.focusFormField(m.formFocus + 1)
	case msg.String() == "shift+tab" || msg.String() == "backtab" || msg.String() == "up":
		return m, m.focusFormField(m.formFocus - 1)
	case msg.Code == tea.KeyEnter || msg.String() == "enter":
		return m.submitActivityForm()
	}
	m.formFocus = clamp(m.formFocus, 0, len(m.formInputs)-1)
	var cmd tea.Cmd
	m.formInputs[m.formFocus], cmd = m.formInputs[m.formFocus].Update(msg)
	return m, cmd
}

// submitActivityForm validates the form values and dispatches the add.
func (m Model) submitActivityForm() (tea.Model, tea.Cmd) {
	rec, ok := m.selectedProject()
	if !ok {
		m.mode = modeNone
		m.formInputs = nil
		m.status = "no project selected"
		return m, nil
	}
	values := make([]string, len(m.formInputs))
	for i, in := range m.formInputs {
		values[i] = strings.TrimSpace(in.Value())
	}
	id := values[0]
	if id == "" {
		m.status = "activity id is required"
		return m, nil
	}
	description := values[1]
	deps := parseDependencyList(values[len(values)-1])

	if m.formKind == domain.EstimateSingle {
		duration, err := parseEstimate(values[2], "duration")
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		in := app.AddSingleEstimateInput{
			ProjectID:   rec.ID,
			ID:          id,
			Description: description,
			Duration:    duration,
			DependsOn:   deps,
		}
		return m, func() tea.Msg {
			rec, err := m.svc.AddSingleEstimateActivity(context.Background(), in)
			if err != nil {
				return actionMsg{err: err}
			}
			return actionMsg{status: "added activity " + in.ID, reload: true, projectID: rec.ID}
		}
	}

	optimistic, err := parseEstimate(values[2], "optimistic")
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	mostLikely, err := parseEstimate(values[3], "most likely")
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	pessimistic, err := parseEstimate(values[4], "pessimistic")
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	in := app.AddActivityInput{
		ProjectID:   rec.ID,
		ID:          id,
		Description: description,
		Optimistic:  optimistic,
		MostLikely:  mostLikely,
		Pessimistic: pessimistic,
		DependsOn:   deps,
	}
	return m, func() tea.Msg {
		rec, err := m.svc.AddActivity(context.Background(), in)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "added activity " + in.ID, reload: true, projectID: rec.ID}
	}
}

// handleDeletePickerKey handles delete picker key.
func (m Model) handleDeletePickerKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	rec, ok := m.selectedProject()
	if !ok {
		m.mode = modeNone
		return m, nil
	}
	acts := rec.Project.Activities()
	switch {
	case msg.String() == "esc":
		m.mode = modeNone
		m.status = "cancelled"
		return m, nil
	case msg.String() == "j" || msg.String() == "down":
		m.deleteIndex = clamp(m.deleteIndex+1, 0, len(acts)-1)
		return m, nil
	case msg.String() == "k" || msg.String() == "up":
		m.deleteIndex = clamp(m.deleteIndex-1, 0, len(acts)-1)
		return m, nil
	case msg.Code == tea.KeyEnter || msg.String() == "enter":
		if len(acts) == 0 {
			m.mode = modeNone
			return m, nil
		}
		target := acts[clamp(m.deleteIndex, 0, len(acts)-1)]
		projectID := rec.ID
		activityID := target.ID
		m.mode = modeNone
		return m, func() tea.Msg {
			rec, err := m.svc.RemoveActivity(context.Background(), projectID, activityID)
			if err != nil {
				return actionMsg{err: err}
			}
			return actionMsg{status: "deleted activity " + activityID, reload: true, projectID: rec.ID}
		}
	}
	return m, nil
}

// handleTargetFormKey handles target form key.
func (m Model) handleTargetFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "esc":
		m.mode = modeNone
		m.targetInput.Blur()
		m.status = "cancelled"
		return m, nil
	case msg.Code == tea.KeyEnter || msg.String() == "enter":
		rec, ok := m.selectedProject()
		if !ok {
			m.mode = modeNone
			m.status = "no project selected"
			return m, nil
		}
		target := 0.0
		if raw := strings.TrimSpace(m.targetInput.Value()); raw != "" {
			parsed, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				m.status = fmt.Sprintf("target must be a number, got %q", raw)
				return m, nil
			}
			target = parsed
		}
		projectID := rec.ID
		m.mode = modeNone
		m.targetInput.Blur()
		return m, func() tea.Msg {
			sum, err := m.svc.Statistics(context.Background(), projectID, target)
			if err != nil {
				return statsMsg{err: err}
			}
			return statsMsg{summary: sum}
		}
	}
	var cmd tea.Cmd
	m.targetInput, cmd = m.targetInput.Update(msg)
	return m, cmd
}

// handleImportFormKey handles import form key.
func (m Model) handleImportFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "esc":
		m.mode = modeNone
		m.pathInput.Blur()
		m.status = "cancelled"
		return m, nil
	case msg.Code == tea.KeyEnter || msg.String() == "enter":
		path := strings.TrimSpace(m.pathInput.Value())
		if path == "" {
			m.status = "file path is required"
			return m, nil
		}
		m.mode = modeNone
		m.pathInput.Blur()
		return m, func() tea.Msg {
			if _, err := m.svc.ImportProject(context.Background(), path); err != nil {
				return actionMsg{err: err}
			}
			return actionMsg{status: "imported " + path, reload: true}
		}
	}
	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

// parseEstimate parses one required numeric form value.
func parseEstimate(raw, field string) (float64, error) {
	if raw == "" {
		return 0, fmt.Errorf("%s estimate is required", field)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", field, raw)
	}
	return v, nil
}

// parseDependencyList splits a comma-separated id list, dropping blanks.
func parseDependencyList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	deps := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			deps = append(deps, trimmed)
		}
	}
	return deps
}

// selectedProject returns the record the views operate on.
func (m Model) selectedProject() (app.ProjectRecord, bool) {
	return m.findProject(m.selectedID)
}

func (m Model) findProject(id string) (app.ProjectRecord, bool) {
	if id == "" {
		return app.ProjectRecord{}, false
	}
	for _, rec := range m.projects {
		if rec.ID == id {
			return rec, true
		}
	}
	return app.ProjectRecord{}, false
}

// displayOpts returns the report options for one record. Until the user
// overrides the display unit, tables follow the unit the project was
// created with.
func (m Model) displayOpts(rec app.ProjectRecord) report.Options {
	opts := m.reportOpts
	if !m.unitOverridden || !opts.Unit.Valid() {
		opts.Unit = rec.Unit
	}
	return opts
}

// viewLabel names the current screen for the header.
func (m Model) viewLabel() string {
	switch m.view {
	case viewMenu:
		return "menu"
	case viewBoard:
		return "board"
	case viewResults:
		return "schedule"
	case viewStats:
		return "statistics"
	}
	return ""
}

// View handles view.
func (m Model) View() tea.View {
	if m.err != nil {
		v := tea.NewView("error: " + m.err.Error() + "\n\npress R to retry • q quit\n")
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}
	if !m.ready {
		v := tea.NewView("loading...")
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}

	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	var body string
	switch m.view {
	case viewBoard:
		body = m.renderBoard()
	case viewResults:
		body = m.renderResults()
	case viewStats:
		body = m.renderStats()
	default:
		body = m.renderMenu()
	}

	sections := []string{body}
	if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		sections = append(sections, "", statusStyle.Render(m.status))
	}
	content := strings.Join(sections, "\n")

	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))
	if m.height > 0 {
		helpHeight := lipgloss.Height(helpLine)
		content = fitLines(content, max(0, m.height-helpHeight))
	}
	fullContent := content + "\n" + helpLine
	if overlay := m.renderModeOverlay(accent, muted, m.width-8); overlay != "" {
		overlayHeight := lipgloss.Height(fullContent)
		if m.height > 0 {
			overlayHeight = m.height
		}
		fullContent = overlayOnContent(fullContent, overlay, max(1, m.width), max(1, overlayHeight))
	}
	v := tea.NewView(fullContent)
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// renderMenu renders the start menu.
func (m Model) renderMenu() string {
	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	itemStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	selStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	hintStyle := lipgloss.NewStyle().Foreground(muted)

	lines := []string{
		titleStyle.Render("taut"),
		hintStyle.Render("project scheduling with the critical path method"),
		"",
	}
	for i, entry := range menuEntries {
		prefix := "  "
		style := itemStyle
		if i == m.menuIndex {
			prefix = "› "
			style = selStyle
		}
		lines = append(lines, style.Render(fmt.Sprintf("%s%d. %s", prefix, i+1, entry)))
	}
	lines = append(lines, "", hintStyle.Render("j/k move • enter select • 1-5 jump • q quit"))
	if len(m.projects) > 0 {
		lines = append(lines, hintStyle.Render(fmt.Sprintf("%d project(s) in memory", len(m.projects))))
	}
	return strings.Join(lines, "\n")
}

// renderHeader renders the one-line header above the board and result views.
func (m Model) renderHeader(rec app.ProjectRecord) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))

	header := titleStyle.Render("taut") + "  " + rec.Project.Name
	header += statusStyle.Render("  [" + m.viewLabel() + "]")
	header += statusStyle.Render("  unit: " + m.displayOpts(rec).Unit.String())
	if rec.Analyzed() {
		header += statusStyle.Render("  analyzed " + rec.AnalyzedAt.Format("15:04:05"))
	} else {
		header += statusStyle.Render("  not analyzed")
	}
	return header
}

// renderBoard renders the activity table for the selected project.
func (m Model) renderBoard() string {
	muted := lipgloss.Color("241")
	hintStyle := lipgloss.NewStyle().Foreground(muted)

	rec, ok := m.selectedProject()
	if !ok {
		return strings.Join([]string{
			lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")).Render("taut"),
			"",
			"No project selected.",
			"Press q for the menu.",
		}, "\n")
	}

	sections := []string{m.renderHeader(rec), ""}
	if rec.Project.Len() == 0 {
		sections = append(sections, "No activities yet.", "Press a to add the first activity.")
	} else {
		sections = append(sections, report.ActivityTable(rec.Project, m.displayOpts(rec)))
	}
	sections = append(sections, "", hintStyle.Render("a add • x delete • r analyze • s statistics • y copy • u unit • q menu"))
	return strings.Join(sections, "\n")
}

// renderResults renders the analyzed schedule table.
func (m Model) renderResults() string {
	muted := lipgloss.Color("241")
	hintStyle := lipgloss.NewStyle().Foreground(muted)

	rec, ok := m.selectedProject()
	if !ok || !rec.Analyzed() {
		return strings.Join([]string{
			lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")).Render("taut"),
			"",
			"No analyzed schedule.",
			"Press r on the board to run the analysis.",
		}, "\n")
	}

	sections := []string{
		m.renderHeader(rec),
		"",
		report.ScheduleTable(rec.Project, m.displayOpts(rec)),
		"",
		hintStyle.Render("s statistics • y copy • u unit • q board"),
	}
	return strings.Join(sections, "\n")
}

// renderStats renders the statistics markdown through glamour.
func (m Model) renderStats() string {
	muted := lipgloss.Color("241")
	hintStyle := lipgloss.NewStyle().Foreground(muted)

	rec, ok := m.selectedProject()
	if !ok {
		return "No project selected."
	}

	markdown := report.StatsMarkdown(rec.Project.Name, m.stats, m.displayOpts(rec))
	sections := []string{
		m.renderHeader(rec),
		"",
		m.md.render(markdown, max(0, m.width-4)),
		"",
		hintStyle.Render("s retarget • y copy • u unit • q schedule"),
	}
	return strings.Join(sections, "\n")
}

// renderModeOverlay renders the overlay for the active input mode.
func (m Model) renderModeOverlay(accent, muted color.Color, maxWidth int) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	hintStyle := lipgloss.NewStyle().Foreground(muted)

	switch m.mode {
	case modeUnitPicker:
		if maxWidth > 0 {
			boxStyle = boxStyle.Width(clamp(maxWidth, 36, 64))
		}
		title := "Time Unit"
		if m.unitPurpose == unitPickerDisplay {
			title = "Display Unit"
		}
		lines := []string{titleStyle.Render(title)}
		for i, u := range m.unitChoices {
			prefix := "  "
			style := lipgloss.NewStyle()
			if i == m.unitIndex {
				prefix = "› "
				style = lipgloss.NewStyle().Bold(true).Foreground(accent)
			}
			lines = append(lines, style.Render(prefix+u.String()))
		}
		lines = append(lines, hintStyle.Render("j/k move • enter select • esc cancel"))
		return boxStyle.Render(strings.Join(lines, "\n"))

	case modeProjectForm:
		if maxWidth > 0 {
			boxStyle = boxStyle.Width(clamp(maxWidth, 44, 80))
		}
		in := m.nameInput
		in.SetWidth(max(18, clamp(maxWidth, 44, 80)-20))
		lines := []string{
			titleStyle.Render("New Project"),
			lipgloss.NewStyle().Foreground(muted).Render(fmt.Sprintf("%-12s", "Name:")) + " " + in.View(),
			hintStyle.Render("unit: " + m.pendingUnit.String() + " • estimates: " + string(m.formKind)),
			hintStyle.Render("enter create • esc cancel"),
		}
		return boxStyle.Render(strings.Join(lines, "\n"))

	case modeActivityForm:
		if maxWidth > 0 {
			boxStyle = boxStyle.Width(clamp(maxWidth, 52, 96))
		}
		title := "Add Activity (three-point estimates)"
		toggleHint := "ctrl+t use a single estimate instead"
		if m.formKind == domain.EstimateSingle {
			title = "Add Activity (single estimate)"
			toggleHint = "ctrl+t use three-point estimates instead"
		}
		lines := []string{titleStyle.Render(title)}
		labels := activityFormLabels(m.formKind)
		fieldWidth := max(18, clamp(maxWidth, 52, 96)-28)
		for i, in := range m.formInputs {
			label := fmt.Sprintf("%d.", i+1)
			if i < len(labels) {
				label = labels[i]
			}
			labelStyle := lipgloss.NewStyle().Foreground(muted)
			if i == m.formFocus {
				labelStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
			}
			in.SetWidth(fieldWidth)
			lines = append(lines, labelStyle.Render(fmt.Sprintf("%-12s", label+":"))+" "+in.View())
		}
		lines = append(lines,
			hintStyle.Render("tab next • shift+tab prev • enter add • esc close"),
			hintStyle.Render(toggleHint),
		)
		return boxStyle.Render(strings.Join(lines, "\n"))

	case modeDeletePicker:
		if maxWidth > 0 {
			boxStyle = boxStyle.Width(clamp(maxWidth, 44, 80))
		}
		lines := []string{titleStyle.Render("Delete Activity")}
		rec, ok := m.selectedProject()
		if !ok || rec.Project.Len() == 0 {
			lines = append(lines, hintStyle.Render("(no activities)"))
		} else {
			acts := rec.Project.Activities()
			const deleteWindowSize = 9
			start, end := windowBounds(len(acts), m.deleteIndex, deleteWindowSize)
			for idx := start; idx < end; idx++ {
				a := acts[idx]
				prefix := "  "
				style := lipgloss.NewStyle()
				if idx == m.deleteIndex {
					prefix = "› "
					style = lipgloss.NewStyle().Bold(true).Foreground(accent)
				}
				lines = append(lines, style.Render(fmt.Sprintf("%s%s  %s", prefix, a.ID, truncate(a.Description, 42))))
			}
			if len(acts) > deleteWindowSize {
				lines = append(lines, hintStyle.Render(fmt.Sprintf("showing %d-%d of %d", start+1, end, len(acts))))
			}
		}
		lines = append(lines, hintStyle.Render("j/k move • enter delete • esc cancel"))
		return boxStyle.Render(strings.Join(lines, "\n"))

	case modeTargetForm:
		if maxWidth > 0 {
			boxStyle = boxStyle.Width(clamp(maxWidth, 44, 80))
		}
		in := m.targetInput
		in.SetWidth(max(18, clamp(maxWidth, 44, 80)-20))
		lines := []string{
			titleStyle.Render("PERT Statistics"),
			lipgloss.NewStyle().Foreground(muted).Render(fmt.Sprintf("%-12s", "Target:")) + " " + in.View(),
			hintStyle.Render("enter compute • esc cancel • empty target skips probability"),
		}
		return boxStyle.Render(strings.Join(lines, "\n"))

	case modeImportForm:
		if maxWidth > 0 {
			boxStyle = boxStyle.Width(clamp(maxWidth, 44, 88))
		}
		in := m.pathInput
		in.SetWidth(max(18, clamp(maxWidth, 44, 88)-20))
		lines := []string{
			titleStyle.Render("Import Activities"),
			lipgloss.NewStyle().Foreground(muted).Render(fmt.Sprintf("%-12s", "File:")) + " " + in.View(),
			hintStyle.Render("enter import • esc cancel"),
		}
		return boxStyle.Render(strings.Join(lines, "\n"))
	}
	return ""
}

// newModalInput constructs a text input for modal forms.
func newModalInput(prompt, placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = limit
	if value != "" {
		in.SetValue(value)
	}
	return in
}

// windowBounds returns the half-open slice window to render so the selected
// index stays visible.
func windowBounds(total, selected, windowSize int) (int, int) {
	if total <= 0 || windowSize <= 0 {
		return 0, 0
	}
	if total <= windowSize {
		return 0, total
	}
	selected = clamp(selected, 0, total-1)
	half := windowSize / 2
	start := selected - half
	if start < 0 {
		start = 0
	}
	end := start + windowSize
	if end > total {
		end = total
		start = max(0, end-windowSize)
	}
	return start, end
}

func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent overlays on content.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centeredOverlay := lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlay,
	)
	overlayLayer := lipgloss.NewLayer(centeredOverlay).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}

// truncate truncates the requested operation.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}
