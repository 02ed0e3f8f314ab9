// Package report renders project tables and schedule statistics for
// terminal output.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/tautline/taut/internal/cpm"
	"github.com/tautline/taut/internal/domain"
	"github.com/tautline/taut/internal/pert"
	"github.com/tautline/taut/internal/timeunit"
)

// Options selects the display unit and which statistic sections to render.
type Options struct {
	Unit         timeunit.Unit
	Decimals     int
	ShowVariance bool
	ShowRisk     bool
}

func (o Options) unit() timeunit.Unit {
	if o.Unit.Valid() {
		return o.Unit
	}
	return timeunit.Default
}

func (o Options) decimals() int {
	if o.Decimals < 0 {
		return 0
	}
	return o.Decimals
}

var (
	tableBorderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230"))
	criticalStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	footerStyle      = lipgloss.NewStyle().Faint(true)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorderStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == 0 {
				return tableHeaderStyle
			}
			return lipgloss.NewStyle()
		})
}

// ActivityTable renders the estimate summary of every activity in insertion
// order, converted to the display unit. A project entered entirely with
// single estimates gets one Duration column; any three-point activity brings
// the full estimate spread.
func ActivityTable(p *domain.Project, opts Options) string {
	acts := p.Activities()
	if allSingleEstimate(acts) {
		t := newTable("ID", "Description", "Duration", "Dependencies")
		for _, a := range acts {
			t.Row(a.ID, a.Description, formatTime(a.ExpectedTime, opts), dependencyList(a))
		}
		return t.Render() + "\n" + unitFooter(opts)
	}

	t := newTable("ID", "Description", "Opt", "ML", "Pess", "Expected", "Std Dev", "Dependencies")
	for _, a := range acts {
		t.Row(
			a.ID,
			a.Description,
			formatTime(a.Optimistic, opts),
			formatTime(a.MostLikely, opts),
			formatTime(a.Pessimistic, opts),
			formatTime(a.ExpectedTime, opts),
			formatTime(a.StdDev, opts),
			dependencyList(a),
		)
	}
	return t.Render() + "\n" + unitFooter(opts)
}

func allSingleEstimate(acts []*domain.Activity) bool {
	if len(acts) == 0 {
		return false
	}
	for _, a := range acts {
		if a.Kind != domain.EstimateSingle {
			return false
		}
	}
	return true
}

func dependencyList(a *domain.Activity) string {
	if len(a.DependsOn) == 0 {
		return "None"
	}
	return strings.Join(a.DependsOn, ", ")
}

// ScheduleTable renders the analyzed schedule sorted by early start, with the
// critical path and total duration below it. Negative near-zero starts and
// slack are clamped for display the way the engine clamps slack.
func ScheduleTable(p *domain.Project, opts Options) string {
	acts := p.Activities()
	sort.SliceStable(acts, func(i, j int) bool {
		return acts[i].EarlyStart < acts[j].EarlyStart
	})

	critical := map[string]bool{}
	ids := make([]string, 0)
	for _, a := range cpm.CriticalPath(p) {
		critical[a.ID] = true
		ids = append(ids, a.ID)
	}

	t := newTable("ID", "Description", "ES", "EF", "LS", "LF", "Slack", "Critical")
	for _, a := range acts {
		mark := "NO"
		if critical[a.ID] {
			mark = "YES"
		}
		t.Row(
			a.ID,
			a.Description,
			formatTime(clampZero(a.EarlyStart), opts),
			formatTime(a.EarlyFinish, opts),
			formatTime(clampZero(a.LateStart), opts),
			formatTime(a.LateFinish, opts),
			formatTime(clampZero(a.Slack), opts),
			mark,
		)
	}

	var b strings.Builder
	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(criticalStyle.Render("Critical path: " + strings.Join(ids, " → ")))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Total project duration: %s %s", formatTime(cpm.Duration(p), opts), opts.unit()))
	b.WriteString("\n")
	b.WriteString(unitFooter(opts))
	return b.String()
}

// StatsMarkdown builds the statistics view as markdown for a glamour
// renderer. Variance and risk sections follow the report options.
func StatsMarkdown(projectName string, sum pert.Summary, opts Options) string {
	u := opts.unit()

	var b strings.Builder
	fmt.Fprintf(&b, "# PERT Analysis: %s\n\n", projectName)

	b.WriteString("## Project Statistics\n\n")
	fmt.Fprintf(&b, "- Expected duration: %s %s\n", formatTime(sum.Duration, opts), u)
	fmt.Fprintf(&b, "- Variance: %s\n", formatFixed(u.ConvertVariance(sum.Variance), 2))
	fmt.Fprintf(&b, "- Standard deviation: ±%s %s\n", formatFixed(u.FromCanonical(sum.StdDev), 2), u)

	if opts.ShowVariance && len(sum.PerActivity) > 0 {
		b.WriteString("\n## Critical Path Variance\n\n")
		for _, av := range sum.PerActivity {
			fmt.Fprintf(&b, "- %s: %s\n", av.ID, formatFixed(u.ConvertVariance(av.Variance), 4))
		}
	}

	if sum.TargetTime > 0 {
		b.WriteString("\n## Probability\n\n")
		fmt.Fprintf(&b, "- Probability to finish in %s %s: %s\n", formatTime(sum.TargetTime, opts), u, sum.Probability)
		fmt.Fprintf(&b, "- Z-score: %s\n", formatFixed(sum.ZScore, 2))
	}

	if opts.ShowRisk {
		b.WriteString("\n## Risk Assessment\n\n")
		fmt.Fprintf(&b, "- Best case: %s %s\n", formatTime(sum.BestCase, opts), u)
		fmt.Fprintf(&b, "- Worst case: %s %s\n", formatTime(sum.WorstCase, opts), u)
		fmt.Fprintf(&b, "- Confidence interval: %s to %s %s\n",
			formatTime(sum.ConfidenceLow, opts), formatTime(sum.ConfidenceHigh, opts), u)
	}

	return b.String()
}

// formatTime converts a canonical value to the display unit and formats it
// with the configured decimals.
func formatTime(v float64, opts Options) string {
	converted := opts.unit().FromCanonical(v)
	if converted == 0 {
		converted = 0 // drop the sign of negative zero
	}
	return formatFixed(converted, opts.decimals())
}

func formatFixed(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

func clampZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func unitFooter(opts Options) string {
	return footerStyle.Render(fmt.Sprintf("All times are in %s", opts.unit()))
}
