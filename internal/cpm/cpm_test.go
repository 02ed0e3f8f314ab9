package cpm

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/tautline/taut/internal/domain"
)

type testActivity struct {
	id   string
	dur  float64
	deps []string
}

func buildProject(t *testing.T, acts []testActivity) *domain.Project {
	t.Helper()
	p, err := domain.NewProject("test")
	if err != nil {
		t.Fatalf("NewProject() error = %v", err)
	}
	for _, ta := range acts {
		a, err := domain.NewSingleEstimateActivity(domain.SingleEstimateInput{
			ID:        ta.id,
			Duration:  ta.dur,
			DependsOn: ta.deps,
		})
		if err != nil {
			t.Fatalf("NewSingleEstimateActivity(%s) error = %v", ta.id, err)
		}
		if err := p.Add(a); err != nil {
			t.Fatalf("Add(%s) error = %v", ta.id, err)
		}
	}
	return p
}

func mustActivity(t *testing.T, p *domain.Project, id string) *domain.Activity {
	t.Helper()
	a, ok := p.Activity(id)
	if !ok {
		t.Fatalf("activity %s missing", id)
	}
	return a
}

func assertSchedule(t *testing.T, a *domain.Activity, es, ef, ls, lf, slack float64) {
	t.Helper()
	const eps = 1e-9
	if math.Abs(a.EarlyStart-es) > eps {
		t.Errorf("activity %s: ES = %v, want %v", a.ID, a.EarlyStart, es)
	}
	if math.Abs(a.EarlyFinish-ef) > eps {
		t.Errorf("activity %s: EF = %v, want %v", a.ID, a.EarlyFinish, ef)
	}
	if math.Abs(a.LateStart-ls) > eps {
		t.Errorf("activity %s: LS = %v, want %v", a.ID, a.LateStart, ls)
	}
	if math.Abs(a.LateFinish-lf) > eps {
		t.Errorf("activity %s: LF = %v, want %v", a.ID, a.LateFinish, lf)
	}
	if math.Abs(a.Slack-slack) > eps {
		t.Errorf("activity %s: slack = %v, want %v", a.ID, a.Slack, slack)
	}
}

func pathIDs(path []*domain.Activity) []string {
	ids := make([]string, 0, len(path))
	for _, a := range path {
		ids = append(ids, a.ID)
	}
	return ids
}

func TestAnalyze_LinearChain(t *testing.T) {
	// A -> B -> C -> D with three-point estimates.
	p, err := domain.NewProject("software development")
	if err != nil {
		t.Fatalf("NewProject() error = %v", err)
	}
	inputs := []domain.ActivityInput{
		{ID: "A", Description: "Requirements", Optimistic: 3, MostLikely: 5, Pessimistic: 7},
		{ID: "B", Description: "Design", Optimistic: 4, MostLikely: 6, Pessimistic: 8, DependsOn: []string{"A"}},
		{ID: "C", Description: "Development", Optimistic: 8, MostLikely: 10, Pessimistic: 14, DependsOn: []string{"B"}},
		{ID: "D", Description: "Testing", Optimistic: 3, MostLikely: 4, Pessimistic: 6, DependsOn: []string{"C"}},
	}
	for _, in := range inputs {
		a, err := domain.NewActivity(in)
		if err != nil {
			t.Fatalf("NewActivity(%s) error = %v", in.ID, err)
		}
		if err := p.Add(a); err != nil {
			t.Fatalf("Add(%s) error = %v", in.ID, err)
		}
	}

	if err := Analyze(p); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	wantExpected := map[string]float64{"A": 5, "B": 6, "C": 10 + 1.0/3.0, "D": 4 + 1.0/6.0}
	for id, want := range wantExpected {
		if got := mustActivity(t, p, id).ExpectedTime; math.Abs(got-want) > 1e-9 {
			t.Errorf("activity %s: expected time = %v, want %v", id, got, want)
		}
	}

	a := mustActivity(t, p, "A")
	b := mustActivity(t, p, "B")
	c := mustActivity(t, p, "C")
	d := mustActivity(t, p, "D")
	assertSchedule(t, a, 0, a.ExpectedTime, 0, a.ExpectedTime, 0)
	assertSchedule(t, b, a.EarlyFinish, a.EarlyFinish+b.ExpectedTime, a.EarlyFinish, a.EarlyFinish+b.ExpectedTime, 0)
	assertSchedule(t, c, b.EarlyFinish, b.EarlyFinish+c.ExpectedTime, b.EarlyFinish, b.EarlyFinish+c.ExpectedTime, 0)
	assertSchedule(t, d, c.EarlyFinish, c.EarlyFinish+d.ExpectedTime, c.EarlyFinish, c.EarlyFinish+d.ExpectedTime, 0)

	wantDuration := a.ExpectedTime + b.ExpectedTime + c.ExpectedTime + d.ExpectedTime
	if got := Duration(p); math.Abs(got-wantDuration) > 1e-9 {
		t.Errorf("Duration() = %v, want %v", got, wantDuration)
	}

	path := CriticalPath(p)
	want := []string{"A", "B", "C", "D"}
	got := pathIDs(path)
	if len(got) != len(want) {
		t.Fatalf("critical path = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("critical path = %v, want %v", got, want)
		}
	}
}

func TestAnalyze_DiamondDAG(t *testing.T) {
	// A -> B -> D
	// A -> C -> D, with C the longer branch.
	p := buildProject(t, []testActivity{
		{id: "A", dur: 2},
		{id: "B", dur: 3, deps: []string{"A"}},
		{id: "C", dur: 5, deps: []string{"A"}},
		{id: "D", dur: 2, deps: []string{"B", "C"}},
	})

	if err := Analyze(p); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	assertSchedule(t, mustActivity(t, p, "A"), 0, 2, 0, 2, 0)
	// B floats by the branch-length difference, C's duration minus B's.
	assertSchedule(t, mustActivity(t, p, "B"), 2, 5, 4, 7, 2)
	assertSchedule(t, mustActivity(t, p, "C"), 2, 7, 2, 7, 0)
	assertSchedule(t, mustActivity(t, p, "D"), 7, 9, 7, 9, 0)

	got := pathIDs(CriticalPath(p))
	want := []string{"A", "C", "D"}
	if len(got) != len(want) || got[0] != "A" || got[1] != "C" || got[2] != "D" {
		t.Fatalf("critical path = %v, want %v", got, want)
	}
}

func TestAnalyze_ParallelChains(t *testing.T) {
	// Two independent chains; only the longer one is critical, and both
	// terminals keep late finish at the project duration.
	p := buildProject(t, []testActivity{
		{id: "A1", dur: 2},
		{id: "A2", dur: 2, deps: []string{"A1"}},
		{id: "B1", dur: 3},
		{id: "B2", dur: 4, deps: []string{"B1"}},
	})

	if err := Analyze(p); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if got := Duration(p); got != 7 {
		t.Fatalf("Duration() = %v, want 7", got)
	}
	assertSchedule(t, mustActivity(t, p, "A1"), 0, 2, 3, 5, 3)
	assertSchedule(t, mustActivity(t, p, "A2"), 2, 4, 5, 7, 3)
	assertSchedule(t, mustActivity(t, p, "B1"), 0, 3, 0, 3, 0)
	assertSchedule(t, mustActivity(t, p, "B2"), 3, 7, 3, 7, 0)

	got := pathIDs(CriticalPath(p))
	if len(got) != 2 || got[0] != "B1" || got[1] != "B2" {
		t.Fatalf("critical path = %v, want [B1 B2]", got)
	}
}

func TestAnalyze_SingleActivity(t *testing.T) {
	p := buildProject(t, []testActivity{{id: "A", dur: 5}})
	if err := Analyze(p); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	assertSchedule(t, mustActivity(t, p, "A"), 0, 5, 0, 5, 0)
	if got := pathIDs(CriticalPath(p)); len(got) != 1 || got[0] != "A" {
		t.Fatalf("critical path = %v, want [A]", got)
	}
}

func TestAnalyze_ZeroDurationMilestone(t *testing.T) {
	// A milestone ties with its predecessor on early finish. Ordering the
	// backward pass by descending early finish could place A before M and
	// leave A's late finish untightened; the successor-driven fixed point
	// must not.
	p := buildProject(t, []testActivity{
		{id: "A", dur: 5},
		{id: "M", dur: 0, deps: []string{"A"}},
		{id: "B", dur: 1, deps: []string{"M"}},
	})

	if err := Analyze(p); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	assertSchedule(t, mustActivity(t, p, "A"), 0, 5, 0, 5, 0)
	assertSchedule(t, mustActivity(t, p, "M"), 5, 5, 5, 5, 0)
	assertSchedule(t, mustActivity(t, p, "B"), 5, 6, 5, 6, 0)
}

func TestAnalyze_Cycle(t *testing.T) {
	p := buildProject(t, []testActivity{
		{id: "A", dur: 1, deps: []string{"B"}},
		{id: "B", dur: 1, deps: []string{"A"}},
		{id: "C", dur: 1},
	})

	err := Analyze(p)
	if !errors.Is(err, domain.ErrCyclicDependency) {
		t.Fatalf("Analyze() error = %v, want ErrCyclicDependency", err)
	}
	if !strings.Contains(err.Error(), "A") || !strings.Contains(err.Error(), "B") {
		t.Fatalf("cycle error should name the stuck activities, got %q", err)
	}
}

func TestAnalyze_SelfLoop(t *testing.T) {
	p := buildProject(t, []testActivity{
		{id: "A", dur: 1, deps: []string{"A"}},
	})
	if err := Analyze(p); !errors.Is(err, domain.ErrCyclicDependency) {
		t.Fatalf("Analyze() error = %v, want ErrCyclicDependency", err)
	}
}

func TestAnalyze_UnknownDependency(t *testing.T) {
	p := buildProject(t, []testActivity{
		{id: "A", dur: 1},
		{id: "B", dur: 1, deps: []string{"Z"}},
	})
	err := Analyze(p)
	if !errors.Is(err, domain.ErrUnknownDependency) {
		t.Fatalf("Analyze() error = %v, want ErrUnknownDependency", err)
	}
	if !strings.Contains(err.Error(), `"Z"`) {
		t.Fatalf("error should name the missing id, got %q", err)
	}
}

func TestAnalyze_EmptyProject(t *testing.T) {
	p, err := domain.NewProject("empty")
	if err != nil {
		t.Fatalf("NewProject() error = %v", err)
	}
	if err := Analyze(p); !errors.Is(err, ErrNoActivities) {
		t.Fatalf("Analyze() error = %v, want ErrNoActivities", err)
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	p := buildProject(t, []testActivity{
		{id: "A", dur: 2},
		{id: "B", dur: 3, deps: []string{"A"}},
		{id: "C", dur: 5, deps: []string{"A"}},
		{id: "D", dur: 2, deps: []string{"B", "C"}},
	})
	if err := Analyze(p); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	type snapshot struct{ es, ef, ls, lf, slack float64 }
	first := map[string]snapshot{}
	for _, a := range p.Activities() {
		first[a.ID] = snapshot{a.EarlyStart, a.EarlyFinish, a.LateStart, a.LateFinish, a.Slack}
	}

	if err := Analyze(p); err != nil {
		t.Fatalf("Analyze() second run error = %v", err)
	}
	for _, a := range p.Activities() {
		want := first[a.ID]
		got := snapshot{a.EarlyStart, a.EarlyFinish, a.LateStart, a.LateFinish, a.Slack}
		if got != want {
			t.Fatalf("activity %s: second analysis %+v, want %+v", a.ID, got, want)
		}
	}
}

func TestCriticalPath_OrderedByEarlyStart(t *testing.T) {
	// Insertion order is reversed; the path must still come out in early
	// start order.
	p := buildProject(t, []testActivity{
		{id: "D", dur: 2, deps: []string{"C"}},
		{id: "C", dur: 5, deps: []string{"A"}},
		{id: "A", dur: 2},
	})
	if err := Analyze(p); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	got := pathIDs(CriticalPath(p))
	if len(got) != 3 || got[0] != "A" || got[1] != "C" || got[2] != "D" {
		t.Fatalf("critical path = %v, want [A C D]", got)
	}
}

func TestDuration_EmptyProject(t *testing.T) {
	p, err := domain.NewProject("empty")
	if err != nil {
		t.Fatalf("NewProject() error = %v", err)
	}
	if got := Duration(p); got != 0 {
		t.Fatalf("Duration() = %v, want 0", got)
	}
}
