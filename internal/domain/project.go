package domain

import "strings"

// Project owns an ordered set of activities indexed by id. It does not
// validate dependency resolution or acyclicity; the analysis entry point does,
// since that needs the same traversal the schedule computation does.
type Project struct {
	Name string

	activities []*Activity
	index      map[string]*Activity
}

// NewProject constructs an empty project.
func NewProject(name string) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	return &Project{
		Name:  name,
		index: map[string]*Activity{},
	}, nil
}

// Add appends an activity, rejecting duplicate ids.
func (p *Project) Add(a *Activity) error {
	if a == nil || a.ID == "" {
		return ErrInvalidID
	}
	if _, ok := p.index[a.ID]; ok {
		return ErrDuplicateActivity
	}
	p.activities = append(p.activities, a)
	p.index[a.ID] = a
	return nil
}

// Remove deletes an activity by id and reports whether it was present.
// Dependencies of other activities are left alone; the next analysis reports
// any id they no longer resolve.
func (p *Project) Remove(id string) bool {
	id = NormalizeID(id)
	if _, ok := p.index[id]; !ok {
		return false
	}
	delete(p.index, id)
	for i, a := range p.activities {
		if a.ID == id {
			p.activities = append(p.activities[:i], p.activities[i+1:]...)
			break
		}
	}
	return true
}

// Activity looks up one activity by id.
func (p *Project) Activity(id string) (*Activity, bool) {
	a, ok := p.index[NormalizeID(id)]
	return a, ok
}

// Activities returns the activities in insertion order. The returned slice is
// a copy; the pointed-to activities are shared.
func (p *Project) Activities() []*Activity {
	return append([]*Activity(nil), p.activities...)
}

// Len reports the number of activities.
func (p *Project) Len() int {
	return len(p.activities)
}
