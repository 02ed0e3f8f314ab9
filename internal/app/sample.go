package app

import (
	"context"

	"github.com/tautline/taut/internal/domain"
	"github.com/tautline/taut/internal/timeunit"
)

// sampleActivities is the built-in demonstration chain, estimated in days.
var sampleActivities = []domain.ActivityInput{
	{ID: "A", Description: "Requirements", Optimistic: 3, MostLikely: 5, Pessimistic: 7},
	{ID: "B", Description: "Design", Optimistic: 4, MostLikely: 6, Pessimistic: 8, DependsOn: []string{"A"}},
	{ID: "C", Description: "Development", Optimistic: 8, MostLikely: 10, Pessimistic: 14, DependsOn: []string{"B"}},
	{ID: "D", Description: "Testing", Optimistic: 3, MostLikely: 4, Pessimistic: 6, DependsOn: []string{"C"}},
}

// SampleProject loads the built-in demonstration project.
func (s *Service) SampleProject(ctx context.Context) (ProjectRecord, error) {
	project, err := domain.NewProject("Software Development Project")
	if err != nil {
		return ProjectRecord{}, err
	}
	for _, in := range sampleActivities {
		activity, err := domain.NewActivity(in)
		if err != nil {
			return ProjectRecord{}, err
		}
		if err := project.Add(activity); err != nil {
			return ProjectRecord{}, err
		}
	}
	rec := ProjectRecord{
		ID:        s.idGen(),
		Project:   project,
		Unit:      timeunit.Days,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.store.Put(ctx, rec); err != nil {
		return ProjectRecord{}, err
	}
	return rec, nil
}
