package recommend

import (
	"context"
	"fmt"

	"github.com/abhisek/kgtutor/internal/concept"
	"github.com/abhisek/kgtutor/internal/question"
)

// Source produces practice questions for a set of prerequisite concepts.
type Source interface {
	Name() string
	Practice(ctx context.Context, prerequisites []concept.Concept) ([]question.Practice, error)
}

// StoreSource returns every persisted question linked to a prerequisite.
type StoreSource struct {
	questions Questions
}

func NewStoreSource(questions Questions) *StoreSource {
	return &StoreSource{questions: questions}
}

func (s *StoreSource) Name() string { return SourceStore }

func (s *StoreSource) Practice(ctx context.Context, prerequisites []concept.Concept) ([]question.Practice, error) {
	if len(prerequisites) == 0 {
		return nil, nil
	}
	ids := make([]int64, len(prerequisites))
	for i, c := range prerequisites {
		ids[i] = c.ID
	}
	return s.questions.ByConcepts(ctx, ids)
}

// GeneratedSource asks the advisory gateway to write questions covering the
// prerequisite names. It never fails; an unavailable gateway yields none.
type GeneratedSource struct {
	advisor Advisor
	count   int
}

func NewGeneratedSource(advisor Advisor, count int) *GeneratedSource {
	return &GeneratedSource{advisor: advisor, count: count}
}

func (s *GeneratedSource) Name() string { return SourceGenerated }

func (s *GeneratedSource) Practice(ctx context.Context, prerequisites []concept.Concept) ([]question.Practice, error) {
	if len(prerequisites) == 0 || s.advisor == nil || !s.advisor.Available() {
		return nil, nil
	}
	return s.advisor.PracticeQuestions(ctx, conceptNames(prerequisites), s.count), nil
}

// NewSource builds the source named by cfg.Source.
func NewSource(cfg Config, questions Questions, advisor Advisor) (Source, error) {
	switch cfg.Source {
	case SourceStore, "":
		return NewStoreSource(questions), nil
	case SourceGenerated:
		return NewGeneratedSource(advisor, cfg.GeneratedCount), nil
	default:
		return nil, fmt.Errorf("unknown practice source %q", cfg.Source)
	}
}

func conceptNames(cs []concept.Concept) []string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name
	}
	return names
}
