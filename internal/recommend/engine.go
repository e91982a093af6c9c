// Package recommend turns failed quiz questions into remediation: it walks
// one hop of DEPENDS_ON edges from each failed question's concept, gathers
// practice questions for the prerequisites and layers optional advisory
// enrichment on top.
package recommend

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/kgtutor/internal/advisor"
	"github.com/abhisek/kgtutor/internal/concept"
	"github.com/abhisek/kgtutor/internal/logger"
	"github.com/abhisek/kgtutor/internal/question"
)

// Questions is the question lookup the engine needs. question.Service
// implements it.
type Questions interface {
	Get(ctx context.Context, id int64) (*question.Question, error)
	ByConcepts(ctx context.Context, conceptIDs []int64) ([]question.Practice, error)
}

// Concepts resolves a concept by id. concept.Service implements it.
type Concepts interface {
	Get(ctx context.Context, id int64) (*concept.Concept, error)
}

// PrerequisiteFinder answers the one-hop DEPENDS_ON query. Both
// concept.Service and graphdb.Client implement it.
type PrerequisiteFinder interface {
	Prerequisites(ctx context.Context, conceptID int64) ([]concept.Concept, error)
}

// Advisor is the advisory surface the engine uses. *advisor.Gateway
// implements it; every method is fail-soft.
type Advisor interface {
	Available() bool
	Insight(ctx context.Context, failedQuestion, failedConcept string, prerequisites []string) string
	Guidance(ctx context.Context, failedConcept string, prerequisites []string) *advisor.Guidance
	PracticeQuestions(ctx context.Context, conceptNames []string, count int) []question.Practice
	Rank(ctx context.Context, candidates []advisor.Candidate) []advisor.Ranking
}

// FailedConcept names the concept a failed question was linked to.
type FailedConcept struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Result is the remediation for one failed question.
type Result struct {
	QuestionID    int64               `json:"questionId"`
	Questions     []question.Practice `json:"questions"`
	Insight       string              `json:"aiInsight,omitempty"`
	Guidance      *advisor.Guidance   `json:"aiGuidance,omitempty"`
	FailedConcept *FailedConcept      `json:"failedConcept,omitempty"`
	Prerequisites []string            `json:"prerequisites,omitempty"`
}

// Insight is advisory prose tied to the failed question it explains.
type Insight struct {
	QuestionID    int64  `json:"questionId"`
	FailedConcept string `json:"failedConcept"`
	Text          string `json:"insight"`
}

// Bundle aggregates remediation across several failed questions.
type Bundle struct {
	Questions []question.Practice `json:"recommendations"`
	Insights  []Insight           `json:"aiInsights"`
	Guidance  *advisor.Guidance   `json:"aiGuidance,omitempty"`
}

// Deps are the collaborators of an Engine. Advisor may be nil.
type Deps struct {
	Questions     Questions
	Concepts      Concepts
	Prerequisites PrerequisiteFinder
	Source        Source
	Advisor       Advisor
}

// Engine computes recommendations. It holds no per-request state.
type Engine struct {
	deps Deps
	cfg  Config
	log  *logger.Logger
}

func NewEngine(deps Deps, cfg Config, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	if deps.Advisor == nil {
		deps.Advisor = advisor.Unavailable()
	}
	if deps.Source == nil {
		deps.Source = NewStoreSource(deps.Questions)
	}
	def := DefaultConfig()
	if cfg.RankLimit <= 0 {
		cfg.RankLimit = def.RankLimit
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	return &Engine{deps: deps, cfg: cfg, log: log}
}

// ForFailedQuestion recommends prerequisite practice for one failed
// question. An unknown or unlinked question yields an empty result. Only
// data access failures are returned as errors.
func (e *Engine) ForFailedQuestion(ctx context.Context, questionID int64) (*Result, error) {
	res := &Result{QuestionID: questionID, Questions: []question.Practice{}}

	q, err := e.deps.Questions.Get(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("load question %d: %w", questionID, err)
	}
	if q == nil || q.ConceptID == nil {
		return res, nil
	}

	c, err := e.deps.Concepts.Get(ctx, *q.ConceptID)
	if err != nil {
		return nil, fmt.Errorf("load concept %d: %w", *q.ConceptID, err)
	}
	if c == nil {
		return res, nil
	}
	res.FailedConcept = &FailedConcept{ID: c.ID, Name: c.Name, Description: c.Description}

	prereqs, err := e.deps.Prerequisites.Prerequisites(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("prerequisites of concept %d: %w", c.ID, err)
	}
	names := conceptNames(prereqs)
	res.Prerequisites = names

	candidates, err := e.deps.Source.Practice(ctx, prereqs)
	if err != nil {
		return nil, fmt.Errorf("%s practice for concept %d: %w", e.deps.Source.Name(), c.ID, err)
	}
	if candidates == nil {
		candidates = []question.Practice{}
	}
	res.Questions = candidates

	if !e.deps.Advisor.Available() {
		return res, nil
	}

	// The advisory calls are independent and never fail.
	var (
		g        errgroup.Group
		rankings []advisor.Ranking
	)
	g.Go(func() error {
		res.Insight = e.deps.Advisor.Insight(ctx, q.Text, c.Name, names)
		return nil
	})
	g.Go(func() error {
		rankings = e.deps.Advisor.Rank(ctx, candidatesFor(candidates))
		return nil
	})
	g.Go(func() error {
		res.Guidance = e.deps.Advisor.Guidance(ctx, c.Name, names)
		return nil
	})
	_ = g.Wait()

	res.Questions = ApplyRanking(candidates, rankings, e.cfg.RankLimit)
	return res, nil
}

// ForFailedQuestions runs ForFailedQuestion for every id with bounded
// concurrency, then concatenates the questions in input order and dedupes
// them by text. Iterations that fail are logged and left out; an error is
// returned only when every iteration failed.
func (e *Engine) ForFailedQuestions(ctx context.Context, questionIDs []int64) (*Bundle, error) {
	bundle := &Bundle{Questions: []question.Practice{}, Insights: []Insight{}}
	if len(questionIDs) == 0 {
		return bundle, nil
	}

	results := make([]*Result, len(questionIDs))
	errs := make([]error, len(questionIDs))

	var g errgroup.Group
	g.SetLimit(e.cfg.Concurrency)
	for i, id := range questionIDs {
		g.Go(func() error {
			results[i], errs[i] = e.ForFailedQuestion(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	var all []question.Practice
	for i, res := range results {
		if errs[i] != nil {
			failed++
			e.log.Warn("recommendation skipped", "question_id", questionIDs[i], "error", errs[i])
			continue
		}
		all = append(all, res.Questions...)
		if res.Insight != "" {
			name := ""
			if res.FailedConcept != nil {
				name = res.FailedConcept.Name
			}
			bundle.Insights = append(bundle.Insights, Insight{
				QuestionID:    res.QuestionID,
				FailedConcept: name,
				Text:          res.Insight,
			})
		}
		if bundle.Guidance == nil && res.Guidance != nil {
			bundle.Guidance = res.Guidance
		}
	}
	if failed == len(questionIDs) {
		return nil, fmt.Errorf("recommend for %d failed questions: %w", failed, errors.Join(errs...))
	}

	bundle.Questions = Dedupe(all)
	return bundle, nil
}
