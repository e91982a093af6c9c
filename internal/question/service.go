package question

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/abhisek/kgtutor/internal/concept"
	"github.com/abhisek/kgtutor/internal/logger"
)

// Repo is the persistence the question service needs.
type Repo interface {
	InsertQuestion(ctx context.Context, q *Question) error
	// GetQuestion returns nil, nil when the id does not exist.
	GetQuestion(ctx context.Context, id int64) (*Question, error)
	QuestionsByType(ctx context.Context, questionType string) ([]Question, error)
	// QuestionsByConcepts returns linked questions ordered by id.
	QuestionsByConcepts(ctx context.Context, conceptIDs []int64) ([]Question, error)
}

// ConceptLookup resolves concept ids; missing ids are absent from the map.
type ConceptLookup interface {
	Lookup(ctx context.Context, ids []int64) (map[int64]concept.Concept, error)
}

type Service struct {
	repo     Repo
	concepts ConceptLookup
	log      *logger.Logger
}

func NewService(repo Repo, concepts ConceptLookup, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, concepts: concepts, log: log}
}

// Upload validates and stores a question. A non-nil ConceptID must
// reference an existing concept; nothing is written otherwise.
func (s *Service) Upload(ctx context.Context, u Upload) (*Question, error) {
	u.Text = strings.TrimSpace(u.Text)
	u.Type = strings.TrimSpace(u.Type)
	if err := Validate(&u, UploadValidators()...); err != nil {
		return nil, err
	}

	if u.ConceptID != nil {
		known, err := s.concepts.Lookup(ctx, []int64{*u.ConceptID})
		if err != nil {
			return nil, fmt.Errorf("check concept %d: %w", *u.ConceptID, err)
		}
		if _, ok := known[*u.ConceptID]; !ok {
			return nil, &ValidationError{
				Validator: "concept-ref",
				Message:   fmt.Sprintf("concept %d does not exist", *u.ConceptID),
				Err:       ErrUnknownConcept,
			}
		}
	}

	q := &Question{
		Text:          u.Text,
		Options:       slices.Clone(u.Options),
		CorrectOption: u.CorrectOption,
		Type:          u.Type,
		ConceptID:     u.ConceptID,
	}
	if err := s.repo.InsertQuestion(ctx, q); err != nil {
		return nil, fmt.Errorf("store question: %w", err)
	}
	s.log.Info("question uploaded", "question_id", q.ID, "question_type", q.Type, "linked", q.ConceptID != nil)
	return q, nil
}

// Get returns the question with id, or nil when there is none.
func (s *Service) Get(ctx context.Context, id int64) (*Question, error) {
	return s.repo.GetQuestion(ctx, id)
}

// ByType returns the question set for a quiz type, ordered by id.
func (s *Service) ByType(ctx context.Context, questionType string) ([]Question, error) {
	return s.repo.QuestionsByType(ctx, questionType)
}

// ByConcepts returns practice items for every question linked to one of
// conceptIDs, ordered by concept name then question id.
func (s *Service) ByConcepts(ctx context.Context, conceptIDs []int64) ([]Practice, error) {
	if len(conceptIDs) == 0 {
		return nil, nil
	}
	qs, err := s.repo.QuestionsByConcepts(ctx, conceptIDs)
	if err != nil {
		return nil, err
	}
	known, err := s.concepts.Lookup(ctx, conceptIDs)
	if err != nil {
		return nil, err
	}

	out := make([]Practice, 0, len(qs))
	for _, q := range qs {
		if q.ConceptID == nil {
			continue
		}
		c, ok := known[*q.ConceptID]
		if !ok {
			continue
		}
		out = append(out, FromQuestion(q, c))
	}
	// Repo order is by question id, so a stable sort keeps it within a name.
	slices.SortStableFunc(out, func(a, b Practice) int {
		return cmp.Compare(a.ConceptName, b.ConceptName)
	})
	return out, nil
}

// ParseConceptRef turns a loosely typed concept reference into an optional
// id. Empty, "undefined" and "null" mean no concept.
func ParseConceptRef(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "", "undefined", "null":
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, &ValidationError{
			Validator: "concept-ref",
			Message:   fmt.Sprintf("concept id %q is not a positive integer", raw),
		}
	}
	return &id, nil
}
