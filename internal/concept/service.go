package concept

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/abhisek/kgtutor/internal/logger"
)

// Repo is the persistence the concept service needs.
type Repo interface {
	InsertConcept(ctx context.Context, c *Concept) error
	ConceptsByIDs(ctx context.Context, ids []int64) ([]Concept, error)
	ListConcepts(ctx context.Context) ([]Concept, error)
	InsertRelationship(ctx context.Context, r *Relationship) error
	RelationshipsFrom(ctx context.Context, sourceID int64) ([]Relationship, error)
	ListRelationships(ctx context.Context) ([]Relationship, error)
}

// Service validates graph writes and answers prerequisite queries.
type Service struct {
	repo Repo
	log  *logger.Logger
}

func NewService(repo Repo, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, log: log}
}

// CreateConcept stores a new concept. Duplicate names are allowed.
func (s *Service) CreateConcept(ctx context.Context, name, description string) (*Concept, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "concept name is required", nil)
	}
	c := &Concept{Name: name, Description: strings.TrimSpace(description)}
	if err := s.repo.InsertConcept(ctx, c); err != nil {
		return nil, fmt.Errorf("create concept: %w", err)
	}
	s.log.Info("concept created", "concept_id", c.ID, "name", c.Name)
	return c, nil
}

func (s *Service) ListConcepts(ctx context.Context) ([]Concept, error) {
	return s.repo.ListConcepts(ctx)
}

// Get returns the concept with id, or nil when there is none.
func (s *Service) Get(ctx context.Context, id int64) (*Concept, error) {
	found, err := s.repo.ConceptsByIDs(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

// Lookup resolves ids to concepts; missing ids are absent from the map.
func (s *Service) Lookup(ctx context.Context, ids []int64) (map[int64]Concept, error) {
	found, err := s.repo.ConceptsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]Concept, len(found))
	for _, c := range found {
		out[c.ID] = c
	}
	return out, nil
}

// CreateRelationship validates and stores a directed edge. Self-loops and
// references to unknown concepts are rejected before the write. Cycles
// are not checked; traversal is one hop.
func (s *Service) CreateRelationship(ctx context.Context, sourceID, targetID int64, typ RelationType) (*Relationship, error) {
	switch {
	case sourceID <= 0:
		return nil, invalid("sourceConceptId", "source concept id is required", nil)
	case targetID <= 0:
		return nil, invalid("targetConceptId", "target concept id is required", nil)
	case sourceID == targetID:
		return nil, invalid("targetConceptId", fmt.Sprintf("concept %d cannot relate to itself", sourceID), ErrSelfLoop)
	}

	known, err := s.Lookup(ctx, []int64{sourceID, targetID})
	if err != nil {
		return nil, fmt.Errorf("check relationship endpoints: %w", err)
	}
	for _, end := range []struct {
		field string
		id    int64
	}{{"sourceConceptId", sourceID}, {"targetConceptId", targetID}} {
		if _, ok := known[end.id]; !ok {
			return nil, invalid(end.field, fmt.Sprintf("concept %d does not exist", end.id), ErrUnknownConcept)
		}
	}

	r := &Relationship{SourceID: sourceID, TargetID: targetID, Type: typ}
	if err := s.repo.InsertRelationship(ctx, r); err != nil {
		return nil, fmt.Errorf("create relationship: %w", err)
	}
	s.log.Info("relationship created", "relationship", r.String())
	return r, nil
}

func (s *Service) ListRelationships(ctx context.Context) ([]Relationship, error) {
	return s.repo.ListRelationships(ctx)
}

// Prerequisites returns the concepts conceptID directly depends on,
// ordered by id. Only DependsOn edges are followed; edges whose target no
// longer resolves are skipped.
func (s *Service) Prerequisites(ctx context.Context, conceptID int64) ([]Concept, error) {
	edges, err := s.repo.RelationshipsFrom(ctx, conceptID)
	if err != nil {
		return nil, err
	}

	var targets []int64
	for _, e := range edges {
		if !e.Type.IsDependsOn() {
			continue
		}
		if !slices.Contains(targets, e.TargetID) {
			targets = append(targets, e.TargetID)
		}
	}
	if len(targets) == 0 {
		return nil, nil
	}
	slices.Sort(targets)

	known, err := s.Lookup(ctx, targets)
	if err != nil {
		return nil, err
	}
	out := make([]Concept, 0, len(targets))
	for _, id := range targets {
		if c, ok := known[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// LoadIndex builds an in-memory Index over the whole graph.
func (s *Service) LoadIndex(ctx context.Context) (*Index, error) {
	concepts, err := s.repo.ListConcepts(ctx)
	if err != nil {
		return nil, err
	}
	rels, err := s.repo.ListRelationships(ctx)
	if err != nil {
		return nil, err
	}
	return NewIndex(concepts, rels), nil
}
