package store

import (
	"context"
	"database/sql"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/kgtutor/internal/concept"
)

// ConceptRepo stores concepts and the typed edges between them.
type ConceptRepo struct {
	s *Store
}

func (r *ConceptRepo) InsertConcept(ctx context.Context, c *concept.Concept) error {
	var desc sql.NullString
	if c.Description != "" {
		desc = sql.NullString{String: c.Description, Valid: true}
	}
	id, err := r.s.insert(ctx, "insert concept", r.s.builder().
		Insert(conceptsTable.Name).
		Columns("name", "description", "created_at").
		Values(c.Name, desc, time.Now().UTC()))
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (r *ConceptRepo) ConceptsByIDs(ctx context.Context, ids []int64) ([]concept.Concept, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return r.selectConcepts(ctx, "concepts by ids", entsql.In("id", args...))
}

func (r *ConceptRepo) ListConcepts(ctx context.Context) ([]concept.Concept, error) {
	return r.selectConcepts(ctx, "list concepts", nil)
}

func (r *ConceptRepo) selectConcepts(ctx context.Context, op string, where *entsql.Predicate) ([]concept.Concept, error) {
	sel := r.s.builder().
		Select("id", "name", "description").
		From(entsql.Table(conceptsTable.Name)).
		OrderBy(entsql.Asc("id"))
	if where != nil {
		sel.Where(where)
	}
	var out []concept.Concept
	err := r.s.query(ctx, op, sel, func(rows *entsql.Rows) error {
		var (
			c    concept.Concept
			desc sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Name, &desc); err != nil {
			return err
		}
		c.Description = desc.String
		out = append(out, c)
		return nil
	})
	return out, err
}

func (r *ConceptRepo) InsertRelationship(ctx context.Context, rel *concept.Relationship) error {
	id, err := r.s.insert(ctx, "insert relationship", r.s.builder().
		Insert(relationshipsTable.Name).
		Columns("source_concept_id", "target_concept_id", "relationship_type", "created_at").
		Values(rel.SourceID, rel.TargetID, rel.Type.Label(), time.Now().UTC()))
	if err != nil {
		return err
	}
	rel.ID = id
	return nil
}

// RelationshipsFrom returns every outgoing edge of sourceID regardless of
// type, ordered by id.
func (r *ConceptRepo) RelationshipsFrom(ctx context.Context, sourceID int64) ([]concept.Relationship, error) {
	return r.selectRelationships(ctx, "relationships from", entsql.EQ("source_concept_id", sourceID))
}

func (r *ConceptRepo) ListRelationships(ctx context.Context) ([]concept.Relationship, error) {
	return r.selectRelationships(ctx, "list relationships", nil)
}

func (r *ConceptRepo) selectRelationships(ctx context.Context, op string, where *entsql.Predicate) ([]concept.Relationship, error) {
	sel := r.s.builder().
		Select("id", "source_concept_id", "target_concept_id", "relationship_type").
		From(entsql.Table(relationshipsTable.Name)).
		OrderBy(entsql.Asc("id"))
	if where != nil {
		sel.Where(where)
	}
	var out []concept.Relationship
	err := r.s.query(ctx, op, sel, func(rows *entsql.Rows) error {
		var (
			rel   concept.Relationship
			label string
		)
		if err := rows.Scan(&rel.ID, &rel.SourceID, &rel.TargetID, &label); err != nil {
			return err
		}
		rel.Type = concept.ParseRelationType(label)
		out = append(out, rel)
		return nil
	})
	return out, err
}
