// Package seed loads a concept graph and its questions from YAML and
// applies it through the domain services, so every creation rule holds.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/kgtutor/internal/concept"
	"github.com/abhisek/kgtutor/internal/logger"
	"github.com/abhisek/kgtutor/internal/question"
)

// Document is a seed file. Concepts are referenced by their file-local key.
type Document struct {
	Concepts      []ConceptEntry      `yaml:"concepts"`
	Relationships []RelationshipEntry `yaml:"relationships"`
	Questions     []QuestionEntry     `yaml:"questions"`
}

type ConceptEntry struct {
	Key         string `yaml:"key"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type RelationshipEntry struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
	Type   string `yaml:"type"`
}

// QuestionEntry is a question upload plus an optional concept key.
type QuestionEntry struct {
	question.Upload `yaml:",inline"`
	Concept         string `yaml:"concept"`
}

// Summary counts what Apply created.
type Summary struct {
	Concepts      int
	Relationships int
	Questions     int
}

// Load reads and validates a seed file.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a seed document. Unknown fields are rejected.
func Parse(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &doc, nil
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ParseBytes is Parse over an in-memory document.
func ParseBytes(b []byte) (*Document, error) {
	return Parse(bytes.NewReader(b))
}

// Validate checks that keys are present and unique and that every
// reference names a declared concept.
func (d *Document) Validate() error {
	keys := make(map[string]bool, len(d.Concepts))
	for i, c := range d.Concepts {
		key := strings.TrimSpace(c.Key)
		if key == "" {
			return fmt.Errorf("concepts[%d]: key is required", i)
		}
		if keys[key] {
			return fmt.Errorf("concepts[%d]: duplicate key %q", i, key)
		}
		keys[key] = true
	}
	for i, r := range d.Relationships {
		for _, ref := range []string{r.Source, r.Target} {
			if !keys[strings.TrimSpace(ref)] {
				return fmt.Errorf("relationships[%d]: unknown concept key %q", i, ref)
			}
		}
	}
	for i, q := range d.Questions {
		if ref := strings.TrimSpace(q.Concept); ref != "" && !keys[ref] {
			return fmt.Errorf("questions[%d]: unknown concept key %q", i, ref)
		}
	}
	return nil
}

// Concepts is the graph surface Apply writes through.
type Concepts interface {
	CreateConcept(ctx context.Context, name, description string) (*concept.Concept, error)
	CreateRelationship(ctx context.Context, sourceID, targetID int64, typ concept.RelationType) (*concept.Relationship, error)
}

// Questions is the upload surface Apply writes through.
type Questions interface {
	Upload(ctx context.Context, u question.Upload) (*question.Question, error)
}

// Apply creates everything in d in file order: concepts, then
// relationships, then questions. It stops at the first failure; entries
// written before it stay written.
func Apply(ctx context.Context, d *Document, concepts Concepts, questions Questions, log *logger.Logger) (Summary, error) {
	if log == nil {
		log = logger.Nop()
	}
	var sum Summary
	if err := d.Validate(); err != nil {
		return sum, err
	}

	ids := make(map[string]int64, len(d.Concepts))
	for i, c := range d.Concepts {
		created, err := concepts.CreateConcept(ctx, c.Name, c.Description)
		if err != nil {
			return sum, fmt.Errorf("concepts[%d] %q: %w", i, c.Key, err)
		}
		ids[strings.TrimSpace(c.Key)] = created.ID
		sum.Concepts++
	}

	for i, r := range d.Relationships {
		_, err := concepts.CreateRelationship(ctx,
			ids[strings.TrimSpace(r.Source)],
			ids[strings.TrimSpace(r.Target)],
			concept.ParseRelationType(strings.TrimSpace(r.Type)))
		if err != nil {
			return sum, fmt.Errorf("relationships[%d] %s -> %s: %w", i, r.Source, r.Target, err)
		}
		sum.Relationships++
	}

	for i, q := range d.Questions {
		up := q.Upload
		if ref := strings.TrimSpace(q.Concept); ref != "" {
			up.ConceptID = question.ConceptRef(ids[ref])
		}
		if _, err := questions.Upload(ctx, up); err != nil {
			return sum, fmt.Errorf("questions[%d]: %w", i, err)
		}
		sum.Questions++
	}

	log.Info("seed applied", "concepts", sum.Concepts, "relationships", sum.Relationships, "questions", sum.Questions)
	return sum, nil
}
