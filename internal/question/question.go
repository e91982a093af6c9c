// Package question holds quiz questions and the practice items built from
// them for remediation.
package question

import (
	"strconv"

	"github.com/abhisek/kgtutor/internal/concept"
)

// TypeGenerated is the question type of practice items synthesized by the
// advisory gateway.
const TypeGenerated = "ai_generated"

// MaxOptions is the number of answer options a question can carry.
const MaxOptions = 4

// Question is a persisted multiple-choice quiz question. ConceptID is nil
// for questions not linked to the concept graph.
type Question struct {
	ID            int64    `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correctOption"` // 1-based
	Type          string   `json:"questionType"`
	ConceptID     *int64   `json:"conceptId"`
}

// Upload is the input for creating a question.
type Upload struct {
	Text          string   `json:"text" yaml:"text"`
	Options       []string `json:"options" yaml:"options"`
	CorrectOption int      `json:"correctOption" yaml:"correct"`
	Type          string   `json:"questionType" yaml:"type"`
	ConceptID     *int64   `json:"conceptId,omitempty" yaml:"-"`
}

// Practice is a remediation item: either a persisted question or one
// generated for a single recommendation response. Generated items carry a
// synthetic "ai-" id and no ConceptID.
type Practice struct {
	ID                 string   `json:"id"`
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectOption      int      `json:"correctOption"`
	Type               string   `json:"questionType"`
	ConceptID          *int64   `json:"conceptId"`
	ConceptName        string   `json:"conceptName"`
	ConceptDescription string   `json:"conceptDescription,omitempty"`
	Score              *int     `json:"aiScore,omitempty"`
	Reason             string   `json:"aiReason,omitempty"`
}

// FromQuestion builds a Practice item from a persisted question and the
// concept it is linked to.
func FromQuestion(q Question, c concept.Concept) Practice {
	return Practice{
		ID:                 strconv.FormatInt(q.ID, 10),
		Text:               q.Text,
		Options:            q.Options,
		CorrectOption:      q.CorrectOption,
		Type:               q.Type,
		ConceptID:          q.ConceptID,
		ConceptName:        c.Name,
		ConceptDescription: c.Description,
	}
}

// Generated reports whether p was synthesized rather than persisted.
func (p Practice) Generated() bool {
	return p.Type == TypeGenerated
}

// ConceptRef returns a pointer to id, for building optional concept links.
func ConceptRef(id int64) *int64 {
	return &id
}
