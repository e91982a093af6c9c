package store

import (
	"context"
	"database/sql"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/kgtutor/internal/question"
)

// QuestionRepo stores questions with up to four options in fixed columns.
type QuestionRepo struct {
	s *Store
}

var questionColumns = []string{
	"id", "question_text", "option1", "option2", "option3", "option4",
	"correct_option", "question_type", "concept_id",
}

func (r *QuestionRepo) InsertQuestion(ctx context.Context, q *question.Question) error {
	var opts [question.MaxOptions]sql.NullString
	for i, o := range q.Options {
		if i >= question.MaxOptions {
			break
		}
		opts[i] = sql.NullString{String: o, Valid: true}
	}
	var conceptID sql.NullInt64
	if q.ConceptID != nil {
		conceptID = sql.NullInt64{Int64: *q.ConceptID, Valid: true}
	}
	id, err := r.s.insert(ctx, "insert question", r.s.builder().
		Insert(questionsTable.Name).
		Columns(append(questionColumns[1:len(questionColumns):len(questionColumns)], "created_at")...).
		Values(q.Text, opts[0], opts[1], opts[2], opts[3],
			q.CorrectOption, q.Type, conceptID, time.Now().UTC()))
	if err != nil {
		return err
	}
	q.ID = id
	return nil
}

func (r *QuestionRepo) GetQuestion(ctx context.Context, id int64) (*question.Question, error) {
	found, err := r.selectQuestions(ctx, "get question", entsql.EQ("id", id))
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return &found[0], nil
}

func (r *QuestionRepo) QuestionsByType(ctx context.Context, questionType string) ([]question.Question, error) {
	return r.selectQuestions(ctx, "questions by type", entsql.EQ("question_type", questionType))
}

func (r *QuestionRepo) QuestionsByConcepts(ctx context.Context, conceptIDs []int64) ([]question.Question, error) {
	if len(conceptIDs) == 0 {
		return nil, nil
	}
	args := make([]any, len(conceptIDs))
	for i, id := range conceptIDs {
		args[i] = id
	}
	return r.selectQuestions(ctx, "questions by concepts", entsql.In("concept_id", args...))
}

func (r *QuestionRepo) selectQuestions(ctx context.Context, op string, where *entsql.Predicate) ([]question.Question, error) {
	sel := r.s.builder().
		Select(questionColumns...).
		From(entsql.Table(questionsTable.Name)).
		Where(where).
		OrderBy(entsql.Asc("id"))
	var out []question.Question
	err := r.s.query(ctx, op, sel, func(rows *entsql.Rows) error {
		var (
			q         question.Question
			opts      [question.MaxOptions]sql.NullString
			conceptID sql.NullInt64
		)
		if err := rows.Scan(&q.ID, &q.Text, &opts[0], &opts[1], &opts[2], &opts[3],
			&q.CorrectOption, &q.Type, &conceptID); err != nil {
			return err
		}
		q.Options = trimOptions(opts)
		if conceptID.Valid {
			q.ConceptID = question.ConceptRef(conceptID.Int64)
		}
		out = append(out, q)
		return nil
	})
	return out, err
}

// trimOptions drops trailing unset or empty option columns.
func trimOptions(opts [question.MaxOptions]sql.NullString) []string {
	n := len(opts)
	for n > 0 && (!opts[n-1].Valid || opts[n-1].String == "") {
		n--
	}
	out := make([]string, n)
	for i := range n {
		out[i] = opts[i].String
	}
	return out
}
