package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// SubmissionResult is the summary persisted for every graded quiz attempt.
type SubmissionResult struct {
	ID                int64     `json:"id"`
	StudentIdentity   string    `json:"studentIdentity"`
	QuestionType      string    `json:"questionType"`
	Score             int       `json:"score"`
	TotalQuestions    int       `json:"totalQuestions"`
	Percentage        float64   `json:"percentage"`
	FailedQuestionIDs []int64   `json:"failedQuestionIds"`
	CreatedAt         time.Time `json:"createdAt"`
}

// ResultRepo stores submission results.
type ResultRepo struct {
	s *Store
}

func (r *ResultRepo) InsertSubmissionResult(ctx context.Context, res *SubmissionResult) error {
	failed := res.FailedQuestionIDs
	if failed == nil {
		failed = []int64{}
	}
	ids, err := json.Marshal(failed)
	if err != nil {
		return fmt.Errorf("encode failed question ids: %w", err)
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}
	id, err := r.s.insert(ctx, "insert submission result", r.s.builder().
		Insert(submissionResultsTable.Name).
		Columns("student_identity", "question_type", "score", "total_questions",
			"percentage", "failed_question_ids", "created_at").
		Values(res.StudentIdentity, res.QuestionType, res.Score, res.TotalQuestions,
			res.Percentage, string(ids), res.CreatedAt))
	if err != nil {
		return err
	}
	res.ID = id
	return nil
}

// ListSubmissionResults returns results newest first. An empty student
// matches everyone; limit <= 0 means no limit.
func (r *ResultRepo) ListSubmissionResults(ctx context.Context, student string, limit int) ([]SubmissionResult, error) {
	sel := r.s.builder().
		Select("id", "student_identity", "question_type", "score", "total_questions",
			"percentage", "failed_question_ids", "created_at").
		From(entsql.Table(submissionResultsTable.Name)).
		OrderBy(entsql.Desc("id"))
	if student != "" {
		sel.Where(entsql.EQ("student_identity", student))
	}
	if limit > 0 {
		sel.Limit(limit)
	}
	var out []SubmissionResult
	err := r.s.query(ctx, "list submission results", sel, func(rows *entsql.Rows) error {
		var (
			res SubmissionResult
			ids string
		)
		if err := rows.Scan(&res.ID, &res.StudentIdentity, &res.QuestionType, &res.Score,
			&res.TotalQuestions, &res.Percentage, &ids, &res.CreatedAt); err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(ids), &res.FailedQuestionIDs); err != nil {
			return fmt.Errorf("decode failed question ids of result %d: %w", res.ID, err)
		}
		out = append(out, res)
		return nil
	})
	return out, err
}
