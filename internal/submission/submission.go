// Package submission grades answer sheets, attaches remediation and
// records the outcome. It is the contract the CLI host calls.
package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/kgtutor/internal/advisor"
	"github.com/abhisek/kgtutor/internal/evaluate"
	"github.com/abhisek/kgtutor/internal/logger"
	"github.com/abhisek/kgtutor/internal/question"
	"github.com/abhisek/kgtutor/internal/recommend"
	"github.com/abhisek/kgtutor/internal/store"
)

var (
	ErrMissingQuestionType = errors.New("question type is required")
	ErrMissingStudent      = errors.New("student identity is required")
)

// QuestionSets loads the ordered question list for a quiz type.
type QuestionSets interface {
	ByType(ctx context.Context, questionType string) ([]question.Question, error)
}

// Recommender aggregates remediation for failed questions.
type Recommender interface {
	ForFailedQuestions(ctx context.Context, questionIDs []int64) (*recommend.Bundle, error)
}

// ResultRecorder persists submission results.
type ResultRecorder interface {
	InsertSubmissionResult(ctx context.Context, res *store.SubmissionResult) error
}

// Summary is the headline of a submission response.
type Summary struct {
	TotalQuestions       int     `json:"totalQuestions"`
	CorrectAnswers       int     `json:"correctAnswers"`
	Score                string  `json:"score"`
	Percentage           float64 `json:"percentage"`
	RecommendationsCount int     `json:"recommendationsCount"`
	AIInsightsCount      int     `json:"aiInsightsCount"`
}

// Response is returned by Submit.
type Response struct {
	Success           bool                `json:"success"`
	EvaluationResults []evaluate.Result   `json:"evaluationResults"`
	FailedQuestionIDs []int64             `json:"failedQuestionIds"`
	Recommendations   []question.Practice `json:"recommendations"`
	AIInsights        []recommend.Insight `json:"aiInsights"`
	AIGuidance        *advisor.Guidance   `json:"aiGuidance,omitempty"`
	Summary           Summary             `json:"summary"`
}

// Service coordinates evaluation, recommendation and persistence.
type Service struct {
	questions   QuestionSets
	recommender Recommender
	results     ResultRecorder
	log         *logger.Logger
	now         func() time.Time
}

func NewService(questions QuestionSets, recommender Recommender, results ResultRecorder, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		questions:   questions,
		recommender: recommender,
		results:     results,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Evaluate grades answers against the question set of questionType.
func (s *Service) Evaluate(ctx context.Context, questionType string, answers []string) (*evaluate.Evaluation, error) {
	questionType = strings.TrimSpace(questionType)
	if questionType == "" {
		return nil, ErrMissingQuestionType
	}
	qs, err := s.questions.ByType(ctx, questionType)
	if err != nil {
		return nil, fmt.Errorf("load %s questions: %w", questionType, err)
	}
	ev := evaluate.Evaluate(qs, answers)
	return &ev, nil
}

// Recommend aggregates remediation for the given failed questions.
func (s *Service) Recommend(ctx context.Context, failedQuestionIDs []int64) (*recommend.Bundle, error) {
	return s.recommender.ForFailedQuestions(ctx, failedQuestionIDs)
}

// Submit grades an answer sheet, gathers remediation for the failures and
// records the result. Remediation and persistence failures are logged;
// the evaluation is still returned.
func (s *Service) Submit(ctx context.Context, student, questionType string, answers []string) (*Response, error) {
	student = strings.TrimSpace(student)
	if student == "" {
		return nil, ErrMissingStudent
	}
	ev, err := s.Evaluate(ctx, questionType, answers)
	if err != nil {
		return nil, err
	}

	bundle := &recommend.Bundle{Questions: []question.Practice{}, Insights: []recommend.Insight{}}
	if len(ev.FailedQuestionIDs) > 0 {
		got, err := s.recommender.ForFailedQuestions(ctx, ev.FailedQuestionIDs)
		if err != nil {
			s.log.Warn("recommendations unavailable", "student", student, "error", err)
		} else {
			bundle = got
		}
	}

	// The caller may have gone away; the graded attempt is still recorded.
	res := &store.SubmissionResult{
		StudentIdentity:   student,
		QuestionType:      strings.TrimSpace(questionType),
		Score:             ev.Score,
		TotalQuestions:    ev.Total,
		Percentage:        ev.Percentage,
		FailedQuestionIDs: ev.FailedQuestionIDs,
		CreatedAt:         s.now(),
	}
	if err := s.results.InsertSubmissionResult(context.WithoutCancel(ctx), res); err != nil {
		s.log.Error("persist submission result failed", "student", student, "question_type", res.QuestionType, "error", err)
	}

	s.log.Info("submission graded",
		"student", student,
		"question_type", res.QuestionType,
		"score", ev.Score,
		"total", ev.Total,
		"recommendations", len(bundle.Questions),
	)

	return &Response{
		Success:           true,
		EvaluationResults: ev.Results,
		FailedQuestionIDs: ev.FailedQuestionIDs,
		Recommendations:   bundle.Questions,
		AIInsights:        bundle.Insights,
		AIGuidance:        bundle.Guidance,
		Summary: Summary{
			TotalQuestions:       ev.Total,
			CorrectAnswers:       ev.Score,
			Score:                fmt.Sprintf("%.2f%%", ev.Percentage),
			Percentage:           ev.Percentage,
			RecommendationsCount: len(bundle.Questions),
			AIInsightsCount:      len(bundle.Insights),
		},
	}, nil
}
