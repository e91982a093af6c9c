package submission

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/abhisek/kgtutor/internal/advisor"
	"github.com/abhisek/kgtutor/internal/concept"
	"github.com/abhisek/kgtutor/internal/llm"
	"github.com/abhisek/kgtutor/internal/question"
	"github.com/abhisek/kgtutor/internal/recommend"
	"github.com/abhisek/kgtutor/internal/store"
)

type env struct {
	st        *store.Store
	questions *question.Service
	engine    *recommend.Engine
	quiz      []*question.Question
}

// newEnv builds Loops -> Variables with a two-question "programming" quiz
// on Loops and one practice question on Variables.
func newEnv(t *testing.T, gw *advisor.Gateway) *env {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, store.DriverSQLite, filepath.Join(t.TempDir(), "kg.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	concepts := concept.NewService(st.Concepts(), nil)
	questions := question.NewService(st.Questions(), concepts, nil)

	loops, err := concepts.CreateConcept(ctx, "Loops", "")
	require.NoError(t, err)
	vars, err := concepts.CreateConcept(ctx, "Variables", "")
	require.NoError(t, err)
	_, err = concepts.CreateRelationship(ctx, loops.ID, vars.ID, concept.DependsOn())
	require.NoError(t, err)

	e := &env{st: st, questions: questions}
	for _, up := range []question.Upload{
		{Text: "Loop one", Options: []string{"a", "b", "c", "d"}, CorrectOption: 2, Type: "programming", ConceptID: question.ConceptRef(loops.ID)},
		{Text: "Loop two", Options: []string{"a", "b"}, CorrectOption: 1, Type: "programming", ConceptID: question.ConceptRef(loops.ID)},
		{Text: "What is x?", Options: []string{"1", "2"}, CorrectOption: 1, Type: "practice", ConceptID: question.ConceptRef(vars.ID)},
	} {
		q, err := questions.Upload(ctx, up)
		require.NoError(t, err)
		if q.Type == "programming" {
			e.quiz = append(e.quiz, q)
		}
	}

	e.engine = recommend.NewEngine(recommend.Deps{
		Questions:     questions,
		Concepts:      concepts,
		Prerequisites: concepts,
		Advisor:       gw,
	}, recommend.DefaultConfig(), nil)
	return e
}

func (e *env) service() *Service {
	return NewService(e.questions, e.engine, e.st.Results(), nil)
}

func TestEvaluate(t *testing.T) {
	e := newEnv(t, nil)
	ev, err := e.service().Evaluate(context.Background(), "programming", []string{"2", "x"})
	require.NoError(t, err)
	require.Equal(t, 1, ev.Score)
	require.Equal(t, 2, ev.Total)
	require.Equal(t, []int64{e.quiz[1].ID}, ev.FailedQuestionIDs)

	_, err = e.service().Evaluate(context.Background(), "  ", nil)
	require.ErrorIs(t, err, ErrMissingQuestionType)
}

func TestSubmitWithoutAdvisor(t *testing.T) {
	e := newEnv(t, advisor.Unavailable())
	ctx := context.Background()

	resp, err := e.service().Submit(ctx, "alice@example.com", "programming", []string{"1"})
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Len(t, resp.EvaluationResults, 2)
	require.Equal(t, []int64{e.quiz[0].ID, e.quiz[1].ID}, resp.FailedQuestionIDs)

	require.Len(t, resp.Recommendations, 1)
	require.Equal(t, "What is x?", resp.Recommendations[0].Text)
	require.NotNil(t, resp.AIInsights)
	require.Empty(t, resp.AIInsights)
	require.Nil(t, resp.AIGuidance)

	require.Equal(t, Summary{
		TotalQuestions:       2,
		CorrectAnswers:       0,
		Score:                "0.00%",
		RecommendationsCount: 1,
	}, resp.Summary)

	saved, err := e.st.Results().ListSubmissionResults(ctx, "alice@example.com", 0)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	require.Equal(t, "programming", saved[0].QuestionType)
	require.Equal(t, resp.FailedQuestionIDs, saved[0].FailedQuestionIDs)
}

func TestSubmitWithAdvisor(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("Revisit variables."))
	cfg := advisor.DefaultConfig()
	cfg.DisableGuidance = true
	cfg.DisableRanking = true
	e := newEnv(t, advisor.New(mock, cfg, nil, nil))

	resp, err := e.service().Submit(context.Background(), "bob", "programming", []string{"2", "2"})
	require.NoError(t, err)
	require.Len(t, resp.AIInsights, 1)
	require.Equal(t, e.quiz[1].ID, resp.AIInsights[0].QuestionID)
	require.Equal(t, "Revisit variables.", resp.AIInsights[0].Text)
	require.Equal(t, "50.00%", resp.Summary.Score)
	require.Equal(t, 1, resp.Summary.AIInsightsCount)
}

func TestSubmitAllCorrect(t *testing.T) {
	e := newEnv(t, nil)
	resp, err := e.service().Submit(context.Background(), "carol", "programming", []string{"2", "1"})
	require.NoError(t, err)
	require.Empty(t, resp.Recommendations)
	require.Empty(t, resp.FailedQuestionIDs)
	require.Equal(t, "100.00%", resp.Summary.Score)
}

func TestSubmitEmptyQuestionSet(t *testing.T) {
	e := newEnv(t, nil)
	resp, err := e.service().Submit(context.Background(), "dan", "unknown-type", []string{"1"})
	require.NoError(t, err)
	require.Equal(t, 0, resp.Summary.TotalQuestions)
	require.Equal(t, "0.00%", resp.Summary.Score)
}

func TestSubmitRequiresStudent(t *testing.T) {
	e := newEnv(t, nil)
	_, err := e.service().Submit(context.Background(), " ", "programming", nil)
	require.ErrorIs(t, err, ErrMissingStudent)
}

type failingRecorder struct{ calls int }

func (r *failingRecorder) InsertSubmissionResult(context.Context, *store.SubmissionResult) error {
	r.calls++
	return &store.DataAccessError{Op: "insert submission result", Err: errors.New("disk full")}
}

type failingRecommender struct{}

func (failingRecommender) ForFailedQuestions(context.Context, []int64) (*recommend.Bundle, error) {
	return nil, errors.New("store unreachable")
}

func TestSubmitDegradesOnFailures(t *testing.T) {
	e := newEnv(t, nil)
	rec := &failingRecorder{}
	svc := NewService(e.questions, failingRecommender{}, rec, nil)

	resp, err := svc.Submit(context.Background(), "erin", "programming", []string{"1", "1"})
	require.NoError(t, err)
	require.Equal(t, 1, rec.calls)
	require.Equal(t, 1, resp.Summary.CorrectAnswers)
	require.NotNil(t, resp.Recommendations)
	require.Empty(t, resp.Recommendations)
}

func TestSubmitPersistsAfterCancel(t *testing.T) {
	e := newEnv(t, nil)
	svc := e.service()
	ctx, cancel := context.WithCancel(context.Background())

	ev, err := svc.Evaluate(ctx, "programming", nil)
	require.NoError(t, err)
	require.Equal(t, 2, ev.Total)

	cancel()
	// Reads on a cancelled context fail before anything is written.
	_, err = svc.Submit(ctx, "frank", "programming", nil)
	require.Error(t, err)
	saved, err := e.st.Results().ListSubmissionResults(context.Background(), "frank", 0)
	require.NoError(t, err)
	require.Empty(t, saved)
}

func TestResponseJSONShape(t *testing.T) {
	e := newEnv(t, nil)
	resp, err := e.service().Submit(context.Background(), "gina", "programming", []string{"1"})
	require.NoError(t, err)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	for _, key := range []string{"success", "evaluationResults", "recommendations", "aiInsights", "summary"} {
		require.Contains(t, doc, key)
	}
	require.NotContains(t, doc, "aiGuidance")
	summary := doc["summary"].(map[string]any)
	require.Equal(t, "0.00%", summary["score"])
}
