package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/abhisek/kgtutor/internal/concept"
	"github.com/abhisek/kgtutor/internal/question"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(context.Background(), DriverSQLite, path)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "x")
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reopen.db")

	s, err := Open(ctx, DriverSQLite, path)
	require.NoError(t, err)
	c := &concept.Concept{Name: "Fractions"}
	require.NoError(t, s.Concepts().InsertConcept(ctx, c))
	require.NoError(t, s.Close())

	s, err = Open(ctx, DriverSQLite, path)
	require.NoError(t, err)
	defer s.Close()

	all, err := s.Concepts().ListConcepts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "Fractions", all[0].Name)
}

func TestConceptRepo(t *testing.T) {
	ctx := context.Background()
	repo := openTestStore(t).Concepts()

	a := &concept.Concept{Name: "Addition", Description: "adding numbers"}
	b := &concept.Concept{Name: "Multiplication"}
	c := &concept.Concept{Name: "Division"}
	for _, x := range []*concept.Concept{a, b, c} {
		require.NoError(t, repo.InsertConcept(ctx, x))
		require.NotZero(t, x.ID)
	}

	got, err := repo.ConceptsByIDs(ctx, []int64{c.ID, a.ID, 999})
	require.NoError(t, err)
	require.Equal(t, []concept.Concept{*a, *c}, got)

	got, err = repo.ConceptsByIDs(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, got)

	require.NoError(t, repo.InsertRelationship(ctx, &concept.Relationship{
		SourceID: c.ID, TargetID: b.ID, Type: concept.DependsOn(),
	}))
	require.NoError(t, repo.InsertRelationship(ctx, &concept.Relationship{
		SourceID: c.ID, TargetID: a.ID, Type: concept.Other("RELATED_TO"),
	}))
	require.NoError(t, repo.InsertRelationship(ctx, &concept.Relationship{
		SourceID: b.ID, TargetID: a.ID, Type: concept.DependsOn(),
	}))

	from, err := repo.RelationshipsFrom(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, from, 2)
	require.True(t, from[0].Type.IsDependsOn())
	require.Equal(t, b.ID, from[0].TargetID)
	require.False(t, from[1].Type.IsDependsOn())
	require.Equal(t, "RELATED_TO", from[1].Type.Label())

	all, err := repo.ListRelationships(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestRelationshipForeignKeys(t *testing.T) {
	ctx := context.Background()
	repo := openTestStore(t).Concepts()

	a := &concept.Concept{Name: "A"}
	require.NoError(t, repo.InsertConcept(ctx, a))

	err := repo.InsertRelationship(ctx, &concept.Relationship{
		SourceID: a.ID, TargetID: 404, Type: concept.DependsOn(),
	})
	var dae *DataAccessError
	require.True(t, errors.As(err, &dae), "want DataAccessError, got %v", err)
}

func TestQuestionRepo(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	concepts, repo := s.Concepts(), s.Questions()

	frac := &concept.Concept{Name: "Fractions"}
	require.NoError(t, concepts.InsertConcept(ctx, frac))

	q1 := &question.Question{
		Text:          "1/2 + 1/4?",
		Options:       []string{"3/4", "2/6"},
		CorrectOption: 1,
		Type:          "math",
		ConceptID:     question.ConceptRef(frac.ID),
	}
	q2 := &question.Question{
		Text:          "Capital of France?",
		Options:       []string{"Paris", "Rome", "Berlin", "Madrid"},
		CorrectOption: 1,
		Type:          "geo",
	}
	require.NoError(t, repo.InsertQuestion(ctx, q1))
	require.NoError(t, repo.InsertQuestion(ctx, q2))

	got, err := repo.GetQuestion(ctx, q1.ID)
	require.NoError(t, err)
	require.Equal(t, q1, got)

	missing, err := repo.GetQuestion(ctx, 12345)
	require.NoError(t, err)
	require.Nil(t, missing)

	geo, err := repo.QuestionsByType(ctx, "geo")
	require.NoError(t, err)
	require.Len(t, geo, 1)
	require.Nil(t, geo[0].ConceptID)
	require.Len(t, geo[0].Options, 4)

	linked, err := repo.QuestionsByConcepts(ctx, []int64{frac.ID})
	require.NoError(t, err)
	require.Len(t, linked, 1)
	require.Equal(t, q1.ID, linked[0].ID)

	linked, err = repo.QuestionsByConcepts(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, linked)
}

func TestResultRepo(t *testing.T) {
	ctx := context.Background()
	repo := openTestStore(t).Results()

	first := &SubmissionResult{
		StudentIdentity:   "alice",
		QuestionType:      "math",
		Score:             1,
		TotalQuestions:    3,
		Percentage:        33.33,
		FailedQuestionIDs: []int64{4, 7},
	}
	second := &SubmissionResult{
		StudentIdentity: "alice",
		QuestionType:    "math",
		Score:           3,
		TotalQuestions:  3,
		Percentage:      100,
	}
	other := &SubmissionResult{StudentIdentity: "bob", QuestionType: "geo", TotalQuestions: 1}
	for _, r := range []*SubmissionResult{first, second, other} {
		require.NoError(t, repo.InsertSubmissionResult(ctx, r))
	}

	got, err := repo.ListSubmissionResults(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, second.ID, got[0].ID)
	require.Empty(t, got[0].FailedQuestionIDs)
	require.Equal(t, []int64{4, 7}, got[1].FailedQuestionIDs)
	require.InDelta(t, 33.33, got[1].Percentage, 1e-9)

	got, err = repo.ListSubmissionResults(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "bob", got[0].StudentIdentity)
}

func TestLLMEventRepo(t *testing.T) {
	ctx := context.Background()
	repo := openTestStore(t).LLMEvents()

	events := []*LLMEvent{
		{Provider: "mock", Model: "m1", Purpose: "insight", InputTokens: 10, OutputTokens: 5, LatencyMs: 100, Success: true, RequestBody: "[user]\nhi", ResponseBody: "{}"},
		{Provider: "mock", Model: "m1", Purpose: "insight", InputTokens: 20, OutputTokens: 7, LatencyMs: 300, Success: false, ErrorMessage: "boom"},
		{Provider: "mock", Model: "m1", Purpose: "ranking", InputTokens: 1, OutputTokens: 1, LatencyMs: 10, Success: true},
	}
	for _, ev := range events {
		require.NoError(t, repo.AppendLLMEvent(ctx, ev))
	}

	all, err := repo.ListLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "ranking", all[0].Purpose)

	insight, err := repo.ListLLMEvents(ctx, QueryOpts{Purpose: "insight", Limit: 1})
	require.NoError(t, err)
	require.Len(t, insight, 1)
	require.Equal(t, "boom", insight[0].ErrorMessage)

	future, err := repo.ListLLMEvents(ctx, QueryOpts{Since: time.Now().Add(time.Hour).UTC()})
	require.NoError(t, err)
	require.Empty(t, future)

	ev, err := repo.GetLLMEvent(ctx, events[0].ID)
	require.NoError(t, err)
	require.NotNil(t, ev)
	require.Equal(t, "[user]\nhi", ev.RequestBody)
	require.True(t, ev.Success)

	missing, err := repo.GetLLMEvent(ctx, 999)
	require.NoError(t, err)
	require.Nil(t, missing)

	usage, err := repo.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	require.Equal(t, []LLMUsage{
		{Purpose: "insight", Model: "m1", Calls: 2, Failures: 1, InputTokens: 30, OutputTokens: 12, LatencyMs: 400},
		{Purpose: "ranking", Model: "m1", Calls: 1, InputTokens: 1, OutputTokens: 1, LatencyMs: 10},
	}, usage)
}

func TestEnsureDir(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "nested", "deeper", "x.db")
	require.NoError(t, EnsureDir(p))
	require.DirExists(t, filepath.Join(dir, "nested", "deeper"))
	require.NoError(t, EnsureDir(":memory:"))
}

func TestDefaultDBPathEnv(t *testing.T) {
	p := filepath.Join(t.TempDir(), "sub", "kg.db")
	t.Setenv("KGTUTOR_DB", p)
	got, err := DefaultDBPath()
	require.NoError(t, err)
	require.Equal(t, p, got)
}
