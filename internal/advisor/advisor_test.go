package advisor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/abhisek/kgtutor/internal/llm"
	"github.com/abhisek/kgtutor/internal/question"
)

func newTestGateway(p llm.Provider, cache Cache) *Gateway {
	cfg := DefaultConfig()
	cfg.Timeout = time.Second
	return New(p, cfg, cache, nil)
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, false, c.err
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.data[key] = val
	return nil
}

func TestUnavailableGateway(t *testing.T) {
	ctx := context.Background()
	for _, g := range []*Gateway{Unavailable(), New(nil, DefaultConfig(), nil, nil), nil} {
		if g.Available() {
			t.Fatal("expected unavailable gateway")
		}
		if got := g.Insight(ctx, "q", "c", nil); got != "" {
			t.Errorf("Insight = %q, want empty", got)
		}
		if got := g.Guidance(ctx, "c", nil); got != nil {
			t.Errorf("Guidance = %+v, want nil", got)
		}
		if got := g.PracticeQuestions(ctx, []string{"c"}, 3); got != nil {
			t.Errorf("PracticeQuestions = %+v, want nil", got)
		}
		if got := g.Rank(ctx, []Candidate{{ID: "1"}}); got != nil {
			t.Errorf("Rank = %+v, want nil", got)
		}
	}
}

func TestInsight(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("  Study loops first.  "))
	g := newTestGateway(mock, nil)

	got := g.Insight(context.Background(), "What does a for loop print?", "Loops", []string{"Variables", "Conditionals"})
	if got != "Study loops first." {
		t.Fatalf("Insight = %q", got)
	}

	req := mock.Calls[0]
	if req.Schema != nil {
		t.Error("insight request should not carry a schema")
	}
	msg := req.Messages[0].Content
	for _, want := range []string{"What does a for loop print?", "Failed concept: Loops", "Variables, Conditionals"} {
		if !strings.Contains(msg, want) {
			t.Errorf("prompt missing %q:\n%s", want, msg)
		}
	}
}

func TestInsightWithoutPrerequisites(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("ok"))
	g := newTestGateway(mock, nil)

	g.Insight(context.Background(), "q", "Loops", nil)
	if !strings.Contains(mock.Calls[0].Messages[0].Content, "None identified") {
		t.Errorf("prompt should mention no prerequisites:\n%s", mock.Calls[0].Messages[0].Content)
	}
}

func TestInsightDegradesOnError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrRateLimit{}})
	g := newTestGateway(mock, nil)
	if got := g.Insight(context.Background(), "q", "c", nil); got != "" {
		t.Fatalf("Insight = %q, want empty", got)
	}
}

func TestInsightTimeout(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: []byte("late"), Delay: time.Second})
	cfg := DefaultConfig()
	cfg.Timeout = 10 * time.Millisecond
	g := New(mock, cfg, nil, nil)

	start := time.Now()
	if got := g.Insight(context.Background(), "q", "c", nil); got != "" {
		t.Fatalf("Insight = %q, want empty after timeout", got)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("timeout was not applied")
	}
}

func TestInsightDisabledByConfig(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("unused"))
	cfg := DefaultConfig()
	cfg.DisableInsight = true
	g := New(mock, cfg, nil, nil)
	if got := g.Insight(context.Background(), "q", "c", nil); got != "" {
		t.Fatalf("Insight = %q, want empty", got)
	}
	if mock.CallCount() != 0 {
		t.Fatal("provider should not be called")
	}
}

func TestInsightCache(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("cached advice"))
	cache := newMemCache()
	g := newTestGateway(mock, cache)
	ctx := context.Background()

	first := g.Insight(ctx, "q", "c", []string{"p"})
	second := g.Insight(ctx, "q", "c", []string{"p"})
	require.Equal(t, "cached advice", first)
	require.Equal(t, first, second)
	require.Equal(t, 1, mock.CallCount())

	// Different inputs miss the cache and drain the mock.
	require.Empty(t, g.Insight(ctx, "q", "c", []string{"other"}))
}

func TestCacheErrorsAreIgnored(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("advice"))
	cache := newMemCache()
	cache.err = errors.New("redis down")
	g := newTestGateway(mock, cache)

	require.Equal(t, "advice", g.Insight(context.Background(), "q", "c", nil))
}

func TestGuidance(t *testing.T) {
	long := strings.Repeat("word ", 40)
	mock := llm.NewMockProvider(llm.MockJSON(map[string]any{
		"title":    "Master variables first",
		"analysis": long,
		"solution": "Practice assignment.",
		"howHelps": "Loops update variables.",
	}))
	g := newTestGateway(mock, nil)

	got := g.Guidance(context.Background(), "Loops", []string{"Variables"})
	require.NotNil(t, got)
	require.Equal(t, "Master variables first", got.Title)
	require.Len(t, strings.Fields(got.Analysis), GuidanceWordLimit)
	require.Equal(t, "Loops update variables.", got.HowHelps)
	require.Equal(t, GuidanceSchema, mock.Calls[0].Schema)
}

func TestGuidanceMalformed(t *testing.T) {
	tests := []struct {
		name string
		resp llm.MockResponse
	}{
		{"not json", llm.MockText("here is some guidance")},
		{"missing fields", llm.MockJSON(map[string]any{"title": "x"})},
		{"all empty", llm.MockJSON(map[string]any{"title": "", "analysis": "", "solution": "", "howHelps": ""})},
		{"provider error", llm.MockResponse{Err: &llm.ErrProviderUnavailable{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGateway(llm.NewMockProvider(tt.resp), nil)
			if got := g.Guidance(context.Background(), "Loops", nil); got != nil {
				t.Fatalf("Guidance = %+v, want nil", got)
			}
		})
	}
}

func TestGuidanceCache(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockJSON(map[string]any{
		"title": "t", "analysis": "a", "solution": "s", "howHelps": "h",
	}))
	g := newTestGateway(mock, newMemCache())
	ctx := context.Background()

	first := g.Guidance(ctx, "Loops", []string{"Variables"})
	second := g.Guidance(ctx, "Loops", []string{"Variables"})
	require.Equal(t, first, second)
	require.Equal(t, 1, mock.CallCount())
}

func TestPracticeQuestions(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockJSON(map[string]any{
		"questions": []map[string]any{
			{"text": "What is x after x = 2?", "options": []string{"1", "2", "3", "4"}, "correct_option": 2, "concept_name": "Variables"},
			{"text": "Three options only", "options": []string{"a", "b", "c"}, "correct_option": 1, "concept_name": "Variables"},
			{"text": "Blank option", "options": []string{"a", "", "c", "d"}, "correct_option": 1, "concept_name": "Variables"},
			{"text": "Repeated choice", "options": []string{"4", "4", "5", "6"}, "correct_option": 1, "concept_name": "Variables"},
			{"text": "Index out of range", "options": []string{"a", "b", "c", "d"}, "correct_option": 5, "concept_name": "Variables"},
			{"text": "", "options": []string{"a", "b", "c", "d"}, "correct_option": 1, "concept_name": "Variables"},
			{"text": "Which keyword starts an if?", "options": []string{"if", "for", "let", "fn"}, "correct_option": 1, "concept_name": ""},
		},
	}))
	g := newTestGateway(mock, nil)

	got := g.PracticeQuestions(context.Background(), []string{"Variables", "Conditionals"}, 6)
	require.Len(t, got, 2)
	for _, p := range got {
		require.True(t, strings.HasPrefix(p.ID, "ai-"), "id %q", p.ID)
		require.Equal(t, question.TypeGenerated, p.Type)
		require.Nil(t, p.ConceptID)
		require.Len(t, p.Options, 4)
		require.True(t, p.Generated())
	}
	require.Equal(t, "Variables", got[0].ConceptName)
	require.Equal(t, 2, got[0].CorrectOption)
	require.Equal(t, "Variables, Conditionals", got[1].ConceptName)
	require.NotEqual(t, got[0].ID, got[1].ID)
	require.Contains(t, mock.Calls[0].Messages[0].Content, "Number of questions: 6")
}

func TestPracticeQuestionsCapAndDefault(t *testing.T) {
	item := func(text string) map[string]any {
		return map[string]any{"text": text, "options": []string{"a", "b", "c", "d"}, "correct_option": 1, "concept_name": "C"}
	}
	var items []map[string]any
	for i := range 10 {
		items = append(items, item(strings.Repeat("q", i+1)))
	}
	mock := llm.NewMockProvider(llm.MockJSON(map[string]any{"questions": items}))
	g := newTestGateway(mock, nil)

	got := g.PracticeQuestions(context.Background(), []string{"C"}, 0)
	require.Len(t, got, DefaultPracticeCount)
}

func TestPracticeQuestionsNoConcepts(t *testing.T) {
	mock := llm.NewMockProvider()
	g := newTestGateway(mock, nil)
	require.Nil(t, g.PracticeQuestions(context.Background(), nil, 6))
	require.Zero(t, mock.CallCount())
}

func TestRank(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockJSON(map[string]any{
		"ranked": []map[string]any{
			{"id": "2", "score": 5, "reason": " essential "},
			{"id": "ghost", "score": 4, "reason": "unknown id"},
			{"id": "1", "score": 3, "reason": "useful"},
			{"id": "2", "score": 1, "reason": "repeat"},
		},
	}))
	g := newTestGateway(mock, nil)

	got := g.Rank(context.Background(), []Candidate{
		{ID: "1", ConceptName: "Variables", Text: "q1"},
		{ID: "2", ConceptName: "Loops", Text: "q2"},
		{ID: "3", ConceptName: "Loops", Text: "q3"},
	})
	require.Equal(t, []Ranking{
		{ID: "2", Score: 5, Reason: "essential"},
		{ID: "1", Score: 3, Reason: "useful"},
	}, got)
	require.Contains(t, mock.Calls[0].Messages[0].Content, `"conceptName": "Variables"`)
}

func TestRankDegrades(t *testing.T) {
	tests := []struct {
		name string
		resp llm.MockResponse
	}{
		{"score out of schema", llm.MockJSON(map[string]any{"ranked": []map[string]any{{"id": "1", "score": 9, "reason": "x"}}})},
		{"empty", llm.MockJSON(map[string]any{"ranked": []map[string]any{}})},
		{"only unknown ids", llm.MockJSON(map[string]any{"ranked": []map[string]any{{"id": "zz", "score": 3, "reason": "x"}}})},
		{"garbage", llm.MockText("[1, 2")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGateway(llm.NewMockProvider(tt.resp), nil)
			if got := g.Rank(context.Background(), []Candidate{{ID: "1", Text: "q"}}); got != nil {
				t.Fatalf("Rank = %+v, want nil", got)
			}
		})
	}
}

func TestRankSkipsEmptyCandidates(t *testing.T) {
	mock := llm.NewMockProvider()
	g := newTestGateway(mock, nil)
	require.Nil(t, g.Rank(context.Background(), nil))
	require.Zero(t, mock.CallCount())
}

func TestClampWords(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"", 3, ""},
		{"one two", 3, "one two"},
		{"  one   two three four ", 3, "one two three"},
	}
	for _, tt := range tests {
		if got := clampWords(tt.in, tt.n); got != tt.want {
			t.Errorf("clampWords(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestCacheKeyDistinguishesInputs(t *testing.T) {
	a := cacheKey("insight", "q", "c")
	b := cacheKey("insight", "qc")
	c := cacheKey("guidance", "q", "c")
	if a == b || a == c {
		t.Fatalf("cache keys collide: %s %s %s", a, b, c)
	}
	if !strings.HasPrefix(a, "advisor:insight:") {
		t.Fatalf("unexpected key %s", a)
	}
}
