package recommend

import (
	"fmt"
	"testing"

	"github.com/abhisek/kgtutor/internal/advisor"
	"github.com/abhisek/kgtutor/internal/question"
)

func practiceIDs(items []question.Practice) []string {
	ids := make([]string, len(items))
	for i, p := range items {
		ids[i] = p.ID
	}
	return ids
}

func TestNormalizeText(t *testing.T) {
	tests := []struct{ in, want string }{
		{"What is X?", "what is x?"},
		{"  what\tis \n x? ", "what is x?"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeText(tt.in); got != tt.want {
			t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDedupeIdempotent(t *testing.T) {
	items := []question.Practice{
		{ID: "1", Text: "Alpha"},
		{ID: "2", Text: "beta"},
		{ID: "3", Text: " ALPHA "},
		{ID: "ai-x", Text: "Beta"},
		{ID: "4", Text: "gamma"},
	}
	once := Dedupe(items)
	twice := Dedupe(once)
	if fmt.Sprint(practiceIDs(once)) != "[1 2 4]" {
		t.Fatalf("Dedupe = %v", practiceIDs(once))
	}
	if fmt.Sprint(practiceIDs(once)) != fmt.Sprint(practiceIDs(twice)) {
		t.Fatalf("Dedupe not idempotent: %v then %v", practiceIDs(once), practiceIDs(twice))
	}
}

func TestApplyRanking(t *testing.T) {
	base := func(n int) []question.Practice {
		var out []question.Practice
		for i := 1; i <= n; i++ {
			out = append(out, question.Practice{ID: fmt.Sprint(i), Text: fmt.Sprint("q", i)})
		}
		return out
	}

	tests := []struct {
		name     string
		n        int
		rankings []advisor.Ranking
		want     string
	}{
		{"no ranking keeps order", 3, nil, "[1 2 3]"},
		{"unmatched ranking keeps order", 3, []advisor.Ranking{{ID: "z", Score: 5}}, "[1 2 3]"},
		{"scored first by score", 4, []advisor.Ranking{{ID: "3", Score: 2}, {ID: "4", Score: 5}}, "[4 3 1 2]"},
		{"ties keep original order", 3, []advisor.Ranking{{ID: "3", Score: 4}, {ID: "1", Score: 4}}, "[1 3 2]"},
		{"capped when scored", 10, []advisor.Ranking{{ID: "10", Score: 1}}, "[10 1 2 3 4 5 6 7]"},
		{"not capped unscored", 10, nil, "[1 2 3 4 5 6 7 8 9 10]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyRanking(base(tt.n), tt.rankings, 8)
			if fmt.Sprint(practiceIDs(got)) != tt.want {
				t.Fatalf("ApplyRanking = %v, want %s", practiceIDs(got), tt.want)
			}
		})
	}
}

func TestApplyRankingDoesNotMutateInput(t *testing.T) {
	in := []question.Practice{{ID: "1"}, {ID: "2"}}
	ApplyRanking(in, []advisor.Ranking{{ID: "2", Score: 3, Reason: "r"}}, 8)
	if in[0].ID != "1" || in[1].Score != nil {
		t.Fatalf("input mutated: %+v", in)
	}
}
