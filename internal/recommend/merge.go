package recommend

import (
	"cmp"
	"slices"
	"strings"

	"github.com/abhisek/kgtutor/internal/advisor"
	"github.com/abhisek/kgtutor/internal/question"
)

// NormalizeText lowercases s and collapses runs of whitespace.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Dedupe keeps the first item for each normalized question text. Ids are
// ignored: generated items carry fresh ids for repeated text.
func Dedupe(items []question.Practice) []question.Practice {
	seen := make(map[string]bool, len(items))
	out := make([]question.Practice, 0, len(items))
	for _, p := range items {
		key := NormalizeText(p.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}

// ApplyRanking merges scores onto candidates. Scored items come first by
// descending score; unscored items follow in their original order. With
// no ranking matching a candidate the input is returned unchanged;
// otherwise the result is capped at limit.
func ApplyRanking(candidates []question.Practice, rankings []advisor.Ranking, limit int) []question.Practice {
	if len(rankings) == 0 || len(candidates) == 0 {
		return candidates
	}
	byID := make(map[string]advisor.Ranking, len(rankings))
	for _, r := range rankings {
		byID[r.ID] = r
	}

	out := make([]question.Practice, len(candidates))
	copy(out, candidates)
	scored := false
	for i := range out {
		if r, ok := byID[out[i].ID]; ok {
			score := r.Score
			out[i].Score = &score
			out[i].Reason = r.Reason
			scored = true
		}
	}
	if !scored {
		return candidates
	}
	slices.SortStableFunc(out, func(a, b question.Practice) int {
		switch {
		case a.Score != nil && b.Score != nil:
			return cmp.Compare(*b.Score, *a.Score)
		case a.Score != nil:
			return -1
		case b.Score != nil:
			return 1
		}
		return 0
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func candidatesFor(items []question.Practice) []advisor.Candidate {
	out := make([]advisor.Candidate, len(items))
	for i, p := range items {
		out[i] = advisor.Candidate{ID: p.ID, ConceptName: p.ConceptName, Text: p.Text}
	}
	return out
}
