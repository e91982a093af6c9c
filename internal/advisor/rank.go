package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/kgtutor/internal/llm"
)

// Score bounds for ranking.
const (
	MinScore = 1
	MaxScore = 5
)

// Candidate is the reduced view of a practice question sent for ranking.
type Candidate struct {
	ID          string `json:"id"`
	ConceptName string `json:"conceptName"`
	Text        string `json:"text"`
}

// Ranking is the relevance verdict for one candidate.
type Ranking struct {
	ID     string
	Score  int
	Reason string
}

// RankingSchema constrains the ranking response.
var RankingSchema = &llm.Schema{
	Name:        "question-ranking",
	Description: "Relevance scores for remediation practice questions",
	Strict:      true,
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ranked": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id": map[string]any{
							"type":        "string",
							"description": "The candidate id, copied verbatim",
						},
						"score": map[string]any{
							"type":        "integer",
							"minimum":     MinScore,
							"maximum":     MaxScore,
							"description": "Relevance from 1 (barely useful) to 5 (essential)",
						},
						"reason": map[string]any{
							"type":        "string",
							"description": "One short sentence explaining the score",
						},
					},
					"required":             []any{"id", "score", "reason"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"ranked"},
		"additionalProperties": false,
	},
}

const rankSystemPrompt = `You rank practice questions by how well they help a student fill gaps in prerequisite concepts.

Rules:
- Score every candidate from 1 to 5, where 5 is most useful.
- Copy each id exactly as given. Do not invent ids.
- Keep each reason to one short sentence.`

type rankOutput struct {
	Ranked []struct {
		ID     string `json:"id"`
		Score  int    `json:"score"`
		Reason string `json:"reason"`
	} `json:"ranked"`
}

// Rank scores candidates. It returns nil when ranking is unavailable or
// the response carries no usable entry. Unknown ids, out-of-range scores
// and repeated ids are ignored.
func (g *Gateway) Rank(ctx context.Context, candidates []Candidate) []Ranking {
	if !g.Available() || g.cfg.DisableRanking || len(candidates) == 0 {
		return nil
	}

	payload, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		g.degraded("rank", err)
		return nil
	}
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Candidates (%d):\n", len(candidates))
	prompt.Write(payload)

	resp, err := g.generate(ctx, llm.PurposeRanking, llm.Request{
		System:   rankSystemPrompt,
		Messages: llm.UserPrompt(prompt.String()),
		Schema:   RankingSchema,
	})
	if err != nil {
		g.degraded("rank", err)
		return nil
	}

	var raw rankOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		g.degraded("rank", err)
		return nil
	}

	known := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		known[c.ID] = true
	}
	seen := make(map[string]bool, len(raw.Ranked))
	var out []Ranking
	for _, r := range raw.Ranked {
		if !known[r.ID] || seen[r.ID] || r.Score < MinScore || r.Score > MaxScore {
			continue
		}
		seen[r.ID] = true
		out = append(out, Ranking{ID: r.ID, Score: r.Score, Reason: strings.TrimSpace(r.Reason)})
	}
	if len(out) == 0 {
		g.log.Warn("ranking response had no usable entries", "candidates", len(candidates))
		return nil
	}
	return out
}
