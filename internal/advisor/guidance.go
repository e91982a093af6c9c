package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"text/template"

	"github.com/abhisek/kgtutor/internal/llm"
)

// GuidanceWordLimit caps every guidance field.
const GuidanceWordLimit = 28

// Guidance is a short structured study plan for a failed concept.
type Guidance struct {
	Title    string `json:"title"`
	Analysis string `json:"analysis"`
	Solution string `json:"solution"`
	HowHelps string `json:"howHelps"`
}

// GuidanceSchema constrains the guidance response.
var GuidanceSchema = &llm.Schema{
	Name:        "study-guidance",
	Description: "A short study guidance block for a concept the student failed",
	Strict:      true,
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "A short heading for the guidance",
			},
			"analysis": map[string]any{
				"type":        "string",
				"description": "Why the student is struggling, at most 28 words",
			},
			"solution": map[string]any{
				"type":        "string",
				"description": "What to study next, at most 28 words",
			},
			"howHelps": map[string]any{
				"type":        "string",
				"description": "How the prerequisites unlock the failed concept, at most 28 words",
			},
		},
		"required":             []any{"title", "analysis", "solution", "howHelps"},
		"additionalProperties": false,
	},
}

const guidanceSystemPrompt = `You are a concise study coach. Given a concept a student failed and its prerequisite concepts, produce a guidance block.

Rules:
- Each field must be at most 28 words.
- Refer to the prerequisites by name when there are any.
- Do not include greetings or markdown.`

var guidanceUserTemplate = template.Must(template.New("guidance").Parse(`Failed concept: {{.Concept}}
Prerequisites:
{{range .Prerequisites}}- {{.}}
{{else}}None identified
{{end}}`))

var errEmptyGuidance = errors.New("guidance response has no content")

// Guidance returns a structured study plan, or nil when none is available
// or the response could not be parsed.
func (g *Gateway) Guidance(ctx context.Context, failedConcept string, prerequisites []string) *Guidance {
	if !g.Available() || g.cfg.DisableGuidance {
		return nil
	}

	key := cacheKey(llm.PurposeGuidance, failedConcept, strings.Join(prerequisites, "\x1f"))
	if val, ok := g.cached(ctx, key); ok {
		if out, err := parseGuidance(val); err == nil {
			return out
		}
	}

	var buf bytes.Buffer
	err := guidanceUserTemplate.Execute(&buf, struct {
		Concept       string
		Prerequisites []string
	}{failedConcept, prerequisites})
	if err != nil {
		g.degraded("guidance", err)
		return nil
	}

	resp, err := g.generate(ctx, llm.PurposeGuidance, llm.Request{
		System:   guidanceSystemPrompt,
		Messages: llm.UserPrompt(buf.String()),
		Schema:   GuidanceSchema,
	})
	if err != nil {
		g.degraded("guidance", err)
		return nil
	}

	out, err := parseGuidance(resp.Content)
	if err != nil {
		g.degraded("guidance", err)
		return nil
	}
	if enc, err := json.Marshal(out); err == nil {
		g.remember(ctx, key, enc)
	}
	return out
}

func parseGuidance(raw []byte) (*Guidance, error) {
	var out Guidance
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	out.Title = clampWords(out.Title, GuidanceWordLimit)
	out.Analysis = clampWords(out.Analysis, GuidanceWordLimit)
	out.Solution = clampWords(out.Solution, GuidanceWordLimit)
	out.HowHelps = clampWords(out.HowHelps, GuidanceWordLimit)
	if out.Title == "" && out.Analysis == "" && out.Solution == "" && out.HowHelps == "" {
		return nil, errEmptyGuidance
	}
	return &out, nil
}

// clampWords keeps at most n whitespace-separated words of s.
func clampWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
