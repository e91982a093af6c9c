package advisor

import (
	"bytes"
	"context"
	"strings"
	"text/template"

	"github.com/abhisek/kgtutor/internal/llm"
)

const insightSystemPrompt = `You are an expert tutor helping students learn through a knowledge graph of concepts. A student answered a question incorrectly.

Write a personalized learning response of at most 150 words that:
1. Explains why the student likely struggled with this concept.
2. Shows how the prerequisites connect to the failed concept.
3. Gives specific study tips or an analogy.
4. Ends with a short note of encouragement.

Keep the tone friendly and use simple language. Reply with plain text only.`

var insightUserTemplate = template.Must(template.New("insight").Funcs(template.FuncMap{"join": strings.Join}).Parse(`Failed question: {{.Question}}
Failed concept: {{.Concept}}
Prerequisite concepts to learn: {{if .Prerequisites}}{{join .Prerequisites ", "}}{{else}}None identified{{end}}
`))

type insightInput struct {
	Question      string
	Concept       string
	Prerequisites []string
}

// Insight returns free-form study advice for a failed question, or "" when
// none is available.
func (g *Gateway) Insight(ctx context.Context, failedQuestion, failedConcept string, prerequisites []string) string {
	if !g.Available() || g.cfg.DisableInsight {
		return ""
	}

	key := cacheKey(llm.PurposeInsight, failedQuestion, failedConcept, strings.Join(prerequisites, "\x1f"))
	if val, ok := g.cached(ctx, key); ok {
		return string(val)
	}

	var buf bytes.Buffer
	err := insightUserTemplate.Execute(&buf, insightInput{
		Question:      failedQuestion,
		Concept:       failedConcept,
		Prerequisites: prerequisites,
	})
	if err != nil {
		g.degraded("insight", err)
		return ""
	}

	resp, err := g.generate(ctx, llm.PurposeInsight, llm.Request{
		System:   insightSystemPrompt,
		Messages: llm.UserPrompt(buf.String()),
	})
	if err != nil {
		g.degraded("insight", err)
		return ""
	}

	text := strings.TrimSpace(resp.Text())
	g.remember(ctx, key, []byte(text))
	return text
}
