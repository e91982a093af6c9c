package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"text/template"

	"github.com/google/uuid"

	"github.com/abhisek/kgtutor/internal/llm"
	"github.com/abhisek/kgtutor/internal/question"
)

// DefaultPracticeCount is the number of questions requested when the caller
// does not say.
const DefaultPracticeCount = 6

// PracticeSchema describes a batch of generated questions. Options and the
// correct index are left unconstrained here so one bad item does not sink
// the batch; items are checked one by one after decoding.
var PracticeSchema = &llm.Schema{
	Name:        "practice-questions",
	Description: "Multiple-choice practice questions covering prerequisite concepts",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"text": map[string]any{
							"type":        "string",
							"description": "The question prompt",
						},
						"options": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "Exactly 4 non-empty answer options",
						},
						"correct_option": map[string]any{
							"type":        "integer",
							"description": "1-based index of the single correct option",
						},
						"concept_name": map[string]any{
							"type":        "string",
							"description": "The prerequisite concept this question practices",
						},
					},
					"required": []any{"text", "options", "correct_option", "concept_name"},
				},
			},
		},
		"required": []any{"questions"},
	},
}

const practiceSystemPrompt = `You write multiple-choice practice questions that help a student master prerequisite concepts.

Rules:
- Every question has exactly 4 non-empty options and exactly one correct option.
- correct_option is the 1-based position of the correct option.
- Distractors should reflect common mistakes, not random values.
- Spread the questions across the listed concepts and set concept_name to the concept each one covers.
- Do not repeat a question.`

var practiceUserTemplate = template.Must(template.New("practice").Parse(`Number of questions: {{.Count}}
Concepts:
{{range .Concepts}}- {{.}}
{{end}}`))

type practiceOutput struct {
	Questions []struct {
		Text          string   `json:"text"`
		Options       []string `json:"options"`
		CorrectOption int      `json:"correct_option"`
		ConceptName   string   `json:"concept_name"`
	} `json:"questions"`
}

// PracticeQuestions asks for count questions covering conceptNames.
// Malformed items are dropped, not replaced, so fewer than count may come
// back. The result is nil when nothing usable was produced.
func (g *Gateway) PracticeQuestions(ctx context.Context, conceptNames []string, count int) []question.Practice {
	if !g.Available() || len(conceptNames) == 0 {
		return nil
	}
	if count <= 0 {
		count = DefaultPracticeCount
	}

	var buf bytes.Buffer
	err := practiceUserTemplate.Execute(&buf, struct {
		Count    int
		Concepts []string
	}{count, conceptNames})
	if err != nil {
		g.degraded("practice", err)
		return nil
	}

	resp, err := g.generate(ctx, llm.PurposePracticeGen, llm.Request{
		System:   practiceSystemPrompt,
		Messages: llm.UserPrompt(buf.String()),
		Schema:   PracticeSchema,
	})
	if err != nil {
		g.degraded("practice", err)
		return nil
	}

	var raw practiceOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		g.degraded("practice", err)
		return nil
	}

	var out []question.Practice
	dropped := 0
	for _, item := range raw.Questions {
		if len(out) == count {
			break
		}
		u := &question.Upload{
			Text:          strings.TrimSpace(item.Text),
			Options:       item.Options,
			CorrectOption: item.CorrectOption,
			Type:          question.TypeGenerated,
		}
		if err := question.Validate(u, question.GeneratedValidators()...); err != nil {
			dropped++
			continue
		}
		name := strings.TrimSpace(item.ConceptName)
		if name == "" {
			name = strings.Join(conceptNames, ", ")
		}
		out = append(out, question.Practice{
			ID:            "ai-" + uuid.NewString(),
			Text:          u.Text,
			Options:       u.Options,
			CorrectOption: u.CorrectOption,
			Type:          question.TypeGenerated,
			ConceptName:   name,
		})
	}
	if dropped > 0 {
		g.log.Debug("dropped malformed practice questions", "dropped", dropped, "kept", len(out))
	}
	return out
}
