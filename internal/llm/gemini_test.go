package llm

import (
	"testing"

	"google.golang.org/genai"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct{ in, want string }{
		{"gemini-flash", "gemini-2.0-flash"},
		{"gemini-pro", "gemini-2.0-pro"},
		{"gemini-2.5-flash", "gemini-2.5-flash"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.in, geminiModels); got != tt.want {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToGeminiSchema(t *testing.T) {
	s := toGeminiSchema(rankingTestSchema().Definition)

	if s.Type != genai.TypeObject {
		t.Fatalf("expected OBJECT, got %s", s.Type)
	}
	if len(s.Required) != 1 || s.Required[0] != "ranked" {
		t.Fatalf("required = %v", s.Required)
	}
	items := s.Properties["ranked"].Items
	if items == nil || items.Type != genai.TypeObject {
		t.Fatalf("ranked items not converted: %+v", s.Properties["ranked"])
	}
	score := items.Properties["score"]
	if score.Type != genai.TypeInteger {
		t.Fatalf("score type = %s", score.Type)
	}
	if score.Minimum == nil || *score.Minimum != 1 || score.Maximum == nil || *score.Maximum != 5 {
		t.Fatalf("score bounds not converted: %+v", score)
	}
}

func TestToGeminiSchema_StringSlices(t *testing.T) {
	s := toGeminiSchema(map[string]any{
		"type":     "object",
		"required": []string{"title"},
		"properties": map[string]any{
			"level": map[string]any{"type": "string", "enum": []any{"low", "high"}},
			"tags":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "maxItems": 4},
			"odd":   map[string]any{"type": "tuple"},
		},
	})
	if len(s.Required) != 1 {
		t.Fatalf("required = %v", s.Required)
	}
	if len(s.Properties["level"].Enum) != 2 {
		t.Fatalf("enum = %v", s.Properties["level"].Enum)
	}
	if mi := s.Properties["tags"].MaxItems; mi == nil || *mi != 4 {
		t.Fatalf("maxItems not converted")
	}
	if s.Properties["odd"].Type != genai.TypeString {
		t.Fatalf("unknown types should fall back to STRING, got %s", s.Properties["odd"].Type)
	}
}
