package llm

import (
	"context"
	"encoding/json"
)

// Provider is the core abstraction for LLM interaction. The advisory
// gateway is the only consumer; it sends a Request and receives JSON.
type Provider interface {
	// Generate sends a prompt to the LLM and returns its response. When
	// req.Schema is set the provider asks for JSON conforming to it and the
	// returned Content has been validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	// System sets the LLM's role and constraints.
	System string

	// Messages is the conversation. Advisory calls are single-turn, so
	// this normally holds one user message.
	Messages []Message

	// Schema is the JSON Schema the response must conform to. When nil,
	// the response Content is the raw text.
	Schema *Schema

	MaxTokens int

	// Temperature controls randomness, 0.0 - 1.0.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// UserPrompt builds the common single-message conversation.
func UserPrompt(text string) []Message {
	return []Message{{Role: RoleUser, Content: text}}
}

// Schema defines the JSON structure expected from the LLM.
type Schema struct {
	// Name identifies this schema, kebab-case, e.g. "study-guidance".
	// It doubles as the compiled-schema cache key.
	Name string

	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any

	// Strict asks vendors that support it to enforce the schema during
	// decoding. Strict schemas must list every property as required.
	Strict bool
}

// Response holds the LLM's output.
type Response struct {
	// Content is the validated JSON object when a Schema was given, and
	// the raw text otherwise.
	Content json.RawMessage

	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason is normalized to "end", "max_tokens" or "error".
	StopReason string
}

// Text returns Content as a plain string.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return string(r.Content)
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
