package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/kgtutor/internal/logger"
	"github.com/abhisek/kgtutor/internal/store"
)

// NewProvider creates a Provider from configuration, wrapped as
// caller → retry → logging → vendor. It returns ErrDisabled when no
// provider is selected so callers can fall back to the unavailable state.
func NewProvider(ctx context.Context, cfg Config, events store.LLMEventRecorder, log *logger.Logger) (Provider, error) {
	if cfg.Disabled() {
		return nil, ErrDisabled
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderMock:
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return WithRetry(WithLogging(base, cfg.Provider, events, log), cfg.Retry), nil
}
