// Package advisor is the optional AI advisory gateway. Every operation is
// fail-soft: provider errors, timeouts and malformed output are logged and
// reported as an absent result, never as an error.
package advisor

import (
	"context"
	"time"

	"github.com/abhisek/kgtutor/internal/llm"
	"github.com/abhisek/kgtutor/internal/logger"
)

// Config tunes the advisory calls. Fields are filled by cleanenv from the
// `advisor` section.
type Config struct {
	Timeout     time.Duration `yaml:"timeout" env:"KGTUTOR_ADVISOR_TIMEOUT" env-default:"12s"`
	MaxTokens   int           `yaml:"max_tokens" env:"KGTUTOR_ADVISOR_MAX_TOKENS" env-default:"1024"`
	Temperature float64       `yaml:"temperature" env:"KGTUTOR_ADVISOR_TEMPERATURE" env-default:"0.4"`

	// Per-operation kill switches; everything is on by default. Practice
	// generation is governed by the recommendation source instead.
	DisableInsight  bool `yaml:"disable_insight" env:"KGTUTOR_ADVISOR_DISABLE_INSIGHT" env-default:"false"`
	DisableGuidance bool `yaml:"disable_guidance" env:"KGTUTOR_ADVISOR_DISABLE_GUIDANCE" env-default:"false"`
	DisableRanking  bool `yaml:"disable_ranking" env:"KGTUTOR_ADVISOR_DISABLE_RANKING" env-default:"false"`

	// CacheTTL bounds how long insight and guidance responses are reused.
	CacheTTL time.Duration `yaml:"cache_ttl" env:"KGTUTOR_ADVISOR_CACHE_TTL" env-default:"24h"`
}

// DefaultConfig mirrors the env-default tags.
func DefaultConfig() Config {
	return Config{
		Timeout:     12 * time.Second,
		MaxTokens:   1024,
		Temperature: 0.4,
		CacheTTL:    24 * time.Hour,
	}
}

// Gateway wraps an llm.Provider. A Gateway without a provider is
// unavailable and answers every call with an absent result.
type Gateway struct {
	provider llm.Provider
	cfg      Config
	cache    Cache
	log      *logger.Logger
}

// New creates a gateway. A nil provider yields an unavailable gateway; a
// nil cache disables caching.
func New(provider llm.Provider, cfg Config, cache Cache, log *logger.Logger) *Gateway {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultConfig().MaxTokens
	}
	return &Gateway{provider: provider, cfg: cfg, cache: cache, log: log}
}

// Unavailable returns a gateway with no backing provider.
func Unavailable() *Gateway {
	return New(nil, DefaultConfig(), nil, nil)
}

// Available reports whether a provider is configured.
func (g *Gateway) Available() bool {
	return g != nil && g.provider != nil
}

// generate runs one bounded provider call labelled with purpose.
func (g *Gateway) generate(ctx context.Context, purpose string, req llm.Request) (*llm.Response, error) {
	ctx, cancel := context.WithTimeout(llm.WithPurpose(ctx, purpose), g.cfg.Timeout)
	defer cancel()

	if req.MaxTokens == 0 {
		req.MaxTokens = g.cfg.MaxTokens
	}
	if req.Temperature == 0 {
		req.Temperature = g.cfg.Temperature
	}
	return g.provider.Generate(ctx, req)
}

// degraded logs an absorbed advisory failure.
func (g *Gateway) degraded(op string, err error) {
	g.log.Warn("advisory call degraded", "op", op, "error", err)
}
