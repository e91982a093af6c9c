package recommend

import "fmt"

// Practice source names accepted in Config.Source.
const (
	SourceStore     = "store"
	SourceGenerated = "generated"
)

// Config is filled by cleanenv from the `recommend` section.
type Config struct {
	// Source picks where prerequisite practice questions come from:
	// persisted questions ("store") or the advisory gateway ("generated").
	Source string `yaml:"source" env:"KGTUTOR_RECOMMEND_SOURCE" env-default:"store"`

	// GeneratedCount is how many questions the generated source asks for.
	GeneratedCount int `yaml:"generated_count" env:"KGTUTOR_RECOMMEND_GENERATED_COUNT" env-default:"6"`

	// RankLimit caps the candidate list once ranking has been applied.
	RankLimit int `yaml:"rank_limit" env:"KGTUTOR_RECOMMEND_RANK_LIMIT" env-default:"8"`

	// Concurrency bounds how many failed questions are processed at once.
	Concurrency int `yaml:"concurrency" env:"KGTUTOR_RECOMMEND_CONCURRENCY" env-default:"4"`
}

// DefaultConfig mirrors the env-default tags.
func DefaultConfig() Config {
	return Config{
		Source:         SourceStore,
		GeneratedCount: 6,
		RankLimit:      8,
		Concurrency:    4,
	}
}

// Validate checks the source name and numeric bounds.
func (c Config) Validate() error {
	switch c.Source {
	case SourceStore, SourceGenerated:
	default:
		return fmt.Errorf("recommend.source must be %q or %q, got %q", SourceStore, SourceGenerated, c.Source)
	}
	if c.GeneratedCount < 1 {
		return fmt.Errorf("recommend.generated_count must be positive, got %d", c.GeneratedCount)
	}
	if c.RankLimit < 1 {
		return fmt.Errorf("recommend.rank_limit must be positive, got %d", c.RankLimit)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("recommend.concurrency must be positive, got %d", c.Concurrency)
	}
	return nil
}
