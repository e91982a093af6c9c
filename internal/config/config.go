package config

import (
	"fmt"
	"strings"

	"github.com/abhisek/kgtutor/internal/advisor"
	"github.com/abhisek/kgtutor/internal/cache"
	"github.com/abhisek/kgtutor/internal/graphdb"
	"github.com/abhisek/kgtutor/internal/llm"
	"github.com/abhisek/kgtutor/internal/recommend"
	"github.com/abhisek/kgtutor/internal/store"
	"github.com/ilyakaznacheev/cleanenv"
)

// Graph backends answering prerequisite queries.
const (
	GraphSQL   = "sql"
	GraphNeo4j = "neo4j"
)

// Config holds all application configuration. YAML values are overridden by
// environment variables; secrets are env-only (yaml:"-").
type Config struct {
	Env string `yaml:"env" env:"KGTUTOR_ENV" env-default:"local"`

	Log       LogConfig        `yaml:"log"`
	Store     StoreConfig      `yaml:"store"`
	LLM       llm.Config       `yaml:"llm"`
	Advisor   advisor.Config   `yaml:"advisor"`
	Recommend recommend.Config `yaml:"recommend"`
	Graph     GraphConfig      `yaml:"graph"`
	Cache     cache.Config     `yaml:"cache"`
}

type LogConfig struct {
	// Mode is "dev" (console encoder) or "prod" (JSON).
	Mode  string `yaml:"mode" env:"KGTUTOR_LOG_MODE" env-default:"dev"`
	Level string `yaml:"level" env:"KGTUTOR_LOG_LEVEL" env-default:"warn"`
}

type StoreConfig struct {
	Driver string `yaml:"driver" env:"KGTUTOR_STORE_DRIVER" env-default:"sqlite"`
	// DSN is a SQLite file path or a Postgres connection string. Empty
	// selects the default data directory for SQLite.
	DSN string `yaml:"-" env:"KGTUTOR_STORE_DSN"`
}

type GraphConfig struct {
	Backend string         `yaml:"backend" env:"KGTUTOR_GRAPH_BACKEND" env-default:"sql"`
	Neo4j   graphdb.Config `yaml:"neo4j"`
}

// Load reads configuration from path with environment overrides, or from the
// environment alone when path is empty.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM, _ = llm.DiscoverConfig(cfg.LLM)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks cross-field constraints cleanenv cannot express.
func (c *Config) Validate() error {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case "", store.DriverSQLite, store.DriverPostgres:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Driver == store.DriverPostgres && c.Store.DSN == "" {
		return fmt.Errorf("KGTUTOR_STORE_DSN is required for the postgres driver")
	}

	c.Graph.Backend = strings.ToLower(strings.TrimSpace(c.Graph.Backend))
	switch c.Graph.Backend {
	case "", GraphSQL:
		c.Graph.Backend = GraphSQL
	case GraphNeo4j:
		if c.Graph.Neo4j.URI == "" {
			return fmt.Errorf("KGTUTOR_NEO4J_URI is required for the neo4j graph backend")
		}
	default:
		return fmt.Errorf("unknown graph backend %q", c.Graph.Backend)
	}

	if err := c.Recommend.Validate(); err != nil {
		return err
	}
	return c.LLM.Validate()
}
