package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/abhisek/kgtutor/internal/advisor"
	"github.com/abhisek/kgtutor/internal/cache"
	"github.com/abhisek/kgtutor/internal/concept"
	"github.com/abhisek/kgtutor/internal/config"
	"github.com/abhisek/kgtutor/internal/graphdb"
	"github.com/abhisek/kgtutor/internal/llm"
	"github.com/abhisek/kgtutor/internal/logger"
	"github.com/abhisek/kgtutor/internal/question"
	"github.com/abhisek/kgtutor/internal/recommend"
	"github.com/abhisek/kgtutor/internal/store"
	"github.com/abhisek/kgtutor/internal/submission"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "kgtutor",
	Short:        "Prerequisite-aware quiz remediation",
	Long:         "kgtutor grades multiple-choice quizzes and recommends practice on the prerequisite concepts behind each wrong answer.",
	SilenceUsage: true,
}

// Execute runs the root command, cancelling in-flight work on interrupt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (environment variables override it)")
	rootCmd.PersistentFlags().String("db", "", "Database DSN: SQLite path or Postgres URL (overrides KGTUTOR_STORE_DSN)")

	rootCmd.AddCommand(conceptCmd)
	rootCmd.AddCommand(relationCmd)
	rootCmd.AddCommand(questionCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// app holds the wired services for one command invocation.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	store *store.Store

	concepts    *concept.Service
	questions   *question.Service
	graph       *graphdb.Client
	redis       *cache.Redis
	advisor     *advisor.Gateway
	engine      *recommend.Engine
	submissions *submission.Service
}

// loadConfig reads --config (or the environment alone).
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// resolveDSN returns the store DSN using the --db flag (highest priority),
// then the configured DSN, then the default SQLite path.
func resolveDSN(cmd *cobra.Command, cfg *config.Config) (string, error) {
	dsn, _ := cmd.Flags().GetString("db")
	if dsn == "" {
		dsn = cfg.Store.DSN
	}
	if cfg.Store.Driver == store.DriverPostgres {
		return dsn, nil
	}
	if dsn == "" {
		return store.DefaultDBPath()
	}
	return dsn, store.EnsureDir(dsn)
}

// openStore loads config, builds the logger and opens the store. It is the
// lightweight path for commands that only read or write data.
func openStore(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	dsn, err := resolveDSN(cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database: %w", err)
	}
	st, err := store.Open(cmd.Context(), cfg.Store.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	log.Debug("store opened", "dialect", st.Dialect())

	a := &app{cfg: cfg, log: log, store: st}
	a.concepts = concept.NewService(st.Concepts(), log)
	a.questions = question.NewService(st.Questions(), a.concepts, log)
	return a, nil
}

// newApp wires the full recommendation stack on top of openStore.
func newApp(cmd *cobra.Command) (*app, error) {
	a, err := openStore(cmd)
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()

	if err := a.wireAdvisor(ctx); err != nil {
		a.Close()
		return nil, err
	}

	var prereqs recommend.PrerequisiteFinder = a.concepts
	if a.cfg.Graph.Backend == config.GraphNeo4j {
		g, err := graphdb.New(ctx, a.cfg.Graph.Neo4j, a.log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect neo4j: %w", err)
		}
		a.graph = g
		prereqs = g
	}

	source, err := recommend.NewSource(a.cfg.Recommend, a.questions, a.advisor)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.engine = recommend.NewEngine(recommend.Deps{
		Questions:     a.questions,
		Concepts:      a.concepts,
		Prerequisites: prereqs,
		Source:        source,
		Advisor:       a.advisor,
	}, a.cfg.Recommend, a.log)
	a.submissions = submission.NewService(a.questions, a.engine, a.store.Results(), a.log)
	return a, nil
}

// wireAdvisor builds the LLM provider and optional Redis cache. A missing
// provider leaves the gateway unavailable rather than failing.
func (a *app) wireAdvisor(ctx context.Context) error {
	provider, err := llm.NewProvider(ctx, a.cfg.LLM, a.store.LLMEvents(), a.log)
	if errors.Is(err, llm.ErrDisabled) {
		a.log.Debug("llm provider disabled, advisory features off")
		a.advisor = advisor.Unavailable()
		return nil
	}
	if err != nil {
		return fmt.Errorf("initialize llm provider: %w", err)
	}

	// Assigning a nil *cache.Redis to the interface would look non-nil.
	var c advisor.Cache
	r, err := cache.NewRedis(ctx, a.cfg.Cache)
	switch {
	case err != nil:
		a.log.Warn("redis cache unavailable, continuing without it", "error", err)
	case r != nil:
		a.redis = r
		c = r
	}

	a.advisor = advisor.New(provider, a.cfg.Advisor, c, a.log)
	return nil
}

// syncGraph mirrors the stored concept graph into Neo4j, connecting on
// first use.
func (a *app) syncGraph(ctx context.Context) (concepts, rels int, err error) {
	if a.graph == nil {
		g, err := graphdb.New(ctx, a.cfg.Graph.Neo4j, a.log)
		if err != nil {
			return 0, 0, fmt.Errorf("connect neo4j: %w", err)
		}
		if g == nil {
			return 0, 0, errors.New("neo4j is not configured (set KGTUTOR_NEO4J_URI)")
		}
		a.graph = g
	}

	cs, err := a.concepts.ListConcepts(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list concepts: %w", err)
	}
	rs, err := a.concepts.ListRelationships(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list relationships: %w", err)
	}
	if err := a.graph.Sync(ctx, cs, rs); err != nil {
		return 0, 0, fmt.Errorf("sync graph: %w", err)
	}
	return len(cs), len(rs), nil
}

// mirrorGraph re-syncs Neo4j after a write to the concept graph when Neo4j
// answers prerequisite queries. The SQL write has already happened.
func (a *app) mirrorGraph(ctx context.Context) error {
	if a.cfg.Graph.Backend != config.GraphNeo4j {
		return nil
	}
	if _, _, err := a.syncGraph(ctx); err != nil {
		return fmt.Errorf("saved, but the neo4j mirror is stale (run `kgtutor graph sync`): %w", err)
	}
	a.log.Debug("neo4j mirror updated")
	return nil
}

func (a *app) Close() {
	if a.graph != nil {
		_ = a.graph.Close(context.Background())
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	a.log.Sync()
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
