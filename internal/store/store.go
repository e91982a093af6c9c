// Package store persists the concept graph, questions, submission results
// and LLM call records. The schema is declared with ent's schema package
// and migrated on Open; queries go through ent's SQL builder so the same
// code serves SQLite and PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	entschema "entgo.io/ent/dialect/sql/schema"

	// PostgreSQL through pgx's database/sql adapter, registered as "pgx".
	_ "github.com/jackc/pgx/v5/stdlib"
	// Pure Go SQLite driver (no CGO), registered as "sqlite".
	_ "modernc.org/sqlite"
)

// Supported values for the store driver setting.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store holds the database handle shared by the repositories.
type Store struct {
	db      *sql.DB
	drv     *entsql.Driver
	dialect string
}

// Open connects to the database, applies driver-specific settings and
// migrates the schema.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	var (
		db      *sql.DB
		dialect string
		err     error
	)
	switch driver {
	case DriverSQLite, "":
		dialect = dialectSQLite
		db, err = openSQLite(dsn)
	case DriverPostgres:
		dialect = dialectPostgres
		db, err = sql.Open("pgx", dsn)
		if err == nil {
			err = db.PingContext(ctx)
		}
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, &DataAccessError{Op: "open", Err: err}
	}

	s := &Store{db: db, drv: entsql.OpenDB(dialect, db), dialect: dialect}
	if err := s.migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

const (
	dialectSQLite   = dialect.SQLite
	dialectPostgres = dialect.Postgres
)

func openSQLite(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection keeps the per-connection pragmas in force and
	// serializes writers.
	db.SetMaxOpenConns(1)
	if err := applyPragmas(db); err != nil {
		return db, fmt.Errorf("apply pragmas: %w", err)
	}
	return db, nil
}

// applyPragmas configures SQLite for a single local process. foreign_keys
// is required by ent's SQLite migrator.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	m, err := entschema.NewMigrate(s.drv)
	if err != nil {
		return &DataAccessError{Op: "migrate", Err: err}
	}
	if err := m.Create(ctx, tables...); err != nil {
		return &DataAccessError{Op: "migrate", Err: err}
	}
	return nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the ent dialect name in use.
func (s *Store) Dialect() string {
	return s.dialect
}

func (s *Store) Close() error {
	return s.drv.Close()
}

func (s *Store) Concepts() *ConceptRepo { return &ConceptRepo{s} }

func (s *Store) Questions() *QuestionRepo { return &QuestionRepo{s} }

func (s *Store) Results() *ResultRepo { return &ResultRepo{s} }

func (s *Store) LLMEvents() *LLMEventRepo { return &LLMEventRepo{s} }

func (s *Store) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.dialect)
}

// query runs a select and hands each row to scan.
func (s *Store) query(ctx context.Context, op string, sel *entsql.Selector, scan func(*entsql.Rows) error) error {
	q, args := sel.Query()
	rows := &entsql.Rows{}
	if err := s.drv.Query(ctx, q, args, rows); err != nil {
		return &DataAccessError{Op: op, Err: err}
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return &DataAccessError{Op: op, Err: err}
		}
	}
	if err := rows.Err(); err != nil {
		return &DataAccessError{Op: op, Err: err}
	}
	return nil
}

// insert runs b and returns the new row id. PostgreSQL has no
// LastInsertId, so the id comes back through RETURNING there.
func (s *Store) insert(ctx context.Context, op string, b *entsql.InsertBuilder) (int64, error) {
	if s.dialect == dialectPostgres {
		var id int64
		found := false
		q, args := b.Returning("id").Query()
		rows := &entsql.Rows{}
		if err := s.drv.Query(ctx, q, args, rows); err != nil {
			return 0, &DataAccessError{Op: op, Err: err}
		}
		defer rows.Close()
		if rows.Next() {
			if err := rows.Scan(&id); err != nil {
				return 0, &DataAccessError{Op: op, Err: err}
			}
			found = true
		}
		if err := rows.Err(); err != nil {
			return 0, &DataAccessError{Op: op, Err: err}
		}
		if !found {
			return 0, &DataAccessError{Op: op, Err: sql.ErrNoRows}
		}
		return id, nil
	}

	q, args := b.Query()
	var res sql.Result
	if err := s.drv.Exec(ctx, q, args, &res); err != nil {
		return 0, &DataAccessError{Op: op, Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &DataAccessError{Op: op, Err: err}
	}
	return id, nil
}

// DefaultDBPath resolves the SQLite database path in priority order:
// 1. KGTUTOR_DB environment variable
// 2. $XDG_DATA_HOME/kgtutor/kgtutor.db
// 3. ~/.local/share/kgtutor/kgtutor.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("KGTUTOR_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "kgtutor", "kgtutor.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of a SQLite path. DSNs with a
// query string or the in-memory form are left alone.
func EnsureDir(path string) error {
	if path == "" || strings.HasPrefix(path, ":memory:") || strings.HasPrefix(path, "file:") {
		return nil
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
