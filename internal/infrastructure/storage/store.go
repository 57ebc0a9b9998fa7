package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"ResearchAgent/internal/config"
)

const (
	resultsTable  = "research_results"
	settingsTable = "user_settings"

	sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
)

// Store persists research results and the settings record in a SQL database.
type Store struct {
	db     *sql.DB
	driver string
	sb     sq.StatementBuilderType
	now    func() time.Time
}

// Open connects to the configured backend and applies the schema.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	var (
		db  *sql.DB
		err error
	)

	switch driver {
	case config.DriverSQLite, "":
		driver = config.DriverSQLite
		db, err = openSQLite(dsn)
	case config.DriverPostgres:
		db, err = sql.Open("postgres", dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s database: %w", driver, err)
	}

	store := New(db, driver)
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an already opened database. The schema is not touched.
func New(db *sql.DB, driver string) *Store {
	return &Store{
		db:     db,
		driver: driver,
		sb:     newBuilder(driver),
		now:    time.Now,
	}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func newBuilder(driver string) sq.StatementBuilderType {
	if driver == config.DriverPostgres {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

func openSQLite(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if dir := filepath.Dir(path); path != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return sql.Open("sqlite", path+sep+sqlitePragmas)
}

func (s *Store) migrate(ctx context.Context) error {
	statements := sqliteSchema
	if s.driver == config.DriverPostgres {
		statements = postgresSchema
	}
	for i, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i+1, err)
		}
	}
	return nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS user_settings (
		id               INTEGER PRIMARY KEY CHECK (id = 1),
		api_key          TEXT,
		calendar_enabled INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS research_results (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		url              TEXT NOT NULL,
		title            TEXT NOT NULL,
		content_type     TEXT NOT NULL,
		summary          TEXT NOT NULL DEFAULT '',
		key_insights     TEXT NOT NULL DEFAULT '[]',
		actionable_items TEXT NOT NULL DEFAULT '[]',
		status           TEXT NOT NULL,
		created_at       INTEGER NOT NULL,
		processed_at     INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS idx_research_results_created
		ON research_results(created_at DESC, id DESC)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS user_settings (
		id               INTEGER PRIMARY KEY CHECK (id = 1),
		api_key          TEXT,
		calendar_enabled BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS research_results (
		id               BIGSERIAL PRIMARY KEY,
		url              TEXT NOT NULL,
		title            TEXT NOT NULL,
		content_type     TEXT NOT NULL,
		summary          TEXT NOT NULL DEFAULT '',
		key_insights     TEXT NOT NULL DEFAULT '[]',
		actionable_items TEXT NOT NULL DEFAULT '[]',
		status           TEXT NOT NULL,
		created_at       BIGINT NOT NULL,
		processed_at     BIGINT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_research_results_created
		ON research_results(created_at DESC, id DESC)`,
}
