package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	// DriverCGO is github.com/mattn/go-sqlite3.
	DriverCGO = "sqlite3"
	// DriverPureGo is modernc.org/sqlite.
	DriverPureGo = "sqlite"
)

// Options tunes the store.
type Options struct {
	// ResolveRetries bounds the lookups made after losing an insert race.
	ResolveRetries int
	// ResolveBackoff is the base delay between those lookups; attempt n waits n*ResolveBackoff.
	ResolveBackoff time.Duration
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		ResolveRetries: 5,
		ResolveBackoff: 25 * time.Millisecond,
	}
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	opts Options
	now  func() time.Time
}

// NewSQLiteStore opens a SQLite database with the given driver and applies migrations.
func NewSQLiteStore(driver, dsn string, opts Options) (*SQLiteStore, error) {
	if driver == "" {
		driver = DriverCGO
	}
	if driver != DriverCGO && driver != DriverPureGo {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if opts.ResolveRetries <= 0 {
		opts.ResolveRetries = DefaultOptions().ResolveRetries
	}
	if opts.ResolveBackoff <= 0 {
		opts.ResolveBackoff = DefaultOptions().ResolveBackoff
	}

	inMemory := dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
	if !inMemory {
		dsn = withConnectionPragmas(driver, dsn)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if inMemory {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	store := &SQLiteStore{db: db, opts: opts, now: func() time.Time { return time.Now().UTC() }}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// withConnectionPragmas makes every pooled connection enforce foreign keys and wait on locks.
func withConnectionPragmas(driver, dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	switch driver {
	case DriverPureGo:
		if strings.Contains(dsn, "_pragma=") {
			return dsn
		}
		return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	default:
		if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
			return dsn
		}
		return dsn + sep + "_foreign_keys=on&_busy_timeout=5000"
	}
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS prospects (
			id TEXT PRIMARY KEY,
			linkedin_url TEXT NOT NULL UNIQUE,
			fname TEXT NOT NULL,
			middle_initial TEXT,
			lname TEXT NOT NULL,
			headline TEXT,
			profile_data TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS tov_configs (
			id TEXT PRIMARY KEY,
			formality INTEGER NOT NULL CHECK (formality BETWEEN 0 AND 100),
			warmth INTEGER NOT NULL CHECK (warmth BETWEEN 0 AND 100),
			directness INTEGER NOT NULL CHECK (directness BETWEEN 0 AND 100),
			instructions TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (formality, warmth, directness)
		)`,
		`CREATE TABLE IF NOT EXISTS message_sequences (
			id TEXT PRIMARY KEY,
			prospect_id TEXT NOT NULL,
			tov_config_id TEXT NOT NULL,
			company_context TEXT NOT NULL,
			prospect_analysis TEXT NOT NULL DEFAULT '{}',
			sequence_length INTEGER NOT NULL CHECK (sequence_length > 0),
			current_step INTEGER NOT NULL DEFAULT 1,
			response_received INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_sent_at DATETIME,
			FOREIGN KEY (prospect_id) REFERENCES prospects(id),
			FOREIGN KEY (tov_config_id) REFERENCES tov_configs(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_message_sequences_prospect ON message_sequences(prospect_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			message_sequence_id TEXT NOT NULL,
			step INTEGER NOT NULL CHECK (step >= 1),
			msg_content TEXT NOT NULL CHECK (length(msg_content) <= 2000),
			trigger_type TEXT NOT NULL DEFAULT 'no_response' CHECK (trigger_type IN ('no_response', 'always_send', 'manual')),
			delay_days INTEGER NOT NULL DEFAULT 2 CHECK (delay_days >= 0),
			confidence REAL NOT NULL CHECK (confidence BETWEEN 0 AND 100),
			rationale TEXT,
			FOREIGN KEY (message_sequence_id) REFERENCES message_sequences(id),
			UNIQUE (message_sequence_id, step)
		)`,
		`CREATE TABLE IF NOT EXISTS ai_generations (
			id TEXT PRIMARY KEY,
			sequence_id TEXT,
			provider TEXT NOT NULL,
			model TEXT NOT NULL,
			prompt TEXT NOT NULL,
			response TEXT NOT NULL,
			generation_type TEXT NOT NULL CHECK (generation_type IN ('profile_analysis', 'message_generation')),
			token_usage TEXT,
			cost_usd REAL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (sequence_id) REFERENCES message_sequences(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ai_generations_sequence ON ai_generations(sequence_id, created_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	return nil
}

// Ping checks that the database answers a trivial query.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	var ok int
	if err := s.db.QueryRowContext(ctx, `SELECT 1`).Scan(&ok); err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("unexpected ping result %d", ok)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringBytes(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

func jsonOrEmpty(b []byte) string {
	if len(b) == 0 {
		return "{}"
	}
	return string(b)
}
