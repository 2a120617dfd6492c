// Package persistence provides SQLite-backed galaxy state storage.
//
// Every entity is a JSON document in its own table, next to the key and
// index columns queries need. Writes are optimistic: an update reads the
// row's version, applies the caller's function, and writes back only if the
// version is unchanged, retrying a bounded number of times. Within one
// process, updates to the same key are also serialised by a per-key lock so
// the retry path is reserved for other processes sharing the file.
package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/holonet/internal/world"
)

// DefaultMaxRetries bounds compare-and-swap attempts per update.
const DefaultMaxRetries = 5

// Options configures a Store. Zero fields take defaults.
type Options struct {
	Logger     *slog.Logger
	MaxRetries int
}

// Store implements world.Store over a SQLite file.
type Store struct {
	db      *sqlx.DB
	log     *slog.Logger
	retries int
	locks   keyLocks
}

var _ world.Store = (*Store)(nil)

// Open opens or creates a SQLite database at path and applies the schema.
func Open(path string, opts Options) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &Store{db: conn, log: opts.Logger, retries: opts.MaxRetries}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.retries <= 0 {
		s.retries = DefaultMaxRetries
	}
	if err := s.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS factions (
		name TEXT PRIMARY KEY,
		version INTEGER NOT NULL,
		data TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS alignments (
		player TEXT PRIMARY KEY,
		version INTEGER NOT NULL,
		data TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS npc_memories (
		npc TEXT NOT NULL,
		player TEXT NOT NULL,
		version INTEGER NOT NULL,
		data TEXT NOT NULL,
		PRIMARY KEY (npc, player)
	);

	CREATE TABLE IF NOT EXISTS threats (
		player TEXT PRIMARY KEY,
		version INTEGER NOT NULL,
		data TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS quests (
		id TEXT PRIMARY KEY,
		player TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		version INTEGER NOT NULL,
		data TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		player TEXT NOT NULL,
		category TEXT NOT NULL,
		active INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		data TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_npc_memories_player ON npc_memories(player);
	CREATE INDEX IF NOT EXISTS idx_quests_player ON quests(player, status);
	CREATE INDEX IF NOT EXISTS idx_events_active ON events(active);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}
