package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type migration struct {
	version int
	name    string
	stmts   []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "users",
		stmts: []string{`
CREATE TABLE users (
	id                 TEXT PRIMARY KEY,
	username           TEXT NOT NULL COLLATE NOCASE UNIQUE,
	email              TEXT NOT NULL UNIQUE,
	password_hash      TEXT NOT NULL,
	display_name       TEXT NOT NULL DEFAULT '',
	diabetes_type      TEXT NOT NULL DEFAULT 'none',
	height_cm          REAL NOT NULL DEFAULT 0,
	target_glucose_min REAL NOT NULL DEFAULT 0,
	target_glucose_max REAL NOT NULL DEFAULT 0,
	created_at         INTEGER NOT NULL,
	updated_at         INTEGER NOT NULL
)`},
	},
	{
		version: 2,
		name:    "health_records",
		stmts: []string{`
CREATE TABLE health_records (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	record_type TEXT NOT NULL,
	value       TEXT NOT NULL,
	recorded_at INTEGER NOT NULL,
	notes       TEXT NOT NULL DEFAULT '',
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
)`,
			`CREATE INDEX idx_health_records_user_type_time ON health_records(user_id, record_type, recorded_at)`,
			`CREATE INDEX idx_health_records_user_time ON health_records(user_id, recorded_at)`,
		},
	},
	{
		version: 3,
		name:    "food_records",
		stmts: []string{`
CREATE TABLE food_records (
	id             TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name           TEXT NOT NULL,
	meal_type      TEXT NOT NULL,
	quantity_grams REAL NOT NULL DEFAULT 0,
	calories       REAL NOT NULL DEFAULT 0,
	carbohydrates  REAL NOT NULL DEFAULT 0,
	protein        REAL NOT NULL DEFAULT 0,
	fat            REAL NOT NULL DEFAULT 0,
	eaten_at       INTEGER NOT NULL,
	notes          TEXT NOT NULL DEFAULT '',
	created_at     INTEGER NOT NULL,
	updated_at     INTEGER NOT NULL
)`,
			`CREATE INDEX idx_food_records_user_time ON food_records(user_id, eaten_at)`,
		},
	},
	{
		version: 4,
		name:    "medications",
		stmts: []string{`
CREATE TABLE medications (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	dosage     REAL NOT NULL,
	unit       TEXT NOT NULL,
	frequency  TEXT NOT NULL DEFAULT '',
	taken_at   INTEGER NOT NULL,
	notes      TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
)`,
			`CREATE INDEX idx_medications_user_time ON medications(user_id, taken_at)`,
		},
	},
	{
		version: 5,
		name:    "chat_messages",
		stmts: []string{`
CREATE TABLE chat_messages (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at INTEGER NOT NULL
)`,
			`CREATE INDEX idx_chat_messages_user ON chat_messages(user_id, seq)`,
		},
	},
}

// LatestVersion is the schema version after all migrations.
func LatestVersion() int {
	return migrations[len(migrations)-1].version
}

// Migrate applies pending migrations, each in its own transaction.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version    INTEGER PRIMARY KEY,
	name       TEXT NOT NULL,
	applied_at INTEGER NOT NULL
)`); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	current, err := s.Version(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := s.apply(ctx, m); err != nil {
			return err
		}
		s.logger.Info("applied migration", zap.Int("version", m.version), zap.String("name", m.name))
	}
	return nil
}

func (s *Store) apply(ctx context.Context, m migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migration %d: %w", m.version, err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, stmt := range m.stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
		m.version, m.name, time.Now().UTC().UnixMilli(),
	); err != nil {
		return fmt.Errorf("recording migration %d: %w", m.version, err)
	}
	return tx.Commit()
}

// Version returns the highest applied migration, or 0.
func (s *Store) Version(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}
