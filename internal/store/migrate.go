package store

import (
	"database/sql"
	"log"
)

// Migrate applies the schema. The partial unique index on open sessions is
// what enforces at-most-one-open-session-per-person-per-day under concurrent
// check-ins; everything above it relies on that.
func Migrate(db *sql.DB) error {
	log.Println("running database migrations...")
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS employees (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			employee_id TEXT UNIQUE NOT NULL,
			name TEXT,
			template BYTEA,
			enrolled BOOLEAN NOT NULL DEFAULT FALSE,
			enrolled_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS terminals (
			terminal_id TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS refresh_tokens (
			id BIGSERIAL PRIMARY KEY,
			terminal_id TEXT NOT NULL,
			token TEXT NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			revoked BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS attendance_sessions (
			id UUID PRIMARY KEY,
			person_id TEXT NOT NULL,
			day_key TEXT NOT NULL,
			check_in_at TIMESTAMPTZ NOT NULL,
			check_out_at TIMESTAMPTZ,
			status TEXT NOT NULL CHECK (status IN ('OPEN', 'CLOSED')),
			total_hours NUMERIC(7,2),
			CHECK (check_out_at IS NULL OR check_out_at >= check_in_at)
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS attendance_sessions_one_open
			ON attendance_sessions (person_id, day_key) WHERE status = 'OPEN'`,
		`CREATE TABLE IF NOT EXISTS scan_attempts (
			id UUID PRIMARY KEY,
			terminal_id TEXT NOT NULL,
			action TEXT NOT NULL,
			occurred_at TIMESTAMPTZ NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			person_id TEXT,
			match_score DOUBLE PRECISION,
			session_id UUID,
			detail TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS scan_attempts_terminal
			ON scan_attempts (terminal_id, occurred_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			log.Printf("migration failed: %v", err)
			return err
		}
	}
	log.Println("database migrations completed")
	return nil
}
