package client

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Write transactions grab the database lock up front (_txlock=immediate), so
// two creates racing on the same identity serialize at the storage layer
// instead of failing mid-transaction.
const dsnOptions = "?_txlock=immediate&_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	external_id TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	last_activity DATETIME NOT NULL,
	state TEXT NOT NULL DEFAULT 'active',
	context TEXT NOT NULL DEFAULT '{}',
	message_count INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_sessions_external_id ON sessions(external_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_one_active
	ON sessions(external_id) WHERE state = 'active';

CREATE TABLE IF NOT EXISTS conversation_turns (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	external_id TEXT NOT NULL,
	direction TEXT NOT NULL,
	content TEXT NOT NULL,
	timestamp DATETIME NOT NULL,
	metadata TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_turns_session_id ON conversation_turns(session_id);

CREATE TABLE IF NOT EXISTS compliance_records (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	external_id TEXT NOT NULL,
	business_type TEXT,
	business_scale TEXT,
	location TEXT,
	total_cost INTEGER,
	total_timeline_days INTEGER,
	response_data TEXT,
	confidence_score TEXT,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_session_id ON compliance_records(session_id);
`

// SQLiteClient opens the database file and bootstraps the schema.
func SQLiteClient(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", "file:"+path+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to verify database connection: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}
