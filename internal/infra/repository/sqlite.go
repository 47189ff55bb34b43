package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sokolink-advisor/internal/domain/entities"
	Irepository "sokolink-advisor/internal/domain/interfaces/repository"
	"sokolink-advisor/internal/infra/logger"
)

// SQLiteRepository implements the session store on SQLite. The single-active
// invariant is enforced twice: a partial unique index on
// (external_id) WHERE state='active', and an immediate write transaction that
// marks the old session replaced before inserting the new one.
type SQLiteRepository struct {
	db     *sql.DB
	Logger *logger.Logger
}

func NewSQLiteRepository(db *sql.DB, log *logger.Logger) *SQLiteRepository {
	return &SQLiteRepository{db: db, Logger: log}
}

func storageErr(op string, err error) error {
	return &Irepository.StorageError{Op: op, Err: err}
}

func (r *SQLiteRepository) CreateSession(ctx context.Context, externalID string, initialContext entities.ContextMap) (string, error) {
	if externalID == "" {
		return "", storageErr("create session", errors.New("external id cannot be empty"))
	}

	if initialContext == nil {
		initialContext = entities.ContextMap{}
	}
	contextJSON, err := json.Marshal(initialContext)
	if err != nil {
		return "", storageErr("create session", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", storageErr("create session", err)
	}
	defer tx.Rollback()

	// The previous active session for this identity loses; it keeps its
	// last_activity so retention ages it from its real last use.
	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET state = ? WHERE external_id = ? AND state = ?`,
		entities.StateReplaced, externalID, entities.StateActive,
	); err != nil {
		return "", storageErr("replace session", err)
	}

	sessionID := uuid.New().String()
	now := time.Now().UTC()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (session_id, external_id, created_at, last_activity, state, context, message_count)
		 VALUES (?, ?, ?, ?, ?, ?, 0)`,
		sessionID, externalID, now, now, entities.StateActive, string(contextJSON),
	); err != nil {
		return "", storageErr("insert session", err)
	}

	if err := tx.Commit(); err != nil {
		return "", storageErr("create session", err)
	}

	return sessionID, nil
}

const sessionColumns = `session_id, external_id, created_at, last_activity, state, context, message_count`

func (r *SQLiteRepository) scanSession(row *sql.Row) (entities.Session, error) {
	var s entities.Session
	var contextJSON string

	err := row.Scan(&s.SessionID, &s.ExternalID, &s.CreatedAt, &s.LastActivity, &s.State, &contextJSON, &s.MessageCount)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Session{}, Irepository.ErrNotFound
	}
	if err != nil {
		return entities.Session{}, storageErr("scan session", err)
	}

	if err := json.Unmarshal([]byte(contextJSON), &s.Context); err != nil {
		return entities.Session{}, storageErr("decode context", err)
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.LastActivity = s.LastActivity.UTC()

	return s, nil
}

func (r *SQLiteRepository) GetActiveSession(ctx context.Context, externalID string) (entities.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE external_id = ? AND state = ?
		 ORDER BY last_activity DESC LIMIT 1`,
		externalID, entities.StateActive,
	)
	return r.scanSession(row)
}

func (r *SQLiteRepository) GetSession(ctx context.Context, sessionID string) (entities.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE session_id = ?`,
		sessionID,
	)
	return r.scanSession(row)
}

func (r *SQLiteRepository) UpdateSession(ctx context.Context, sessionID string, patch entities.ContextMap, newState string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("update session", err)
	}
	defer tx.Rollback()

	var contextJSON string
	err = tx.QueryRowContext(ctx,
		`SELECT context FROM sessions WHERE session_id = ? AND state = ?`,
		sessionID, entities.StateActive,
	).Scan(&contextJSON)
	if errors.Is(err, sql.ErrNoRows) {
		// Missing or no longer active; inactive sessions are not resurrected.
		return Irepository.ErrNotFound
	}
	if err != nil {
		return storageErr("update session", err)
	}

	var current entities.ContextMap
	if err := json.Unmarshal([]byte(contextJSON), &current); err != nil {
		return storageErr("decode context", err)
	}

	merged, err := json.Marshal(current.Merge(patch))
	if err != nil {
		return storageErr("encode context", err)
	}

	state := newState
	if state == "" {
		state = entities.StateActive
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions
		 SET context = ?, state = ?, last_activity = ?, message_count = message_count + 1
		 WHERE session_id = ?`,
		string(merged), state, time.Now().UTC(), sessionID,
	); err != nil {
		return storageErr("update session", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("update session", err)
	}

	return nil
}

func (r *SQLiteRepository) DeactivateSession(ctx context.Context, sessionID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET state = ? WHERE session_id = ? AND state = ?`,
		entities.StateInactive, sessionID, entities.StateActive,
	)
	if err != nil {
		return storageErr("deactivate session", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return storageErr("deactivate session", err)
	}
	if affected == 0 {
		return Irepository.ErrNotFound
	}

	return nil
}

func (r *SQLiteRepository) LogTurn(ctx context.Context, turn entities.ConversationTurn) error {
	if turn.ID == "" {
		turn.ID = uuid.New().String()
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}
	if turn.Metadata == nil {
		turn.Metadata = entities.ContextMap{}
	}

	metadataJSON, err := json.Marshal(turn.Metadata)
	if err != nil {
		return storageErr("log turn", err)
	}

	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO conversation_turns (id, session_id, external_id, direction, content, timestamp, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		turn.ID, turn.SessionID, turn.ExternalID, turn.Direction, turn.Content, turn.Timestamp, string(metadataJSON),
	); err != nil {
		return storageErr("log turn", err)
	}

	return nil
}

func (r *SQLiteRepository) SaveComplianceRecord(ctx context.Context, record entities.ComplianceRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO compliance_records
		 (id, session_id, external_id, business_type, business_scale, location,
		  total_cost, total_timeline_days, response_data, confidence_score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.SessionID, record.ExternalID, record.BusinessType, record.BusinessScale,
		record.Location, record.TotalCost, record.TotalTimelineDays, record.ResponseData,
		record.ConfidenceScore, record.CreatedAt,
	); err != nil {
		return storageErr("save compliance record", err)
	}

	return nil
}

func (r *SQLiteRepository) ConversationHistory(ctx context.Context, sessionID string, limit int) ([]entities.ConversationTurn, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, external_id, direction, content, timestamp, metadata
		 FROM (
			SELECT * FROM conversation_turns WHERE session_id = ?
			ORDER BY timestamp DESC LIMIT ?
		 ) ORDER BY timestamp ASC`,
		sessionID, limit,
	)
	if err != nil {
		return nil, storageErr("conversation history", err)
	}
	defer rows.Close()

	var turns []entities.ConversationTurn
	for rows.Next() {
		var turn entities.ConversationTurn
		var metadataJSON string
		if err := rows.Scan(&turn.ID, &turn.SessionID, &turn.ExternalID, &turn.Direction,
			&turn.Content, &turn.Timestamp, &metadataJSON); err != nil {
			return nil, storageErr("conversation history", err)
		}
		if err := json.Unmarshal([]byte(metadataJSON), &turn.Metadata); err != nil {
			return nil, storageErr("decode metadata", err)
		}
		turn.Timestamp = turn.Timestamp.UTC()
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("conversation history", err)
	}

	return turns, nil
}

func (r *SQLiteRepository) CleanupExpired(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE state != ? AND last_activity < ?`,
		entities.StateActive, cutoff,
	)
	if err != nil {
		return 0, storageErr("cleanup expired", err)
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("cleanup expired", err)
	}

	if r.Logger != nil {
		r.Logger.Info(fmt.Sprintf("Cleaned up %d expired sessions older than %s", removed, cutoff.Format(time.RFC3339)))
	}

	return removed, nil
}
