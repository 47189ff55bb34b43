package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sokolink-advisor/internal/domain/entities"
)

// ErrNotFound signals that the requested session does not exist or does not
// match the expected state. It is a valid outcome, not a storage failure;
// callers check it with errors.Is.
var ErrNotFound = errors.New("session not found")

// StorageError wraps a backing-store failure (unreachable, timed out, or an
// unexpected row shape). Mutating operations always surface it; no partial
// state is left behind.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// SessionRepository is the storage contract for session lifecycle state and
// the append-only conversation and compliance logs.
type SessionRepository interface {
	// CreateSession atomically replaces any active session for the identity
	// and inserts a fresh active one, returning its id.
	CreateSession(ctx context.Context, externalID string, initialContext entities.ContextMap) (string, error)

	// GetActiveSession returns the most recently active session for the
	// identity, or ErrNotFound.
	GetActiveSession(ctx context.Context, externalID string) (entities.Session, error)

	// GetSession returns the session by id regardless of state, or
	// ErrNotFound. Callers check State themselves when they need only-active
	// lookups.
	GetSession(ctx context.Context, sessionID string) (entities.Session, error)

	// UpdateSession merges the patch into the session context (top-level
	// overwrite), optionally transitions state, refreshes last_activity and
	// increments message_count. ErrNotFound if the session is missing or not
	// active.
	UpdateSession(ctx context.Context, sessionID string, patch entities.ContextMap, newState string) error

	// DeactivateSession sets state to inactive. ErrNotFound if the session
	// is missing or already terminal.
	DeactivateSession(ctx context.Context, sessionID string) error

	// LogTurn appends one conversation turn.
	LogTurn(ctx context.Context, turn entities.ConversationTurn) error

	// SaveComplianceRecord appends one advisory snapshot.
	SaveComplianceRecord(ctx context.Context, record entities.ComplianceRecord) error

	// ConversationHistory returns up to limit turns for the session in
	// chronological order.
	ConversationHistory(ctx context.Context, sessionID string, limit int) ([]entities.ConversationTurn, error)

	// CleanupExpired deletes non-active sessions whose last activity is older
	// than the retention window and returns the count removed. Active
	// sessions are never touched regardless of age.
	CleanupExpired(ctx context.Context, retention time.Duration) (int64, error)
}
