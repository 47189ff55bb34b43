package Iservices

import (
	"context"
	"time"

	"sokolink-advisor/internal/domain/entities"
)

// ISessionService owns session lifecycle transitions and the append-only
// conversation/compliance logs. LogTurn and SaveComplianceRecord are
// best-effort: failures are reported in the logs but never returned, so the
// message-handling flow is never blocked by them.
type ISessionService interface {
	// LookupOrCreate returns the active session for the identity, creating
	// one when none exists. The bool reports whether a session was created.
	LookupOrCreate(ctx context.Context, externalID string) (entities.Session, bool, error)
	Create(ctx context.Context, externalID string, initialContext entities.ContextMap) (string, error)
	Get(ctx context.Context, sessionID string) (entities.Session, error)
	GetActive(ctx context.Context, externalID string) (entities.Session, error)
	Update(ctx context.Context, sessionID string, patch entities.ContextMap, newState string) error
	Deactivate(ctx context.Context, sessionID string) error
	LogTurn(ctx context.Context, turn entities.ConversationTurn)
	SaveComplianceRecord(ctx context.Context, record entities.ComplianceRecord)
	History(ctx context.Context, sessionID string, limit int) ([]entities.ConversationTurn, error)
	CleanupExpired(ctx context.Context, retention time.Duration) (int64, error)
}
