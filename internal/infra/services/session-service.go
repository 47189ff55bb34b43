package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sokolink-advisor/internal/domain/entities"
	Irepository "sokolink-advisor/internal/domain/interfaces/repository"
	"sokolink-advisor/internal/infra/logger"
)

// SessionService is the session manager: it owns session lifecycle
// transitions and wraps the append-only logs with best-effort semantics.
type SessionService struct {
	Repository Irepository.SessionRepository
	Logger     *logger.Logger
}

// NewSessionService creates a new instance of the service.
func NewSessionService(repository Irepository.SessionRepository, log *logger.Logger) *SessionService {
	return &SessionService{
		Repository: repository,
		Logger:     log,
	}
}

// LookupOrCreate returns the active session for the identity, creating one
// when none exists. The bool reports whether a session was created.
func (th *SessionService) LookupOrCreate(ctx context.Context, externalID string) (entities.Session, bool, error) {
	session, err := th.Repository.GetActiveSession(ctx, externalID)
	if err == nil {
		return session, false, nil
	}
	if !errors.Is(err, Irepository.ErrNotFound) {
		return entities.Session{}, false, err
	}

	th.Logger.Info(fmt.Sprintf("No active session for %s. Creating a new one.", externalID))

	sessionID, err := th.Repository.CreateSession(ctx, externalID, entities.ContextMap{
		"external_id": externalID,
	})
	if err != nil {
		return entities.Session{}, false, err
	}

	session, err = th.Repository.GetSession(ctx, sessionID)
	if err != nil {
		return entities.Session{}, false, err
	}
	return session, true, nil
}

// Create inserts a new session, replacing any active one for the identity.
func (th *SessionService) Create(ctx context.Context, externalID string, initialContext entities.ContextMap) (string, error) {
	sessionID, err := th.Repository.CreateSession(ctx, externalID, initialContext)
	if err != nil {
		th.Logger.Error(fmt.Sprintf("Failed to create session for %s: %v", externalID, err))
		return "", err
	}

	th.Logger.Info(fmt.Sprintf("Created session %s for %s", sessionID, externalID))
	return sessionID, nil
}

func (th *SessionService) Get(ctx context.Context, sessionID string) (entities.Session, error) {
	return th.Repository.GetSession(ctx, sessionID)
}

func (th *SessionService) GetActive(ctx context.Context, externalID string) (entities.Session, error) {
	return th.Repository.GetActiveSession(ctx, externalID)
}

func (th *SessionService) Update(ctx context.Context, sessionID string, patch entities.ContextMap, newState string) error {
	err := th.Repository.UpdateSession(ctx, sessionID, patch, newState)
	if err != nil && !errors.Is(err, Irepository.ErrNotFound) {
		th.Logger.Error(fmt.Sprintf("Failed to update session %s: %v", sessionID, err))
	}
	return err
}

func (th *SessionService) Deactivate(ctx context.Context, sessionID string) error {
	err := th.Repository.DeactivateSession(ctx, sessionID)
	if err == nil {
		th.Logger.Info(fmt.Sprintf("Deactivated session %s", sessionID))
	}
	return err
}

// LogTurn appends one conversation turn. Failures are reported but never
// returned: logging must not block message delivery.
func (th *SessionService) LogTurn(ctx context.Context, turn entities.ConversationTurn) {
	if err := th.Repository.LogTurn(ctx, turn); err != nil {
		th.Logger.Error(fmt.Sprintf("Failed to log %s turn for session %s: %v", turn.Direction, turn.SessionID, err))
	}
}

// SaveComplianceRecord appends one advisory snapshot, best-effort.
func (th *SessionService) SaveComplianceRecord(ctx context.Context, record entities.ComplianceRecord) {
	if err := th.Repository.SaveComplianceRecord(ctx, record); err != nil {
		th.Logger.Error(fmt.Sprintf("Failed to save compliance record for session %s: %v", record.SessionID, err))
		return
	}
	th.Logger.Info(fmt.Sprintf("Saved compliance record for session %s (cost %d, timeline %d days)",
		record.SessionID, record.TotalCost, record.TotalTimelineDays))
}

func (th *SessionService) History(ctx context.Context, sessionID string, limit int) ([]entities.ConversationTurn, error) {
	return th.Repository.ConversationHistory(ctx, sessionID, limit)
}

func (th *SessionService) CleanupExpired(ctx context.Context, retention time.Duration) (int64, error) {
	return th.Repository.CleanupExpired(ctx, retention)
}
