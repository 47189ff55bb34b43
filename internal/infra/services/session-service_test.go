package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sokolink-advisor/internal/domain/entities"
	Irepository "sokolink-advisor/internal/domain/interfaces/repository"
	"sokolink-advisor/internal/infra/logger"
)

// fakeRepository lets each test script the storage behavior it needs.
type fakeRepository struct {
	sessions map[string]entities.Session
	active   map[string]string
	turns    []entities.ConversationTurn
	records  []entities.ComplianceRecord

	failLogTurn bool
	failRecord  bool
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		sessions: map[string]entities.Session{},
		active:   map[string]string{},
	}
}

func (f *fakeRepository) CreateSession(_ context.Context, externalID string, initialContext entities.ContextMap) (string, error) {
	if externalID == "" {
		return "", &Irepository.StorageError{Op: "create session", Err: errors.New("external id cannot be empty")}
	}
	if old, ok := f.active[externalID]; ok {
		s := f.sessions[old]
		s.State = entities.StateReplaced
		f.sessions[old] = s
	}
	sessionID := "session-" + externalID
	f.sessions[sessionID] = entities.Session{
		SessionID:  sessionID,
		ExternalID: externalID,
		State:      entities.StateActive,
		Context:    initialContext,
	}
	f.active[externalID] = sessionID
	return sessionID, nil
}

func (f *fakeRepository) GetActiveSession(_ context.Context, externalID string) (entities.Session, error) {
	sid, ok := f.active[externalID]
	if !ok {
		return entities.Session{}, Irepository.ErrNotFound
	}
	session := f.sessions[sid]
	if !session.IsActive() {
		return entities.Session{}, Irepository.ErrNotFound
	}
	return session, nil
}

func (f *fakeRepository) GetSession(_ context.Context, sessionID string) (entities.Session, error) {
	session, ok := f.sessions[sessionID]
	if !ok {
		return entities.Session{}, Irepository.ErrNotFound
	}
	return session, nil
}

func (f *fakeRepository) UpdateSession(_ context.Context, sessionID string, patch entities.ContextMap, newState string) error {
	session, ok := f.sessions[sessionID]
	if !ok || !session.IsActive() {
		return Irepository.ErrNotFound
	}
	session.Context = session.Context.Merge(patch)
	if newState != "" {
		session.State = newState
	}
	session.MessageCount++
	f.sessions[sessionID] = session
	return nil
}

func (f *fakeRepository) DeactivateSession(_ context.Context, sessionID string) error {
	session, ok := f.sessions[sessionID]
	if !ok || !session.IsActive() {
		return Irepository.ErrNotFound
	}
	session.State = entities.StateInactive
	f.sessions[sessionID] = session
	return nil
}

func (f *fakeRepository) LogTurn(_ context.Context, turn entities.ConversationTurn) error {
	if f.failLogTurn {
		return &Irepository.StorageError{Op: "log turn", Err: errors.New("disk full")}
	}
	f.turns = append(f.turns, turn)
	return nil
}

func (f *fakeRepository) SaveComplianceRecord(_ context.Context, record entities.ComplianceRecord) error {
	if f.failRecord {
		return &Irepository.StorageError{Op: "save compliance record", Err: errors.New("disk full")}
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeRepository) ConversationHistory(_ context.Context, sessionID string, _ int) ([]entities.ConversationTurn, error) {
	var turns []entities.ConversationTurn
	for _, turn := range f.turns {
		if turn.SessionID == sessionID {
			turns = append(turns, turn)
		}
	}
	return turns, nil
}

func (f *fakeRepository) CleanupExpired(_ context.Context, _ time.Duration) (int64, error) {
	return 0, nil
}

func newTestSessionService(repo Irepository.SessionRepository) *SessionService {
	return NewSessionService(repo, logger.NewLogger(context.Background(), false, "error"))
}

func TestLookupOrCreateReturnsExisting(t *testing.T) {
	repo := newFakeRepository()
	service := newTestSessionService(repo)
	ctx := context.Background()

	sid, err := service.Create(ctx, "+254712345678", nil)
	require.NoError(t, err)

	session, created, err := service.LookupOrCreate(ctx, "+254712345678")
	require.NoError(t, err)
	assert.Equal(t, sid, session.SessionID, "existing active session is reused")
	assert.False(t, created)
}

func TestLookupOrCreateCreatesWhenMissing(t *testing.T) {
	repo := newFakeRepository()
	service := newTestSessionService(repo)

	session, created, err := service.LookupOrCreate(context.Background(), "+254712345678")
	require.NoError(t, err)

	assert.True(t, created)
	assert.Equal(t, entities.StateActive, session.State)
	assert.Equal(t, "+254712345678", session.ExternalID)
	assert.Equal(t, "+254712345678", session.Context["external_id"], "identity seeded into context")
}

func TestLookupOrCreateDoesNotMaskStorageErrors(t *testing.T) {
	service := newTestSessionService(errorRepository{newFakeRepository()})

	_, created, err := service.LookupOrCreate(context.Background(), "+254712345678")
	var storageErr *Irepository.StorageError
	assert.True(t, errors.As(err, &storageErr))
	assert.False(t, created)
}

// errorRepository fails active-session reads with a storage error.
type errorRepository struct{ *fakeRepository }

func (errorRepository) GetActiveSession(context.Context, string) (entities.Session, error) {
	return entities.Session{}, &Irepository.StorageError{Op: "get active session", Err: errors.New("db locked")}
}

func TestLogTurnBestEffort(t *testing.T) {
	repo := newFakeRepository()
	repo.failLogTurn = true
	service := newTestSessionService(repo)

	// Must not panic or propagate the failure.
	service.LogTurn(context.Background(), entities.ConversationTurn{
		SessionID: "sid-1",
		Direction: entities.DirectionIncoming,
		Content:   "hello",
	})
	assert.Empty(t, repo.turns)

	repo.failLogTurn = false
	service.LogTurn(context.Background(), entities.ConversationTurn{
		SessionID: "sid-1",
		Direction: entities.DirectionIncoming,
		Content:   "hello again",
	})
	assert.Len(t, repo.turns, 1)
}

func TestSaveComplianceRecordBestEffort(t *testing.T) {
	repo := newFakeRepository()
	repo.failRecord = true
	service := newTestSessionService(repo)

	service.SaveComplianceRecord(context.Background(), entities.ComplianceRecord{SessionID: "sid-1"})
	assert.Empty(t, repo.records)
}

func TestDeactivatePropagatesNotFound(t *testing.T) {
	repo := newFakeRepository()
	service := newTestSessionService(repo)

	err := service.Deactivate(context.Background(), "missing")
	assert.ErrorIs(t, err, Irepository.ErrNotFound)
}
