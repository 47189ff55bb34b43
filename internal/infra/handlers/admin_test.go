package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sokolink-advisor/internal/domain/entities"
	Irepository "sokolink-advisor/internal/domain/interfaces/repository"
	"sokolink-advisor/internal/infra/logger"
)

const testAdminKey = "test-admin-key"

func newTestAdminHandlers(sessions *stubSessionService) *AdminHandlers {
	log := logger.NewLogger(context.Background(), false, "error")
	return NewAdminHandlers(log, testAdminKey, sessions)
}

func adminRequest(method, target, body string, vars map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+testAdminKey)
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func TestAdminRejectsMissingToken(t *testing.T) {
	handler := newTestAdminHandlers(&stubSessionService{})

	endpoints := []func(http.ResponseWriter, *http.Request){
		handler.GetSession,
		handler.GetSessionHistory,
		handler.GetActiveSessionByPhone,
		handler.DeactivateSession,
		handler.Cleanup,
	}

	for _, endpoint := range endpoints {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/sid-1", nil)
		rec := httptest.NewRecorder()
		endpoint(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}

func TestAdminRejectsWrongToken(t *testing.T) {
	handler := newTestAdminHandlers(&stubSessionService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/sid-1", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	rec := httptest.NewRecorder()
	handler.GetSession(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminGetSession(t *testing.T) {
	sessions := &stubSessionService{session: entities.Session{
		SessionID:  "sid-1",
		ExternalID: "+254712345678",
		State:      entities.StateReplaced,
		Context:    entities.ContextMap{"business_type": "restaurant"},
	}}
	handler := newTestAdminHandlers(sessions)

	rec := httptest.NewRecorder()
	handler.GetSession(rec, adminRequest(http.MethodGet, "/api/v1/sessions/sid-1", "", map[string]string{"id": "sid-1"}))

	require.Equal(t, http.StatusOK, rec.Code)

	var got entities.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "sid-1", got.SessionID)
	assert.Equal(t, entities.StateReplaced, got.State, "terminal sessions stay readable")
}

func TestAdminGetSessionNotFound(t *testing.T) {
	handler := newTestAdminHandlers(&stubSessionService{getErr: Irepository.ErrNotFound})

	rec := httptest.NewRecorder()
	handler.GetSession(rec, adminRequest(http.MethodGet, "/api/v1/sessions/missing", "", map[string]string{"id": "missing"}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminGetSessionStorageError(t *testing.T) {
	handler := newTestAdminHandlers(&stubSessionService{
		getErr: &Irepository.StorageError{Op: "get session", Err: context.DeadlineExceeded},
	})

	rec := httptest.NewRecorder()
	handler.GetSession(rec, adminRequest(http.MethodGet, "/api/v1/sessions/sid-1", "", map[string]string{"id": "sid-1"}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAdminGetSessionHistory(t *testing.T) {
	sessions := &stubSessionService{history: []entities.ConversationTurn{
		{SessionID: "sid-1", Direction: entities.DirectionIncoming, Content: "hello"},
		{SessionID: "sid-1", Direction: entities.DirectionOutgoing, Content: "Compliance guidance sent"},
	}}
	handler := newTestAdminHandlers(sessions)

	rec := httptest.NewRecorder()
	handler.GetSessionHistory(rec, adminRequest(http.MethodGet, "/api/v1/sessions/sid-1/history", "", map[string]string{"id": "sid-1"}))

	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		SessionID string                      `json:"session_id"`
		Turns     []entities.ConversationTurn `json:"turns"`
		Count     int                         `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "sid-1", got.SessionID)
	assert.Equal(t, 2, got.Count)
	require.Len(t, got.Turns, 2)
	assert.Equal(t, "hello", got.Turns[0].Content)
}

func TestAdminGetActiveSessionByPhone(t *testing.T) {
	sessions := &stubSessionService{session: entities.Session{
		SessionID:  "sid-2",
		ExternalID: "+254712345678",
		State:      entities.StateActive,
	}}
	handler := newTestAdminHandlers(sessions)

	rec := httptest.NewRecorder()
	handler.GetActiveSessionByPhone(rec, adminRequest(http.MethodGet,
		"/api/v1/sessions/phone/+254712345678", "", map[string]string{"phone": "+254712345678"}))

	require.Equal(t, http.StatusOK, rec.Code)

	var got entities.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "sid-2", got.SessionID)
}

func TestAdminDeactivateSession(t *testing.T) {
	sessions := &stubSessionService{}
	handler := newTestAdminHandlers(sessions)

	rec := httptest.NewRecorder()
	handler.DeactivateSession(rec, adminRequest(http.MethodDelete,
		"/api/v1/sessions/sid-1", "", map[string]string{"id": "sid-1"}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"sid-1"}, sessions.deactivated)
}

func TestAdminDeactivateSessionNotActive(t *testing.T) {
	handler := newTestAdminHandlers(&stubSessionService{deactivateErr: Irepository.ErrNotFound})

	rec := httptest.NewRecorder()
	handler.DeactivateSession(rec, adminRequest(http.MethodDelete,
		"/api/v1/sessions/sid-1", "", map[string]string{"id": "sid-1"}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminCleanupDefaults(t *testing.T) {
	sessions := &stubSessionService{removed: 7}
	handler := newTestAdminHandlers(sessions)

	rec := httptest.NewRecorder()
	handler.Cleanup(rec, adminRequest(http.MethodPost, "/api/v1/admin/cleanup", "", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Status          string `json:"status"`
		SessionsRemoved int64  `json:"sessions_removed"`
		RetentionDays   int    `json:"retention_days"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ok", got.Status)
	assert.Equal(t, int64(7), got.SessionsRemoved)
	assert.Equal(t, 30, got.RetentionDays, "empty body means default retention")

	require.Len(t, sessions.retentions, 1)
	assert.Equal(t, 30*24*time.Hour, sessions.retentions[0])
}

func TestAdminCleanupCustomWindow(t *testing.T) {
	sessions := &stubSessionService{}
	handler := newTestAdminHandlers(sessions)

	rec := httptest.NewRecorder()
	handler.Cleanup(rec, adminRequest(http.MethodPost, "/api/v1/admin/cleanup", `{"days": 7}`, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, sessions.retentions, 1)
	assert.Equal(t, 7*24*time.Hour, sessions.retentions[0])
}

func TestAdminCleanupRejectsNonPositiveDays(t *testing.T) {
	sessions := &stubSessionService{}
	handler := newTestAdminHandlers(sessions)

	rec := httptest.NewRecorder()
	handler.Cleanup(rec, adminRequest(http.MethodPost, "/api/v1/admin/cleanup", `{"days": -1}`, nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, sessions.retentions)
}
