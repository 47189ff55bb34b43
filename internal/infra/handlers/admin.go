package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	Irepository "sokolink-advisor/internal/domain/interfaces/repository"
	Iservices "sokolink-advisor/internal/domain/interfaces/services"
	"sokolink-advisor/internal/infra/logger"
)

// AdminHandlers exposes the operator API: session inspection,
// deactivation and retention cleanup. All endpoints require the admin
// bearer token.
type AdminHandlers struct {
	Logger         *logger.Logger
	APIKey         string
	SessionService Iservices.ISessionService
}

func NewAdminHandlers(log *logger.Logger, apiKey string, sessionService Iservices.ISessionService) *AdminHandlers {
	return &AdminHandlers{Logger: log, APIKey: apiKey, SessionService: sessionService}
}

func (th *AdminHandlers) authorized(w http.ResponseWriter, r *http.Request) bool {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" || token != th.APIKey {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// GetSession returns a session by id, whatever its state.
func (th *AdminHandlers) GetSession(w http.ResponseWriter, r *http.Request) {
	if !th.authorized(w, r) {
		return
	}

	sessionID := mux.Vars(r)["id"]
	session, err := th.SessionService.Get(r.Context(), sessionID)
	if errors.Is(err, Irepository.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	if err != nil {
		th.Logger.Error(fmt.Sprintf("Failed to get session %s: %v", sessionID, err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "storage error"})
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// GetSessionHistory returns the conversation turns for a session in
// chronological order.
func (th *AdminHandlers) GetSessionHistory(w http.ResponseWriter, r *http.Request) {
	if !th.authorized(w, r) {
		return
	}

	sessionID := mux.Vars(r)["id"]
	history, err := th.SessionService.History(r.Context(), sessionID, 50)
	if err != nil {
		th.Logger.Error(fmt.Sprintf("Failed to load history for session %s: %v", sessionID, err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "storage error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"turns":      history,
		"count":      len(history),
	})
}

// GetActiveSessionByPhone returns the active session for a phone number.
func (th *AdminHandlers) GetActiveSessionByPhone(w http.ResponseWriter, r *http.Request) {
	if !th.authorized(w, r) {
		return
	}

	phone := mux.Vars(r)["phone"]
	session, err := th.SessionService.GetActive(r.Context(), phone)
	if errors.Is(err, Irepository.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active session"})
		return
	}
	if err != nil {
		th.Logger.Error(fmt.Sprintf("Failed to get active session for %s: %v", phone, err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "storage error"})
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// DeactivateSession transitions an active session to inactive.
// Deactivating a session that is already terminal yields 404.
func (th *AdminHandlers) DeactivateSession(w http.ResponseWriter, r *http.Request) {
	if !th.authorized(w, r) {
		return
	}

	sessionID := mux.Vars(r)["id"]
	err := th.SessionService.Deactivate(r.Context(), sessionID)
	if errors.Is(err, Irepository.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found or not active"})
		return
	}
	if err != nil {
		th.Logger.Error(fmt.Sprintf("Failed to deactivate session %s: %v", sessionID, err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "storage error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated", "session_id": sessionID})
}

type cleanupRequest struct {
	Days int `json:"days"`
}

// Cleanup deletes non-active sessions older than the retention window.
// Active sessions are never removed regardless of age.
func (th *AdminHandlers) Cleanup(w http.ResponseWriter, r *http.Request) {
	if !th.authorized(w, r) {
		return
	}

	// An empty body means the default retention window.
	req := cleanupRequest{Days: 30}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Days <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "days must be positive"})
		return
	}

	removed, err := th.SessionService.CleanupExpired(r.Context(), time.Duration(req.Days)*24*time.Hour)
	if err != nil {
		th.Logger.Error(fmt.Sprintf("Cleanup failed: %v", err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "storage error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"sessions_removed": removed,
		"retention_days":   req.Days,
	})
}
