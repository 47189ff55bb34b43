package routes

import (
	"encoding/json"
	"net/http"

	"sokolink-advisor/internal/infra/handlers"

	"github.com/gorilla/mux"
)

type Routes struct {
	Mux            *mux.Router
	WebhookHandler *handlers.WebhookHandlers
	AdminHandler   *handlers.AdminHandlers
}

func NewRoutes(mux *mux.Router, webhookHandler *handlers.WebhookHandlers, adminHandler *handlers.AdminHandlers) *Routes {
	return &Routes{mux, webhookHandler, adminHandler}
}

func (r *Routes) Init() {
	// mux does not surface a subrouter's method mismatch as 405 by itself;
	// register the handler explicitly so unknown methods on known paths do
	// not fall through to 404.
	r.Mux.MethodNotAllowedHandler = methodNotAllowed()
	r.Mux.HandleFunc("/webhook/whatsapp", r.WebhookHandler.MetaWebhook)

	api := r.Mux.PathPrefix("/api/v1").Subrouter()
	api.MethodNotAllowedHandler = methodNotAllowed()
	api.HandleFunc("/sessions/{id}", r.AdminHandler.GetSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", r.AdminHandler.DeactivateSession).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/history", r.AdminHandler.GetSessionHistory).Methods(http.MethodGet)
	api.HandleFunc("/sessions/phone/{phone}", r.AdminHandler.GetActiveSessionByPhone).Methods(http.MethodGet)
	api.HandleFunc("/admin/cleanup", r.AdminHandler.Cleanup).Methods(http.MethodPost)

	r.Mux.HandleFunc("/healthCheck", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		response := map[string]string{"status": "healthy"}
		json.NewEncoder(w).Encode(response)
	}).Methods(http.MethodGet)
}

func methodNotAllowed() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
}
