package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"sokolink-advisor/internal/config"
	Iservices "sokolink-advisor/internal/domain/interfaces/services"
	"sokolink-advisor/internal/infra/handlers"
	"sokolink-advisor/internal/infra/logger"
	"sokolink-advisor/internal/infra/provider"
	"sokolink-advisor/internal/infra/repository"
	"sokolink-advisor/internal/infra/routes"
	"sokolink-advisor/internal/infra/services"
	"sokolink-advisor/internal/middleware"
	client "sokolink-advisor/internal/pkg"
	"sokolink-advisor/internal/telemetry"

	"github.com/gorilla/mux"
)

func main() {
	config.LoadEnv()
	settings := config.LoadSettings()

	ctx := context.Background()
	log := logger.NewLogger(ctx, true, settings.LogLevel)
	if settings.LogFile != "" {
		log = log.WithRotatingFile(settings.LogFile)
	}

	tel, err := telemetry.Init(ctx)
	if err != nil {
		log.Fatal(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	}
	defer tel.Shutdown()

	db, err := client.SQLiteClient(settings.DatabasePath)
	if err != nil {
		log.Fatal(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware(log))

	sessionRepo := repository.NewSQLiteRepository(db, log)

	var sessionSvc Iservices.ISessionService = services.NewSessionService(sessionRepo, log)

	httpClient := &http.Client{Timeout: 60 * time.Second}

	var advisorSvc Iservices.IAdvisorService = services.NewAdvisorService(
		log, httpClient,
		settings.AdvisorBaseURL, settings.AdvisorAPIKey, settings.AdvisorAgentID, settings.AdvisorProjectID,
	)

	whatsAppProvider := provider.NewMetaWhatsAppProvider(
		log, httpClient,
		settings.GraphAPIURL, settings.GraphAPIVersion, settings.WhatsAppPhoneNumberID, settings.WhatsAppAccessToken,
	)

	webhookHandlers := handlers.NewWebhookHandlers(log, settings.WebhookVerifyToken, sessionSvc, advisorSvc, whatsAppProvider, tel)
	adminHandlers := handlers.NewAdminHandlers(log, settings.AdminAPIKey, sessionSvc)

	routes := routes.NewRoutes(
		router,
		webhookHandlers,
		adminHandlers,
	)

	routes.Init()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", settings.Port),
		Handler: router,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	go func() {
		log.Info(fmt.Sprintf("Server is running on port %s", settings.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(fmt.Sprintf("Error running HTTP server: %s", err))
			os.Exit(1)
		}
	}()

	<-stop
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(fmt.Sprintf("Server forced to shutdown: %v", err))
	} else {
		log.Info("Server stopped gracefully.")
	}
}
