package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

func LoadEnv() error {
	err := godotenv.Load(".env")
	if err != nil {
		log.Printf("could not load .env file: %v", err)
		return err
	}
	return nil
}

func GetEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("Environment variable %s is required but not set", key)
	}
	return value
}

func GetEnvDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// Settings carries the full runtime configuration, resolved once at startup
// and passed by reference to the components that need it.
type Settings struct {
	Port     string
	LogLevel string
	LogFile  string

	DatabasePath string

	GraphAPIURL           string
	GraphAPIVersion       string
	WhatsAppAccessToken   string
	WhatsAppPhoneNumberID string
	WebhookVerifyToken    string

	AdvisorBaseURL   string
	AdvisorAPIKey    string
	AdvisorAgentID   string
	AdvisorProjectID string

	AdminAPIKey string
}

// LoadSettings resolves the settings from the environment. Required
// variables are fatal when missing, matching how the service is deployed.
func LoadSettings() *Settings {
	return &Settings{
		Port:     GetEnvDefault("PORT", "8000"),
		LogLevel: GetEnvDefault("LOG_LEVEL", "info"),
		LogFile:  os.Getenv("LOG_FILE"),

		DatabasePath: GetEnvDefault("DATABASE_PATH", "sokolink_advisor.db"),

		GraphAPIURL:           GetEnvDefault("GRAPH_API_URL", "https://graph.facebook.com"),
		GraphAPIVersion:       GetEnvDefault("GRAPH_API_VERSION", "v18.0"),
		WhatsAppAccessToken:   GetEnv("WHATSAPP_ACCESS_TOKEN"),
		WhatsAppPhoneNumberID: GetEnv("WHATSAPP_PHONE_NUMBER_ID"),
		WebhookVerifyToken:    GetEnv("WHATSAPP_WEBHOOK_VERIFY_TOKEN"),

		AdvisorBaseURL:   GetEnvDefault("WATSONX_BASE_URL", "https://api.watsonx.orchestrate.ibm.com"),
		AdvisorAPIKey:    GetEnv("WATSONX_API_KEY"),
		AdvisorAgentID:   GetEnv("WATSONX_AGENT_ID"),
		AdvisorProjectID: GetEnv("WATSONX_PROJECT_ID"),

		AdminAPIKey: GetEnv("ADMIN_API_KEY"),
	}
}
