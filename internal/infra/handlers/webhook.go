package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"sokolink-advisor/internal/domain/dto"
	"sokolink-advisor/internal/domain/entities"
	Iservices "sokolink-advisor/internal/domain/interfaces/services"
	"sokolink-advisor/internal/infra/logger"
	"sokolink-advisor/internal/infra/provider"
	"sokolink-advisor/internal/telemetry"
	"sokolink-advisor/internal/util"
)

type WebhookHandlers struct {
	Logger           *logger.Logger
	VerifyToken      string
	SessionService   Iservices.ISessionService
	AdvisorService   Iservices.IAdvisorService
	WhatsAppProvider provider.IWhatsAppProvider
	Telemetry        *telemetry.Telemetry
}

func NewWebhookHandlers(log *logger.Logger, verifyToken string, sessionService Iservices.ISessionService,
	advisorService Iservices.IAdvisorService, whatsAppProvider provider.IWhatsAppProvider, tel *telemetry.Telemetry) *WebhookHandlers {
	return &WebhookHandlers{
		Logger:           log,
		VerifyToken:      verifyToken,
		SessionService:   sessionService,
		AdvisorService:   advisorService,
		WhatsAppProvider: whatsAppProvider,
		Telemetry:        tel,
	}
}

// MetaWebhook is a unified handler for WhatsApp webhook requests.
//
// This function handles both verification requests (GET) and event notifications (POST)
// sent by the WhatsApp Meta API to the configured webhook URL. It delegates the actual
// handling to specific methods (`handleVerification` for GET and `handleWebhookEvent` for POST).
//
// HTTP Status Codes:
// - 200 OK: Returned by `handleVerification` or `handleWebhookEvent` upon successful processing.
// - 403 Forbidden: Returned if the verification token or payload signature is invalid.
// - 405 Method Not Allowed: Returned for HTTP methods other than GET or POST.
func (th *WebhookHandlers) MetaWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		th.handleVerification(w, r)
		return
	}

	if r.Method == http.MethodPost {
		th.handleWebhookEvent(w, r)
		return
	}

	http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
}

// handleVerification handles the webhook verification process for WhatsApp Meta API (GET request).
//
// When WhatsApp sends a GET request to the webhook URL, it includes specific query parameters
// (`hub.mode`, `hub.challenge`, and `hub.verify_token`) to validate the endpoint. If the
// `hub.verify_token` matches the configured token, the function responds with the
// `hub.challenge` value and a 200 status code; otherwise it responds with 403 (Forbidden).
func (th *WebhookHandlers) handleVerification(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	mode := query.Get("hub.mode")
	token := query.Get("hub.verify_token")
	challenge := query.Get("hub.challenge")

	if mode == "subscribe" && token == th.VerifyToken {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(challenge))
		return
	}

	th.Logger.Warn(fmt.Sprintf("Webhook verification rejected for mode %q", mode))
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// handleWebhookEvent handles incoming webhook events from the WhatsApp Meta API (POST request).
//
// The raw body signature (X-Hub-Signature-256) is verified before the payload is trusted.
// The event is acknowledged immediately with HTTP 200 and processed in the background so
// WhatsApp does not retry deliveries that merely take long to answer.
func (th *WebhookHandlers) handleWebhookEvent(w http.ResponseWriter, r *http.Request) {
	th.Logger.Info("Starting to process incoming webhook event.")

	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		th.Logger.Error(fmt.Sprintf("Failed to read request body: %s", err.Error()))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if !th.verifySignature(rawBody, r.Header.Get("X-Hub-Signature-256")) {
		th.Logger.Warn("Invalid webhook signature")
		http.Error(w, "Invalid signature", http.StatusForbidden)
		return
	}

	var body dto.IWebhookMessage
	if err := json.Unmarshal(rawBody, &body); err != nil {
		th.Logger.Error(fmt.Sprintf("Invalid JSON payload: %s", err.Error()))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if len(body.Entry) == 0 {
		th.Logger.Warn("Received webhook event with no entries.")
		http.Error(w, "No entries found in the webhook event", http.StatusBadRequest)
		return
	}

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				th.Logger.Error(fmt.Sprintf("Recovered from panic: %v", rec))
			}
		}()
		th.processWebhookEvent(context.Background(), body)
	}()

	th.Logger.Info("Webhook event accepted.")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("EVENT_RECEIVED"))
}

// verifySignature checks the X-Hub-Signature-256 header against an
// HMAC-SHA256 of the raw payload.
func (th *WebhookHandlers) verifySignature(payload []byte, signature string) bool {
	if !strings.HasPrefix(signature, "sha256=") {
		return false
	}

	mac := hmac.New(sha256.New, []byte(th.VerifyToken))
	mac.Write(payload)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expected))
}

func (th *WebhookHandlers) processWebhookEvent(ctx context.Context, body dto.IWebhookMessage) {
	for _, entry := range body.Entry {
		for _, change := range entry.Changes {
			switch change.Field {
			case "messages":
				for _, message := range change.Value.Messages {
					th.processMessage(ctx, message)
				}
				for _, status := range change.Value.Statuses {
					th.Logger.Info(fmt.Sprintf("Message status update: id %s status %s recipient %s",
						status.ID, status.Status, status.RecipientID))
				}
			default:
				th.Logger.Debug(fmt.Sprintf("Ignoring webhook change field %q", change.Field))
			}
		}
	}
}

// processMessage runs the full per-message pipeline: session resolution,
// turn logging, command handling, context extraction, advisory query, reply.
func (th *WebhookHandlers) processMessage(ctx context.Context, message dto.WebhookMessageData) {
	content := messageContent(message)
	if content == "" {
		th.Logger.Warn(fmt.Sprintf("Empty message content from %s", message.From))
		return
	}

	ctx, span := th.Telemetry.Tracer.Start(ctx, "webhook.process_message")
	defer span.End()
	span.SetAttributes(attribute.String("message.type", message.Type))

	phoneNumber := util.SanitizePhoneNumber(message.From)
	th.Telemetry.MessagesProcessed.Add(ctx, 1)

	session, created, err := th.SessionService.LookupOrCreate(ctx, phoneNumber)
	if err != nil {
		th.Logger.Error(fmt.Sprintf("Failed to resolve session for %s: %v", phoneNumber, err))
		if sendErr := th.WhatsAppProvider.SendErrorMessage(phoneNumber, "PROCESSING_ERROR", "Something went wrong. Please try again."); sendErr != nil {
			th.Logger.Error(fmt.Sprintf("Failed to send error message to %s: %v", phoneNumber, sendErr))
		}
		return
	}
	if created {
		th.Telemetry.SessionsCreated.Add(ctx, 1)
	}

	th.SessionService.LogTurn(ctx, entities.ConversationTurn{
		SessionID:  session.SessionID,
		ExternalID: phoneNumber,
		Direction:  entities.DirectionIncoming,
		Content:    content,
		Metadata: entities.ContextMap{
			"message_id":   message.ID,
			"timestamp":    message.Timestamp,
			"message_type": message.Type,
		},
	})

	sanitized, ok := util.ValidateBusinessInput(content)
	if !ok {
		th.Logger.Warn(fmt.Sprintf("Rejected invalid input from %s", phoneNumber))
		if err := th.WhatsAppProvider.SendErrorMessage(phoneNumber, "INVALID_INPUT",
			"Please provide valid details about your business (3-1000 characters)."); err != nil {
			th.Logger.Error(fmt.Sprintf("Failed to send error message to %s: %v", phoneNumber, err))
		}
		return
	}

	switch strings.ToUpper(sanitized) {
	case "HELP":
		if err := th.WhatsAppProvider.SendHelpMessage(phoneNumber); err != nil {
			th.Logger.Error(fmt.Sprintf("Failed to send help message to %s: %v", phoneNumber, err))
		}
		return
	case "START", "RESTART":
		if _, err := th.SessionService.Create(ctx, phoneNumber, entities.ContextMap{
			"external_id": phoneNumber,
			"restarted":   true,
		}); err != nil {
			th.Logger.Error(fmt.Sprintf("Failed to restart session for %s: %v", phoneNumber, err))
		} else {
			th.Telemetry.SessionsCreated.Add(ctx, 1)
		}
		if err := th.WhatsAppProvider.SendWelcomeMessage(phoneNumber); err != nil {
			th.Logger.Error(fmt.Sprintf("Failed to send welcome message to %s: %v", phoneNumber, err))
		}
		return
	}

	patch := util.ExtractBusinessInfo(sanitized)
	patch["last_message"] = sanitized
	patch["last_activity"] = time.Now().UTC().Format(time.RFC3339)

	if err := th.SessionService.Update(ctx, session.SessionID, patch, ""); err != nil {
		th.Logger.Error(fmt.Sprintf("Failed to update session %s: %v", session.SessionID, err))
		return
	}

	queryContext := session.Context.Merge(patch)
	queryContext["session_id"] = session.SessionID

	th.Telemetry.AdvisoryQueries.Add(ctx, 1)
	advisory, err := th.AdvisorService.ExecuteComplianceQuery(ctx, sanitized, queryContext)
	if err != nil {
		th.Logger.Error(fmt.Sprintf("Failed to execute advisory query: %s", err.Error()))
		if sendErr := th.WhatsAppProvider.SendErrorMessage(phoneNumber, "COMPLIANCE_ERROR",
			"I'm having trouble processing your request. Please try again with more specific details about your business."); sendErr != nil {
			th.Logger.Error(fmt.Sprintf("Failed to send error message to %s: %v", phoneNumber, sendErr))
		}
		return
	}

	responseJSON, err := json.Marshal(advisory)
	if err != nil {
		th.Logger.Error(fmt.Sprintf("Failed to marshal advisory response: %v", err))
		responseJSON = []byte("{}")
	}

	th.SessionService.SaveComplianceRecord(ctx, entities.ComplianceRecord{
		SessionID:         session.SessionID,
		ExternalID:        phoneNumber,
		BusinessType:      advisory.BusinessType,
		BusinessScale:     advisory.BusinessScale,
		Location:          advisory.Location,
		TotalCost:         advisory.TotalEstimatedCost,
		TotalTimelineDays: advisory.TotalTimelineDays,
		ResponseData:      string(responseJSON),
		ConfidenceScore:   fmt.Sprintf("%.2f", advisory.ConfidenceScore),
	})

	th.Logger.Info(fmt.Sprintf("Sending advisory response to WhatsApp number: %s", phoneNumber))
	if err := th.WhatsAppProvider.SendTextMessage(phoneNumber, util.FormatAdvisoryMessage(advisory)); err != nil {
		th.Logger.Error(fmt.Sprintf("Failed to send WhatsApp message to %s: %s", phoneNumber, err.Error()))
		return
	}

	th.SessionService.LogTurn(ctx, entities.ConversationTurn{
		SessionID:  session.SessionID,
		ExternalID: phoneNumber,
		Direction:  entities.DirectionOutgoing,
		Content:    "Compliance guidance sent",
		Metadata: entities.ContextMap{
			"response_type":  "compliance_guidance",
			"total_cost":     advisory.TotalEstimatedCost,
			"total_timeline": advisory.TotalTimelineDays,
		},
	})
}

// messageContent extracts the text of a message: the body for text
// messages, the selected title for interactive replies.
func messageContent(message dto.WebhookMessageData) string {
	if message.Text != nil {
		return message.Text.Body
	}
	if message.Interactive != nil {
		if title, ok := message.Interactive.ButtonReply["title"]; ok {
			return title
		}
		if title, ok := message.Interactive.ListReply["title"]; ok {
			return title
		}
	}
	return ""
}
