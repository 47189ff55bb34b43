package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"sokolink-advisor/internal/domain/dto"
	"sokolink-advisor/internal/infra/logger"
	"sokolink-advisor/internal/util"
)

// Pause between the parts of a split message so they arrive in order on the
// user's device.
const multipartDelay = 2 * time.Second

// MetaWhatsAppProvider sends messages through the Meta Graph API for
// WhatsApp Business.
type MetaWhatsAppProvider struct {
	Logger     *logger.Logger
	HttpClient *http.Client

	GraphAPIURL   string
	APIVersion    string
	PhoneNumberID string
	AccessToken   string
}

func NewMetaWhatsAppProvider(log *logger.Logger, httpClient *http.Client, graphAPIURL, apiVersion, phoneNumberID, accessToken string) *MetaWhatsAppProvider {
	return &MetaWhatsAppProvider{
		Logger:        log,
		HttpClient:    httpClient,
		GraphAPIURL:   graphAPIURL,
		APIVersion:    apiVersion,
		PhoneNumberID: phoneNumberID,
		AccessToken:   accessToken,
	}
}

// SendTextMessage sends a text message to a recipient's phone number,
// splitting it at the WhatsApp 4096-character limit when needed.
//
// Parameters:
//   - to: string - The recipient's phone number in international format (including the country code).
//   - message: string - The content of the text message to be sent.
//
// Returns:
//   - error: Returns an error if any step of the process fails, including input validation,
//     payload construction, HTTP request failure, or unexpected API response.
func (th *MetaWhatsAppProvider) SendTextMessage(to, message string) error {
	if to == "" || message == "" {
		return fmt.Errorf("recipient (to) and message cannot be empty")
	}

	parts := util.SplitLongMessage(message, util.WhatsAppMaxMessageLength)
	for i, part := range parts {
		if i > 0 {
			time.Sleep(multipartDelay)
		}
		if err := th.sendSingleMessage(to, part); err != nil {
			return err
		}
	}

	return nil
}

func (th *MetaWhatsAppProvider) sendSingleMessage(to, message string) error {
	apiURL := fmt.Sprintf("%s/%s/%s/messages", th.GraphAPIURL, th.APIVersion, th.PhoneNumberID)

	payloadData := dto.IWhatsAppMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
	}
	payloadData.Text.PreviewURL = false
	payloadData.Text.Body = message

	payload, err := json.Marshal(payloadData)
	if err != nil {
		th.Logger.Error(fmt.Sprintf("Failed to marshal payload %v", err))
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequest("POST", apiURL, bytes.NewReader(payload))
	if err != nil {
		th.Logger.Error(fmt.Sprintf("Failed to create HTTP request %v", err))
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", th.AccessToken))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := th.HttpClient.Do(req)
	if err != nil {
		th.Logger.Error(fmt.Sprintf("HTTP request failed %v", err))
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(res.Body)
		th.Logger.Error(fmt.Sprintf("Unexpected HTTP status %s response_body %s", res.Status, string(body)))
		return fmt.Errorf("unexpected HTTP status: %s", res.Status)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		th.Logger.Error(fmt.Sprintf("Failed to read response body %v", err))
		return fmt.Errorf("failed to read response body: %w", err)
	}

	th.Logger.Info(fmt.Sprintf("Message sent successfully %s response_body %s", res.Status, string(body)))
	return nil
}

func (th *MetaWhatsAppProvider) SendWelcomeMessage(to string) error {
	return th.SendTextMessage(to, util.FormatWelcomeMessage())
}

func (th *MetaWhatsAppProvider) SendHelpMessage(to string) error {
	return th.SendTextMessage(to, util.FormatHelpMessage())
}

func (th *MetaWhatsAppProvider) SendErrorMessage(to, errorCode, errorMessage string) error {
	return th.SendTextMessage(to, util.FormatErrorMessage(errorCode, errorMessage))
}
