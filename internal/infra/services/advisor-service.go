package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sokolink-advisor/internal/domain/dto"
	"sokolink-advisor/internal/domain/entities"
	"sokolink-advisor/internal/infra/logger"
)

const advisorMaxAttempts = 3

// AdvisorService executes compliance queries against the orchestration
// platform's agent chat endpoint.
type AdvisorService struct {
	Logger     *logger.Logger
	HttpClient *http.Client

	BaseURL   string
	APIKey    string
	AgentID   string
	ProjectID string
}

func NewAdvisorService(log *logger.Logger, httpClient *http.Client, baseURL, apiKey, agentID, projectID string) *AdvisorService {
	return &AdvisorService{
		Logger:     log,
		HttpClient: httpClient,
		BaseURL:    baseURL,
		APIKey:     apiKey,
		AgentID:    agentID,
		ProjectID:  projectID,
	}
}

// ExecuteComplianceQuery sends the user's text to the agent and parses the
// structured advisory out of the reply. When the platform is unreachable or
// the reply cannot be parsed, a deterministic fallback advisory is returned
// so the user still gets guidance; the failure is logged.
func (th *AdvisorService) ExecuteComplianceQuery(ctx context.Context, queryText string, sessionContext entities.ContextMap) (dto.AdvisoryResponse, error) {
	if strings.TrimSpace(queryText) == "" {
		return dto.AdvisoryResponse{}, fmt.Errorf("query text cannot be empty")
	}

	sessionID, _ := sessionContext["session_id"].(string)

	chatResult, err := th.chatWithAgent(ctx, queryText, sessionID)
	if err != nil {
		th.Logger.Error(fmt.Sprintf("Agent chat failed, returning fallback advisory: %v", err))
		return th.fallbackResponse(sessionID, sessionContext), nil
	}

	response, err := th.parseAgentResponse(chatResult, sessionID, sessionContext)
	if err != nil {
		th.Logger.Error(fmt.Sprintf("Failed to parse agent response: %v", err))
		return th.fallbackResponse(sessionID, sessionContext), nil
	}

	return response, nil
}

// chatWithAgent posts the chat request, retrying transport failures with
// exponential backoff.
func (th *AdvisorService) chatWithAgent(ctx context.Context, queryText, sessionID string) (dto.AgentChatResponse, error) {
	chatURL := fmt.Sprintf("%s/api/v1/orchestrate/%s/chat/completions", th.BaseURL, th.AgentID)

	payload := dto.AgentChatRequest{
		Messages: []dto.AgentChatMessage{
			{
				Role: "user",
				Content: []dto.AgentContentBlock{
					{ResponseType: "text", Text: queryText},
				},
			},
		},
		AdditionalParameters: dto.AgentChatParams{ProjectID: th.ProjectID},
		Context:              dto.AgentChatContext{SessionID: sessionID},
		Stream:               false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return dto.AgentChatResponse{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	var lastErr error
	backoff := time.Second

	for attempt := 1; attempt <= advisorMaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return dto.AgentChatResponse{}, ctx.Err()
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, chatURL, bytes.NewReader(body))
		if err != nil {
			return dto.AgentChatResponse{}, fmt.Errorf("failed to create HTTP request: %w", err)
		}
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", th.APIKey))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		res, err := th.HttpClient.Do(req)
		if err != nil {
			// Transport error; worth retrying.
			lastErr = err
			th.Logger.Warn(fmt.Sprintf("Agent request attempt %d failed: %v", attempt, err))
			continue
		}

		resBody, err := io.ReadAll(res.Body)
		res.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
			return dto.AgentChatResponse{}, fmt.Errorf("unexpected HTTP status: %s, response: %s", res.Status, string(resBody))
		}

		var chatResponse dto.AgentChatResponse
		if err := json.Unmarshal(resBody, &chatResponse); err != nil {
			return dto.AgentChatResponse{}, fmt.Errorf("failed to unmarshal response body: %w", err)
		}

		return chatResponse, nil
	}

	return dto.AgentChatResponse{}, fmt.Errorf("agent unreachable after %d attempts: %w", advisorMaxAttempts, lastErr)
}

func (th *AdvisorService) parseAgentResponse(chatResult dto.AgentChatResponse, sessionID string, sessionContext entities.ContextMap) (dto.AdvisoryResponse, error) {
	if len(chatResult.Choices) == 0 {
		return dto.AdvisoryResponse{}, fmt.Errorf("agent returned no choices")
	}

	var agentText string
	for _, block := range chatResult.Choices[0].Message.Content {
		if block.ResponseType == "text" && block.Text != "" {
			agentText = block.Text
			break
		}
	}
	if agentText == "" {
		return dto.AdvisoryResponse{}, fmt.Errorf("agent returned no text content")
	}

	var response dto.AdvisoryResponse
	if err := json.Unmarshal([]byte(agentText), &response); err != nil {
		// Agents sometimes wrap the JSON object in prose; salvage it.
		extracted, ok := extractJSONObject(agentText)
		if !ok {
			return dto.AdvisoryResponse{}, fmt.Errorf("agent reply is not structured advisory data")
		}
		if err := json.Unmarshal([]byte(extracted), &response); err != nil {
			return dto.AdvisoryResponse{}, fmt.Errorf("failed to decode embedded advisory data: %w", err)
		}
	}

	if len(response.ComplianceSteps) == 0 {
		return dto.AdvisoryResponse{}, fmt.Errorf("agent advisory has no compliance steps")
	}

	response.Success = true
	response.SessionID = sessionID
	response.GeneratedAt = time.Now().UTC()
	if response.ConfidenceScore == 0 {
		response.ConfidenceScore = 0.9
	}
	if response.BusinessScale == "" {
		if scale, ok := sessionContext["business_scale"].(string); ok {
			response.BusinessScale = scale
		}
	}

	return response, nil
}

// extractJSONObject pulls the outermost {...} span out of free text.
func extractJSONObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// fallbackResponse is the generic advisory returned when the platform cannot
// answer: register the business, low confidence.
func (th *AdvisorService) fallbackResponse(sessionID string, sessionContext entities.ContextMap) dto.AdvisoryResponse {
	scale := "small"
	if s, ok := sessionContext["business_scale"].(string); ok && s != "" {
		scale = s
	}

	return dto.AdvisoryResponse{
		Success:   true,
		SessionID: sessionID,
		ComplianceSteps: []dto.ComplianceStep{
			{
				StepNumber:        1,
				Title:             "Business Registration",
				Description:       "Register your business with the Business Registration Service",
				Cost:              1000,
				TimelineDays:      3,
				Authority:         "Business Registration Service",
				AuthorityType:     "national_government",
				DocumentsRequired: []string{"National ID"},
				StepType:          "registration",
			},
		},
		TotalEstimatedCost: 1000,
		TotalTimelineDays:  3,
		BusinessType:       "General Business",
		BusinessScale:      scale,
		AdditionalNotes:    "General guidance only; ask again with more details about your business for specific steps.",
		GeneratedAt:        time.Now().UTC(),
		ConfidenceScore:    0.6,
	}
}

// HealthCheck probes the platform's project agents listing.
func (th *AdvisorService) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/api/v1/projects/%s/agents", th.BaseURL, th.ProjectID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", th.APIKey))

	res, err := th.HttpClient.Do(req)
	if err != nil {
		return fmt.Errorf("advisor unreachable: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("advisor unhealthy: status %d", res.StatusCode)
	}

	return nil
}
