package dto

import "time"

// ComplianceStep is one permit/license/registration action the business has
// to complete, as returned by the orchestration agent.
type ComplianceStep struct {
	StepNumber        int      `json:"step_number"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Cost              int      `json:"cost"`
	TimelineDays      int      `json:"timeline_days"`
	Authority         string   `json:"authority"`
	AuthorityType     string   `json:"authority_type,omitempty"`
	DocumentsRequired []string `json:"documents_required,omitempty"`
	StepType          string   `json:"step_type,omitempty"`
}

// AdvisoryResponse is the structured result of one compliance query.
type AdvisoryResponse struct {
	Success            bool             `json:"success"`
	SessionID          string           `json:"session_id"`
	ComplianceSteps    []ComplianceStep `json:"compliance_steps"`
	TotalEstimatedCost int              `json:"total_estimated_cost"`
	TotalTimelineDays  int              `json:"total_timeline_days"`
	BusinessType       string           `json:"business_type,omitempty"`
	BusinessScale      string           `json:"business_scale,omitempty"`
	Location           string           `json:"location,omitempty"`
	AdditionalNotes    string           `json:"additional_notes,omitempty"`
	GeneratedAt        time.Time        `json:"generated_at"`
	ConfidenceScore    float64          `json:"confidence_score,omitempty"`
}

// Agent chat wire shapes. The content blocks mirror the orchestration
// platform's chat-completions payload.

type AgentChatRequest struct {
	Messages             []AgentChatMessage `json:"messages"`
	AdditionalParameters AgentChatParams    `json:"additional_parameters"`
	Context              AgentChatContext   `json:"context"`
	Stream               bool               `json:"stream"`
}

type AgentChatMessage struct {
	Role    string              `json:"role"`
	Content []AgentContentBlock `json:"content"`
}

type AgentContentBlock struct {
	ResponseType string `json:"response_type"`
	Text         string `json:"text"`
}

type AgentChatParams struct {
	ProjectID string `json:"project_id"`
}

type AgentChatContext struct {
	SessionID string `json:"session_id"`
}

type AgentChatResponse struct {
	ID      string            `json:"id"`
	Choices []AgentChatChoice `json:"choices"`
}

type AgentChatChoice struct {
	Message AgentChatChoiceMessage `json:"message"`
}

type AgentChatChoiceMessage struct {
	Content []AgentContentBlock `json:"content"`
}
