package entities

import "time"

// Session states. A session starts active and transitions exactly once:
// to "replaced" when a newer session takes over the same external identity,
// or to "inactive" when it is deactivated. Both are terminal.
const (
	StateActive   = "active"
	StateReplaced = "replaced"
	StateInactive = "inactive"
)

// Turn directions for the conversation log.
const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
)

// ContextMap holds accumulated conversation facts keyed by name. Values are
// restricted to the JSON scalar kinds plus nested maps (string, number, bool,
// map), which keeps merge semantics well-defined after a round trip through
// the storage layer.
type ContextMap map[string]any

// Merge returns a new map with the patch applied on top of the receiver.
// New keys overwrite old keys at the top level; untouched keys are kept.
// There is no deep merge and no key deletion.
func (c ContextMap) Merge(patch ContextMap) ContextMap {
	merged := make(ContextMap, len(c)+len(patch))
	for k, v := range c {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	return merged
}

// Session is the unit of ongoing conversation state for one external identity
// (a normalized phone number). At most one session per identity is active at
// any instant; the storage layer enforces that.
type Session struct {
	SessionID    string     `json:"session_id"`
	ExternalID   string     `json:"external_id"`
	CreatedAt    time.Time  `json:"created_at"`
	LastActivity time.Time  `json:"last_activity"`
	State        string     `json:"state"`
	Context      ContextMap `json:"context"`
	MessageCount int        `json:"message_count"`
}

// IsActive reports whether the session can still receive updates.
func (s Session) IsActive() bool {
	return s.State == StateActive
}

// ConversationTurn is one inbound or outbound message within a session.
// Turns are append-only: written once, never mutated, removed only by bulk
// retention cleanup.
type ConversationTurn struct {
	ID         string     `json:"id"`
	SessionID  string     `json:"session_id"`
	ExternalID string     `json:"external_id"`
	Direction  string     `json:"direction"`
	Content    string     `json:"content"`
	Timestamp  time.Time  `json:"timestamp"`
	Metadata   ContextMap `json:"metadata"`
}

// ComplianceRecord is a persisted snapshot of one completed advisory
// exchange. Written once after a successful advisory response.
type ComplianceRecord struct {
	ID                string    `json:"id"`
	SessionID         string    `json:"session_id"`
	ExternalID        string    `json:"external_id"`
	BusinessType      string    `json:"business_type"`
	BusinessScale     string    `json:"business_scale"`
	Location          string    `json:"location"`
	TotalCost         int       `json:"total_cost"`
	TotalTimelineDays int       `json:"total_timeline_days"`
	ResponseData      string    `json:"response_data"`
	ConfidenceScore   string    `json:"confidence_score"`
	CreatedAt         time.Time `json:"created_at"`
}
