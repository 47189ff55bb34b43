package dto

type IWebhookMessage struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Field string       `json:"field"`
	Value WebhookValue `json:"value"`
}

type WebhookValue struct {
	MessagingProduct string               `json:"messaging_product"`
	Metadata         WebhookMetadata      `json:"metadata"`
	Contacts         []WebhookContact     `json:"contacts,omitempty"`
	Messages         []WebhookMessageData `json:"messages,omitempty"`
	Statuses         []WebhookStatus      `json:"statuses,omitempty"`
}

type WebhookMetadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type WebhookContact struct {
	Profile WebhookContactProfile `json:"profile"`
	WaID    string                `json:"wa_id"`
}

type WebhookContactProfile struct {
	Name string `json:"name"`
}

type WebhookMessageData struct {
	From        string              `json:"from"`
	ID          string              `json:"id"`
	Timestamp   string              `json:"timestamp"`
	Type        string              `json:"type"`
	Text        *WebhookText        `json:"text,omitempty"`
	Interactive *WebhookInteractive `json:"interactive,omitempty"`
}

type WebhookText struct {
	Body string `json:"body"`
}

type WebhookInteractive struct {
	Type        string            `json:"type"`
	ButtonReply map[string]string `json:"button_reply,omitempty"`
	ListReply   map[string]string `json:"list_reply,omitempty"`
}

type WebhookStatus struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
}
