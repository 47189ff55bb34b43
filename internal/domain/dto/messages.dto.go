package dto

type IWhatsAppMessage struct {
	MessagingProduct string              `json:"messaging_product"`
	RecipientType    string              `json:"recipient_type"`
	To               string              `json:"to"`
	Type             string              `json:"type"`
	Text             WhatsAppMessageText `json:"text"`
}

type WhatsAppMessageText struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type WhatsAppSendResponse struct {
	MessagingProduct string `json:"messaging_product"`
	Messages         []struct {
		ID string `json:"id"`
	} `json:"messages"`
}
