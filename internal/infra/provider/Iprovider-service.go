package provider

type IWhatsAppProvider interface {
	SendTextMessage(to, message string) error
	SendWelcomeMessage(to string) error
	SendHelpMessage(to string) error
	SendErrorMessage(to, errorCode, errorMessage string) error
}
