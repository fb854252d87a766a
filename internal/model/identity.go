package model

// Identity is what the account store returns for a signed-in account.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
	IDToken     string
}

// FederatedCredential is the result of a third-party identity exchange.
type FederatedCredential struct {
	Provider    string
	Subject     string
	Email       string
	DisplayName string
	PhotoURL    string
	AccessToken string
}

// Translation is the result of the translation proxy.
type Translation struct {
	TranslatedText string `json:"translatedText"`
	OriginalText   string `json:"originalText"`
	TargetLang     string `json:"targetLang"`
}
