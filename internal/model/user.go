package model

import (
	"time"
)

const ProviderPassword = "password"

// Account is an identity record in the account store.
type Account struct {
	ID              string    `db:"id"`
	Email           string    `db:"email"`
	PasswordHash    *string   `db:"password_hash"` // Nullable for federated-only accounts
	DisplayName     string    `db:"display_name"`
	PhotoURL        string    `db:"photo_url"`
	Provider        string    `db:"provider"`
	ProviderSubject *string   `db:"provider_subject"`
	Disabled        bool      `db:"disabled"`
	CreatedAt       time.Time `db:"created_at"`
}

func (a *Account) HasPassword() bool {
	return a.PasswordHash != nil && *a.PasswordHash != ""
}

func (a *Account) Identity(idToken string) *Identity {
	return &Identity{
		UID:         a.ID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		PhotoURL:    a.PhotoURL,
		IDToken:     idToken,
	}
}
