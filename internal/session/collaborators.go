package session

import (
	"context"

	"github.com/templui/lanchat/internal/model"
)

// AccountStore is the identity and profile-document backend. Errors carry
// autherr codes where the backend knows the cause.
type AccountStore interface {
	SignIn(ctx context.Context, email, password string) (*model.Identity, error)
	SignUp(ctx context.Context, email, password string) (*model.Identity, error)
	SetDisplayName(ctx context.Context, uid, name string) error
	SignInWithCredential(ctx context.Context, cred *model.FederatedCredential) (*model.Identity, error)
	SignOut(ctx context.Context) error

	// Subscribe registers fn for auth-state changes. fn receives the signed
	// in uid, or "" after sign out.
	Subscribe(fn func(uid string)) (unsubscribe func())

	// Profile returns the stored document, or nil when none exists.
	Profile(ctx context.Context, uid string) (model.Document, error)
	// MergeProfile creates the document or merges doc into it.
	MergeProfile(ctx context.Context, uid string, doc model.Document) error
}

// Persistence is device-local key-value storage. Get returns nil, nil for
// a missing key.
type Persistence interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// FederatedProvider runs a third-party identity exchange.
type FederatedProvider interface {
	Credential(ctx context.Context) (*model.FederatedCredential, error)
}

// VerificationSender delivers verification codes by email.
type VerificationSender interface {
	SendVerification(ctx context.Context, email string) error
}
