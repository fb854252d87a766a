package accountstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/lanchat/internal/autherr"
	"github.com/templui/lanchat/internal/db"
	"github.com/templui/lanchat/internal/model"
	"github.com/templui/lanchat/internal/repository"
	"github.com/templui/lanchat/internal/session"
)

var _ session.AccountStore = (*Store)(nil)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	conn, err := db.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(conn) })
	require.NoError(t, db.Migrate(ctx, conn.DB, "sqlite"))

	s := New(conn, Config{JWTSecret: "test-secret", JWTExpiry: time.Hour, SignInRateLimit: 3, SignInWindow: time.Minute})
	t.Cleanup(s.Close)
	return s
}

func TestSignUpThenSignIn(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.SignUp(ctx, " Ana@Example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", created.Email)
	assert.NotEmpty(t, created.UID)

	ident, err := s.SignIn(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, created.UID, ident.UID)
	assert.Equal(t, created.UID, s.CurrentUser())

	claims, err := s.VerifyToken(ident.IDToken)
	require.NoError(t, err)
	assert.Equal(t, created.UID, claims.UID)
	assert.Equal(t, "ana@example.com", claims.Email)
}

func TestSignUp_Errors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, err := s.SignUp(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)

	_, err = s.SignUp(ctx, "ANA@example.com", "secret2")
	assert.Equal(t, autherr.EmailAlreadyInUse, autherr.Code(err))

	_, err = s.SignUp(ctx, "bo@example.com", "12345")
	assert.Equal(t, autherr.WeakPassword, autherr.Code(err))

	_, err = s.SignUp(ctx, "not-an-email", "secret1")
	assert.Equal(t, autherr.InvalidEmail, autherr.Code(err))
}

func TestSignIn_Errors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, err := s.SignUp(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)

	_, err = s.SignIn(ctx, "nobody@example.com", "secret1")
	assert.Equal(t, autherr.UserNotFound, autherr.Code(err))

	_, err = s.SignIn(ctx, "ana@", "secret1")
	assert.Equal(t, autherr.InvalidEmail, autherr.Code(err))

	_, err = s.SignIn(ctx, "ana@example.com", "wrong")
	assert.Equal(t, autherr.WrongPassword, autherr.Code(err))
}

func TestSignIn_RateLimitsFailures(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, err := s.SignUp(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)

	for range 3 {
		_, err = s.SignIn(ctx, "ana@example.com", "wrong")
		require.Equal(t, autherr.WrongPassword, autherr.Code(err))
	}

	_, err = s.SignIn(ctx, "ana@example.com", "secret1")
	assert.Equal(t, autherr.TooManyRequests, autherr.Code(err))
}

func TestSignIn_SuccessResetsFailures(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, err := s.SignUp(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)

	for range 2 {
		_, _ = s.SignIn(ctx, "ana@example.com", "wrong")
	}
	_, err = s.SignIn(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)

	for range 2 {
		_, _ = s.SignIn(ctx, "ana@example.com", "wrong")
	}
	_, err = s.SignIn(ctx, "ana@example.com", "secret1")
	assert.NoError(t, err)
}

func TestSignIn_DisabledAccount(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	ident, err := s.SignUp(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)

	account, err := s.accounts.ByID(ctx, ident.UID)
	require.NoError(t, err)
	account.Disabled = true
	require.NoError(t, s.accounts.Update(ctx, account))

	_, err = s.SignIn(ctx, "ana@example.com", "secret1")
	assert.Equal(t, autherr.UserDisabled, autherr.Code(err))
}

func TestSetDisplayName(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	ident, err := s.SignUp(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, s.SetDisplayName(ctx, ident.UID, "  Ana  "))

	again, err := s.SignIn(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", again.DisplayName)

	err = s.SetDisplayName(ctx, "missing", "x")
	assert.Equal(t, autherr.UserNotFound, autherr.Code(err))
}

func TestSignInWithCredential(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	cred := &model.FederatedCredential{Provider: "google", Subject: "g-1", Email: "gus@example.com", DisplayName: "Gus", PhotoURL: "https://cdn/gus.png"}

	first, err := s.SignInWithCredential(ctx, cred)
	require.NoError(t, err)
	assert.Equal(t, "Gus", first.DisplayName)
	assert.Equal(t, "https://cdn/gus.png", first.PhotoURL)

	second, err := s.SignInWithCredential(ctx, cred)
	require.NoError(t, err)
	assert.Equal(t, first.UID, second.UID)

	_, err = s.SignIn(ctx, "gus@example.com", "anything")
	assert.Equal(t, autherr.InvalidCredential, autherr.Code(err), "federated-only account has no password")

	_, err = s.SignInWithCredential(ctx, &model.FederatedCredential{Provider: "google"})
	assert.Equal(t, autherr.InvalidCredential, autherr.Code(err))
}

func TestSignInWithCredential_LinksExistingEmail(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	created, err := s.SignUp(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)

	linked, err := s.SignInWithCredential(ctx, &model.FederatedCredential{Provider: "google", Subject: "g-9", Email: "ANA@example.com", DisplayName: "Ana G"})
	require.NoError(t, err)
	assert.Equal(t, created.UID, linked.UID)
	assert.Equal(t, "Ana G", linked.DisplayName)

	_, err = s.SignIn(ctx, "ana@example.com", "secret1")
	assert.NoError(t, err, "password still works after linking")
}

func TestSubscribe_NotifiesAuthState(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	events := make(chan string, 8)

	unsubscribe := s.Subscribe(func(uid string) { events <- uid })
	assert.Equal(t, "", receive(t, events), "initial state")

	ident, err := s.SignUp(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, ident.UID, receive(t, events))

	require.NoError(t, s.SignOut(ctx))
	assert.Equal(t, "", receive(t, events))
	assert.Equal(t, "", s.CurrentUser())

	unsubscribe()
	_, err = s.SignIn(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	select {
	case uid := <-events:
		t.Fatalf("unexpected notification %q after unsubscribe", uid)
	case <-time.After(50 * time.Millisecond):
	}
}

func receive(t *testing.T, events <-chan string) string {
	t.Helper()
	select {
	case uid := <-events:
		return uid
	case <-time.After(time.Second):
		t.Fatal("no auth-state notification")
		return ""
	}
}

func TestProfiles(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	doc, err := s.Profile(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, doc)

	p := model.NewProfile("u1", "ana@example.com", "Ana", "", time.Now())
	require.NoError(t, s.MergeProfile(ctx, "u1", p.Document()))
	require.NoError(t, s.MergeProfile(ctx, "u2", model.Document{model.FieldDisplayName: "Bo"}))

	doc, err = s.Profile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", doc[model.FieldDisplayName])
	assert.Contains(t, doc, model.FieldCreatedAt)

	got, err := s.UserProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", got.Email)
	assert.Equal(t, model.English, got.NativeLanguage)

	_, err = s.UserProfile(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrProfileNotFound)

	all, err := s.Profiles(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestVerifyToken(t *testing.T) {
	s := newTestStore(t)
	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return issued }

	token, err := s.IssueToken(&model.Account{ID: "u1", Email: "ana@example.com"})
	require.NoError(t, err)

	claims, err := s.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UID)

	s.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = s.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.VerifyToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := New(nil, Config{JWTSecret: "other-secret"})
	t.Cleanup(other.Close)
	other.now = func() time.Time { return issued }
	forged, err := other.IssueToken(&model.Account{ID: "u1"})
	require.NoError(t, err)
	s.now = func() time.Time { return issued }
	_, err = s.VerifyToken(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
