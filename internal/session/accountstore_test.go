package session

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/lanchat/internal/accountstore"
	"github.com/templui/lanchat/internal/autherr"
	"github.com/templui/lanchat/internal/db"
	"github.com/templui/lanchat/internal/model"
)

// slowFailingStore is the SQL account store whose next profile writes fail
// after a delay, like a request that times out on a bad network.
type slowFailingStore struct {
	*accountstore.Store

	mu    sync.Mutex
	fails int
	delay time.Duration
}

func (s *slowFailingStore) MergeProfile(ctx context.Context, uid string, doc model.Document) error {
	s.mu.Lock()
	fail := s.fails > 0
	if fail {
		s.fails--
	}
	s.mu.Unlock()

	if fail {
		time.Sleep(s.delay)
		return autherr.New(autherr.NetworkFailed)
	}
	return s.Store.MergeProfile(ctx, uid, doc)
}

func newSQLStore(t *testing.T, path string) *accountstore.Store {
	t.Helper()
	ctx := context.Background()
	conn, err := db.Open(ctx, "sqlite", path)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx, conn.DB, "sqlite"))

	store := accountstore.New(conn, accountstore.Config{JWTSecret: "test-secret"})
	t.Cleanup(func() {
		store.Close()
		db.Close(conn)
	})
	return store
}

func TestSQLStore_DeferredGoogleProfileIsWritten(t *testing.T) {
	ctx := context.Background()
	store := &slowFailingStore{
		Store: newSQLStore(t, filepath.Join(t.TempDir(), "lanchat.db")),
		fails: 1,
		delay: 50 * time.Millisecond,
	}
	c := New(store, newMemPersistence(), Config{Provider: &fakeProvider{cred: &model.FederatedCredential{
		Provider:    "google",
		Subject:     "sub1",
		Email:       "gus@example.com",
		DisplayName: "Gus",
	}}})
	c.Load(ctx)
	c.Start()
	t.Cleanup(c.Stop)

	s, err := c.LoginWithGoogle(ctx)
	require.NoError(t, err)
	uid := s.User.ID

	require.Eventually(t, func() bool {
		doc, err := store.Profile(ctx, uid)
		return err == nil && doc != nil
	}, 2*time.Second, 10*time.Millisecond)

	p, err := store.UserProfile(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "Gus", p.Name)
	assert.Equal(t, "gus@example.com", p.Email)
	assert.True(t, p.IsOnline)
}

func TestSQLStore_RestoredSessionIsMarkedOnline(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lanchat.db")
	device := newMemPersistence()

	first := newSQLStore(t, path)
	c := New(first, device, Config{})
	c.Load(ctx)
	_, err := first.SignUp(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	s, err := c.SignIn(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	uid := s.User.ID
	require.NoError(t, first.MergeProfile(ctx, uid, model.PresenceDocument(false)))

	// Next process: a fresh store knows no signed-in user.
	restarted := New(newSQLStore(t, path), device, Config{})
	require.True(t, restarted.Load(ctx).IsAuthenticated)
	restarted.Start()
	t.Cleanup(restarted.Stop)

	require.Eventually(t, func() bool {
		p, err := first.UserProfile(ctx, uid)
		return err == nil && p.IsOnline
	}, 2*time.Second, 10*time.Millisecond)
}
