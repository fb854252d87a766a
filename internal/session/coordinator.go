// Package session owns the authenticated-session state of one device: it
// signs users in and out through the account store, keeps a snapshot in
// local persistence and derives the profile-setup and email-verification
// gates consumed by navigation.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/templui/lanchat/internal/autherr"
	"github.com/templui/lanchat/internal/model"
)

const (
	DefaultStorageKey      = "lanchat_auth"
	DefaultAuthTimeout     = 10 * time.Second
	VerificationCodeLength = 6
)

type Config struct {
	StorageKey  string
	AuthTimeout time.Duration
	Provider    FederatedProvider  // optional, enables LoginWithGoogle
	Sender      VerificationSender // optional
	Clock       func() time.Time
}

// Coordinator is the single authority for session truth. Every mutating
// action writes to the store, then to persistence, then commits in memory;
// a failure at any step leaves the in-memory Session unchanged.
type Coordinator struct {
	store       AccountStore
	persistence Persistence
	provider    FederatedProvider
	sender      VerificationSender
	key         string
	timeout     time.Duration
	clock       func() time.Time

	mu          sync.Mutex
	session     model.Session
	initialized bool
	pending     *model.Profile // federated profile whose store write failed
	observers   map[int]func(model.Session)
	nextID      int
	unsubscribe func()

	background sync.WaitGroup // presence and deferred profile writes
}

func New(store AccountStore, persistence Persistence, cfg Config) *Coordinator {
	c := &Coordinator{
		store:       store,
		persistence: persistence,
		provider:    cfg.Provider,
		sender:      cfg.Sender,
		key:         cfg.StorageKey,
		timeout:     cfg.AuthTimeout,
		clock:       cfg.Clock,
		observers:   make(map[int]func(model.Session)),
	}
	if c.key == "" {
		c.key = DefaultStorageKey
	}
	if c.timeout <= 0 {
		c.timeout = DefaultAuthTimeout
	}
	if c.clock == nil {
		c.clock = time.Now
	}
	return c
}

// Session returns a copy of the current Session.
func (c *Coordinator) Session() model.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Clone()
}

func (c *Coordinator) State() model.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.initialized {
		return model.StateUninitialized
	}
	return c.session.State()
}

// Subscribe registers fn to receive every committed Session. fn runs on the
// goroutine that committed and must not block.
func (c *Coordinator) Subscribe(fn func(model.Session)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.observers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// Load restores the persisted snapshot. An unreadable or corrupt snapshot
// is treated as absent.
func (c *Coordinator) Load(ctx context.Context) model.Session {
	c.commit(model.Session{IsLoading: true})

	var next model.Session
	if snap := c.stored(ctx); snap != nil {
		next = snap.Session()
		if next.IsAuthenticated && next.User == nil {
			slog.Warn("discarding authenticated snapshot without user", "key", c.key)
			next = model.Session{}
		}
	}

	c.commit(next)
	slog.Debug("session restored", "state", next.State())
	return next.Clone()
}

// Start subscribes to auth-state changes of the store. A session restored
// by Load is already signed in, so it is marked online right away. Stop
// undoes the subscription and waits for scheduled writes.
func (c *Coordinator) Start() {
	unsubscribe := c.store.Subscribe(c.onAuthState)

	c.mu.Lock()
	c.unsubscribe = unsubscribe
	var uid string
	if c.session.IsAuthenticated && c.session.User != nil {
		uid = c.session.User.ID
	}
	c.mu.Unlock()

	if uid != "" {
		c.schedule(uid)
	}
}

func (c *Coordinator) Stop() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	c.background.Wait()
}

// schedule runs the auth-state work for uid off the caller's goroutine.
func (c *Coordinator) schedule(uid string) {
	c.background.Add(1)
	go func() {
		defer c.background.Done()
		c.onAuthState(uid)
	}()
}

func (c *Coordinator) SignIn(ctx context.Context, email, password string) (model.Session, error) {
	ident, err := bounded(ctx, c.timeout, func(ctx context.Context) (*model.Identity, error) {
		return c.store.SignIn(ctx, email, password)
	})
	if err != nil {
		slog.Warn("sign in failed", "email", email, "error", err)
		return model.Session{}, fail(OpSignIn, err)
	}

	now := c.now()
	var user *model.Profile
	if snap := c.stored(ctx); snap != nil && snap.User != nil && strings.EqualFold(snap.User.Email, ident.Email) {
		user = snap.User.Clone()
		user.ID = ident.UID
		user.Email = ident.Email
		user.IsOnline = true
		user.LastSeen = now
	} else if remote := c.remoteProfile(ctx, ident, defaultName(ident), now); remote != nil {
		user = remote
	} else {
		user = model.NewProfile(ident.UID, ident.Email, defaultName(ident), ident.PhotoURL, now)
	}

	err = c.store.MergeProfile(ctx, user.ID, user.Document())
	if err != nil {
		slog.Error("failed to write profile on sign in", "error", err, "user_id", user.ID)
		return model.Session{}, fail(OpSignIn, err)
	}

	next := model.Session{User: user, IsAuthenticated: true}
	err = c.save(ctx, OpSignIn, next)
	if err != nil {
		return model.Session{}, err
	}

	c.commit(next)
	slog.Info("signed in", "user_id", user.ID)
	return next.Clone(), nil
}

func (c *Coordinator) Register(ctx context.Context, email, password, name string) (model.Session, error) {
	ident, err := bounded(ctx, c.timeout, func(ctx context.Context) (*model.Identity, error) {
		return c.store.SignUp(ctx, email, password)
	})
	if err != nil {
		slog.Warn("registration failed", "email", email, "error", err)
		return model.Session{}, fail(OpRegister, err)
	}

	err = c.store.SetDisplayName(ctx, ident.UID, name)
	if err != nil {
		return model.Session{}, fail(OpRegister, err)
	}

	if ident.Email != "" {
		email = ident.Email
	}
	user := model.NewProfile(ident.UID, email, name, "", c.now())

	err = c.store.MergeProfile(ctx, user.ID, user.Document())
	if err != nil {
		slog.Error("failed to create profile", "error", err, "user_id", user.ID)
		return model.Session{}, fail(OpRegister, err)
	}

	c.sendVerification(ctx, email)

	next := model.Session{
		User:                   user,
		NeedsProfileSetup:      true,
		NeedsEmailVerification: true,
		VerificationEmail:      email,
	}
	err = c.save(ctx, OpRegister, next)
	if err != nil {
		return model.Session{}, err
	}

	c.commit(next)
	slog.Info("registered", "user_id", user.ID)
	return next.Clone(), nil
}

// LoginWithGoogle signs in through the federated provider. A returning user
// gets the stored profile; a new user, or one whose profile cannot be read,
// gets a default profile and must complete setup. The profile write is best
// effort and retried on the next auth-state notification.
func (c *Coordinator) LoginWithGoogle(ctx context.Context) (model.Session, error) {
	if c.provider == nil {
		return model.Session{}, fail(OpGoogle, autherr.New(autherr.OperationNotAllowed))
	}

	cred, err := c.provider.Credential(ctx)
	if err != nil {
		slog.Warn("federated credential exchange failed", "error", err)
		return model.Session{}, fail(OpGoogle, err)
	}

	ident, err := c.store.SignInWithCredential(ctx, cred)
	if err != nil {
		slog.Warn("federated sign in failed", "provider", cred.Provider, "error", err)
		return model.Session{}, fail(OpGoogle, err)
	}

	now := c.now()
	user, needsSetup := c.federatedProfile(ctx, ident, now)

	deferred := false
	err = c.store.MergeProfile(ctx, user.ID, user.Document())
	if err != nil {
		slog.Warn("profile write failed, will sync later", "error", err, "user_id", user.ID)
		c.mu.Lock()
		c.pending = user.Clone()
		c.mu.Unlock()
		deferred = true
	}

	next := model.Session{User: user, IsAuthenticated: true, NeedsProfileSetup: needsSetup}
	err = c.save(ctx, OpGoogle, next)
	if err != nil {
		return model.Session{}, err
	}

	c.commit(next)
	if deferred {
		c.schedule(user.ID)
	}
	slog.Info("signed in with google", "user_id", user.ID, "needs_profile_setup", needsSetup)
	return next.Clone(), nil
}

func (c *Coordinator) federatedProfile(ctx context.Context, ident *model.Identity, now time.Time) (*model.Profile, bool) {
	user := c.remoteProfile(ctx, ident, ident.DisplayName, now)
	if user == nil {
		return model.NewProfile(ident.UID, ident.Email, ident.DisplayName, ident.PhotoURL, now), true
	}
	return user, false
}

// remoteProfile reads the stored profile of ident, marked online. It returns
// nil when the store has none, cannot be reached or holds an unreadable
// document; the caller then starts from defaults.
func (c *Coordinator) remoteProfile(ctx context.Context, ident *model.Identity, name string, now time.Time) *model.Profile {
	doc, err := c.store.Profile(ctx, ident.UID)
	if err != nil {
		slog.Warn("profile store unreachable, creating local profile", "error", err, "user_id", ident.UID)
		return nil
	}
	if doc == nil {
		return nil
	}

	user, err := model.ProfileFromDocument(ident.UID, doc, now)
	if err != nil {
		slog.Warn("unreadable profile document, creating local profile", "error", err, "user_id", ident.UID)
		return nil
	}
	user.Email = ident.Email
	if user.Name == "" {
		user.Name = name
	}
	if user.Avatar == "" {
		user.Avatar = ident.PhotoURL
	}
	user.IsOnline = true
	user.LastSeen = now
	return user
}

// VerifyEmail accepts any code of exactly six characters; the identity
// provider remains the authority on the real account state.
func (c *Coordinator) VerifyEmail(ctx context.Context, code string) (model.Session, error) {
	if utf8.RuneCountInString(code) != VerificationCodeLength {
		return model.Session{}, &Error{Op: OpVerifyEmail, Kind: KindInvalidCode}
	}

	cur := c.Session()
	if cur.User == nil {
		return model.Session{}, &Error{Op: OpVerifyEmail, Kind: KindNoUser}
	}

	next := cur
	next.User.IsVerified = true
	next.IsAuthenticated = true
	next.NeedsEmailVerification = false
	next.VerificationEmail = ""

	err := c.store.MergeProfile(ctx, next.User.ID, model.Document{model.FieldIsVerified: true})
	if err != nil {
		slog.Warn("failed to mirror verification", "error", err, "user_id", next.User.ID)
	}

	err = c.save(ctx, OpVerifyEmail, next)
	if err != nil {
		return model.Session{}, err
	}

	c.commit(next)
	slog.Info("email verified", "user_id", next.User.ID)
	return next.Clone(), nil
}

func (c *Coordinator) ResendVerification(ctx context.Context) error {
	cur := c.Session()
	email := cur.VerificationEmail
	if email == "" && cur.User != nil {
		email = cur.User.Email
	}
	if email == "" {
		return &Error{Op: OpResend, Kind: KindNoUser}
	}

	if c.sender == nil {
		slog.Info("verification code resent", "email", email)
		return nil
	}
	err := c.sender.SendVerification(ctx, email)
	if err != nil {
		slog.Error("failed to resend verification", "error", err, "email", email)
		return fail(OpResend, err)
	}
	return nil
}

// UpdateProfile applies the present fields of upd and completes profile
// setup. Mirroring to the store is best effort.
func (c *Coordinator) UpdateProfile(ctx context.Context, upd model.ProfileUpdate) (model.Session, error) {
	cur := c.Session()
	if cur.User == nil {
		return model.Session{}, &Error{Op: OpUpdateProfile, Kind: KindNoUser}
	}

	next := cur
	upd.Apply(next.User)
	next.NeedsProfileSetup = false

	if doc := upd.Document(); len(doc) > 0 {
		err := c.store.MergeProfile(ctx, next.User.ID, doc)
		if err != nil {
			slog.Warn("failed to mirror profile update", "error", err, "user_id", next.User.ID)
		}
	}

	err := c.save(ctx, OpUpdateProfile, next)
	if err != nil {
		return model.Session{}, err
	}

	c.commit(next)
	return next.Clone(), nil
}

// SignOut marks the user offline, signs out of the store and clears the
// persisted snapshot. Only a persistence failure aborts it.
func (c *Coordinator) SignOut(ctx context.Context) error {
	cur := c.Session()
	if cur.User != nil {
		err := c.store.MergeProfile(ctx, cur.User.ID, model.PresenceDocument(false))
		if err != nil {
			slog.Warn("failed to mark user offline", "error", err, "user_id", cur.User.ID)
		}
	}

	err := c.store.SignOut(ctx)
	if err != nil {
		slog.Warn("store sign out failed", "error", err)
	}

	err = c.persistence.Delete(ctx, c.key)
	if err != nil {
		slog.Error("failed to clear session", "error", err)
		return &Error{Op: OpSignOut, Kind: KindPersistence, Err: err}
	}

	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()

	c.commit(model.Session{})
	slog.Info("signed out")
	return nil
}

func (c *Coordinator) onAuthState(uid string) {
	if uid == "" {
		return
	}

	// Claim the pending profile so concurrent notifications write it once.
	c.mu.Lock()
	pending := c.pending
	if pending != nil && pending.ID == uid {
		c.pending = nil
	} else {
		pending = nil
	}
	signedIn := c.session.User != nil && c.session.User.ID == uid
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if pending != nil {
		err := c.store.MergeProfile(ctx, uid, pending.Document())
		if err != nil {
			slog.Warn("deferred profile sync failed", "error", err, "user_id", uid)
			c.mu.Lock()
			if c.pending == nil && c.session.User != nil && c.session.User.ID == uid {
				c.pending = pending
			}
			c.mu.Unlock()
			return
		}
		slog.Info("deferred profile synced", "user_id", uid)
		return
	}

	if !signedIn {
		return
	}
	err := c.store.MergeProfile(ctx, uid, model.PresenceDocument(true))
	if err != nil {
		slog.Warn("failed to update online status", "error", err, "user_id", uid)
	}
}

func (c *Coordinator) sendVerification(ctx context.Context, email string) {
	if c.sender == nil {
		return
	}
	err := c.sender.SendVerification(ctx, email)
	if err != nil {
		slog.Warn("failed to send verification email", "error", err, "email", email)
	}
}

func (c *Coordinator) stored(ctx context.Context) *model.Snapshot {
	raw, err := c.persistence.Get(ctx, c.key)
	if err != nil {
		slog.Warn("failed to read session snapshot", "error", err, "key", c.key)
		return nil
	}
	if raw == nil {
		return nil
	}

	var snap model.Snapshot
	err = json.Unmarshal(raw, &snap)
	if err != nil {
		slog.Warn("corrupt session snapshot", "error", err, "key", c.key)
		return nil
	}
	return &snap
}

func (c *Coordinator) save(ctx context.Context, op string, s model.Session) error {
	raw, err := json.Marshal(s.Snapshot())
	if err != nil {
		return &Error{Op: op, Kind: KindPersistence, Err: err}
	}
	err = c.persistence.Set(ctx, c.key, raw)
	if err != nil {
		slog.Error("failed to persist session", "error", err, "op", op)
		return &Error{Op: op, Kind: KindPersistence, Err: err}
	}
	return nil
}

func (c *Coordinator) commit(s model.Session) {
	c.mu.Lock()
	c.session = s.Clone()
	c.initialized = true
	observers := make([]func(model.Session), 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}
	c.mu.Unlock()

	for _, fn := range observers {
		fn(s.Clone())
	}
}

// now is the coordinator clock in UTC at millisecond precision, which is
// what survives a snapshot round trip.
func (c *Coordinator) now() time.Time {
	return c.clock().UTC().Truncate(time.Millisecond)
}

func defaultName(ident *model.Identity) string {
	if ident.DisplayName != "" {
		return ident.DisplayName
	}
	local, _, _ := strings.Cut(ident.Email, "@")
	return local
}
