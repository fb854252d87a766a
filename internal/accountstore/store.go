// Package accountstore is the SQL-backed Account & Profile Store: password
// and federated identities, signed ID tokens, schemaless profile documents
// and auth-state notifications for the signed-in account.
package accountstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/templui/lanchat/internal/autherr"
	"github.com/templui/lanchat/internal/model"
	"github.com/templui/lanchat/internal/ratelimit"
	"github.com/templui/lanchat/internal/repository"
	"github.com/templui/lanchat/internal/validation"
)

var ErrInvalidToken = errors.New("invalid token")

type Config struct {
	JWTSecret       string
	JWTExpiry       time.Duration
	SignInRateLimit int
	SignInWindow    time.Duration
}

// Claims identify the account an ID token was issued to.
type Claims struct {
	UID   string
	Email string
}

type Store struct {
	accounts  repository.AccountRepository
	profiles  repository.ProfileRepository
	failures  *ratelimit.Limiter
	jwtSecret []byte
	jwtExpiry time.Duration
	now       func() time.Time

	mu          sync.Mutex
	current     string
	subscribers map[int]func(uid string)
	nextID      int
}

func New(db *sqlx.DB, cfg Config) *Store {
	return NewWithRepositories(repository.NewAccountRepository(db), repository.NewProfileRepository(db), cfg)
}

func NewWithRepositories(accounts repository.AccountRepository, profiles repository.ProfileRepository, cfg Config) *Store {
	if cfg.JWTExpiry <= 0 {
		cfg.JWTExpiry = time.Hour
	}
	if cfg.SignInRateLimit <= 0 {
		cfg.SignInRateLimit = 5
	}
	if cfg.SignInWindow <= 0 {
		cfg.SignInWindow = 15 * time.Minute
	}
	return &Store{
		accounts:    accounts,
		profiles:    profiles,
		failures:    ratelimit.New(cfg.SignInRateLimit, cfg.SignInWindow),
		jwtSecret:   []byte(cfg.JWTSecret),
		jwtExpiry:   cfg.JWTExpiry,
		now:         time.Now,
		subscribers: make(map[int]func(string)),
	}
}

// Close stops background work.
func (s *Store) Close() {
	s.failures.Close()
}

func (s *Store) SignIn(ctx context.Context, email, password string) (*model.Identity, error) {
	email = validation.NormalizeEmail(email)
	if validation.ValidateEmail(email) != nil {
		return nil, autherr.New(autherr.InvalidEmail)
	}
	if s.failures.Exceeded(email) {
		slog.Warn("sign in rate limited", "email", email)
		return nil, autherr.New(autherr.TooManyRequests)
	}

	account, err := s.accounts.ByEmail(ctx, email)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return nil, autherr.New(autherr.UserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account.Disabled {
		return nil, autherr.New(autherr.UserDisabled)
	}
	if !account.HasPassword() {
		return nil, autherr.Wrap(autherr.InvalidCredential, errors.New("account uses federated sign in"))
	}

	err = bcrypt.CompareHashAndPassword([]byte(*account.PasswordHash), []byte(password))
	if err != nil {
		s.failures.Hit(email)
		return nil, autherr.New(autherr.WrongPassword)
	}
	s.failures.Reset(email)

	return s.signedIn(account)
}

// SignUp creates a password account and signs it in.
func (s *Store) SignUp(ctx context.Context, email, password string) (*model.Identity, error) {
	email = validation.NormalizeEmail(email)
	if validation.ValidateEmail(email) != nil {
		return nil, autherr.New(autherr.InvalidEmail)
	}
	err := validation.ValidatePassword(password)
	if err != nil {
		return nil, autherr.Wrap(autherr.WeakPassword, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hashed := string(hash)

	account := &model.Account{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: &hashed,
		Provider:     model.ProviderPassword,
		CreatedAt:    s.now().UTC(),
	}
	err = s.accounts.Create(ctx, account)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return nil, autherr.New(autherr.EmailAlreadyInUse)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	slog.Info("account created", "user_id", account.ID)
	return s.signedIn(account)
}

func (s *Store) SetDisplayName(ctx context.Context, uid, name string) error {
	account, err := s.accounts.ByID(ctx, uid)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return autherr.New(autherr.UserNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}

	account.DisplayName = strings.TrimSpace(name)
	return s.accounts.Update(ctx, account)
}

// SignInWithCredential finds the account linked to the federated subject,
// links an existing account with the same email, or creates a new one.
func (s *Store) SignInWithCredential(ctx context.Context, cred *model.FederatedCredential) (*model.Identity, error) {
	if cred == nil || cred.Provider == "" || cred.Subject == "" {
		return nil, autherr.New(autherr.InvalidCredential)
	}

	account, err := s.accounts.ByProvider(ctx, cred.Provider, cred.Subject)
	if err == nil {
		if account.Disabled {
			return nil, autherr.New(autherr.UserDisabled)
		}
		return s.signedIn(account)
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	email := validation.NormalizeEmail(cred.Email)
	if validation.ValidateEmail(email) != nil {
		return nil, autherr.New(autherr.InvalidEmail)
	}
	subject := cred.Subject

	account, err = s.accounts.ByEmail(ctx, email)
	switch {
	case err == nil:
		if account.Disabled {
			return nil, autherr.New(autherr.UserDisabled)
		}
		account.Provider = cred.Provider
		account.ProviderSubject = &subject
		if account.DisplayName == "" {
			account.DisplayName = cred.DisplayName
		}
		if account.PhotoURL == "" {
			account.PhotoURL = cred.PhotoURL
		}
		err = s.accounts.Update(ctx, account)
		if err != nil {
			return nil, fmt.Errorf("failed to link account: %w", err)
		}
		slog.Info("federated identity linked", "user_id", account.ID, "provider", cred.Provider)

	case errors.Is(err, repository.ErrAccountNotFound):
		account = &model.Account{
			ID:              uuid.New().String(),
			Email:           email,
			DisplayName:     cred.DisplayName,
			PhotoURL:        cred.PhotoURL,
			Provider:        cred.Provider,
			ProviderSubject: &subject,
			CreatedAt:       s.now().UTC(),
		}
		err = s.accounts.Create(ctx, account)
		if err != nil {
			return nil, fmt.Errorf("failed to create account: %w", err)
		}
		slog.Info("federated account created", "user_id", account.ID, "provider", cred.Provider)

	default:
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return s.signedIn(account)
}

func (s *Store) SignOut(ctx context.Context) error {
	s.setCurrent("")
	return nil
}

// CurrentUser returns the signed-in uid, or "".
func (s *Store) CurrentUser() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Subscribe registers fn for auth-state changes and calls it once with the
// current uid. Calls happen on their own goroutines.
func (s *Store) Subscribe(fn func(uid string)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	current := s.current
	s.mu.Unlock()

	go fn(current)

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *Store) Profile(ctx context.Context, uid string) (model.Document, error) {
	doc, err := s.profiles.ByID(ctx, uid)
	if errors.Is(err, repository.ErrProfileNotFound) {
		return nil, nil
	}
	return doc, err
}

func (s *Store) MergeProfile(ctx context.Context, uid string, doc model.Document) error {
	_, err := s.profiles.Merge(ctx, uid, doc, s.now().UTC())
	return err
}

// UserProfile hydrates one stored profile.
func (s *Store) UserProfile(ctx context.Context, uid string) (*model.Profile, error) {
	doc, err := s.profiles.ByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	return model.ProfileFromDocument(uid, doc, s.now().UTC())
}

// Profiles hydrates every stored profile, most recently updated first.
// Unreadable documents are skipped.
func (s *Store) Profiles(ctx context.Context) ([]*model.Profile, error) {
	stored, err := s.profiles.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	now := s.now().UTC()
	profiles := make([]*model.Profile, 0, len(stored))
	for _, sp := range stored {
		p, err := model.ProfileFromDocument(sp.ID, sp.Data, now)
		if err != nil {
			slog.Warn("skipping unreadable profile", "error", err, "user_id", sp.ID)
			continue
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// IssueToken signs an ID token for account.
func (s *Store) IssueToken(account *model.Account) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": account.ID,
		"email":   account.Email,
		"exp":     now.Add(s.jwtExpiry).Unix(),
		"iat":     now.Unix(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

// VerifyToken checks an ID token's signature and expiry.
func (s *Store) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	uid, _ := claims["user_id"].(string)
	email, _ := claims["email"].(string)
	if uid == "" {
		return nil, ErrInvalidToken
	}
	return &Claims{UID: uid, Email: email}, nil
}

func (s *Store) signedIn(account *model.Account) (*model.Identity, error) {
	token, err := s.IssueToken(account)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	s.setCurrent(account.ID)
	return account.Identity(token), nil
}

func (s *Store) setCurrent(uid string) {
	s.mu.Lock()
	if s.current == uid {
		s.mu.Unlock()
		return
	}
	s.current = uid
	subscribers := make([]func(string), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.mu.Unlock()

	for _, fn := range subscribers {
		go fn(uid)
	}
}
