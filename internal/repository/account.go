package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/templui/lanchat/internal/model"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrDuplicateEmail  = errors.New("email already exists")
	ErrProfileNotFound = errors.New("profile not found")
)

type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	ByID(ctx context.Context, id string) (*model.Account, error)
	ByEmail(ctx context.Context, email string) (*model.Account, error)
	ByProvider(ctx context.Context, provider, subject string) (*model.Account, error)
	Update(ctx context.Context, account *model.Account) error
	Delete(ctx context.Context, id string) error
}

type accountRepository struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *model.Account) error {
	query := `INSERT INTO accounts (id, email, password_hash, display_name, photo_url, provider, provider_subject, disabled, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.DisplayName,
		account.PhotoURL,
		account.Provider,
		account.ProviderSubject,
		account.Disabled,
		account.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return err
	}

	return nil
}

func (r *accountRepository) ByID(ctx context.Context, id string) (*model.Account, error) {
	return r.one(ctx, `SELECT * FROM accounts WHERE id = $1`, id)
}

func (r *accountRepository) ByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.one(ctx, `SELECT * FROM accounts WHERE email = $1`, email)
}

func (r *accountRepository) ByProvider(ctx context.Context, provider, subject string) (*model.Account, error) {
	return r.one(ctx, `SELECT * FROM accounts WHERE provider = $1 AND provider_subject = $2`, provider, subject)
}

func (r *accountRepository) one(ctx context.Context, query string, args ...any) (*model.Account, error) {
	account := &model.Account{}
	err := r.db.GetContext(ctx, account, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (r *accountRepository) Update(ctx context.Context, account *model.Account) error {
	query := `UPDATE accounts
	          SET email = $1, password_hash = $2, display_name = $3, photo_url = $4, provider = $5, provider_subject = $6, disabled = $7
	          WHERE id = $8`

	result, err := r.db.ExecContext(ctx, query,
		account.Email,
		account.PasswordHash,
		account.DisplayName,
		account.PhotoURL,
		account.Provider,
		account.ProviderSubject,
		account.Disabled,
		account.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return err
	}

	return expectRow(result, ErrAccountNotFound)
}

func (r *accountRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectRow(result, ErrAccountNotFound)
}

// isUniqueViolation works for both SQLite and PostgreSQL error texts.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

func expectRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
