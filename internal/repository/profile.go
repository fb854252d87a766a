package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/lanchat/internal/model"
)

// StoredProfile is a profile document with its row metadata.
type StoredProfile struct {
	ID        string
	Data      model.Document
	UpdatedAt time.Time
}

// ProfileRepository stores schemaless profile documents keyed by account id.
type ProfileRepository interface {
	ByID(ctx context.Context, id string) (model.Document, error)
	Merge(ctx context.Context, id string, doc model.Document, now time.Time) (model.Document, error)
	All(ctx context.Context) ([]StoredProfile, error)
	Delete(ctx context.Context, id string) error
}

type profileRow struct {
	ID        string    `db:"id"`
	Data      string    `db:"data"`
	UpdatedAt time.Time `db:"updated_at"`
}

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) ByID(ctx context.Context, id string) (model.Document, error) {
	var row profileRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM profiles WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeDocument(row.Data)
}

// Merge writes doc over the stored fields, creating the document when it
// does not exist. ServerTimestamp values resolve to now, and createdAt is
// stamped on first write unless doc carries one.
func (r *profileRepository) Merge(ctx context.Context, id string, doc model.Document, now time.Time) (model.Document, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var data string
	err = tx.GetContext(ctx, &data, `SELECT data FROM profiles WHERE id = $1`, id)
	var merged model.Document
	switch {
	case errors.Is(err, sql.ErrNoRows):
		merged = model.Document{model.FieldCreatedAt: now}
	case err != nil:
		return nil, fmt.Errorf("failed to read profile: %w", err)
	default:
		merged, err = decodeDocument(data)
		if err != nil {
			return nil, err
		}
	}

	for k, v := range doc.Resolve(now) {
		merged[k] = v
	}

	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO profiles (id, data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, id, string(raw), now)
	if err != nil {
		return nil, fmt.Errorf("failed to write profile: %w", err)
	}

	err = tx.Commit()
	if err != nil {
		return nil, fmt.Errorf("failed to commit profile: %w", err)
	}

	return decodeDocument(string(raw))
}

func (r *profileRepository) All(ctx context.Context) ([]StoredProfile, error) {
	var rows []profileRow
	err := r.db.SelectContext(ctx, &rows, `SELECT * FROM profiles ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}

	profiles := make([]StoredProfile, 0, len(rows))
	for _, row := range rows {
		doc, err := decodeDocument(row.Data)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", row.ID, err)
		}
		profiles = append(profiles, StoredProfile{ID: row.ID, Data: doc, UpdatedAt: row.UpdatedAt})
	}
	return profiles, nil
}

func (r *profileRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectRow(result, ErrProfileNotFound)
}

func decodeDocument(data string) (model.Document, error) {
	doc := model.Document{}
	err := json.Unmarshal([]byte(data), &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return doc, nil
}
