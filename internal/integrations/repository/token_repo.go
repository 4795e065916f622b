package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/studyhaven/studyhaven-backend/internal/integrations/domain"
)

type TokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Upsert stores t, replacing any previous credential for the same provider.
func (r *TokenRepository) Upsert(ctx context.Context, t *domain.Token) error {
	meta := t.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO integration_tokens (user_id, provider, access_token, refresh_token, token_type, expiry, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (user_id, provider) DO UPDATE SET
    access_token  = EXCLUDED.access_token,
    refresh_token = CASE WHEN EXCLUDED.refresh_token = '' THEN integration_tokens.refresh_token ELSE EXCLUDED.refresh_token END,
    token_type    = EXCLUDED.token_type,
    expiry        = EXCLUDED.expiry,
    metadata      = EXCLUDED.metadata,
    updated_at    = now()
RETURNING created_at, updated_at;
`
	return r.db.QueryRowContext(ctx, q,
		t.UserID, t.Provider, t.AccessToken, t.RefreshToken, t.TokenType, t.Expiry, raw,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
}

func (r *TokenRepository) Get(ctx context.Context, userID, provider string) (*domain.Token, error) {
	const q = `
SELECT user_id, provider, access_token, refresh_token, token_type, expiry, metadata, created_at, updated_at
FROM integration_tokens
WHERE user_id = $1 AND provider = $2;
`
	t, err := scanToken(r.db.QueryRowContext(ctx, q, userID, provider))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotConnected
	}
	return t, err
}

func (r *TokenRepository) List(ctx context.Context, userID string) ([]domain.Token, error) {
	const q = `
SELECT user_id, provider, access_token, refresh_token, token_type, expiry, metadata, created_at, updated_at
FROM integration_tokens
WHERE user_id = $1
ORDER BY provider;
`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Token, 0)
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Delete removes the credential. Deleting a missing one is not an error.
func (r *TokenRepository) Delete(ctx context.Context, userID, provider string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM integration_tokens WHERE user_id = $1 AND provider = $2`, userID, provider)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanToken(s scanner) (*domain.Token, error) {
	var (
		t      domain.Token
		expiry sql.NullTime
		meta   []byte
	)
	if err := s.Scan(&t.UserID, &t.Provider, &t.AccessToken, &t.RefreshToken, &t.TokenType,
		&expiry, &meta, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if expiry.Valid {
		e := expiry.Time.UTC()
		t.Expiry = &e
	}
	t.Metadata = map[string]string{}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &t.Metadata); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

