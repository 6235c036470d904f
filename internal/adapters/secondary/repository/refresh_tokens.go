package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sentinelid/authcore/internal/core/domain"
	"github.com/sentinelid/authcore/internal/core/ports"
)

// RefreshTokenRepo implements ports.RefreshTokenStore. Rotate revokes
// the old token and inserts the new one inside a single transaction;
// zero rows revoked is treated as a replay and answered by revoking
// every token for the account. This repository keeps rows instead of
// deleting them on ordinary revoke, so Revoke/RevokeAllForUser mark
// revoked=true rather than delete, matching
// domain.RefreshToken.IsUsable's revoked check.
type RefreshTokenRepo struct {
	db *pgxpool.Pool
}

func NewRefreshTokenRepo(pool *pgxpool.Pool) *RefreshTokenRepo {
	return &RefreshTokenRepo{db: pool}
}

func (r *RefreshTokenRepo) Store(ctx context.Context, tokenHash domain.RefreshTokenHash, userID domain.UserId, ip *string, ttl time.Duration) error {
	q := `
		INSERT INTO refresh_tokens (token_hash, user_id, ip, created_at, expires_at, revoked)
		VALUES (@token_hash, @user_id, @ip, @created_at, @expires_at, false)
	`
	now := time.Now().UTC()
	_, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"token_hash": string(tokenHash),
		"user_id": userID.String(),
		"ip": ip,
		"created_at": now,
		"expires_at": now.Add(ttl),
	})
	if err != nil {
		return fmt.Errorf("db: store refresh token: %w", err)
	}
	return nil
}

// FindUserID returns nil, nil if the record is absent, revoked, or
// expired, never surfacing those as distinct errors to the caller.
func (r *RefreshTokenRepo) FindUserID(ctx context.Context, tokenHash domain.RefreshTokenHash) (*domain.UserId, error) {
	q := `
		SELECT user_id FROM refresh_tokens
		WHERE token_hash = $1 AND revoked = false AND expires_at > now()
	`
	var rawID string
	err := r.db.QueryRow(ctx, q, string(tokenHash)).Scan(&rawID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db: find refresh token: %w", err)
	}
	userID, err := domain.NewUserId(rawID)
	if err != nil {
		return nil, err
	}
	return &userID, nil
}

func (r *RefreshTokenRepo) Revoke(ctx context.Context, tokenHash domain.RefreshTokenHash) error {
	q := `UPDATE refresh_tokens SET revoked = true WHERE token_hash = $1`
	if _, err := r.db.Exec(ctx, q, string(tokenHash)); err != nil {
		return fmt.Errorf("db: revoke refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID domain.UserId) error {
	q := `UPDATE refresh_tokens SET revoked = true WHERE user_id = $1 AND revoked = false`
	if _, err := r.db.Exec(ctx, q, userID.String()); err != nil {
		return fmt.Errorf("db: revoke all refresh tokens: %w", err)
	}
	return nil
}

// Rotate atomically revokes oldHash and stores newHash in one
// transaction. Zero rows affected on the revoke means oldHash was
// already used or never existed — a possible replay — and every
// outstanding token for userID is revoked in response before
// domain.ErrTokenNotFound is returned.
func (r *RefreshTokenRepo) Rotate(ctx context.Context, oldHash, newHash domain.RefreshTokenHash, userID domain.UserId, ip *string, ttl time.Duration) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("db: begin rotate: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = true
		 WHERE token_hash = $1 AND user_id = $2 AND revoked = false AND expires_at > now()`,
		string(oldHash), userID.String(),
	)
	if err != nil {
		return fmt.Errorf("db: revoke old token: %w", err)
	}

	if tag.RowsAffected() == 0 {
		if _, err := tx.Exec(ctx,
			`UPDATE refresh_tokens SET revoked = true WHERE user_id = $1 AND revoked = false`,
			userID.String(),
		); err != nil {
			return fmt.Errorf("db: revoke all after replay: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("db: commit replay revocation: %w", err)
		}
		return domain.ErrTokenNotFound
	}

	now := time.Now().UTC()
	if _, err := tx.Exec(ctx,
		`INSERT INTO refresh_tokens (token_hash, user_id, ip, created_at, expires_at, revoked)
		 VALUES ($1, $2, $3, $4, $5, false)`,
		string(newHash), userID.String(), ip, now, now.Add(ttl),
	); err != nil {
		return fmt.Errorf("db: insert rotated token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("db: commit rotate: %w", err)
	}
	return nil
}

var _ ports.RefreshTokenStore = (*RefreshTokenRepo)(nil)
