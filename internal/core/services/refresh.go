package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sentinelid/authcore/internal/core/domain"
	"github.com/sentinelid/authcore/internal/core/ports"
)

// RefreshAccessToken exchanges a valid refresh token for a fresh
// access/refresh pair. The presented token is revoked and a
// replacement is issued atomically via RefreshTokenStore.Rotate so a
// crash between the revoke and the insert leaves the client
// re-authenticable without leaking a usable token. A replay of an
// already-rotated token is rejected with ErrTokenNotFound by the
// FindUserID lookup before Rotate runs, so Rotate's revoke-all is not
// triggered and the token issued by the earlier rotation stays usable.
func (s *IdentityService) RefreshAccessToken(ctx context.Context, refreshToken string, ip *string) (*ports.AuthResponse, error) {
	oldHash := domain.RefreshTokenHash(s.hasher.Hash([]byte(refreshToken)))

	userIDPtr, err := s.refreshTokens.FindUserID(ctx, oldHash)
	if err != nil {
		return nil, err
	}
	if userIDPtr == nil {
		return nil, domain.ErrTokenNotFound
	}

	account, err := s.accounts.FindByID(ctx, *userIDPtr)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrUserNotFound
	}
	if account.IsDeleted() {
		return nil, domain.NewAccountDeletedError(*account.DeletedAt)
	}

	now := s.clock.Now()
	proof, err := passwordOnlyProof(account.UserID, now)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.signer.CreateAccessToken(proof)
	if err != nil {
		return nil, fmt.Errorf("creating access token: %w", err)
	}
	rawRefresh, err := s.refreshMgr.Generate()
	if err != nil {
		return nil, fmt.Errorf("generating refresh token: %w", err)
	}
	newHash := domain.RefreshTokenHash(s.hasher.Hash([]byte(rawRefresh)))
	ttl := time.Duration(s.refreshMgr.ExpirationSeconds()) * time.Second

	if err := s.refreshTokens.Rotate(ctx, oldHash, newHash, account.UserID, ip, ttl); err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			// Lost the race.
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("rotating refresh token: %w", err)
	}

	return &ports.AuthResponse{
		AccessToken: accessToken,
		RefreshToken: rawRefresh,
		TokenType: "Bearer",
		ExpiresIn: accessTokenTTLSeconds,
	}, nil
}

// RevokeRefreshToken revokes a single refresh token (logout).
func (s *IdentityService) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	hash := domain.RefreshTokenHash(s.hasher.Hash([]byte(refreshToken)))
	return s.refreshTokens.Revoke(ctx, hash)
}

// DeleteAccount soft-deletes an account and revokes every outstanding
// refresh token for it, so a deleted account can no longer
// authenticate immediately rather than merely on its next token
// refresh.
func (s *IdentityService) DeleteAccount(ctx context.Context, userID string) error {
	id, err := domain.NewUserId(userID)
	if err != nil {
		return err
	}
	if err := s.accounts.Delete(ctx, id); err != nil {
		return err
	}
	return s.refreshTokens.RevokeAllForUser(ctx, id)
}
