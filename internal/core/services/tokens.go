package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sentinelid/authcore/internal/core/domain"
	"github.com/sentinelid/authcore/internal/core/ports"
)

// issueTokens mints an access token from proof and a fresh refresh
// token, storing the refresh token's hash. Shared by Authenticate and
// CreateAccount; RefreshAccessToken mints its pair itself and stores
// it through RefreshTokenStore.Rotate.
func (s *IdentityService) issueTokens(ctx context.Context, proof *domain.AuthenticationProof, ip *string) (*ports.AuthResponse, error) {
	accessToken, err := s.signer.CreateAccessToken(proof)
	if err != nil {
		return nil, fmt.Errorf("creating access token: %w", err)
	}

	rawRefresh, err := s.refreshMgr.Generate()
	if err != nil {
		return nil, fmt.Errorf("generating refresh token: %w", err)
	}

	ttl := time.Duration(s.refreshMgr.ExpirationSeconds()) * time.Second
	tokenHash := domain.RefreshTokenHash(s.hasher.Hash([]byte(rawRefresh)))
	if err := s.refreshTokens.Store(ctx, tokenHash, proof.UserID, ip, ttl); err != nil {
		return nil, fmt.Errorf("storing refresh token: %w", err)
	}

	return &ports.AuthResponse{
		AccessToken: accessToken,
		RefreshToken: rawRefresh,
		TokenType: "Bearer",
		ExpiresIn: accessTokenTTLSeconds,
	}, nil
}

// passwordOnlyProof builds a single-factor Knowledge/Password proof at
// now. Used by CreateAccount and RefreshAccessToken, which
// deliberately does not carry a prior MFA factor forward across a
// refresh.
func passwordOnlyProof(userID domain.UserId, now time.Time) (*domain.AuthenticationProof, error) {
	return domain.NewAuthenticationProof(userID, []domain.VerifiedFactor{
		{Type: domain.FactorKnowledge, Method: domain.MethodPassword, VerifiedAt: now},
	}, now)
}
