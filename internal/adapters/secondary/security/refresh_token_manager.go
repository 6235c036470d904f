package security

import (
	"encoding/base64"
	"fmt"

	"github.com/sentinelid/authcore/internal/core/ports"
)

const refreshTokenBytes = 32 // >=32 bytes of entropy

// RefreshTokenManager implements ports.RefreshTokenManager: opaque,
// base64url-encoded random tokens with a configurable TTL, favoring
// base64url over hex for more entropy per character.
type RefreshTokenManager struct {
	random ports.SecureRandom
	ttlSeconds int64
}

func NewRefreshTokenManager(random ports.SecureRandom, ttlSeconds int64) *RefreshTokenManager {
	return &RefreshTokenManager{random: random, ttlSeconds: ttlSeconds}
}

func (m *RefreshTokenManager) Generate() (string, error) {
	raw, err := m.random.Bytes(refreshTokenBytes)
	if err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func (m *RefreshTokenManager) ExpirationSeconds() int64 { return m.ttlSeconds }

var _ ports.RefreshTokenManager = (*RefreshTokenManager)(nil)

// DefaultRefreshTTLSeconds is the default refresh token lifetime.
const DefaultRefreshTTLSeconds = 15 * 24 * 60 * 60
