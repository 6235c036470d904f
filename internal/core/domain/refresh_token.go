package domain

import "time"

// RefreshTokenHash is the Hasher output over a raw refresh token; it is
// the only form of a refresh token ever persisted.
type RefreshTokenHash string

// RefreshToken is the persisted record for an opaque refresh
// credential. The raw token itself is never stored.
type RefreshToken struct {
	TokenHash RefreshTokenHash
	UserID    UserId
	IP        *string
	CreatedAt time.Time
	ExpiresAt time.Time
	Revoked   bool
}

// IsUsable reports whether the token can still be exchanged: not
// revoked and not expired as of now.
func (r *RefreshToken) IsUsable(now time.Time) bool {
	return !r.Revoked && now.Before(r.ExpiresAt)
}
