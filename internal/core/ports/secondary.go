// Package ports declares the interfaces the core authentication use
// cases depend on. Each secondary port is deliberately narrow, one
// capability per interface, aggregated behind Deps so tests can inject
// minimal fakes instead of a monolithic mock.
package ports

import (
	"context"
	"time"

	"github.com/sentinelid/authcore/internal/core/domain"
)

// Clock returns monotonic-enough wall time; see
// internal/adapters/secondary/security/clock.go for the fixed-clock
// test double.
type Clock interface {
	Now() time.Time
	NowSeconds() int64
	NowMillis() int64
}

// SecureRandom is a cryptographic RNG.
type SecureRandom interface {
	// Bytes returns n cryptographically random bytes.
	Bytes(n int) ([]byte, error)
	// Hex returns the lowercase hex encoding of n random bytes.
	Hex(n int) (string, error)
	// String returns n random characters drawn from an alphanumeric alphabet.
	String(n int) (string, error)
}

// Hasher computes a deterministic peppered SHA-256 over small inputs.
// It must be used only for identifiers that are compared (email lookup
// keys, refresh-token storage keys), never for password material.
type Hasher interface {
	Hash(data []byte) string
}

// PasswordHasher hashes and verifies passwords with Argon2id.
// It is the only component that ever inspects password bytes.
type PasswordHasher interface {
	Hash(password domain.Password) (domain.PasswordHash, error)
	// Verify returns domain.ErrInvalidCredentials on mismatch and no
	// other error kind for a verification failure.
	Verify(password domain.Password, hash domain.PasswordHash) error
}

// TotpConfig parameterizes TOTP generation/verification.
type TotpConfig struct {
	Period int // time step in seconds, default 30
	Digits int // code length, default 6
}

// TotpGenerator implements RFC 6238 TOTP.
type TotpGenerator interface {
	GenerateAt(secret domain.TotpSecret, cfg TotpConfig, at time.Time) (domain.TotpCode, error)
	// VerifyWithWindow regenerates codes for counters current-window..current+window
	// and reports true on any constant-time match.
	VerifyWithWindow(code domain.TotpCode, secret domain.TotpSecret, cfg TotpConfig, window int, at time.Time) bool
}

// SymmetricCipher provides authenticated encryption for at-rest
// reversible fields. Two encryptions of the same plaintext must
// produce different ciphertexts.
type SymmetricCipher interface {
	Encrypt(plaintext []byte) (domain.HexCiphertext, error)
	Decrypt(ciphertext domain.HexCiphertext) ([]byte, error)
}

// TokenSigner owns an ES256 key pair and kid, issuing and verifying
// access tokens.
type TokenSigner interface {
	CreateAccessToken(proof *domain.AuthenticationProof) (string, error)
	VerifyToken(jwt string) (*Claims, error)
	// PublicJWK returns the signer's public key in a form a JWKS
	// collaborator (out of scope here) can publish.
	PublicJWK() (kid string, publicKeyPEM []byte, err error)
}

// Claims is the verified, parsed content of an access token.
type Claims struct {
	Subject string
	Issuer string
	Audience string
	IssuedAt time.Time
	ExpiresAt time.Time
	JTI string
	Scope string
}

// RefreshTokenManager generates high-entropy opaque refresh tokens and
// owns TTL policy.
type RefreshTokenManager interface {
	Generate() (string, error)
	ExpirationSeconds() int64
}

// AccountStore persists accounts keyed by user id and email hash, with
// soft delete.
type AccountStore interface {
	FindByID(ctx context.Context, id domain.UserId) (*domain.Account, error)
	FindByEmailHash(ctx context.Context, hash domain.EmailHash) (*domain.Account, error)
	Create(ctx context.Context, account *domain.Account) error
	Update(ctx context.Context, account *domain.Account) error
	// Delete soft-deletes the account, setting deleted_at to now plus
	// the retention window.
	Delete(ctx context.Context, id domain.UserId) error
}

// RefreshTokenStore persists hashed refresh tokens.
type RefreshTokenStore interface {
	Store(ctx context.Context, tokenHash domain.RefreshTokenHash, userID domain.UserId, ip *string, ttl time.Duration) error
	// FindUserID returns nil, nil if the record is absent, revoked, or expired.
	FindUserID(ctx context.Context, tokenHash domain.RefreshTokenHash) (*domain.UserId, error)
	Revoke(ctx context.Context, tokenHash domain.RefreshTokenHash) error
	RevokeAllForUser(ctx context.Context, userID domain.UserId) error
	// Rotate atomically revokes oldHash and stores newHash for userID in
	// one transaction, failing with domain.ErrTokenNotFound if oldHash
	// was already revoked/absent.
	Rotate(ctx context.Context, oldHash, newHash domain.RefreshTokenHash, userID domain.UserId, ip *string, ttl time.Duration) error
}

// InviteStore tracks invite codes consumed atomically by CreateAccount
// when invite-only mode is enabled.
type InviteStore interface {
	// Consume marks code used by userID if it exists and is unused,
	// returning false if the code is missing or already consumed.
	Consume(ctx context.Context, code string, userID domain.UserId) (bool, error)
}

// UnitOfWork runs fn as a single atomic unit: fn's effects are
// committed only if it returns nil, and rolled back in full otherwise.
// Secondary adapters that want to participate read the active
// transaction off the ctx Execute passes them, so CreateAccount can
// make InviteStore.Consume and AccountStore.Create commit or roll back
// together without either port knowing about the other.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
}

// LDAPAuthenticator is a named collaborator interface only: no adapter
// in this repository implements it yet. Authenticate never mints a
// token without first loading a local Account row, regardless of how
// that row came to exist, so a future LDAP-backed implementation can
// provision the row on first bind without touching the use cases.
type LDAPAuthenticator interface {
	Bind(ctx context.Context, userID domain.UserId, password domain.Password) (bool, error)
}

// Telemetry records structured counters for auth outcomes.
type Telemetry interface {
	AuthSuccess(method string)
	AuthFailure(reason string)
	AccountCreated()
}

// Mailer dispatches fire-and-forget notifications. Failures are
// swallowed by the caller.
type Mailer interface {
	SendWelcome(ctx context.Context, email domain.EmailAddress, locale, username string) error
}
