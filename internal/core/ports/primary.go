package ports

import (
	"context"
	"time"

	"github.com/sentinelid/authcore/internal/core/domain"
)

// AuthenticateCmd is the input to Authenticate. Exactly one of Email
// or UserID must be set.
type AuthenticateCmd struct {
	Email *string
	UserID *string
	Password string
	TotpCode *string
	IP *string
}

// CreateAccountCmd is the input to CreateAccount.
type CreateAccountCmd struct {
	UserID string
	Email string
	Password string
	Locale *string
	InviteCode *string
	IP *string
}

// UpdateAccountCmd is the input to UpdateAccount.
type UpdateAccountCmd struct {
	UserID string
	Email *string
	Locale *string
}

// AuthResponse is the response shape shared by Authenticate,
// CreateAccount, and RefreshAccessToken.
type AuthResponse struct {
	AccessToken string
	RefreshToken string
	TokenType string
	ExpiresIn int64
}

// EnrollTotpResponse is returned by EnrollTotp: the secret has been
// generated but not yet encrypted or persisted to the account;
// ConfirmTotp does both.
type EnrollTotpResponse struct {
	Secret string
	OtpauthURI string
}

// IdentityUseCases is the primary port: the API the core exposes to
// driving adapters.
type IdentityUseCases interface {
	Authenticate(ctx context.Context, cmd AuthenticateCmd) (*AuthResponse, error)
	CreateAccount(ctx context.Context, cmd CreateAccountCmd) (*AuthResponse, error)
	RefreshAccessToken(ctx context.Context, refreshToken string, ip *string) (*AuthResponse, error)
	RevokeRefreshToken(ctx context.Context, refreshToken string) error

	UpdateAccount(ctx context.Context, cmd UpdateAccountCmd) (*domain.Account, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	DeleteAccount(ctx context.Context, userID string) error

	EnrollTotp(ctx context.Context, userID string) (*EnrollTotpResponse, error)
	ConfirmTotp(ctx context.Context, userID, pendingSecret, code string) error
	DisableTotp(ctx context.Context, userID, password string) error

	AddPublicKey(ctx context.Context, userID, password string, totpCode *string, pemData string) (domain.PublicKeyFingerprint, error)
	RemovePublicKey(ctx context.Context, userID, password string, totpCode *string, fingerprint string) error
}

// SensitiveOperationMaxAge is the default freshness window for
// ValidateSensitiveOperation when a use case does not receive an
// explicit override.
const SensitiveOperationMaxAge = 5 * time.Minute
