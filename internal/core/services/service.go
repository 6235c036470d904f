// Package services implements the core use cases by orchestrating
// the secondary ports. Each use case is a pure orchestration: it
// returns either a complete response or a single typed error.
package services

import (
	"github.com/sentinelid/authcore/internal/core/ports"
)

const (
	accessTokenTTLSeconds = 900 // reported as expires_in; the token's own exp comes from the signer's configured TTL (default 900s)
	defaultLocale = "en"
)

// IdentityService implements ports.IdentityUseCases. It is constructed
// once at startup with the full set of secondary ports and holds no
// other mutable state; each request gets its own call stack instead of
// reaching into package-level globals.
type IdentityService struct {
	accounts ports.AccountStore
	refreshTokens ports.RefreshTokenStore
	invites ports.InviteStore
	uow ports.UnitOfWork
	inviteOnly bool

	clock ports.Clock
	random ports.SecureRandom
	hasher ports.Hasher
	passwords ports.PasswordHasher
	totp ports.TotpGenerator
	cipher ports.SymmetricCipher
	signer ports.TokenSigner
	refreshMgr ports.RefreshTokenManager

	telemetry ports.Telemetry
	mailer ports.Mailer

	totpConfig ports.TotpConfig
}

// Deps groups the constructor's dependencies so NewIdentityService's
// signature stays stable as new ports are added.
type Deps struct {
	Accounts ports.AccountStore
	RefreshTokens ports.RefreshTokenStore
	Invites ports.InviteStore
	UnitOfWork ports.UnitOfWork
	// InviteOnly, when true, makes CreateAccount require and validate
	// an invite code on every call instead of only when one is given.
	InviteOnly bool

	Clock ports.Clock
	Random ports.SecureRandom
	Hasher ports.Hasher
	Passwords ports.PasswordHasher
	Totp ports.TotpGenerator
	Cipher ports.SymmetricCipher
	Signer ports.TokenSigner
	RefreshMgr ports.RefreshTokenManager

	Telemetry ports.Telemetry
	Mailer ports.Mailer

	TotpConfig ports.TotpConfig
}

// NewIdentityService is the constructor with injection of every
// secondary port.
func NewIdentityService(d Deps) *IdentityService {
	cfg := d.TotpConfig
	if cfg.Period <= 0 {
		cfg.Period = 30
	}
	if cfg.Digits <= 0 {
		cfg.Digits = 6
	}
	return &IdentityService{
		accounts: d.Accounts,
		refreshTokens: d.RefreshTokens,
		invites: d.Invites,
		uow: d.UnitOfWork,
		inviteOnly: d.InviteOnly,
		clock: d.Clock,
		random: d.Random,
		hasher: d.Hasher,
		passwords: d.Passwords,
		totp: d.Totp,
		cipher: d.Cipher,
		signer: d.Signer,
		refreshMgr: d.RefreshMgr,
		telemetry: d.Telemetry,
		mailer: d.Mailer,
		totpConfig: cfg,
	}
}

var _ ports.IdentityUseCases = (*IdentityService)(nil)
