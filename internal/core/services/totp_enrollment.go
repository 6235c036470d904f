package services

import (
	"context"
	"encoding/base32"
	"fmt"
	"net/url"

	"github.com/sentinelid/authcore/internal/core/domain"
	"github.com/sentinelid/authcore/internal/core/ports"
)

// EnrollTotp generates a new base32 secret and returns it along with an
// otpauth:// URI for display (e.g. as a QR code by the out-of-scope
// HTTP layer). The secret is not persisted yet — ConfirmTotp does that
// only after the caller proves possession of it.
func (s *IdentityService) EnrollTotp(ctx context.Context, userID string) (*ports.EnrollTotpResponse, error) {
	id, err := domain.NewUserId(userID)
	if err != nil {
		return nil, err
	}
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrUserNotFound
	}
	if account.IsDeleted() {
		return nil, domain.NewAccountDeletedError(*account.DeletedAt)
	}

	raw, err := s.random.Bytes(20)
	if err != nil {
		return nil, fmt.Errorf("generating totp secret: %w", err)
	}
	secret, err := domain.NewTotpSecret(base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw))
	if err != nil {
		return nil, err
	}

	uri := (&url.URL{
		Scheme: "otpauth",
		Host:   "totp",
		Path:   "/authcore:" + account.Username,
		RawQuery: url.Values{
			"secret": {secret.Expose()},
			"issuer": {"authcore"},
		}.Encode(),
	}).String()

	return &ports.EnrollTotpResponse{Secret: secret.Expose(), OtpauthURI: uri}, nil
}

// ConfirmTotp verifies code against pendingSecret and, on success,
// encrypts and persists the secret on the account.
func (s *IdentityService) ConfirmTotp(ctx context.Context, userID, pendingSecret, code string) error {
	id, err := domain.NewUserId(userID)
	if err != nil {
		return err
	}
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if account == nil {
		return domain.ErrUserNotFound
	}
	if account.IsDeleted() {
		return domain.NewAccountDeletedError(*account.DeletedAt)
	}

	secret, err := domain.NewTotpSecret(pendingSecret)
	if err != nil {
		return domain.ErrInvalidTotpSecret
	}
	totpCode, err := domain.NewTotpCode(code, s.totpConfig.Digits)
	if err != nil {
		return domain.ErrInvalidTotpCode
	}
	if !s.totp.VerifyWithWindow(totpCode, secret, s.totpConfig, 1, s.clock.Now()) {
		return domain.ErrInvalidTotpCode
	}

	cipher, err := s.cipher.Encrypt([]byte(secret.Expose()))
	if err != nil {
		return fmt.Errorf("encrypting totp secret: %w", err)
	}
	account.TotpSecret = &cipher

	return s.accounts.Update(ctx, account)
}

// DisableTotp re-verifies the account password (disabling MFA is a
// sensitive change) and clears the TOTP secret.
func (s *IdentityService) DisableTotp(ctx context.Context, userID, password string) error {
	id, err := domain.NewUserId(userID)
	if err != nil {
		return err
	}
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if account == nil {
		return domain.ErrUserNotFound
	}
	if account.IsDeleted() {
		return domain.NewAccountDeletedError(*account.DeletedAt)
	}

	pw, err := domain.NewPassword(password)
	if err != nil {
		return err
	}
	if err := s.passwords.Verify(pw, account.PasswordHash); err != nil {
		return domain.ErrInvalidCredentials
	}

	account.TotpSecret = nil
	return s.accounts.Update(ctx, account)
}

