package services

import (
	"context"
	"errors"
	"time"

	"github.com/sentinelid/authcore/internal/core/domain"
	"github.com/sentinelid/authcore/internal/core/ports"
)

// Authenticate verifies a password (and, if the account has one
// enrolled, a TOTP code) and issues a token pair. Exactly one of
// cmd.Email / cmd.UserID must be present.
func (s *IdentityService) Authenticate(ctx context.Context, cmd ports.AuthenticateCmd) (*ports.AuthResponse, error) {
	hasEmail := cmd.Email != nil && *cmd.Email != ""
	hasUserID := cmd.UserID != nil && *cmd.UserID != ""

	switch {
	case hasEmail == hasUserID:
		reason := "missing_identifier"
		if hasEmail && hasUserID {
			reason = "ambiguous_identifier"
		}
		s.telemetry.AuthFailure(reason)
		return nil, domain.NewValidationError("identifier", "exactly one of email or user_id is required")
	}

	password, err := domain.NewPassword(cmd.Password)
	if err != nil {
		s.telemetry.AuthFailure("invalid_password_format")
		return nil, err
	}

	var account *domain.Account
	var loginByEmail bool
	if hasEmail {
		loginByEmail = true
		email, err := domain.NewEmailAddress(*cmd.Email)
		if err != nil {
			s.telemetry.AuthFailure("invalid_email_format")
			return nil, err
		}
		hash := domain.EmailHash(s.hasher.Hash([]byte(email.String())))
		account, err = s.accounts.FindByEmailHash(ctx, hash)
		if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
	} else {
		userID, err := domain.NewUserId(*cmd.UserID)
		if err != nil {
			s.telemetry.AuthFailure("invalid_user_id_format")
			return nil, err
		}
		account, err = s.accounts.FindByID(ctx, userID)
		if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
	}

	if account == nil {
		s.telemetry.AuthFailure("user_not_found")
		// Unify the not-found/invalid-credentials response on the
		// email path only; a user_id lookup still reports not-found.
		if loginByEmail {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, domain.ErrUserNotFound
	}

	if account.IsDeleted() {
		s.telemetry.AuthFailure("account_deleted")
		return nil, domain.NewAccountDeletedError(*account.DeletedAt)
	}

	if err := s.passwords.Verify(password, account.PasswordHash); err != nil {
		s.telemetry.AuthFailure("invalid_password")
		return nil, domain.ErrInvalidCredentials
	}

	now := s.clock.Now()
	factors := []domain.VerifiedFactor{
		{Type: domain.FactorKnowledge, Method: domain.MethodPassword, VerifiedAt: now},
	}

	hasTotpCode := cmd.TotpCode != nil && *cmd.TotpCode != ""
	if err := domain.ValidateTotpRequirement(account.HasTotp(), hasTotpCode); err != nil {
		s.telemetry.AuthFailure("totp_required")
		return nil, err
	}

	if account.HasTotp() && hasTotpCode {
		if err := s.verifyTotpCode(account, *cmd.TotpCode, now); err != nil {
			s.telemetry.AuthFailure("invalid_totp")
			return nil, err
		}
		factors = append(factors, domain.VerifiedFactor{
			Type: domain.FactorPossession, Method: domain.MethodTotp, VerifiedAt: now,
		})
	}

	proof, err := domain.NewAuthenticationProof(account.UserID, factors, now)
	if err != nil {
		return nil, err
	}

	resp, err := s.issueTokens(ctx, proof, cmd.IP)
	if err != nil {
		return nil, err
	}

	s.telemetry.AuthSuccess("password")
	return resp, nil
}

// verifyTotpCode decrypts the account's TOTP secret, parses the
// submitted code, and verifies it within the default window.
func (s *IdentityService) verifyTotpCode(account *domain.Account, rawCode string, now time.Time) error {
	plaintext, err := s.cipher.Decrypt(*account.TotpSecret)
	if err != nil {
		return domain.ErrCrypto
	}
	secret, err := domain.NewTotpSecret(string(plaintext))
	if err != nil {
		return domain.ErrInvalidTotpSecret
	}
	code, err := domain.NewTotpCode(rawCode, s.totpConfig.Digits)
	if err != nil {
		return domain.ErrInvalidTotpCode
	}
	if !s.totp.VerifyWithWindow(code, secret, s.totpConfig, 1, now) {
		return domain.ErrInvalidTotpCode
	}
	return nil
}
