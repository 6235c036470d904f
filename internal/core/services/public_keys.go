package services

import (
	"context"

	"github.com/sentinelid/authcore/internal/core/domain"
	"github.com/sentinelid/authcore/internal/core/ports"
)

// reauthenticate rebuilds a fresh AuthenticationProof from raw
// credentials, the same verification Authenticate performs, so public
// key management can require its own sensitive-operation gate
// without threading a proof object across the primary port boundary.
func (s *IdentityService) reauthenticate(account *domain.Account, password string, totpCode *string) (*domain.AuthenticationProof, error) {
	pw, err := domain.NewPassword(password)
	if err != nil {
		return nil, err
	}
	if err := s.passwords.Verify(pw, account.PasswordHash); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	now := s.clock.Now()
	factors := []domain.VerifiedFactor{
		{Type: domain.FactorKnowledge, Method: domain.MethodPassword, VerifiedAt: now},
	}

	hasCode := totpCode != nil && *totpCode != ""
	if err := domain.ValidateTotpRequirement(account.HasTotp(), hasCode); err != nil {
		return nil, err
	}
	if account.HasTotp() && hasCode {
		if err := s.verifyTotpCode(account, *totpCode, now); err != nil {
			return nil, err
		}
		factors = append(factors, domain.VerifiedFactor{
			Type: domain.FactorPossession, Method: domain.MethodTotp, VerifiedAt: now,
		})
	}

	return domain.NewAuthenticationProof(account.UserID, factors, now)
}

// AddPublicKey re-authenticates with password (and totp code, if
// enrolled) and requires the resulting proof to satisfy
// ValidateSensitiveOperation before recomputing the fingerprint from
// pemData and persisting it (public key registry).
func (s *IdentityService) AddPublicKey(ctx context.Context, userID, password string, totpCode *string, pemData string) (domain.PublicKeyFingerprint, error) {
	id, err := domain.NewUserId(userID)
	if err != nil {
		return "", err
	}
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if account == nil {
		return "", domain.ErrUserNotFound
	}
	if account.IsDeleted() {
		return "", domain.NewAccountDeletedError(*account.DeletedAt)
	}

	proof, err := s.reauthenticate(account, password, totpCode)
	if err != nil {
		return "", err
	}
	if err := domain.ValidateSensitiveOperation(proof, s.clock.Now(), int64(ports.SensitiveOperationMaxAge.Seconds())); err != nil {
		return "", err
	}

	fp, err := account.AddPublicKey(pemData, proof.AuthenticatedAt)
	if err != nil {
		return "", err
	}
	if err := s.accounts.Update(ctx, account); err != nil {
		return "", err
	}
	return fp, nil
}

// RemovePublicKey requires the same re-authentication and
// sensitive-operation gate as AddPublicKey.
func (s *IdentityService) RemovePublicKey(ctx context.Context, userID, password string, totpCode *string, fingerprint string) error {
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

	proof, err := s.reauthenticate(account, password, totpCode)
	if err != nil {
		return err
	}
	if err := domain.ValidateSensitiveOperation(proof, s.clock.Now(), int64(ports.SensitiveOperationMaxAge.Seconds())); err != nil {
		return err
	}

	account.RemovePublicKey(domain.PublicKeyFingerprint(fingerprint))
	return s.accounts.Update(ctx, account)
}
