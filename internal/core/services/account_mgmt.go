package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sentinelid/authcore/internal/core/domain"
	"github.com/sentinelid/authcore/internal/core/ports"
)

// UpdateAccount applies a partial read-modify-write update to locale
// and/or email. Changing email recomputes both EmailHash and
// EmailCipher and re-checks the uniqueness invariant.
func (s *IdentityService) UpdateAccount(ctx context.Context, cmd ports.UpdateAccountCmd) (*domain.Account, error) {
	id, err := domain.NewUserId(cmd.UserID)
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

	if cmd.Locale != nil && *cmd.Locale != "" {
		account.Locale = *cmd.Locale
	}

	if cmd.Email != nil {
		email, err := domain.NewEmailAddress(*cmd.Email)
		if err != nil {
			return nil, err
		}
		newHash := domain.EmailHash(s.hasher.Hash([]byte(email.String())))
		if newHash != account.EmailHash {
			existing, err := s.accounts.FindByEmailHash(ctx, newHash)
			if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
				return nil, err
			}
			if existing != nil {
				return nil, domain.ErrUserExists
			}
			cipher, err := s.cipher.Encrypt([]byte(email.String()))
			if err != nil {
				return nil, fmt.Errorf("encrypting email: %w", err)
			}
			account.EmailHash = newHash
			account.EmailCipher = cipher
		}
	}

	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// ChangePassword re-verifies the old password, hashes the new one, and
// revokes every outstanding refresh token for the account so existing
// sessions do not survive a credential change.
func (s *IdentityService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
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

	oldPw, err := domain.NewPassword(oldPassword)
	if err != nil {
		return err
	}
	if err := s.passwords.Verify(oldPw, account.PasswordHash); err != nil {
		return domain.ErrInvalidCredentials
	}

	newPw, err := domain.NewPassword(newPassword)
	if err != nil {
		return err
	}
	newHash, err := s.passwords.Hash(newPw)
	if err != nil {
		return fmt.Errorf("hashing new password: %w", err)
	}
	account.PasswordHash = newHash

	if err := s.accounts.Update(ctx, account); err != nil {
		return err
	}
	return s.refreshTokens.RevokeAllForUser(ctx, id)
}
