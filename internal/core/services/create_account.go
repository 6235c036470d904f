package services

import (
	"context"
	"fmt"

	"github.com/sentinelid/authcore/internal/core/domain"
	"github.com/sentinelid/authcore/internal/core/ports"
)

// CreateAccount provisions a new account, optionally consuming an
// invite code, and returns a token pair for the newly created account.
func (s *IdentityService) CreateAccount(ctx context.Context, cmd ports.CreateAccountCmd) (*ports.AuthResponse, error) {
	if s.inviteOnly && cmd.InviteCode == nil {
		return nil, domain.ErrInviteInvalid
	}

	userID, err := domain.NewUserId(cmd.UserID)
	if err != nil {
		return nil, err
	}
	email, err := domain.NewEmailAddress(cmd.Email)
	if err != nil {
		return nil, err
	}
	password, err := domain.NewPassword(cmd.Password)
	if err != nil {
		return nil, err
	}

	passwordHash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	emailHash := domain.EmailHash(s.hasher.Hash([]byte(email.String())))
	emailCipher, err := s.cipher.Encrypt([]byte(email.String()))
	if err != nil {
		return nil, fmt.Errorf("encrypting email: %w", err)
	}

	locale := defaultLocale
	if cmd.Locale != nil && *cmd.Locale != "" {
		locale = *cmd.Locale
	}

	now := s.clock.Now()
	account := &domain.Account{
		UserID: userID,
		Username: cmd.UserID,
		EmailHash: emailHash,
		EmailCipher: emailCipher,
		PasswordHash: passwordHash,
		Locale: locale,
		Flags: 0,
		CreatedAt: now,
	}

	// Invite consumption and the account insert run inside one unit of
	// work: if Create fails after Consume succeeds (e.g. a duplicate
	// user_id or email_hash), the invite consumption is rolled back
	// along with it instead of being burned for nothing.
	err = s.uow.Execute(ctx, func(ctx context.Context) error {
		if cmd.InviteCode != nil {
			consumed, err := s.invites.Consume(ctx, *cmd.InviteCode, userID)
			if err != nil {
				return fmt.Errorf("consuming invite code: %w", err)
			}
			if !consumed {
				return domain.ErrInviteInvalid
			}
		}
		return s.accounts.Create(ctx, account)
	})
	if err != nil {
		return nil, err
	}

	// Fire-and-forget: mail dispatch must never fail account creation.
	_ = s.mailer.SendWelcome(ctx, email, locale, account.Username)

	s.telemetry.AccountCreated()

	proof, err := passwordOnlyProof(userID, now)
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
