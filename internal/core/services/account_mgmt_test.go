package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelid/authcore/internal/core/domain"
	"github.com/sentinelid/authcore/internal/core/ports"
)

func TestIdentityService_UpdateAccount_Locale(t *testing.T) {
	td := newTestDeps(time.Now())
	svc := NewIdentityService(td.deps)
	seedAccount(t, td, "alice123", "alice@example.com", "correct horse battery staple")

	locale := "fr"
	updated, err := svc.UpdateAccount(ctx(), ports.UpdateAccountCmd{UserID: "alice123", Locale: &locale})
	require.NoError(t, err)
	assert.Equal(t, "fr", updated.Locale)
}

func TestIdentityService_UpdateAccount_EmailChangeRecomputesHashAndCipher(t *testing.T) {
	td := newTestDeps(time.Now())
	svc := NewIdentityService(td.deps)
	seedAccount(t, td, "alice123", "alice@example.com", "correct horse battery staple")

	newEmail := "alice-new@example.com"
	updated, err := svc.UpdateAccount(ctx(), ports.UpdateAccountCmd{UserID: "alice123", Email: &newEmail})
	require.NoError(t, err)

	expectedHash := domain.EmailHash(td.deps.Hasher.Hash([]byte(newEmail)))
	assert.Equal(t, expectedHash, updated.EmailHash)

	plaintext, err := td.deps.Cipher.Decrypt(updated.EmailCipher)
	require.NoError(t, err)
	assert.Equal(t, newEmail, string(plaintext))
}

func TestIdentityService_UpdateAccount_EmailConflictFails(t *testing.T) {
	td := newTestDeps(time.Now())
	svc := NewIdentityService(td.deps)
	seedAccount(t, td, "alice123", "alice@example.com", "correct horse battery staple")
	seedAccount(t, td, "bob456", "bob@example.com", "correct horse battery staple")

	taken := "bob@example.com"
	_, err := svc.UpdateAccount(ctx(), ports.UpdateAccountCmd{UserID: "alice123", Email: &taken})
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestIdentityService_UpdateAccount_UnknownUserFails(t *testing.T) {
	td := newTestDeps(time.Now())
	svc := NewIdentityService(td.deps)

	locale := "fr"
	_, err := svc.UpdateAccount(ctx(), ports.UpdateAccountCmd{UserID: "ghost789", Locale: &locale})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestIdentityService_ChangePassword_RevokesExistingSessions(t *testing.T) {
	td := newTestDeps(time.Now())
	svc := NewIdentityService(td.deps)
	seedAccount(t, td, "alice123", "alice@example.com", "correct horse battery staple")

	resp, err := svc.Authenticate(ctx(), authCmd("alice@example.com", "correct horse battery staple"))
	require.NoError(t, err)

	require.NoError(t, svc.ChangePassword(ctx(), "alice123", "correct horse battery staple", "new password entirely"))

	uid, _ := domain.NewUserId("alice123")
	assert.Equal(t, 0, td.refreshTokens.countLive(uid))

	_, err = svc.RefreshAccessToken(ctx(), resp.RefreshToken, nil)
	assert.Error(t, err)

	_, err = svc.Authenticate(ctx(), authCmd("alice@example.com", "new password entirely"))
	assert.NoError(t, err)
}

func TestIdentityService_ChangePassword_WrongOldPasswordFails(t *testing.T) {
	td := newTestDeps(time.Now())
	svc := NewIdentityService(td.deps)
	seedAccount(t, td, "alice123", "alice@example.com", "correct horse battery staple")

	err := svc.ChangePassword(ctx(), "alice123", "totally wrong password", "new password entirely")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestIdentityService_UpdateAccount_DeletedAccountBlocked(t *testing.T) {
	td := newTestDeps(time.Now())
	svc := NewIdentityService(td.deps)
	seedAccount(t, td, "alice123", "alice@example.com", "correct horse battery staple")
	uid, _ := domain.NewUserId("alice123")
	require.NoError(t, td.accounts.Delete(ctx(), uid))

	locale := "fr"
	_, err := svc.UpdateAccount(ctx(), ports.UpdateAccountCmd{UserID: "alice123", Locale: &locale})
	var deletedErr *domain.AccountDeletedError
	assert.ErrorAs(t, err, &deletedErr)
}

func TestIdentityService_ChangePassword_DeletedAccountBlocked(t *testing.T) {
	td := newTestDeps(time.Now())
	svc := NewIdentityService(td.deps)
	seedAccount(t, td, "alice123", "alice@example.com", "correct horse battery staple")
	uid, _ := domain.NewUserId("alice123")
	require.NoError(t, td.accounts.Delete(ctx(), uid))

	err := svc.ChangePassword(ctx(), "alice123", "correct horse battery staple", "new password entirely")
	var deletedErr *domain.AccountDeletedError
	assert.ErrorAs(t, err, &deletedErr)
}
