package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelid/authcore/internal/core/domain"
	"github.com/sentinelid/authcore/internal/core/ports"
)

func ctx() context.Context { return context.Background() }

func authCmd(email, password string) ports.AuthenticateCmd {
	return ports.AuthenticateCmd{Email: &email, Password: password}
}

func seedAccount(t *testing.T, td *testDeps, userID, email, password string) *domain.Account {
	t.Helper()
	uid, err := domain.NewUserId(userID)
	require.NoError(t, err)
	emailAddr, err := domain.NewEmailAddress(email)
	require.NoError(t, err)
	pw, err := domain.NewPassword(password)
	require.NoError(t, err)

	hash, err := td.deps.Passwords.Hash(pw)
	require.NoError(t, err)
	emailHash := domain.EmailHash(td.deps.Hasher.Hash([]byte(emailAddr.String())))
	emailCipher, err := td.deps.Cipher.Encrypt([]byte(emailAddr.String()))
	require.NoError(t, err)

	account := &domain.Account{
		UserID: uid,
		Username: userID,
		EmailHash: emailHash,
		EmailCipher: emailCipher,
		PasswordHash: hash,
		Locale: "en",
		CreatedAt: time.Now(),
	}
	require.NoError(t, td.accounts.Create(ctx(), account))
	return account
}

func TestIdentityService_Authenticate_Success(t *testing.T) {
	td := newTestDeps(time.Now())
	svc := NewIdentityService(td.deps)
	seedAccount(t, td, "alice123", "alice@example.com", "correct horse battery staple")

	email := "alice@example.com"
	resp, err := svc.Authenticate(ctx(), ports.AuthenticateCmd{Email: &email, Password: "correct horse battery staple"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, []string{"password"}, td.telemetry.successes)
}

func TestIdentityService_Authenticate_WrongPassword(t *testing.T) {
	td := newTestDeps(time.Now())
	svc := NewIdentityService(td.deps)
	seedAccount(t, td, "alice123", "alice@example.com", "correct horse battery staple")

	email := "alice@example.com"
	_, err := svc.Authenticate(ctx(), ports.AuthenticateCmd{Email: &email, Password: "wrong horse battery staple"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Contains(t, td.telemetry.failures, "invalid_password")
}

func TestIdentityService_Authenticate_UnknownEmailUnifiesWithInvalidCredentials(t *testing.T) {
	td := newTestDeps(time.Now())
	svc := NewIdentityService(td.deps)

	email := "nobody@example.com"
	_, err := svc.Authenticate(ctx(), ports.AuthenticateCmd{Email: &email, Password: "correct horse battery staple"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestIdentityService_Authenticate_UnknownUserIDReportsNotFound(t *testing.T) {
	td := newTestDeps(time.Now())
	svc := NewIdentityService(td.deps)

	uid := "nobody123"
	_, err := svc.Authenticate(ctx(), ports.AuthenticateCmd{UserID: &uid, Password: "correct horse battery staple"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestIdentityService_Authenticate_RequiresExactlyOneIdentifier(t *testing.T) {
	td := newTestDeps(time.Now())
	svc := NewIdentityService(td.deps)

	_, err := svc.Authenticate(ctx(), ports.AuthenticateCmd{Password: "correct horse battery staple"})
	assert.Error(t, err)

	email := "alice@example.com"
	uid := "alice123"
	_, err = svc.Authenticate(ctx(), ports.AuthenticateCmd{Email: &email, UserID: &uid, Password: "correct horse battery staple"})
	assert.Error(t, err)
}

func TestIdentityService_Authenticate_DeletedAccountBlocked(t *testing.T) {
	td := newTestDeps(time.Now())
	svc := NewIdentityService(td.deps)
	seedAccount(t, td, "alice123", "alice@example.com", "correct horse battery staple")
	uid, _ := domain.NewUserId("alice123")
	require.NoError(t, td.accounts.Delete(ctx(), uid))

	email := "alice@example.com"
	_, err := svc.Authenticate(ctx(), ports.AuthenticateCmd{Email: &email, Password: "correct horse battery staple"})
	var deletedErr *domain.AccountDeletedError
	assert.ErrorAs(t, err, &deletedErr)
}

func TestIdentityService_Authenticate_TotpRequiredButMissing(t *testing.T) {
	td := newTestDeps(time.Now())
	svc := NewIdentityService(td.deps)
	account := seedAccount(t, td, "alice123", "alice@example.com", "correct horse battery staple")
	cipher, err := td.deps.Cipher.Encrypt([]byte("JBSWY3DPEHPK3PXP"))
	require.NoError(t, err)
	account.TotpSecret = &cipher
	require.NoError(t, td.accounts.Update(ctx(), account))

	email := "alice@example.com"
	_, err = svc.Authenticate(ctx(), ports.AuthenticateCmd{Email: &email, Password: "correct horse battery staple"})
	assert.ErrorIs(t, err, domain.ErrTotpRequired)
}

func TestIdentityService_Authenticate_TotpRequiredAndCorrect(t *testing.T) {
	td := newTestDeps(time.Now())
	svc := NewIdentityService(td.deps)
	account := seedAccount(t, td, "alice123", "alice@example.com", "correct horse battery staple")
	cipher, err := td.deps.Cipher.Encrypt([]byte("JBSWY3DPEHPK3PXP"))
	require.NoError(t, err)
	account.TotpSecret = &cipher
	require.NoError(t, td.accounts.Update(ctx(), account))

	email := "alice@example.com"
	code := "123456"
	resp, err := svc.Authenticate(ctx(), ports.AuthenticateCmd{Email: &email, Password: "correct horse battery staple", TotpCode: &code})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestIdentityService_Authenticate_TotpWrongCode(t *testing.T) {
	td := newTestDeps(time.Now())
	svc := NewIdentityService(td.deps)
	account := seedAccount(t, td, "alice123", "alice@example.com", "correct horse battery staple")
	cipher, err := td.deps.Cipher.Encrypt([]byte("JBSWY3DPEHPK3PXP"))
	require.NoError(t, err)
	account.TotpSecret = &cipher
	require.NoError(t, td.accounts.Update(ctx(), account))

	email := "alice@example.com"
	code := "000000"
	_, err = svc.Authenticate(ctx(), ports.AuthenticateCmd{Email: &email, Password: "correct horse battery staple", TotpCode: &code})
	assert.ErrorIs(t, err, domain.ErrInvalidTotpCode)
}
