package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/sentinelid/authcore/internal/core/domain"
	"github.com/sentinelid/authcore/internal/core/ports"
)

// fakeAccountStore is an in-memory ports.AccountStore keyed by user id;
// email hash lookups scan every stored account.
type fakeAccountStore struct {
	mu sync.Mutex
	byID map[domain.UserId]*domain.Account
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{byID: make(map[domain.UserId]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	cp := *a
	cp.PublicKeys = append([]domain.PublicKey(nil), a.PublicKeys...)
	return &cp
}

func (s *fakeAccountStore) FindByID(ctx context.Context, id domain.UserId) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneAccount(a), nil
}

func (s *fakeAccountStore) FindByEmailHash(ctx context.Context, hash domain.EmailHash) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.byID {
		if a.EmailHash == hash {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *fakeAccountStore) Create(ctx context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[account.UserID]; ok {
		return domain.ErrUserExists
	}
	for _, a := range s.byID {
		if a.EmailHash == account.EmailHash {
			return domain.ErrUserExists
		}
	}
	s.byID[account.UserID] = cloneAccount(account)
	return nil
}

func (s *fakeAccountStore) Update(ctx context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[account.UserID]; !ok {
		return domain.ErrUserNotFound
	}
	s.byID[account.UserID] = cloneAccount(account)
	return nil
}

func (s *fakeAccountStore) Delete(ctx context.Context, id domain.UserId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	deletedAt := time.Now().AddDate(0, 0, 30)
	a.DeletedAt = &deletedAt
	return nil
}

// fakeRefreshTokenStore is an in-memory ports.RefreshTokenStore.
type fakeRefreshTokenStore struct {
	mu sync.Mutex
	records map[domain.RefreshTokenHash]*refreshRecord
}

type refreshRecord struct {
	userID domain.UserId
	revoked bool
	expiresAt time.Time
}

func newFakeRefreshTokenStore() *fakeRefreshTokenStore {
	return &fakeRefreshTokenStore{records: make(map[domain.RefreshTokenHash]*refreshRecord)}
}

func (s *fakeRefreshTokenStore) Store(ctx context.Context, tokenHash domain.RefreshTokenHash, userID domain.UserId, ip *string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[tokenHash] = &refreshRecord{userID: userID, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *fakeRefreshTokenStore) FindUserID(ctx context.Context, tokenHash domain.RefreshTokenHash) (*domain.UserId, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[tokenHash]
	if !ok || r.revoked || time.Now().After(r.expiresAt) {
		return nil, nil
	}
	id := r.userID
	return &id, nil
}

func (s *fakeRefreshTokenStore) Revoke(ctx context.Context, tokenHash domain.RefreshTokenHash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[tokenHash]; ok {
		r.revoked = true
	}
	return nil
}

func (s *fakeRefreshTokenStore) RevokeAllForUser(ctx context.Context, userID domain.UserId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.userID == userID {
			r.revoked = true
		}
	}
	return nil
}

func (s *fakeRefreshTokenStore) Rotate(ctx context.Context, oldHash, newHash domain.RefreshTokenHash, userID domain.UserId, ip *string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.records[oldHash]
	if !ok || old.revoked || time.Now().After(old.expiresAt) {
		return domain.ErrTokenNotFound
	}
	old.revoked = true
	s.records[newHash] = &refreshRecord{userID: userID, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *fakeRefreshTokenStore) isRevoked(tokenHash domain.RefreshTokenHash) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[tokenHash]
	return ok && r.revoked
}

func (s *fakeRefreshTokenStore) countLive(userID domain.UserId) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.records {
		if r.userID == userID && !r.revoked && time.Now().Before(r.expiresAt) {
			n++
		}
	}
	return n
}

// fakeInviteStore is an in-memory ports.InviteStore.
type fakeInviteStore struct {
	mu sync.Mutex
	unused map[string]bool
}

func newFakeInviteStore(codes ...string) *fakeInviteStore {
	m := make(map[string]bool)
	for _, c := range codes {
		m[c] = true
	}
	return &fakeInviteStore{unused: m}
}

func (s *fakeInviteStore) Consume(ctx context.Context, code string, userID domain.UserId) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.unused[code] {
		return false, nil
	}
	delete(s.unused, code)
	return true, nil
}

// fakeUnitOfWork models ports.UnitOfWork's commit/rollback contract
// for fakeAccountStore and fakeInviteStore: it snapshots both before
// running fn and restores the snapshot if fn fails, the same
// begin/rollback-on-error shape PostgresUnitOfWork gets from a real
// transaction.
type fakeUnitOfWork struct {
	accounts *fakeAccountStore
	invites *fakeInviteStore
}

func (u *fakeUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	u.accounts.mu.Lock()
	accountsSnapshot := make(map[domain.UserId]*domain.Account, len(u.accounts.byID))
	for k, v := range u.accounts.byID {
		accountsSnapshot[k] = v
	}
	u.accounts.mu.Unlock()

	u.invites.mu.Lock()
	invitesSnapshot := make(map[string]bool, len(u.invites.unused))
	for k, v := range u.invites.unused {
		invitesSnapshot[k] = v
	}
	u.invites.mu.Unlock()

	if err := fn(ctx); err != nil {
		u.accounts.mu.Lock()
		u.accounts.byID = accountsSnapshot
		u.accounts.mu.Unlock()

		u.invites.mu.Lock()
		u.invites.unused = invitesSnapshot
		u.invites.mu.Unlock()
		return err
	}
	return nil
}

// fakeHasher is a deterministic, unpeppered SHA-256 hasher for tests.
type fakeHasher struct{}

func (fakeHasher) Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// fakePasswordHasher stores passwords in plaintext behind a trivial
// prefix; fast and collision-free for tests, never used outside them.
type fakePasswordHasher struct{}

func (fakePasswordHasher) Hash(password domain.Password) (domain.PasswordHash, error) {
	return domain.PasswordHash("fake$" + string(password)), nil
}

func (fakePasswordHasher) Verify(password domain.Password, hash domain.PasswordHash) error {
	if string(hash) != "fake$"+string(password) {
		return domain.ErrInvalidCredentials
	}
	return nil
}

// fakeTotpGenerator accepts the fixed code "123456" for any secret, so
// tests can assert against a known string without running RFC 6238.
type fakeTotpGenerator struct{}

func (fakeTotpGenerator) GenerateAt(secret domain.TotpSecret, cfg ports.TotpConfig, at time.Time) (domain.TotpCode, error) {
	return domain.NewTotpCode("123456", cfg.Digits)
}

func (fakeTotpGenerator) VerifyWithWindow(code domain.TotpCode, secret domain.TotpSecret, cfg ports.TotpConfig, window int, at time.Time) bool {
	return code.String() == "123456"
}

// fakeCipher is a reversible, deterministic hex-encoding "cipher"
// sufficient for round-tripping in tests without pulling in real AEAD
// machinery.
type fakeCipher struct{}

func (fakeCipher) Encrypt(plaintext []byte) (domain.HexCiphertext, error) {
	return domain.HexCiphertext(hex.EncodeToString(plaintext)), nil
}

func (fakeCipher) Decrypt(ciphertext domain.HexCiphertext) ([]byte, error) {
	b, err := hex.DecodeString(ciphertext.String())
	if err != nil {
		return nil, domain.ErrCrypto
	}
	return b, nil
}

// fakeSigner issues tokens that are just "token:<userID>:<n>", where n
// counts the tokens this signer has issued, so tests can assert on
// their shape without ES256 machinery.
type fakeSigner struct {
	counter int
}

func (s *fakeSigner) CreateAccessToken(proof *domain.AuthenticationProof) (string, error) {
	s.counter++
	return fmt.Sprintf("token:%s:%d", proof.UserID.String(), s.counter), nil
}

func (s *fakeSigner) VerifyToken(jwtStr string) (*ports.Claims, error) {
	return nil, domain.ErrInvalidCredentials
}

func (s *fakeSigner) PublicJWK() (string, []byte, error) {
	return "fake-kid", nil, nil
}

// fakeRefreshMgr issues sequential, deterministic refresh tokens.
type fakeRefreshMgr struct {
	counter int
	ttlSeconds int64
}

func (m *fakeRefreshMgr) Generate() (string, error) {
	m.counter++
	return fmt.Sprintf("refresh-%d", m.counter), nil
}

func (m *fakeRefreshMgr) ExpirationSeconds() int64 { return m.ttlSeconds }

// fakeTelemetry records every call for assertions.
type fakeTelemetry struct {
	mu sync.Mutex
	successes []string
	failures []string
	accountsCreated int
}

func (t *fakeTelemetry) AuthSuccess(method string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.successes = append(t.successes, method)
}

func (t *fakeTelemetry) AuthFailure(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures = append(t.failures, reason)
}

func (t *fakeTelemetry) AccountCreated() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.accountsCreated++
}

// fakeMailer records every send for assertions; never errors.
type fakeMailer struct {
	mu sync.Mutex
	sent []string
}

func (m *fakeMailer) SendWelcome(ctx context.Context, email domain.EmailAddress, locale, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, email.String())
	return nil
}

// testDeps wires every fake behind Deps with a fixed fakeClock and a
// deterministic SecureRandom, returning handles to the pieces tests
// commonly need to assert against.
type testDeps struct {
	deps Deps
	accounts *fakeAccountStore
	refreshTokens *fakeRefreshTokenStore
	invites *fakeInviteStore
	telemetry *fakeTelemetry
	mailer *fakeMailer
	clock *fakeClock
}

// fakeClock is a settable ports.Clock double, local to this package so
// service tests don't need to import the security adapter package. It
// is a pointer type so mutating At after construction is visible
// through the Deps.Clock interface value too.
type fakeClock struct {
	At time.Time
}

func (c *fakeClock) Now() time.Time { return c.At }
func (c *fakeClock) NowSeconds() int64 { return c.At.Unix() }
func (c *fakeClock) NowMillis() int64 { return c.At.UnixMilli() }

func newTestDeps(now time.Time, inviteCodes ...string) *testDeps {
	accounts := newFakeAccountStore()
	refreshTokens := newFakeRefreshTokenStore()
	invites := newFakeInviteStore(inviteCodes...)
	telemetry := &fakeTelemetry{}
	mailer := &fakeMailer{}
	clock := &fakeClock{At: now}

	deps := Deps{
		Accounts: accounts,
		RefreshTokens: refreshTokens,
		Invites: invites,
		UnitOfWork: &fakeUnitOfWork{accounts: accounts, invites: invites},
		Clock: clock,
		Random: fakeSecureRandom{},
		Hasher: fakeHasher{},
		Passwords: fakePasswordHasher{},
		Totp: fakeTotpGenerator{},
		Cipher: fakeCipher{},
		Signer: &fakeSigner{},
		RefreshMgr: &fakeRefreshMgr{ttlSeconds: 1296000},
		Telemetry: telemetry,
		Mailer: mailer,
		TotpConfig: ports.TotpConfig{Period: 30, Digits: 6},
	}

	return &testDeps{
		deps: deps,
		accounts: accounts,
		refreshTokens: refreshTokens,
		invites: invites,
		telemetry: telemetry,
		mailer: mailer,
		clock: clock,
	}
}

// fakeSecureRandom returns deterministic, non-cryptographic output; it
// must never be wired outside tests.
type fakeSecureRandom struct{}

func (fakeSecureRandom) Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i + 1)
	}
	return b, nil
}

func (fakeSecureRandom) Hex(n int) (string, error) {
	b, _ := fakeSecureRandom{}.Bytes(n)
	return hex.EncodeToString(b), nil
}

func (fakeSecureRandom) String(n int) (string, error) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	out := make([]byte, n)
	for i := range out {
		out[i] = alphabet[i%len(alphabet)]
	}
	return string(out), nil
}
