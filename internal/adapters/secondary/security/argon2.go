package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/sentinelid/authcore/internal/core/domain"
)

// Argon2Params are the tunable Argon2id cost parameters: memory cost,
// iterations, parallelism, salt length, and derived key length.
type Argon2Params struct {
	Memory uint32
	Iterations uint32
	Parallelism uint8
	SaltLength uint32
	KeyLength uint32
}

// DefaultArgon2Params matches the OWASP-recommended balance of
// security and latency for an interactive login path.
var DefaultArgon2Params = Argon2Params{
	Memory: 64 * 1024, // 64 MB
	Iterations: 3,
	Parallelism: 2,
	SaltLength: 16,
	KeyLength: 32,
}

// Argon2Hasher implements ports.PasswordHasher.
type Argon2Hasher struct {
	params Argon2Params
}

func NewArgon2Hasher(params Argon2Params) *Argon2Hasher {
	return &Argon2Hasher{params: params}
}

// Hash computes the Argon2id hash with a fresh random salt, returning
// the PHC-encoded form.
func (a *Argon2Hasher) Hash(password domain.Password) (domain.PasswordHash, error) {
	salt := make([]byte, a.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, a.params.Iterations, a.params.Memory, a.params.Parallelism, a.params.KeyLength)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, a.params.Memory, a.params.Iterations, a.params.Parallelism, b64Salt, b64Hash)

	return domain.NewPasswordHash(encoded)
}

// Verify recomputes the hash with the parameters embedded in hash and
// compares in constant time. Any mismatch surfaces as
// domain.ErrInvalidCredentials — no other error kind is returned for a
// verification failure.
func (a *Argon2Hasher) Verify(password domain.Password, hash domain.PasswordHash) error {
	p, salt, want, err := decodeHash(hash.String())
	if err != nil {
		return domain.ErrInvalidCredentials
	}

	got := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, uint32(len(want)))

	if subtle.ConstantTimeCompare(want, got) == 1 {
		return nil
	}
	return domain.ErrInvalidCredentials
}

func decodeHash(encodedHash string) (p *Argon2Params, salt, hash []byte, err error) {
	vals := strings.Split(encodedHash, "$")
	if len(vals) != 6 {
		return nil, nil, nil, fmt.Errorf("invalid hash format")
	}

	var version int
	if _, err = fmt.Sscanf(vals[2], "v=%d", &version); err != nil {
		return nil, nil, nil, err
	}
	if version != argon2.Version {
		return nil, nil, nil, fmt.Errorf("incompatible argon2 version")
	}

	p = &Argon2Params{}
	if _, err = fmt.Sscanf(vals[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return nil, nil, nil, err
	}

	salt, err = base64.RawStdEncoding.DecodeString(vals[4])
	if err != nil {
		return nil, nil, nil, err
	}
	p.SaltLength = uint32(len(salt))

	hash, err = base64.RawStdEncoding.DecodeString(vals[5])
	if err != nil {
		return nil, nil, nil, err
	}
	p.KeyLength = uint32(len(hash))

	return p, salt, hash, nil
}
