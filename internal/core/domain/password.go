package domain

import (
	"fmt"
	"regexp"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 255
)

// redacted is what every secret-bearing domain type prints instead of
// its value.
const redacted = "[REDACTED]"

// Password is the plaintext boundary object. It exists only for the
// duration of a request; callers should let it go out of scope as
// soon as the PasswordHasher has consumed it rather than retaining a
// reference. String/GoString/Format all print redacted so a Password
// that ends up in a log line or error message via %v, %s, or %+v
// never leaks the value; code that genuinely needs the bytes (the
// PasswordHasher) converts with string(p) instead.
type Password string

func (p Password) String() string { return redacted }

func (p Password) GoString() string { return redacted }

func (p Password) Format(f fmt.State, verb rune) {
	fmt.Fprint(f, redacted)
}

// NewPassword validates length only; the PasswordHasher is the only
// component that inspects password bytes.
func NewPassword(raw string) (Password, error) {
	if len(raw) < minPasswordLength || len(raw) > maxPasswordLength {
		return "", NewValidationError("password", "must be 8-255 characters")
	}
	return Password(raw), nil
}

var phcPattern = regexp.MustCompile(`^\$argon2id\$v=\d+\$m=\d+,t=\d+,p=\d+\$[A-Za-z0-9+/]+\$[A-Za-z0-9+/]+$`)

// PasswordHash is a PHC-format Argon2id hash string.
type PasswordHash string

// NewPasswordHash validates that raw looks like a PHC-encoded Argon2id
// hash. It does not recompute or verify the hash itself.
func NewPasswordHash(raw string) (PasswordHash, error) {
	if !phcPattern.MatchString(raw) {
		return "", NewValidationError("password_hash", "not a valid PHC argon2id string")
	}
	return PasswordHash(raw), nil
}

func (p PasswordHash) String() string { return string(p) }
