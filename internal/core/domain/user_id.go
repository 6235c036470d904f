package domain

import "regexp"

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,64}$`)

// UserId is an opaque account identifier: ASCII letters, digits, and
// underscores, 3 to 64 characters. It is immutable once an account
// exists.
type UserId string

// NewUserId validates raw and returns a UserId, or a ValidationError.
func NewUserId(raw string) (UserId, error) {
	if !userIDPattern.MatchString(raw) {
		return "", NewValidationError("user_id", "must be 3-64 chars of [A-Za-z0-9_]")
	}
	return UserId(raw), nil
}

func (u UserId) String() string { return string(u) }
