package domain

import (
	"net/mail"
	"strings"
)

const maxEmailLength = 254

// EmailAddress is an RFC-5321-ish validated address, normalized to
// lowercase with surrounding whitespace trimmed. It is never persisted
// in plaintext; see EmailHash and EmailCipher.
type EmailAddress string

// NewEmailAddress validates and normalizes raw.
func NewEmailAddress(raw string) (EmailAddress, error) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) == 0 || len(trimmed) > maxEmailLength {
		return "", NewValidationError("email", "must be 1-254 characters")
	}
	if _, err := mail.ParseAddress(trimmed); err != nil {
		return "", NewValidationError("email", "invalid format")
	}
	return EmailAddress(strings.ToLower(trimmed)), nil
}

func (e EmailAddress) String() string { return string(e) }

// EmailHash is the deterministic lookup key: SHA-256(pepper ||
// email_lowercased), lowercase hex. It is computed by the Hasher
// secondary port, never constructed directly from untrusted input.
type EmailHash string

func (h EmailHash) String() string { return string(h) }

// HexCiphertext is the hex-encoded output of the SymmetricCipher
// secondary port: a fresh nonce prepended to AEAD ciphertext+tag. It is
// the on-disk representation of any reversible encrypted field.
type HexCiphertext string

func (c HexCiphertext) String() string { return string(c) }

// EmailCipher is the AEAD ciphertext of an email address. It is
// produced by the SymmetricCipher secondary port and decrypted only to
// display an account's own email back to its owner.
type EmailCipher = HexCiphertext
