package domain

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"time"
)

// PublicKeyFingerprint identifies a public key: SHA-256 over its DER
// SPKI encoding, first 20 bytes, hex-encoded. It is always recomputed
// from the PEM, never trusted from input.
type PublicKeyFingerprint string

// PublicKey is a single public key owned by an account, stored as a
// JSON-serialized element of Account.PublicKeys.
type PublicKey struct {
	Fingerprint PublicKeyFingerprint `json:"fingerprint"`
	PEM string `json:"pem"`
	AddedAt time.Time `json:"added_at"`
}

// ComputePublicKeyFingerprint decodes a PEM-encoded SPKI public key and
// returns its fingerprint. It fails if pemData is not a valid
// PEM-encoded public key.
func ComputePublicKeyFingerprint(pemData string) (PublicKeyFingerprint, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return "", NewValidationError("public_key", "not valid PEM")
	}
	if _, err := x509.ParsePKIXPublicKey(block.Bytes); err != nil {
		return "", NewValidationError("public_key", "not a valid SPKI public key")
	}
	sum := sha256.Sum256(block.Bytes)
	return PublicKeyFingerprint(hex.EncodeToString(sum[:20])), nil
}

// Account is the persisted user aggregate.
type Account struct {
	UserID UserId
	Username string
	EmailHash EmailHash
	EmailCipher EmailCipher
	PasswordHash PasswordHash
	TotpSecret *HexCiphertext // encrypted TotpSecret, nil if TOTP is not enrolled
	Locale string
	Flags int64
	PublicKeys []PublicKey
	CreatedAt time.Time
	DeletedAt *time.Time
}

// IsDeleted reports whether the account has been soft-deleted.
func (a *Account) IsDeleted() bool {
	return a.DeletedAt != nil
}

// HasTotp reports whether the account has a TOTP secret provisioned.
func (a *Account) HasTotp() bool {
	return a.TotpSecret != nil
}

// AddPublicKey appends a key, recomputing its fingerprint from pemData
// rather than trusting a caller-supplied one.
func (a *Account) AddPublicKey(pemData string, addedAt time.Time) (PublicKeyFingerprint, error) {
	fp, err := ComputePublicKeyFingerprint(pemData)
	if err != nil {
		return "", err
	}
	for _, k := range a.PublicKeys {
		if k.Fingerprint == fp {
			return fp, nil
		}
	}
	a.PublicKeys = append(a.PublicKeys, PublicKey{Fingerprint: fp, PEM: pemData, AddedAt: addedAt})
	return fp, nil
}

// RemovePublicKey removes the key with the given fingerprint, if present.
func (a *Account) RemovePublicKey(fp PublicKeyFingerprint) {
	out := a.PublicKeys[:0]
	for _, k := range a.PublicKeys {
		if k.Fingerprint != fp {
			out = append(out, k)
		}
	}
	a.PublicKeys = out
}
