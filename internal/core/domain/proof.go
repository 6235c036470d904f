package domain

import (
	"errors"
	"time"
)

// FactorType is one of the three authentication factor categories.
// Inherence is part of the taxonomy but has no implemented method in
// this core (biometrics are out of scope).
type FactorType string

const (
	FactorKnowledge FactorType = "knowledge"
	FactorPossession FactorType = "possession"
	FactorInherence FactorType = "inherence"
)

// FactorMethod names the concrete mechanism that satisfied a FactorType.
type FactorMethod string

const (
	MethodPassword FactorMethod = "password"
	MethodTotp FactorMethod = "totp"
)

// VerifiedFactor is proof that one factor succeeded during a login
// attempt.
type VerifiedFactor struct {
	Type FactorType
	Method FactorMethod
	VerifiedAt time.Time
}

// ErrEmptyProof is returned when constructing an AuthenticationProof
// with no verified factors.
var ErrEmptyProof = errors.New("authentication proof must contain at least one verified factor")

// AuthenticationProof is the non-empty set of factors verified during
// a single authentication attempt. It can only be constructed via
// NewAuthenticationProof, which enforces the non-empty invariant.
type AuthenticationProof struct {
	UserID UserId
	Factors []VerifiedFactor
	AuthenticatedAt time.Time
}

// NewAuthenticationProof builds a proof. It fails with ErrEmptyProof if
// factors is empty.
func NewAuthenticationProof(userID UserId, factors []VerifiedFactor, authenticatedAt time.Time) (*AuthenticationProof, error) {
	if len(factors) == 0 {
		return nil, ErrEmptyProof
	}
	cp := make([]VerifiedFactor, len(factors))
	copy(cp, factors)
	return &AuthenticationProof{
		UserID: userID,
		Factors: cp,
		AuthenticatedAt: authenticatedAt,
	}, nil
}

// HasFactorType reports whether the proof contains at least one
// verified factor of the given type.
func (p *AuthenticationProof) HasFactorType(t FactorType) bool {
	for _, f := range p.Factors {
		if f.Type == t {
			return true
		}
	}
	return false
}

// ValidateTotpRequirement enforces "TOTP required iff enrolled".
// It fails with ErrTotpRequired when the account has a TOTP secret
// provisioned but the caller supplied no code.
func ValidateTotpRequirement(hasTotpSecret, hasTotpCode bool) error {
	if hasTotpSecret && !hasTotpCode {
		return ErrTotpRequired
	}
	return nil
}

// ValidateSensitiveOperation enforces "sensitive ops require MFA +
// freshness": the proof must contain a Possession factor
// and must not be older than maxAgeSeconds relative to now.
func ValidateSensitiveOperation(proof *AuthenticationProof, now time.Time, maxAgeSeconds int64) error {
	if proof == nil || !proof.HasFactorType(FactorPossession) {
		return ErrSensitiveOpDenied
	}
	if now.Unix()-proof.AuthenticatedAt.Unix() > maxAgeSeconds {
		return ErrSensitiveOpDenied
	}
	return nil
}
