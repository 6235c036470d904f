package security

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sentinelid/authcore/internal/core/domain"
	"github.com/sentinelid/authcore/internal/core/ports"
)

// accessTokenClaims is the JWT claim set: sub, iss, aud, iat, exp,
// jti, scope.
type accessTokenClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

const defaultScope = "read:account write:account write:public_keys"

// JWTSigner implements ports.TokenSigner with ES256 (P-256) and a
// stable kid.
type JWTSigner struct {
	privateKey *ecdsa.PrivateKey
	publicKey *ecdsa.PublicKey
	kid string
	issuer string
	audience string
	accessTTL time.Duration
	random ports.SecureRandom
}

// NewJWTSigner parses EC PEM key material and returns a ready signer.
func NewJWTSigner(privateKeyPEM, publicKeyPEM []byte, kid, issuer, audience string, accessTTL time.Duration, random ports.SecureRandom) (*JWTSigner, error) {
	privKey, err := jwt.ParseECPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse EC private key: %w", err)
	}
	pubKey, err := jwt.ParseECPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse EC public key: %w", err)
	}
	if kid == "" {
		kid, err = computeKid(publicKeyPEM)
		if err != nil {
			return nil, err
		}
	}
	return &JWTSigner{
		privateKey: privKey,
		publicKey: pubKey,
		kid: kid,
		issuer: issuer,
		audience: audience,
		accessTTL: accessTTL,
		random: random,
	}, nil
}

// CreateAccessToken builds the claim set from proof and signs it with
// ES256.
func (j *JWTSigner) CreateAccessToken(proof *domain.AuthenticationProof) (string, error) {
	jti, err := j.random.Hex(6) // 12 hex chars
	if err != nil {
		return "", fmt.Errorf("generating jti: %w", err)
	}

	now := proof.AuthenticatedAt
	claims := accessTokenClaims{
		Scope: defaultScope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: proof.UserID.String(),
			Issuer: j.issuer,
			Audience: jwt.ClaimStrings{j.audience},
			IssuedAt: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.accessTTL)),
			ID: jti,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = j.kid

	signed, err := token.SignedString(j.privateKey)
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}
	return signed, nil
}

// VerifyToken enforces issuer, audience, signature, and expiry.
func (j *JWTSigner) VerifyToken(tokenString string) (*ports.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &accessTokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return j.publicKey, nil
	},
		jwt.WithIssuer(j.issuer),
		jwt.WithAudience(j.audience),
	)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	claims, ok := token.Claims.(*accessTokenClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidCredentials
	}

	return &ports.Claims{
		Subject: claims.Subject,
		Issuer: claims.Issuer,
		Audience: j.audience,
		IssuedAt: claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
		JTI: claims.ID,
		Scope: claims.Scope,
	}, nil
}

// PublicJWK returns the kid and the PEM-encoded public key for
// publication by an out-of-scope JWKS collaborator.
func (j *JWTSigner) PublicJWK() (string, []byte, error) {
	der, err := x509.MarshalPKIXPublicKey(j.publicKey)
	if err != nil {
		return "", nil, fmt.Errorf("marshaling public key: %w", err)
	}
	block := &pem.Block{Type: "PUBLIC KEY", Bytes: der}
	return j.kid, pem.EncodeToMemory(block), nil
}

// computeKid derives a stable key id from the public key's SPKI DER
// when no explicit key_id is configured.
func computeKid(publicKeyPEM []byte) (string, error) {
	block, _ := pem.Decode(publicKeyPEM)
	if block == nil {
		return "", fmt.Errorf("invalid public key PEM")
	}
	fp, err := domain.ComputePublicKeyFingerprint(string(pem.EncodeToMemory(block)))
	if err != nil {
		return "", err
	}
	return fp.String(), nil
}

var _ ports.TokenSigner = (*JWTSigner)(nil)
