package security

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/sentinelid/authcore/internal/core/ports"
)

const alphanumericAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// CryptoRandom implements ports.SecureRandom directly on crypto/rand;
// no pack library wraps it more usefully than the stdlib call itself.
type CryptoRandom struct{}

func NewCryptoRandom() *CryptoRandom { return &CryptoRandom{} }

func (r *CryptoRandom) Bytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (r *CryptoRandom) Hex(n int) (string, error) {
	buf, err := r.Bytes(n)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (r *CryptoRandom) String(n int) (string, error) {
	out := make([]byte, n)
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		out[i] = alphanumericAlphabet[int(b)%len(alphanumericAlphabet)]
	}
	return string(out), nil
}

var _ ports.SecureRandom = (*CryptoRandom)(nil)
