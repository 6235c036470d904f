package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"

	"github.com/sentinelid/authcore/internal/core/domain"
	"github.com/sentinelid/authcore/internal/core/ports"
)

// AEADCipher implements ports.SymmetricCipher with AES-256-GCM. The key
// is derived once at startup from a configured master key and salt via
// Argon2id; ciphertext is stored as a fresh nonce prepended to the
// sealed output, hex-encoded.
type AEADCipher struct {
	gcm cipher.AEAD
}

// NewAEADCipher derives a 32-byte key from masterKey and salt via
// Argon2id and builds the AES-256-GCM AEAD.
func NewAEADCipher(masterKey, salt []byte) (*AEADCipher, error) {
	key := argon2.IDKey(masterKey, salt, 1, 64*1024, 4, 32)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return &AEADCipher{gcm: gcm}, nil
}

// Encrypt generates a fresh nonce, seals plaintext, and hex-encodes
// nonce+ciphertext+tag.
func (c *AEADCipher) Encrypt(plaintext []byte) (domain.HexCiphertext, error) {
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	sealed := c.gcm.Seal(nonce, nonce, plaintext, nil)
	return domain.HexCiphertext(hex.EncodeToString(sealed)), nil
}

// Decrypt splits off the nonce, verifies the tag, and returns the
// plaintext, or domain.ErrCrypto.
func (c *AEADCipher) Decrypt(ciphertext domain.HexCiphertext) ([]byte, error) {
	raw, err := hex.DecodeString(ciphertext.String())
	if err != nil {
		return nil, domain.ErrCrypto
	}
	nonceSize := c.gcm.NonceSize()
	if len(raw) < nonceSize {
		return nil, domain.ErrCrypto
	}
	nonce, sealed := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := c.gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, domain.ErrCrypto
	}
	return plaintext, nil
}

var _ ports.SymmetricCipher = (*AEADCipher)(nil)
