package security

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/sentinelid/authcore/internal/core/ports"
)

// PepperedHasher implements ports.Hasher: a deterministic lowercase-hex
// SHA-256 over pepper||data, with a configurable process-wide pepper.
// It must never be used on password material — only on identifiers
// that are compared (email lookup keys, refresh-token storage keys).
type PepperedHasher struct {
	pepper []byte
}

func NewPepperedHasher(pepper []byte) *PepperedHasher {
	return &PepperedHasher{pepper: pepper}
}

func (h *PepperedHasher) Hash(data []byte) string {
	sum := sha256.New()
	sum.Write(h.pepper)
	sum.Write(data)
	return hex.EncodeToString(sum.Sum(nil))
}

var _ ports.Hasher = (*PepperedHasher)(nil)
