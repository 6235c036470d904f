package security

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/sentinelid/authcore/internal/core/domain"
	"github.com/sentinelid/authcore/internal/core/ports"
)

// TotpGenerator implements ports.TotpGenerator (RFC 6238) on top of
// pquerna/otp.
type TotpGenerator struct{}

func NewTotpGenerator() *TotpGenerator { return &TotpGenerator{} }

func toValidateOpts(cfg ports.TotpConfig) totp.ValidateOpts {
	digits := otp.DigitsSix
	if cfg.Digits == 8 {
		digits = otp.DigitsEight
	}
	return totp.ValidateOpts{
		Period: uint(cfg.Period),
		Skew: 0,
		Digits: digits,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// GenerateAt returns the code for secret at the given instant.
func (g *TotpGenerator) GenerateAt(secret domain.TotpSecret, cfg ports.TotpConfig, at time.Time) (domain.TotpCode, error) {
	code, err := totp.GenerateCodeCustom(secret.Expose(), at, toValidateOpts(cfg))
	if err != nil {
		return "", domain.ErrCrypto
	}
	return domain.NewTotpCode(code, cfg.Digits)
}

// VerifyWithWindow regenerates codes for counters current-window..current+window
// and returns true on any match. pquerna/otp's Skew option
// already implements the +/- step window with constant-time digit
// comparison internally.
func (g *TotpGenerator) VerifyWithWindow(code domain.TotpCode, secret domain.TotpSecret, cfg ports.TotpConfig, window int, at time.Time) bool {
	opts := toValidateOpts(cfg)
	opts.Skew = uint(window)
	ok, err := totp.ValidateCustom(code.String(), secret.Expose(), at, opts)
	return err == nil && ok
}

var _ ports.TotpGenerator = (*TotpGenerator)(nil)
