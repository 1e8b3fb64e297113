package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// GenerateRandomString returns a hex string built from n random bytes.
func GenerateRandomString(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("security: random string: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateVerificationCode returns a zero-padded numeric code of the given
// number of digits, suitable for one-time email verification.
func GenerateVerificationCode(digits int) (string, error) {
	if digits <= 0 {
		digits = 6
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	value, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("security: verification code: %w", err)
	}
	return fmt.Sprintf("%0*d", digits, value), nil
}
