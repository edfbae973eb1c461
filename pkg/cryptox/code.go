package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/big"
)

// CodeLength is the number of digits in an emailed confirmation/reset code.
const CodeLength = 6

var codeSpace = big.NewInt(900000) // 6 digits, leading digit never zero

// GenerateCode returns a 6-digit numeric one-time code drawn from
// crypto/rand. The format matches what users receive by email; the short
// length is compensated by the 10 minute expiry and per-endpoint rate
// limiting.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("cryptox: generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// FingerprintToken returns a deterministic SHA-256 fingerprint of a token.
// Ephemeral codes are stored fingerprinted so a database leak does not
// expose live codes, and lookup works without storing the original value.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
