package cryptox

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// hashCost is the bcrypt work factor. Fixed so every stored digest carries
// the same cost; bcrypt embeds it in the digest for verification.
const hashCost = 10

// HashPassword hashes a plaintext password with bcrypt. Each call salts
// independently, so hashing the same password twice yields different digests.
func HashPassword(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", fmt.Errorf("cryptox: hash password: %w", err)
	}
	return string(digest), nil
}

// VerifyPassword reports whether candidate matches the stored bcrypt digest.
// The comparison is constant-time inside bcrypt. A malformed digest is
// treated as a mismatch rather than an error.
func VerifyPassword(candidate, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(candidate)) == nil
}
