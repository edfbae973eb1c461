package domain

import "time"

// TokenTTL is the lifetime of an ephemeral confirmation/reset code.
const TokenTTL = 10 * time.Minute

// Token is a single-use proof of email possession, used both for account
// confirmation and password resets. Only the SHA-256 fingerprint of the
// 6-digit code is stored; the plaintext code goes out by email and is never
// persisted. A user has at most one live token: issuing a new one deletes
// all previous ones.
type Token struct {
	ID        string
	UserID    string
	TokenHash string // base64url SHA-256 of the emailed code
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is past its expiry at the given time.
// Expired tokens are logically invisible even while physically present.
func (t Token) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
