package domain

import "time"

// User is a principal. Emails are stored case-normalized (lower) and are
// unique across the system. Accounts start unconfirmed and cannot log in
// until a confirmation code has been redeemed.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string // bcrypt encoded
	Confirmed    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
