// Package mail delivers account-lifecycle emails. Delivery is
// fire-and-forget from the caller's point of view: failures are logged but
// never surfaced in an API response.
package mail

import "context"

// Mailer dispatches the two account-lifecycle emails. Implementations must
// be safe for concurrent use.
type Mailer interface {
	// SendConfirmation delivers the 6-digit account confirmation code.
	SendConfirmation(ctx context.Context, to, name, code string) error

	// SendPasswordReset delivers the 6-digit password reset code.
	SendPasswordReset(ctx context.Context, to, name, code string) error
}
