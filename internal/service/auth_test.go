package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/crowdwork/taskd/internal/store/drivers/sqlite"
	"github.com/crowdwork/taskd/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

// captureMailer records dispatched codes on a channel so tests can wait for
// the async send without sleeping.
type captureMailer struct {
	confirmations chan string
	resets        chan string
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{
		confirmations: make(chan string, 8),
		resets:        make(chan string, 8),
	}
}

func (m *captureMailer) SendConfirmation(ctx context.Context, to, name, code string) error {
	m.confirmations <- code
	return nil
}

func (m *captureMailer) SendPasswordReset(ctx context.Context, to, name, code string) error {
	m.resets <- code
	return nil
}

func waitForCode(t *testing.T, ch chan string) string {
	t.Helper()
	select {
	case code := <-ch:
		return code
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for email dispatch")
		return ""
	}
}

func newAuthService(t *testing.T, st *sqlite.Store) (*AuthService, *captureMailer) {
	t.Helper()

	signer, err := jwtx.NewHS256([]byte("test-secret-please-rotate"), "taskd-test")
	require.NoError(t, err)

	mailer := newCaptureMailer()
	svc := &AuthService{
		Store:  st,
		Tokens: &TokenService{Store: st},
		Signer: signer,
		Mailer: mailer,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Issuer: "taskd-test",
	}
	return svc, mailer
}

func TestAccountLifecycle(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc, mailer := newAuthService(t, st)

	require.NoError(t, svc.CreateAccount(ctx, "Alice", "Alice@Example.com ", "sup3r-secret"))

	// Duplicate signup on the normalized email is rejected.
	require.ErrorIs(t,
		svc.CreateAccount(ctx, "Alice Again", "alice@example.com", "whatever-pw"),
		ErrEmailTaken)

	// Login before confirmation fails and re-issues a code.
	code := waitForCode(t, mailer.confirmations)
	_, err := svc.Login(ctx, "alice@example.com", "sup3r-secret")
	require.ErrorIs(t, err, ErrUnconfirmed)

	reissued := waitForCode(t, mailer.confirmations)
	require.NotEqual(t, code, reissued)

	// The signup code was superseded by the login re-issue.
	require.ErrorIs(t, svc.ConfirmAccount(ctx, code), ErrTokenInvalid)
	require.NoError(t, svc.ConfirmAccount(ctx, reissued))

	// A consumed code cannot confirm twice.
	require.ErrorIs(t, svc.ConfirmAccount(ctx, reissued), ErrTokenInvalid)

	// Wrong password, then a working login.
	_, err = svc.Login(ctx, "alice@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrWrongPassword)

	session, err := svc.Login(ctx, "alice@example.com", "sup3r-secret")
	require.NoError(t, err)

	claims, err := svc.Signer.(*jwtx.HS256).Verify(session)
	require.NoError(t, err)

	user, err := st.Users().GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.Subject)
}

func TestLoginUnknownUser(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc, _ := newAuthService(t, st)

	_, err := svc.Login(ctx, "nobody@example.com", "any-password")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestResendConfirmation(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc, mailer := newAuthService(t, st)

	require.NoError(t, svc.CreateAccount(ctx, "Bob", "bob@example.com", "sup3r-secret"))
	first := waitForCode(t, mailer.confirmations)

	require.NoError(t, svc.ResendConfirmation(ctx, "bob@example.com"))
	second := waitForCode(t, mailer.confirmations)
	require.NotEqual(t, first, second)

	require.NoError(t, svc.ConfirmAccount(ctx, second))
	require.ErrorIs(t, svc.ResendConfirmation(ctx, "bob@example.com"), ErrAlreadyConfirmed)
	require.ErrorIs(t, svc.ResendConfirmation(ctx, "ghost@example.com"), ErrUserNotFound)
}

func TestPasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc, mailer := newAuthService(t, st)
	user := seedUser(t, st, "carol@example.com", true)

	require.ErrorIs(t, svc.ForgotPassword(ctx, "ghost@example.com"), ErrUserNotFound)

	// Two requests in a row: only the second code survives.
	require.NoError(t, svc.ForgotPassword(ctx, user.Email))
	first := waitForCode(t, mailer.resets)

	require.NoError(t, svc.ForgotPassword(ctx, user.Email))
	second := waitForCode(t, mailer.resets)

	require.ErrorIs(t, svc.ValidateResetToken(ctx, first), ErrTokenInvalid)
	require.NoError(t, svc.ValidateResetToken(ctx, second))

	// Validation does not consume; the reset itself does.
	require.NoError(t, svc.ValidateResetToken(ctx, second))
	require.NoError(t, svc.ResetPassword(ctx, second, "brand-new-password"))
	require.ErrorIs(t, svc.ResetPassword(ctx, second, "again"), ErrTokenInvalid)

	_, err := svc.Login(ctx, user.Email, "correct horse battery")
	require.ErrorIs(t, err, ErrWrongPassword)

	_, err = svc.Login(ctx, user.Email, "brand-new-password")
	require.NoError(t, err)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc, _ := newAuthService(t, st)
	user := seedUser(t, st, "dave@example.com", true)

	require.ErrorIs(t,
		svc.ChangePassword(ctx, user.ID, "not-the-password", "next-password"),
		ErrWrongPassword)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "correct horse battery", "next-password"))

	require.ErrorIs(t, svc.CheckPassword(ctx, user.ID, "correct horse battery"), ErrWrongPassword)
	require.NoError(t, svc.CheckPassword(ctx, user.ID, "next-password"))
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc, _ := newAuthService(t, st)
	alice := seedUser(t, st, "alice@example.com", true)
	seedUser(t, st, "bob@example.com", true)

	// Keeping your own email is fine.
	require.NoError(t, svc.UpdateProfile(ctx, alice.ID, "Alice B", "alice@example.com"))

	// Taking someone else's is not.
	require.ErrorIs(t,
		svc.UpdateProfile(ctx, alice.ID, "Alice B", "bob@example.com"),
		ErrEmailTaken)

	require.NoError(t, svc.UpdateProfile(ctx, alice.ID, "Alice B", "alice.b@example.com"))

	updated, err := svc.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, "alice.b@example.com", updated.Email)
	require.Equal(t, "Alice B", updated.Name)
}
