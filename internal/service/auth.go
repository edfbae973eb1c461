package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/crowdwork/taskd/internal/domain"
	"github.com/crowdwork/taskd/internal/mail"
	"github.com/crowdwork/taskd/internal/store"
	"github.com/crowdwork/taskd/pkg/cryptox"
	"github.com/crowdwork/taskd/pkg/idx"
	"github.com/crowdwork/taskd/pkg/jwtx"
)

var (
	ErrEmailTaken       = errors.New("email_taken")
	ErrUserNotFound     = errors.New("user_not_found")
	ErrTokenInvalid     = errors.New("token_invalid")
	ErrWrongPassword    = errors.New("wrong_password")
	ErrUnconfirmed      = errors.New("account_unconfirmed")
	ErrAlreadyConfirmed = errors.New("already_confirmed")
)

// AuthService implements account lifecycle and session issuance: signup with
// email confirmation, login, password recovery and in-session credential
// changes. Email delivery is fire-and-forget; a failed send is logged and
// never fails the request that triggered it.
type AuthService struct {
	Store      store.Store
	Tokens     *TokenService
	Signer     jwtx.Signer
	Mailer     mail.Mailer
	Logger     *slog.Logger
	Issuer     string
	SessionTTL time.Duration
}

func (s *AuthService) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return jwtx.DefaultSessionTTL
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// dispatch runs an email send off the request path. Failures are logged,
// not surfaced, so a flaky SMTP relay cannot break signup or recovery.
func (s *AuthService) dispatch(kind, email string, send func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := send(ctx); err != nil {
			s.Logger.Warn("email dispatch failed",
				slog.String("kind", kind),
				slog.String("to", email),
				slog.Any("error", err),
			)
		}
	}()
}

// CreateAccount registers a new unconfirmed user, issues a confirmation code
// and emails it. The user insert and the code insert share one transaction.
func (s *AuthService) CreateAccount(ctx context.Context, name, email, password string) error {
	email = normalizeEmail(email)

	if _, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		Confirmed:    false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var code string
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailTaken
			}
			return err
		}
		c, err := s.Tokens.IssueIn(ctx, tx, user.ID)
		if err != nil {
			return err
		}
		code = c
		return nil
	})
	if err != nil {
		return err
	}

	s.dispatch("confirmation", user.Email, func(ctx context.Context) error {
		return s.Mailer.SendConfirmation(ctx, user.Email, user.Name, code)
	})
	return nil
}

// ConfirmAccount flips the user to confirmed and consumes the code in one
// transaction. A code that is expired, unknown or already consumed yields
// ErrTokenInvalid; the caller cannot distinguish the three.
func (s *AuthService) ConfirmAccount(ctx context.Context, code string) error {
	tok, err := s.Tokens.Lookup(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrTokenInvalid
		}
		return err
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().SetConfirmed(ctx, tok.UserID, true); err != nil {
			return err
		}
		if err := tx.Tokens().DeleteTokenByHash(ctx, tok.TokenHash); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrTokenInvalid
			}
			return err
		}
		return nil
	})
}

// Login verifies credentials and returns a signed session token. Logging in
// on an unconfirmed account re-issues a confirmation code as a side effect
// before failing with ErrUnconfirmed.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.Store.Users().GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	if !user.Confirmed {
		code, err := s.Tokens.Issue(ctx, user.ID)
		if err != nil {
			return "", err
		}
		s.dispatch("confirmation", user.Email, func(ctx context.Context) error {
			return s.Mailer.SendConfirmation(ctx, user.Email, user.Name, code)
		})
		return "", ErrUnconfirmed
	}

	if !cryptox.VerifyPassword(password, user.PasswordHash) {
		return "", ErrWrongPassword
	}

	claims := jwtx.NewSessionClaims(user.ID, s.Issuer, s.sessionTTL(), time.Now().UTC())
	return s.Signer.Sign(claims)
}

// ResendConfirmation issues a fresh confirmation code for an unconfirmed
// account, invalidating any earlier one.
func (s *AuthService) ResendConfirmation(ctx context.Context, email string) error {
	user, err := s.Store.Users().GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.Confirmed {
		return ErrAlreadyConfirmed
	}

	code, err := s.Tokens.Issue(ctx, user.ID)
	if err != nil {
		return err
	}
	s.dispatch("confirmation", user.Email, func(ctx context.Context) error {
		return s.Mailer.SendConfirmation(ctx, user.Email, user.Name, code)
	})
	return nil
}

// ForgotPassword issues a reset code for a known account and emails it.
// Each call supersedes the previous code.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.Store.Users().GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	code, err := s.Tokens.Issue(ctx, user.ID)
	if err != nil {
		return err
	}
	s.dispatch("password_reset", user.Email, func(ctx context.Context) error {
		return s.Mailer.SendPasswordReset(ctx, user.Email, user.Name, code)
	})
	return nil
}

// ValidateResetToken checks a reset code without consuming it, so the client
// can show the new-password form before the code is spent.
func (s *AuthService) ValidateResetToken(ctx context.Context, code string) error {
	if _, err := s.Tokens.Lookup(ctx, code); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrTokenInvalid
		}
		return err
	}
	return nil
}

// ResetPassword consumes a reset code and replaces the account password.
// The code delete and the password write share one transaction, so a code
// can never be spent without the new password landing.
func (s *AuthService) ResetPassword(ctx context.Context, code, newPassword string) error {
	tok, err := s.Tokens.Lookup(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrTokenInvalid
		}
		return err
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Tokens().DeleteTokenByHash(ctx, tok.TokenHash); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrTokenInvalid
			}
			return err
		}
		return tx.Users().UpdatePasswordHash(ctx, tok.UserID, hash)
	})
}

// ChangePassword replaces the password for a logged-in user after verifying
// the current one. Existing sessions stay valid until they expire.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !cryptox.VerifyPassword(current, user.PasswordHash) {
		return ErrWrongPassword
	}

	hash, err := cryptox.HashPassword(next)
	if err != nil {
		return err
	}
	return s.Store.Users().UpdatePasswordHash(ctx, userID, hash)
}

// CheckPassword verifies the caller's password, used to gate destructive
// actions like project deletion.
func (s *AuthService) CheckPassword(ctx context.Context, userID, password string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !cryptox.VerifyPassword(password, user.PasswordHash) {
		return ErrWrongPassword
	}
	return nil
}

// UpdateProfile changes the caller's display name and email. Moving to an
// email held by another account fails with ErrEmailTaken.
func (s *AuthService) UpdateProfile(ctx context.Context, userID, name, email string) error {
	email = normalizeEmail(email)

	if other, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
		if other.ID != userID {
			return ErrEmailTaken
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	if err := s.Store.Users().UpdateProfile(ctx, userID, strings.TrimSpace(name), email); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

// GetUser fetches a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}
