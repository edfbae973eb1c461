package service

import (
	"context"
	"time"

	"github.com/crowdwork/taskd/internal/domain"
	"github.com/crowdwork/taskd/internal/store"
	"github.com/crowdwork/taskd/pkg/cryptox"
	"github.com/crowdwork/taskd/pkg/idx"
)

// TokenService issues and consumes the ephemeral single-use codes used for
// account confirmation and password resets. A code is valid for TTL
// (10 minutes by default), and issuing a new code for a user invalidates
// every code previously issued to them.
type TokenService struct {
	Store store.Store
	TTL   time.Duration
}

func (s *TokenService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return domain.TokenTTL
}

// Issue invalidates all outstanding codes for the user and persists a fresh
// one, returning the plaintext 6-digit code for email delivery. The
// delete+insert pair runs in one transaction so two concurrent issues for
// the same user cannot leave two live codes behind.
func (s *TokenService) Issue(ctx context.Context, userID string) (string, error) {
	var code string
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		c, err := s.IssueIn(ctx, tx, userID)
		if err != nil {
			return err
		}
		code = c
		return nil
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// IssueIn issues within an existing store scope. Callers that already hold
// a transaction (account creation) use this to keep the user insert and the
// token insert atomic.
func (s *TokenService) IssueIn(ctx context.Context, st store.Store, userID string) (string, error) {
	code, err := cryptox.GenerateCode()
	if err != nil {
		return "", err
	}

	if err := st.Tokens().DeleteTokensForUser(ctx, userID); err != nil {
		return "", err
	}

	rec := domain.Token{
		ID:        idx.New().String(),
		UserID:    userID,
		TokenHash: cryptox.FingerprintToken(code),
		ExpiresAt: time.Now().UTC().Add(s.ttl()),
	}
	if err := st.Tokens().CreateToken(ctx, rec); err != nil {
		return "", err
	}

	return code, nil
}

// Lookup resolves a plaintext code to its token record. Expired and absent
// codes both come back as store.ErrNotFound; callers cannot tell which.
func (s *TokenService) Lookup(ctx context.Context, code string) (domain.Token, error) {
	tok, err := s.Store.Tokens().GetTokenByHash(ctx, cryptox.FingerprintToken(code))
	if err != nil {
		return domain.Token{}, err
	}
	if tok.Expired(time.Now().UTC()) {
		return domain.Token{}, store.ErrNotFound
	}
	return tok, nil
}

// Consume deletes the token record. Exactly one of two concurrent consumers
// succeeds; the loser observes store.ErrNotFound.
func (s *TokenService) Consume(ctx context.Context, code string) error {
	return s.Store.Tokens().DeleteTokenByHash(ctx, cryptox.FingerprintToken(code))
}
