package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/crowdwork/taskd/internal/domain"
	"github.com/crowdwork/taskd/internal/store"
	"github.com/crowdwork/taskd/internal/store/drivers/sqlite"
	"github.com/crowdwork/taskd/pkg/cryptox"
	"github.com/crowdwork/taskd/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func seedUser(t *testing.T, st store.Store, email string, confirmed bool) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword("correct horse battery")
	require.NoError(t, err)

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Name:         "Test User",
		PasswordHash: hash,
		Confirmed:    confirmed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}

func TestTokenIssueSupersedesPrevious(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := seedUser(t, st, "alice@example.com", true)

	svc := &TokenService{Store: st}

	first, err := svc.Issue(ctx, user.ID)
	require.NoError(t, err)

	second, err := svc.Issue(ctx, user.ID)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	// The superseded code is gone, the fresh one resolves.
	_, err = svc.Lookup(ctx, first)
	require.ErrorIs(t, err, store.ErrNotFound)

	tok, err := svc.Lookup(ctx, second)
	require.NoError(t, err)
	require.Equal(t, user.ID, tok.UserID)
}

func TestTokenConsumeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := seedUser(t, st, "bob@example.com", true)

	svc := &TokenService{Store: st}

	code, err := svc.Issue(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Consume(ctx, code))

	// Second consume of the same code loses the race.
	require.ErrorIs(t, svc.Consume(ctx, code), store.ErrNotFound)
}

func TestTokenExpiryIsIndistinguishableFromAbsence(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := seedUser(t, st, "carol@example.com", true)

	svc := &TokenService{Store: st, TTL: -time.Minute}

	code, err := svc.Issue(ctx, user.ID)
	require.NoError(t, err)

	// TTL <= 0 falls back to the default, so force an expired row directly.
	expired := domain.Token{
		ID:        idx.New().String(),
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken("000001"),
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	require.NoError(t, st.Tokens().DeleteTokensForUser(ctx, user.ID))
	require.NoError(t, st.Tokens().CreateToken(ctx, expired))

	// The row is physically present and reports itself expired, yet the
	// lookup cannot see it.
	tok, err := st.Tokens().GetTokenByHash(ctx, expired.TokenHash)
	require.NoError(t, err)
	require.True(t, tok.Expired(time.Now().UTC()))

	_, err = svc.Lookup(ctx, "000001")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.Lookup(ctx, code)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestTokenConsumeExactlyOnceUnderRace(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := seedUser(t, st, "erin@example.com", true)

	svc := &TokenService{Store: st}

	code, err := svc.Issue(ctx, user.ID)
	require.NoError(t, err)

	results := make(chan error, 2)
	for range 2 {
		go func() { results <- svc.Consume(ctx, code) }()
	}

	var wins, losses int
	for range 2 {
		switch err := <-results; {
		case err == nil:
			wins++
		case errors.Is(err, store.ErrNotFound):
			losses++
		default:
			t.Fatalf("unexpected consume error: %v", err)
		}
	}
	require.Equal(t, 1, wins)
	require.Equal(t, 1, losses)
}

func TestHousekeepingSweepsExpiredTokens(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := seedUser(t, st, "dave@example.com", true)

	expired := domain.Token{
		ID:        idx.New().String(),
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken("111111"),
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, st.Tokens().CreateToken(ctx, expired))

	require.NoError(t, st.Tokens().DeleteExpiredTokens(ctx, time.Now().UTC()))

	// The row is physically gone, not just logically expired.
	_, err := st.Tokens().GetTokenByHash(ctx, expired.TokenHash)
	require.ErrorIs(t, err, store.ErrNotFound)
}
