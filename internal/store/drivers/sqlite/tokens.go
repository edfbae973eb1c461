package sqlite

import (
	"context"
	"time"

	"github.com/crowdwork/taskd/internal/domain"
)

type tokensRepo struct {
	q querier
}

func (r *tokensRepo) CreateToken(ctx context.Context, t domain.Token) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO tokens (id, user_id, token_hash, expires_at)
		 VALUES (?, ?, ?, ?)`,
		t.ID, t.UserID, t.TokenHash, t.ExpiresAt.UTC())
	return mapConflict(err)
}

func (r *tokensRepo) GetTokenByHash(ctx context.Context, hash string) (domain.Token, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, user_id, token_hash, expires_at, created_at
		 FROM tokens WHERE token_hash = ?`,
		hash)

	var t domain.Token
	err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return domain.Token{}, mapNotFound(err)
	}
	return t, nil
}

func (r *tokensRepo) DeleteTokenByHash(ctx context.Context, hash string) error {
	// Single atomic DELETE: under concurrent consume attempts exactly one
	// caller sees an affected row, the other gets ErrNotFound.
	res, err := r.q.ExecContext(ctx, `DELETE FROM tokens WHERE token_hash = ?`, hash)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *tokensRepo) DeleteTokensForUser(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM tokens WHERE user_id = ?`, userID)
	return err
}

func (r *tokensRepo) DeleteExpiredTokens(ctx context.Context, now time.Time) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM tokens WHERE expires_at <= ?`, now.UTC())
	return err
}
