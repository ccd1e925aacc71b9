package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lanahead/lanahead/internal/domain/repository"
)

type tokenRepo struct{ pool *pgxpool.Pool }

func (r *tokenRepo) Get(ctx context.Context, series string) (*repository.RememberToken, error) {
	const query = `SELECT series, token_hash, expires, player FROM cookie WHERE series = $1`
	var t repository.RememberToken
	err := r.pool.QueryRow(ctx, query, series).Scan(&t.Series, &t.TokenHash, &t.Expires, &t.PlayerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cookie: %w", err)
	}
	return &t, nil
}

func (r *tokenRepo) Exists(ctx context.Context, series string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cookie WHERE series = $1)`, series).Scan(&exists)
	return exists, err
}

func (r *tokenRepo) Save(ctx context.Context, token repository.RememberToken) error {
	const query = `
		INSERT INTO cookie (series, token_hash, expires, player)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (series) DO UPDATE SET token_hash = $2, expires = $3, player = $4
	`
	_, err := r.pool.Exec(ctx, query, token.Series, token.TokenHash, token.Expires, token.PlayerID)
	return err
}

// Delete removes the series and sweeps any other expired rows in the same
// statement.
func (r *tokenRepo) Delete(ctx context.Context, series string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cookie WHERE series = $1 OR expires < NOW()`, series)
	return err
}
