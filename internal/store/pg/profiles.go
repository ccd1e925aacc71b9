package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lanahead/lanahead/internal/domain/repository"
)

type profileRepo struct{ pool *pgxpool.Pool }

func (r *profileRepo) Update(ctx context.Context, id int64, name, url, avatar string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE profile SET name = $1, url = $2, avatar = $3 WHERE id = $4`,
		name, url, avatar, id,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type emailRepo struct{ pool *pgxpool.Pool }

func (r *emailRepo) UsedBy(ctx context.Context, address string) (int64, error) {
	var playerID int64
	err := r.pool.QueryRow(ctx, `SELECT player FROM email WHERE address = $1`, address).Scan(&playerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, repository.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("look up email: %w", err)
	}
	return playerID, nil
}
