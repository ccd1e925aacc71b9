package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lanahead/lanahead/internal/domain/repository"
)

type accountRepo struct{ pool *pgxpool.Pool }

func (r *accountRepo) Get(ctx context.Context, site, id string) (*repository.Account, error) {
	const query = `
		SELECT site, id, player, COALESCE(profile, 0)
		FROM account WHERE site = $1 AND id = $2
	`
	var a repository.Account
	err := r.pool.QueryRow(ctx, query, site, id).Scan(&a.Site, &a.ID, &a.PlayerID, &a.ProfileID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &a, nil
}

func (r *accountRepo) ListForPlayer(ctx context.Context, playerID int64) ([]repository.AccountWithProfile, error) {
	const query = `
		SELECT a.site, a.id, a.player, COALESCE(a.profile, 0),
			COALESCE(pr.name, ''), COALESCE(pr.url, ''), COALESCE(pr.avatar, ''), COALESCE(pr.visibility, 0)
		FROM account AS a
		LEFT JOIN profile AS pr ON pr.id = a.profile
		WHERE a.player = $1
		ORDER BY a.site, a.id
	`
	rows, err := r.pool.Query(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []repository.AccountWithProfile
	for rows.Next() {
		var a repository.AccountWithProfile
		var visibility int
		if err := rows.Scan(&a.Site, &a.ID, &a.PlayerID, &a.ProfileID,
			&a.Profile.Name, &a.Profile.URL, &a.Profile.Avatar, &visibility); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.Profile.Visibility = repository.Visibility(visibility)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *accountRepo) Link(ctx context.Context, playerID int64, site, id string, profile repository.ProfileSnapshot, useAvatar bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	profileID, err := insertProfile(ctx, tx, profile)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO account (site, id, player, profile) VALUES ($1, $2, $3, $4)`,
		site, id, playerID, profileID,
	)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	if useAvatar {
		if _, err := tx.Exec(ctx, `UPDATE player SET avatar_profile = $1 WHERE id = $2`, profileID, playerID); err != nil {
			return fmt.Errorf("set avatar profile: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// Unlink removes an account and its profile. The player must keep at least
// one sign-in account, otherwise they could never get back in.
func (r *accountRepo) Unlink(ctx context.Context, playerID int64, site, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var profileID *int64
	err = tx.QueryRow(ctx,
		`SELECT profile FROM account WHERE site = $1 AND id = $2 AND player = $3 FOR UPDATE`,
		site, id, playerID,
	).Scan(&profileID)
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}

	var linked int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM account WHERE player = $1`, playerID).Scan(&linked); err != nil {
		return fmt.Errorf("count accounts: %w", err)
	}
	if linked <= 1 {
		return repository.ErrLastSignIn
	}

	if _, err := tx.Exec(ctx, `DELETE FROM account WHERE site = $1 AND id = $2`, site, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if profileID != nil {
		// Clears avatar_profile through ON DELETE SET NULL when this profile
		// was the player's avatar.
		if _, err := tx.Exec(ctx, `DELETE FROM profile WHERE id = $1`, *profileID); err != nil {
			return fmt.Errorf("delete profile: %w", err)
		}
	}
	return tx.Commit(ctx)
}
