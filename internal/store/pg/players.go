package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lanahead/lanahead/internal/domain/repository"
)

type playerRepo struct{ pool *pgxpool.Pool }

func (r *playerRepo) GetByID(ctx context.Context, id int64) (*repository.Player, error) {
	const query = `
		SELECT p.id, p.username, p.real_name, COALESCE(pr.avatar, ''), p.last_login, p.last_request
		FROM player AS p
		LEFT JOIN profile AS pr ON pr.id = p.avatar_profile
		WHERE p.id = $1
	`
	var p repository.Player
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Username, &p.RealName, &p.Avatar, &p.LastLogin, &p.LastRequest,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get player: %w", err)
	}
	return &p, nil
}

func (r *playerRepo) List(ctx context.Context) ([]repository.Player, error) {
	const query = `
		SELECT p.id, p.username, p.real_name, COALESCE(pr.avatar, '')
		FROM player AS p
		LEFT JOIN profile AS pr ON pr.id = p.avatar_profile
		ORDER BY p.username
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []repository.Player
	for rows.Next() {
		var p repository.Player
		if err := rows.Scan(&p.ID, &p.Username, &p.RealName, &p.Avatar); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// Register creates the player with its first account, profiles and optional
// email in one transaction, so a conflict partway leaves nothing behind.
func (r *playerRepo) Register(ctx context.Context, input repository.RegisterPlayerInput) (*repository.Player, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var player repository.Player
	err = tx.QueryRow(ctx,
		`INSERT INTO player (username, real_name) VALUES ($1, $2) RETURNING id, username, real_name`,
		input.Username, input.RealName,
	).Scan(&player.ID, &player.Username, &player.RealName)
	if isUniqueViolation(err) {
		return nil, repository.ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("insert player: %w", err)
	}

	accountProfile, err := insertProfile(ctx, tx, input.AccountProfile)
	if err != nil {
		return nil, err
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO account (site, id, player, profile) VALUES ($1, $2, $3, $4)`,
		input.Site, input.AccountID, player.ID, accountProfile,
	)
	if isUniqueViolation(err) {
		return nil, repository.ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}

	avatarProfile := int64(0)
	if input.UseAccountAvatar {
		avatarProfile = accountProfile
	}

	if input.Email != "" {
		emailProfile, err := insertProfile(ctx, tx, input.EmailProfile)
		if err != nil {
			return nil, err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO email (address, player, profile, is_primary) VALUES ($1, $2, $3, TRUE)`,
			input.Email, player.ID, emailProfile,
		)
		if isUniqueViolation(err) {
			return nil, repository.ErrConflict
		}
		if err != nil {
			return nil, fmt.Errorf("insert email: %w", err)
		}
		if input.UseEmailAvatar {
			avatarProfile = emailProfile
		}
	}

	if avatarProfile != 0 {
		if _, err := tx.Exec(ctx, `UPDATE player SET avatar_profile = $1 WHERE id = $2`, avatarProfile, player.ID); err != nil {
			return nil, fmt.Errorf("set avatar profile: %w", err)
		}
		if avatarProfile == accountProfile {
			player.Avatar = input.AccountProfile.Avatar
		} else {
			player.Avatar = input.EmailProfile.Avatar
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &player, nil
}

func (r *playerRepo) UsernameUsedBy(ctx context.Context, username string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM player WHERE username = $1`, username).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, repository.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("look up username: %w", err)
	}
	return id, nil
}

func (r *playerRepo) TouchLastLogin(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE player SET last_login = NOW(), last_request = NOW() WHERE id = $1`, id)
	return err
}

func (r *playerRepo) TouchLastRequest(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE player SET last_request = NOW() WHERE id = $1`, id)
	return err
}

// insertProfile adds a profile row inside a transaction and returns its ID.
func insertProfile(ctx context.Context, tx pgx.Tx, p repository.ProfileSnapshot) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx,
		`INSERT INTO profile (name, url, avatar, visibility) VALUES ($1, $2, $3, $4) RETURNING id`,
		p.Name, p.URL, p.Avatar, int(p.Visibility),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert profile: %w", err)
	}
	return id, nil
}
