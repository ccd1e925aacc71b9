// Package pg implements the player store for PostgreSQL on pgx.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lanahead/lanahead/internal/domain/repository"
)

// Config tunes the connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
}

// Store is the PostgreSQL-backed repository.Store.
type Store struct {
	pool *pgxpool.Pool

	players  *playerRepo
	accounts *accountRepo
	profiles *profileRepo
	emails   *emailRepo
	tokens   *tokenRepo
}

// New connects a pool and verifies it with a ping.
func New(ctx context.Context, cfg Config) (*Store, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxLifetime > 0 {
		pc.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &Store{
		pool:     pool,
		players:  &playerRepo{pool: pool},
		accounts: &accountRepo{pool: pool},
		profiles: &profileRepo{pool: pool},
		emails:   &emailRepo{pool: pool},
		tokens:   &tokenRepo{pool: pool},
	}, nil
}

func (s *Store) Players() repository.PlayerRepository                { return s.players }
func (s *Store) Accounts() repository.AccountRepository              { return s.accounts }
func (s *Store) Profiles() repository.ProfileRepository              { return s.profiles }
func (s *Store) Emails() repository.EmailRepository                  { return s.emails }
func (s *Store) RememberTokens() repository.RememberTokenRepository  { return s.tokens }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() { s.pool.Close() }

// isUniqueViolation reports whether err is a unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
