package repository

import "context"

// Store groups the repositories backed by one database.
type Store interface {
	Players() PlayerRepository
	Accounts() AccountRepository
	Profiles() ProfileRepository
	Emails() EmailRepository
	RememberTokens() RememberTokenRepository

	Ping(ctx context.Context) error
	Close()
}
