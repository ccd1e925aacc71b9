package repository

import "context"

// Account links one external sign-in identity to a player. The (Site, ID)
// pair is unique across the whole site.
type Account struct {
	Site      string `json:"site"`
	ID        string `json:"id"`
	PlayerID  int64  `json:"-"`
	ProfileID int64  `json:"-"`
}

// AccountWithProfile is an account joined with its profile snapshot, as shown
// on the settings page.
type AccountWithProfile struct {
	Account
	Profile ProfileSnapshot `json:"profile"`
}

// AccountRepository handles external sign-in account rows.
type AccountRepository interface {
	// Get looks up an account by its composite key. Returns ErrNotFound when
	// the external identity has never been linked.
	Get(ctx context.Context, site, id string) (*Account, error)

	// ListForPlayer returns all accounts linked to a player with their
	// profile snapshots.
	ListForPlayer(ctx context.Context, playerID int64) ([]AccountWithProfile, error)

	// Link attaches an external account to an existing player, creating its
	// profile row and optionally making that profile the player's avatar,
	// inside one transaction. Returns ErrConflict if the (site, id) pair is
	// already linked.
	Link(ctx context.Context, playerID int64, site, id string, profile ProfileSnapshot, useAvatar bool) error

	// Unlink removes an account and its profile inside one transaction.
	// Returns ErrLastSignIn when the account is the player's only sign-in
	// method, ErrNotFound when the account does not exist or belongs to a
	// different player.
	Unlink(ctx context.Context, playerID int64, site, id string) error
}
