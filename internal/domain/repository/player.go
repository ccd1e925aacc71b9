package repository

import (
	"context"
	"time"
)

// Visibility is the disclosure scope of a profile, ordered from most to
// least private.
type Visibility int

const (
	VisibilitySelf Visibility = iota
	VisibilityFriends
	VisibilityPlayers
	VisibilityEveryone
)

func (v Visibility) String() string {
	switch v {
	case VisibilitySelf:
		return "self"
	case VisibilityFriends:
		return "friends"
	case VisibilityPlayers:
		return "players"
	case VisibilityEveryone:
		return "everyone"
	}
	return "unknown"
}

// Player is a registered user of the site.
type Player struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	RealName string `json:"realName"`
	// Avatar is the URL of the profile chosen as the player's avatar, empty
	// when none is set.
	Avatar string `json:"avatar"`

	LastLogin   *time.Time `json:"-"`
	LastRequest *time.Time `json:"-"`
}

// ProfileSnapshot is the denormalized display metadata stored alongside an
// account, email or link.
type ProfileSnapshot struct {
	Name       string     `json:"name"`
	URL        string     `json:"url"`
	Avatar     string     `json:"avatar"`
	Visibility Visibility `json:"visibility"`
}

// RegisterPlayerInput is everything needed to create a player in one atomic
// unit: the player row, its first external account with profile, and
// optionally a primary email with its own profile.
type RegisterPlayerInput struct {
	Username string
	RealName string

	Site             string
	AccountID        string
	AccountProfile   ProfileSnapshot
	UseAccountAvatar bool

	// Email is optional; empty means no email row is created.
	Email          string
	EmailProfile   ProfileSnapshot
	UseEmailAvatar bool
}

// PlayerRepository handles player rows.
type PlayerRepository interface {
	// GetByID returns the player with its avatar resolved through the
	// avatar profile. Returns ErrNotFound if the player does not exist.
	GetByID(ctx context.Context, id int64) (*Player, error)

	// List returns all registered players for the public listing.
	List(ctx context.Context) ([]Player, error)

	// Register creates the player and every dependent row from input inside
	// one transaction. Returns ErrConflict if the username, the (site,
	// account) pair or the email is already taken.
	Register(ctx context.Context, input RegisterPlayerInput) (*Player, error)

	// UsernameUsedBy returns the ID of the player using a username, or
	// ErrNotFound if the username is free.
	UsernameUsedBy(ctx context.Context, username string) (int64, error)

	// TouchLastLogin sets both lastLogin and lastRequest to now.
	TouchLastLogin(ctx context.Context, id int64) error

	// TouchLastRequest sets lastRequest to now.
	TouchLastRequest(ctx context.Context, id int64) error
}
