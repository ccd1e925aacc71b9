package repository

import (
	"context"
	"time"
)

// RememberToken is one persisted remember-me credential. The series is the
// stable per-device identifier; the token secret rotates on every use and
// only its hash is stored.
type RememberToken struct {
	Series    string
	TokenHash string
	Expires   time.Time
	PlayerID  int64
}

// RememberTokenRepository handles remember-me token rows. Save and Delete
// must be safe under concurrent Verify calls for the same series; adapters
// serialize them per series (single-statement upsert/delete).
type RememberTokenRepository interface {
	// Get returns the token for a series, expired or not. ErrNotFound when
	// the series is unknown.
	Get(ctx context.Context, series string) (*RememberToken, error)

	// Exists reports whether a series is already allocated.
	Exists(ctx context.Context, series string) (bool, error)

	// Save inserts the token, replacing any prior row for the same series.
	Save(ctx context.Context, token RememberToken) error

	// Delete removes the series row and opportunistically any expired rows.
	Delete(ctx context.Context, series string) error
}
