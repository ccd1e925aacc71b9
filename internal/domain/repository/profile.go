package repository

import "context"

// ProfileRepository handles profile snapshot rows. Creation happens inside
// Register/Link transactions; this interface covers refresh on
// re-authentication.
type ProfileRepository interface {
	// Update refreshes the display metadata of a profile. Visibility is not
	// touched; it belongs to the player's settings.
	Update(ctx context.Context, id int64, name, url, avatar string) error
}

// EmailRepository handles linked email address rows.
type EmailRepository interface {
	// UsedBy returns the ID of the player an address is linked to, or
	// ErrNotFound if the address is unclaimed.
	UsedBy(ctx context.Context, address string) (int64, error)
}
