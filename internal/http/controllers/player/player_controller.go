// Package player contains the controller for the public player listing.
package player

import (
	"net/http"

	"github.com/lanahead/lanahead/internal/domain/repository"
	"github.com/lanahead/lanahead/internal/http/errors"
	"github.com/lanahead/lanahead/internal/http/helpers"
)

// Controller handles the /api/player endpoints.
type Controller struct {
	players repository.PlayerRepository
}

// NewController builds the player controller.
func NewController(players repository.PlayerRepository) *Controller {
	return &Controller{players: players}
}

// List handles GET /api/player/list: every registered player with username,
// real name and avatar.
func (c *Controller) List(w http.ResponseWriter, r *http.Request) {
	players, err := c.players.List(r.Context())
	if err != nil {
		errors.WriteError(w, r, errors.ErrStorageUnavailable.WithErr(err))
		return
	}
	if players == nil {
		players = []repository.Player{}
	}
	helpers.WriteJSON(w, http.StatusOK, players)
}
