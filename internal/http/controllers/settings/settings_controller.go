// Package settings contains the controllers for the signed-in player's
// account settings.
package settings

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lanahead/lanahead/internal/domain/repository"
	"github.com/lanahead/lanahead/internal/http/errors"
	"github.com/lanahead/lanahead/internal/http/helpers"
	"github.com/lanahead/lanahead/internal/http/middlewares"
	"github.com/lanahead/lanahead/internal/observability/logger"
)

// Controller handles the /api/settings endpoints. Every route requires a
// signed-in player.
type Controller struct {
	accounts repository.AccountRepository
}

// NewController builds the settings controller.
func NewController(accounts repository.AccountRepository) *Controller {
	return &Controller{accounts: accounts}
}

// Accounts handles GET /api/settings/accounts: the player's linked sign-in
// accounts with their profile snapshots.
func (c *Controller) Accounts(w http.ResponseWriter, r *http.Request) {
	player := middlewares.GetPlayer(r.Context())
	if player == nil {
		errors.WriteError(w, r, errors.ErrSignInRequired)
		return
	}

	accounts, err := c.accounts.ListForPlayer(r.Context(), player.ID)
	if err != nil {
		errors.WriteError(w, r, errors.ErrStorageUnavailable.WithErr(err))
		return
	}
	if accounts == nil {
		accounts = []repository.AccountWithProfile{}
	}
	helpers.WriteJSON(w, http.StatusOK, accounts)
}

// Unlink handles DELETE /api/settings/account/{siteId}/{accountId}. The last
// remaining account cannot be removed; the player would be locked out.
func (c *Controller) Unlink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	player := middlewares.GetPlayer(ctx)
	if player == nil {
		errors.WriteError(w, r, errors.ErrSignInRequired)
		return
	}
	siteID := chi.URLParam(r, "siteId")
	accountID := chi.URLParam(r, "accountId")

	if err := c.accounts.Unlink(ctx, player.ID, siteID, accountID); err != nil {
		errors.WriteError(w, r, helpers.DomainError(err))
		return
	}
	logger.From(ctx).Info("account unlinked",
		logger.PlayerID(player.ID), logger.Site(siteID), logger.AccountID(accountID))
	helpers.NoContent(w)
}
