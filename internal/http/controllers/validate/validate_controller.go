// Package validate contains the controllers backing live form validation on
// the registration and settings pages.
package validate

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lanahead/lanahead/internal/auth"
	"github.com/lanahead/lanahead/internal/domain/repository"
	"github.com/lanahead/lanahead/internal/http/dto"
	"github.com/lanahead/lanahead/internal/http/errors"
	"github.com/lanahead/lanahead/internal/http/helpers"
	"github.com/lanahead/lanahead/internal/http/middlewares"
)

// Controller handles the /api/validate endpoints.
type Controller struct {
	players repository.PlayerRepository
	emails  repository.EmailRepository
}

// NewController builds the validate controller.
func NewController(players repository.PlayerRepository, emails repository.EmailRepository) *Controller {
	return &Controller{players: players, emails: emails}
}

// Username handles GET /api/validate/username/{username}. A name already in
// use still validates when it belongs to the requesting player, so the
// settings form does not flag an unchanged name.
func (c *Controller) Username(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := strings.TrimSpace(chi.URLParam(r, "username"))
	if username == "" {
		errors.WriteError(w, r, errors.ErrMissingFields.WithDetail("username is required in the URL"))
		return
	}
	if !auth.ValidUsername(username) {
		helpers.WriteJSON(w, http.StatusOK, dto.Invalid("Must be between 4 and 20 characters without '/', '#', '?' or spaces"))
		return
	}

	usedBy, err := c.players.UsernameUsedBy(ctx, username)
	if repository.IsNotFound(err) {
		helpers.WriteJSON(w, http.StatusOK, dto.Valid("Username available"))
		return
	}
	if err != nil {
		errors.WriteError(w, r, errors.ErrStorageUnavailable.WithErr(err))
		return
	}

	if player := middlewares.GetPlayer(ctx); player != nil && player.ID == usedBy {
		helpers.WriteJSON(w, http.StatusOK, dto.Valid("This is your current username"))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.Invalid("Username already in use"))
}

// Email handles GET /api/validate/email/{address}.
func (c *Controller) Email(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	address := strings.TrimSpace(chi.URLParam(r, "address"))
	if address == "" {
		errors.WriteError(w, r, errors.ErrMissingFields.WithDetail("email address is required in the URL"))
		return
	}
	if !auth.ValidEmail(address) {
		helpers.WriteJSON(w, http.StatusOK, dto.Invalid("Does not look like an email address"))
		return
	}

	usedBy, err := c.emails.UsedBy(ctx, address)
	if repository.IsNotFound(err) {
		helpers.WriteJSON(w, http.StatusOK, dto.Valid("Email address available"))
		return
	}
	if err != nil {
		errors.WriteError(w, r, errors.ErrStorageUnavailable.WithErr(err))
		return
	}

	if player := middlewares.GetPlayer(ctx); player != nil && player.ID == usedBy {
		helpers.WriteJSON(w, http.StatusOK, dto.Valid("This is your current email address"))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.Invalid("Email address already linked to another player"))
}
