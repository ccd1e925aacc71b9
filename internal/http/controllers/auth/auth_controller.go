// Package auth contains the controllers for the sign-in endpoints.
package auth

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/lanahead/lanahead/internal/auth"
	"github.com/lanahead/lanahead/internal/http/dto"
	"github.com/lanahead/lanahead/internal/http/errors"
	"github.com/lanahead/lanahead/internal/http/helpers"
	"github.com/lanahead/lanahead/internal/http/middlewares"
	"github.com/lanahead/lanahead/internal/metrics"
	"github.com/lanahead/lanahead/internal/observability/logger"
)

// Controller handles the /api/auth endpoints.
type Controller struct {
	svc     *authsvc.Service
	metrics *metrics.Metrics
}

// NewController builds the auth controller.
func NewController(svc *authsvc.Service, m *metrics.Metrics) *Controller {
	return &Controller{svc: svc, metrics: m}
}

// List handles GET /api/auth/list: the sign-in sites a browser can offer.
func (c *Controller) List(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, c.svc.Sites())
}

// Player handles GET /api/auth/player: the signed-in player, or null.
func (c *Controller) Player(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, middlewares.GetPlayer(r.Context()))
}

// URL handles GET /api/auth/url/{siteId}: where to send the browser to sign
// in at an external site.
func (c *Controller) URL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	siteID := chi.URLParam(r, "siteId")
	sess := middlewares.GetSession(ctx)

	// remember is on unless explicitly turned off.
	remember := false
	if v, ok := r.URL.Query()["remember"]; ok {
		remember = len(v) == 0 || (strings.ToLower(v[0]) != "false" && v[0] != "0")
	}
	returnHash := r.URL.Query().Get("returnHash")

	url, err := c.svc.SignInURL(sess, siteID, remember, returnHash)
	if err != nil {
		errors.WriteError(w, r, helpers.DomainError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, url)
}

// SignIn handles POST /api/auth/signin/{siteId}: the callback parameters the
// external site redirected back with, forwarded by the frontend.
func (c *Controller) SignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	siteID := chi.URLParam(r, "siteId")
	sess := middlewares.GetSession(ctx)
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("auth.SignIn"), logger.Site(siteID))

	if err := r.ParseForm(); err != nil {
		errors.WriteError(w, r, errors.ErrBadRequest.WithErr(err))
		return
	}

	result, err := c.svc.SignIn(ctx, sess, w, siteID, r.Form)
	if err != nil {
		c.metrics.ObserveSignIn(siteID, metrics.OutcomeFailed)
		log.Warn("sign-in failed", logger.Err(err))
		errors.WriteError(w, r, helpers.DomainError(err))
		return
	}
	if result.Registered {
		c.metrics.ObserveSignIn(siteID, metrics.OutcomeSignedIn)
	} else {
		c.metrics.ObserveSignIn(siteID, metrics.OutcomePending)
	}
	helpers.WriteJSON(w, http.StatusOK, result)
}

// Register handles POST /api/auth/register/{siteId}: completing a new player
// from the pending sign-in parked in the session.
func (c *Controller) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	siteID := chi.URLParam(r, "siteId")
	sess := middlewares.GetSession(ctx)

	var req dto.RegisterRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		errors.WriteError(w, r, errors.ErrMissingFields.WithDetail("username is required"))
		return
	}

	player, err := c.svc.CompleteRegistration(ctx, sess, w, siteID, authsvc.RegistrationInput{
		Username: req.Username,
		RealName: req.RealName,
		Email:    req.Email,
		Avatar:   authsvc.AvatarChoice(req.Avatar),
	})
	if err != nil {
		errors.WriteError(w, r, helpers.DomainError(err))
		return
	}
	c.metrics.ObserveRegistration(siteID)
	helpers.WriteJSON(w, http.StatusCreated, player)
}

// SignOut handles POST /api/auth/signout. Always succeeds, signed in or not.
func (c *Controller) SignOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c.svc.SignOut(ctx, middlewares.GetSession(ctx), w, r)
	helpers.NoContent(w)
}
