// Package router assembles the HTTP surface.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/lanahead/lanahead/internal/auth"
	authctrl "github.com/lanahead/lanahead/internal/http/controllers/auth"
	healthctrl "github.com/lanahead/lanahead/internal/http/controllers/health"
	playerctrl "github.com/lanahead/lanahead/internal/http/controllers/player"
	settingsctrl "github.com/lanahead/lanahead/internal/http/controllers/settings"
	validatectrl "github.com/lanahead/lanahead/internal/http/controllers/validate"
	"github.com/lanahead/lanahead/internal/http/errors"
	mw "github.com/lanahead/lanahead/internal/http/middlewares"
	"github.com/lanahead/lanahead/internal/metrics"
	"github.com/lanahead/lanahead/internal/session"
)

// Deps carries everything the router mounts.
type Deps struct {
	Auth     *authctrl.Controller
	Player   *playerctrl.Controller
	Settings *settingsctrl.Controller
	Validate *validatectrl.Controller
	Health   *healthctrl.Controller

	AuthService *authsvc.Service
	Sessions    *session.Manager
	Metrics     *metrics.Metrics

	CORSAllowedOrigins []string
}

// New builds the full handler chain. Health and metrics sit outside the
// session middleware; everything under /api runs with a session and a
// resolved player.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	// Inside the mux so the route pattern is available as a metric label.
	r.Use(mw.WithMetrics(deps.Metrics))

	r.Get("/healthz", deps.Health.Healthz)
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(mw.WithSession(deps.Sessions))
		api.Use(mw.WithPlayerResolution(deps.AuthService))

		api.Route("/auth", func(ar chi.Router) {
			ar.Get("/list", deps.Auth.List)
			ar.Get("/player", deps.Auth.Player)
			ar.Get("/url/{siteId}", deps.Auth.URL)
			ar.Post("/signin/{siteId}", deps.Auth.SignIn)
			ar.Post("/register/{siteId}", deps.Auth.Register)
			ar.Post("/signout", deps.Auth.SignOut)
		})

		api.Get("/player/list", deps.Player.List)

		api.Route("/settings", func(sr chi.Router) {
			sr.Get("/accounts", deps.Settings.Accounts)
			sr.Delete("/account/{siteId}/{accountId}", deps.Settings.Unlink)
		})

		api.Route("/validate", func(vr chi.Router) {
			vr.Get("/username/{username}", deps.Validate.Username)
			vr.Get("/email/{address}", deps.Validate.Email)
		})
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		errors.WriteError(w, req, errors.ErrNotFound)
	})

	return mw.Chain(r,
		mw.WithRecover(),
		mw.WithLogging(),
		mw.WithCORS(deps.CORSAllowedOrigins),
	)
}
