// Package health contains the controller for liveness checks.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/lanahead/lanahead/internal/cache"
	"github.com/lanahead/lanahead/internal/domain/repository"
	"github.com/lanahead/lanahead/internal/http/dto"
	"github.com/lanahead/lanahead/internal/http/helpers"
)

// Controller handles GET /healthz.
type Controller struct {
	store repository.Store
	cache cache.Client
}

// NewController builds the health controller.
func NewController(store repository.Store, c cache.Client) *Controller {
	return &Controller{store: store, cache: c}
}

// Healthz reports the reachability of the database and the cache. Any
// component down makes the whole check unavailable, since sign-in cannot
// work without either.
func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := dto.HealthResponse{Status: "ok", Components: map[string]string{}}

	if err := c.store.Ping(ctx); err != nil {
		resp.Status = "unavailable"
		resp.Components["database"] = err.Error()
	} else {
		resp.Components["database"] = "ok"
	}
	if err := c.cache.Ping(ctx); err != nil {
		resp.Status = "unavailable"
		resp.Components["cache"] = err.Error()
	} else {
		resp.Components["cache"] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	helpers.WriteJSON(w, status, resp)
}
