package middlewares

import (
	"net/http"

	"github.com/lanahead/lanahead/internal/auth"
	"github.com/lanahead/lanahead/internal/http/errors"
)

// WithPlayerResolution identifies the player behind each request, via the
// session or a remember-me cookie, and injects it into the context.
// Anonymous requests pass through with no player. Must run inside
// WithSession.
func WithPlayerResolution(svc *auth.Service) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sess := GetSession(ctx)
			if sess == nil {
				errors.WriteError(w, r, errors.ErrInternal.WithDetail("session middleware missing"))
				return
			}
			player, err := svc.ResolvePlayer(ctx, sess, w, r)
			if err != nil {
				errors.WriteError(w, r, errors.ErrStorageUnavailable.WithErr(err))
				return
			}
			if player != nil {
				ctx = WithPlayer(ctx, player)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
