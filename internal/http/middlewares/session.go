package middlewares

import (
	"net/http"

	"github.com/lanahead/lanahead/internal/http/errors"
	"github.com/lanahead/lanahead/internal/observability/logger"
	"github.com/lanahead/lanahead/internal/session"
)

// WithSession loads the browser session into the context and persists
// whatever state the handler left behind. The session cookie goes out
// before the handler writes, since headers are sealed after that.
func WithSession(manager *session.Manager) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sess, err := manager.Load(ctx, r)
			if err != nil {
				errors.WriteError(w, r, errors.ErrStorageUnavailable.WithErr(err))
				return
			}
			if err := manager.Save(ctx, w, sess); err != nil {
				errors.WriteError(w, r, errors.ErrStorageUnavailable.WithErr(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSessionValue(ctx, sess)))

			if err := manager.Persist(ctx, sess); err != nil {
				logger.From(ctx).Error("session persist failed", logger.Err(err))
			}
		})
	}
}
