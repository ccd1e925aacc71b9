package middlewares

import (
	"context"

	"github.com/lanahead/lanahead/internal/domain/repository"
	"github.com/lanahead/lanahead/internal/session"
)

type ctxKey string

const (
	ctxSessionKey ctxKey = "session"
	ctxPlayerKey  ctxKey = "player"
)

// WithSessionValue injects the browser session into the context.
func WithSessionValue(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, ctxSessionKey, s)
}

// GetSession returns the request's session. Nil when the session middleware
// did not run.
func GetSession(ctx context.Context) *session.Session {
	if v := ctx.Value(ctxSessionKey); v != nil {
		if s, ok := v.(*session.Session); ok {
			return s
		}
	}
	return nil
}

// WithPlayer injects the resolved player into the context.
func WithPlayer(ctx context.Context, p *repository.Player) context.Context {
	return context.WithValue(ctx, ctxPlayerKey, p)
}

// GetPlayer returns the signed-in player, or nil for an anonymous request.
func GetPlayer(ctx context.Context) *repository.Player {
	if v := ctx.Value(ctxPlayerKey); v != nil {
		if p, ok := v.(*repository.Player); ok {
			return p
		}
	}
	return nil
}
