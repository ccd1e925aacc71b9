package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lanahead/lanahead/internal/cache"
	"github.com/lanahead/lanahead/internal/security/token"
)

// Config configures the session manager.
type Config struct {
	CookieName string
	// Path scopes the cookie to the site's install path.
	Path     string
	Secure   bool
	SameSite string // "lax" | "strict" | "none"
	TTL      time.Duration
}

// Manager persists Session records in the cache, addressed by a random
// cookie value.
type Manager struct {
	cache cache.Client
	cfg   Config
}

// NewManager creates a session manager on top of a cache client.
func NewManager(c cache.Client, cfg Config) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = "lanasession"
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &Manager{cache: c, cfg: cfg}
}

// CookieName returns the configured session cookie name.
func (m *Manager) CookieName() string { return m.cfg.CookieName }

// Load reads the session addressed by the request's cookie. A missing cookie
// or an expired record yields a fresh anonymous session with a new ID.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	if ck, err := r.Cookie(m.cfg.CookieName); err == nil && ck.Value != "" {
		b, err := m.cache.Get(ctx, "session:"+ck.Value)
		if err == nil {
			var s Session
			if json.Unmarshal(b, &s) == nil {
				s.ID = ck.Value
				return &s, nil
			}
		} else if !cache.IsNotFound(err) {
			return nil, fmt.Errorf("session: load: %w", err)
		}
	}

	id, err := token.GenerateHex(16)
	if err != nil {
		return nil, fmt.Errorf("session: id: %w", err)
	}
	return &Session{ID: id}, nil
}

// Persist writes the session record to the cache without touching the
// cookie. Middleware calls it after the handler ran, when response headers
// are already out.
func (m *Manager) Persist(ctx context.Context, s *Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := m.cache.Set(ctx, "session:"+s.ID, b, m.cfg.TTL); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

// Save persists the session and refreshes the cookie, sliding the TTL.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if err := m.Persist(ctx, s); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    s.ID,
		Path:     m.cfg.Path,
		MaxAge:   int(m.cfg.TTL / time.Second),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: sameSite(m.cfg.SameSite),
	})
	return nil
}

// Destroy drops the session record and expires the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if err := m.cache.Delete(ctx, "session:"+s.ID); err != nil {
		return fmt.Errorf("session: destroy: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     m.cfg.Path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: sameSite(m.cfg.SameSite),
	})
	return nil
}

func sameSite(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
