package auth

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/lanahead/lanahead/internal/domain/repository"
	"github.com/lanahead/lanahead/internal/observability/logger"
	"github.com/lanahead/lanahead/internal/security/token"
)

const (
	// seriesBytes sizes the per-device series identifier.
	seriesBytes = 12
	// secretBytes sizes the rotating token secret.
	secretBytes = 32
)

// RememberConfig carries the remember-me cookie settings.
type RememberConfig struct {
	CookieName string
	Path       string
	Secure     bool
	TTL        time.Duration

	// Observe, when set, is called once per verification attempt that
	// actually carried a cookie, with the outcome.
	Observe func(verified bool)
}

// Remember issues and verifies auto sign-in cookies. Each cookie is
// "series:token": the series is a stable per-device identifier and the token
// a one-use secret rotated on every successful verification. Only the
// token's SHA-512 hash is stored, so a database leak does not yield working
// cookies, and a replayed old token burns the whole series.
type Remember struct {
	repo repository.RememberTokenRepository
	cfg  RememberConfig
}

// NewRemember builds the remember-me cookie manager.
func NewRemember(repo repository.RememberTokenRepository, cfg RememberConfig) *Remember {
	if cfg.CookieName == "" {
		cfg.CookieName = "player"
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * 24 * time.Hour
	}
	return &Remember{repo: repo, cfg: cfg}
}

// Issue starts a new series for a player and sets the cookie. The series is
// regenerated until it is unique.
func (rm *Remember) Issue(ctx context.Context, w http.ResponseWriter, playerID int64) error {
	var series string
	for {
		s, err := token.GenerateBase64(seriesBytes)
		if err != nil {
			return err
		}
		taken, err := rm.repo.Exists(ctx, s)
		if err != nil {
			return err
		}
		if !taken {
			series = s
			break
		}
	}
	return rm.issueToken(ctx, w, playerID, series)
}

// Verify checks the request's remember-me cookie and returns the player it
// belongs to. A matching unexpired token is rotated in place; an expired or
// mismatched one deletes the whole series, since a mismatch on a known
// series means the cookie was stolen and already spent. The cookie is
// cleared whenever verification fails.
func (rm *Remember) Verify(ctx context.Context, w http.ResponseWriter, r *http.Request) (int64, bool) {
	cookie, err := r.Cookie(rm.cfg.CookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return 0, false
	}
	log := logger.From(ctx)

	series, encSecret, ok := strings.Cut(strings.TrimSpace(cookie.Value), ":")
	if !ok {
		rm.clearCookie(w)
		return rm.rejected()
	}
	secret, err := base64.StdEncoding.DecodeString(encSecret)
	if err != nil {
		rm.clearCookie(w)
		return rm.rejected()
	}

	stored, err := rm.repo.Get(ctx, series)
	if err != nil {
		if !repository.IsNotFound(err) {
			log.Warn("remember-me lookup failed", logger.Series(series), logger.Err(err))
		}
		rm.clearCookie(w)
		return rm.rejected()
	}

	if time.Now().After(stored.Expires) || token.SHA512Base64(secret) != stored.TokenHash {
		if err := rm.repo.Delete(ctx, series); err != nil {
			log.Warn("remember-me series delete failed", logger.Series(series), logger.Err(err))
		}
		rm.clearCookie(w)
		return rm.rejected()
	}

	// A successful sign-in burns the token; mint the next one on the spot.
	if err := rm.issueToken(ctx, w, stored.PlayerID, series); err != nil {
		log.Warn("remember-me rotation failed", logger.Series(series), logger.Err(err))
		rm.clearCookie(w)
		return rm.rejected()
	}
	if rm.cfg.Observe != nil {
		rm.cfg.Observe(true)
	}
	return stored.PlayerID, true
}

func (rm *Remember) rejected() (int64, bool) {
	if rm.cfg.Observe != nil {
		rm.cfg.Observe(false)
	}
	return 0, false
}

// Forget drops the request's remember-me series from both the store and the
// browser. Safe to call when no cookie is present.
func (rm *Remember) Forget(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(rm.cfg.CookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return
	}
	if series, _, ok := strings.Cut(strings.TrimSpace(cookie.Value), ":"); ok {
		if err := rm.repo.Delete(ctx, series); err != nil {
			logger.From(ctx).Warn("remember-me series delete failed", logger.Series(series), logger.Err(err))
		}
	}
	rm.clearCookie(w)
}

func (rm *Remember) issueToken(ctx context.Context, w http.ResponseWriter, playerID int64, series string) error {
	secret, err := token.GenerateBytes(secretBytes)
	if err != nil {
		return err
	}
	err = rm.repo.Save(ctx, repository.RememberToken{
		Series:    series,
		TokenHash: token.SHA512Base64(secret),
		Expires:   time.Now().Add(rm.cfg.TTL),
		PlayerID:  playerID,
	})
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     rm.cfg.CookieName,
		Value:    series + ":" + base64.StdEncoding.EncodeToString(secret),
		Path:     rm.cfg.Path,
		MaxAge:   int(rm.cfg.TTL / time.Second),
		Secure:   rm.cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (rm *Remember) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     rm.cfg.CookieName,
		Value:    "",
		Path:     rm.cfg.Path,
		MaxAge:   -1,
		Secure:   rm.cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
