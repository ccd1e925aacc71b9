package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lanahead/lanahead/internal/cache"
)

func TestNonce_SingleUse(t *testing.T) {
	var s Session
	nonce, err := s.GenerateNonce("twitch")
	require.NoError(t, err)
	require.Len(t, nonce, 32) // 16 bytes hex

	require.True(t, s.ValidateNonce(nonce, "twitch"))
	// cleared on first validation, success or not
	require.False(t, s.ValidateNonce(nonce, "twitch"))
}

func TestNonce_ClearedEvenOnFailure(t *testing.T) {
	var s Session
	nonce, err := s.GenerateNonce("twitch")
	require.NoError(t, err)

	require.False(t, s.ValidateNonce("wrong-value", "twitch"))
	// the real value no longer works either
	require.False(t, s.ValidateNonce(nonce, "twitch"))
}

func TestNonce_BoundToSite(t *testing.T) {
	var s Session
	nonce, err := s.GenerateNonce("google")
	require.NoError(t, err)

	// same raw value, wrong site
	require.False(t, s.ValidateNonce(nonce, "steam"))
}

func TestNonce_OverwritesAcrossSites(t *testing.T) {
	var s Session
	first, err := s.GenerateNonce("twitch")
	require.NoError(t, err)
	second, err := s.GenerateNonce("steam")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	require.False(t, s.ValidateNonce(first, "twitch"))
	// the failed check above consumed the outstanding nonce
	require.False(t, s.ValidateNonce(second, "steam"))
}

func TestPending_SiteMismatchDiscards(t *testing.T) {
	var s Session
	s.CachePending(PendingRegistration{Site: "twitch", AccountID: "123"})
	s.CachePending(PendingRegistration{Site: "steam", AccountID: "456"})

	// twitch's slot was overwritten by steam's
	_, ok := s.TakePending("twitch")
	require.False(t, ok)
	// and the mismatched take cleared the slot entirely
	_, ok = s.TakePending("steam")
	require.False(t, ok)
}

func TestPending_TakeConsumes(t *testing.T) {
	var s Session
	s.CachePending(PendingRegistration{Site: "twitch", AccountID: "123", Remember: true})

	p, ok := s.TakePending("twitch")
	require.True(t, ok)
	require.Equal(t, "123", p.AccountID)
	require.True(t, p.Remember)

	_, ok = s.TakePending("twitch")
	require.False(t, ok)
}

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager(cache.NewMemory("", 0), Config{TTL: time.Minute})
	ctx := context.Background()

	// fresh session for a cookieless request
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	s, err := m.Load(ctx, r)
	require.NoError(t, err)
	require.NotEmpty(t, s.ID)
	require.Zero(t, s.PlayerID)

	s.PlayerID = 42
	w := httptest.NewRecorder()
	require.NoError(t, m.Save(ctx, w, s))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, m.CookieName(), cookies[0].Name)
	require.True(t, cookies[0].HttpOnly)

	// next request with the cookie sees the same state
	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.AddCookie(cookies[0])
	s2, err := m.Load(ctx, r2)
	require.NoError(t, err)
	require.Equal(t, int64(42), s2.PlayerID)
}

func TestManager_DestroyForgets(t *testing.T) {
	m := NewManager(cache.NewMemory("", 0), Config{TTL: time.Minute})
	ctx := context.Background()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	s, err := m.Load(ctx, r)
	require.NoError(t, err)
	s.PlayerID = 7

	w := httptest.NewRecorder()
	require.NoError(t, m.Save(ctx, w, s))
	cookie := w.Result().Cookies()[0]

	w2 := httptest.NewRecorder()
	require.NoError(t, m.Destroy(ctx, w2, s))

	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.AddCookie(cookie)
	s2, err := m.Load(ctx, r2)
	require.NoError(t, err)
	require.Zero(t, s2.PlayerID)
	require.NotEqual(t, s.ID, s2.ID)
}
