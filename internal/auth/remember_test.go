package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRemember(store *fakeStore) *Remember {
	return NewRemember(store.RememberTokens(), RememberConfig{
		CookieName: "player",
		TTL:        30 * 24 * time.Hour,
	})
}

// issuedCookie extracts the remember-me cookie a handler set.
func issuedCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "player" {
			return c
		}
	}
	t.Fatal("no remember-me cookie set")
	return nil
}

func requestWithCookie(c *http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	return r
}

func TestRemember_IssueAndVerify(t *testing.T) {
	store := newFakeStore()
	rm := newTestRemember(store)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	require.NoError(t, rm.Issue(ctx, rec, 7))
	cookie := issuedCookie(t, rec)
	require.True(t, cookie.HttpOnly)

	series, _, ok := strings.Cut(cookie.Value, ":")
	require.True(t, ok, "cookie value should be series:token")
	stored, err := store.RememberTokens().Get(ctx, series)
	require.NoError(t, err)
	assert.Equal(t, int64(7), stored.PlayerID)
	assert.NotContains(t, cookie.Value, stored.TokenHash, "raw secret must not equal stored hash")

	rec2 := httptest.NewRecorder()
	playerID, ok := rm.Verify(ctx, rec2, requestWithCookie(cookie))
	require.True(t, ok)
	assert.Equal(t, int64(7), playerID)
}

func TestRemember_VerifyRotatesToken(t *testing.T) {
	store := newFakeStore()
	rm := newTestRemember(store)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	require.NoError(t, rm.Issue(ctx, rec, 7))
	first := issuedCookie(t, rec)

	rec2 := httptest.NewRecorder()
	_, ok := rm.Verify(ctx, rec2, requestWithCookie(first))
	require.True(t, ok)
	second := issuedCookie(t, rec2)

	firstSeries, _, _ := strings.Cut(first.Value, ":")
	secondSeries, _, _ := strings.Cut(second.Value, ":")
	assert.Equal(t, firstSeries, secondSeries, "series survives rotation")
	assert.NotEqual(t, first.Value, second.Value, "secret must rotate")

	// The spent secret no longer verifies, and trying it burns the series.
	rec3 := httptest.NewRecorder()
	_, ok = rm.Verify(ctx, rec3, requestWithCookie(first))
	assert.False(t, ok)
	_, err := store.RememberTokens().Get(ctx, firstSeries)
	assert.Error(t, err, "replay deletes the series")

	// Even the current cookie is dead now.
	rec4 := httptest.NewRecorder()
	_, ok = rm.Verify(ctx, rec4, requestWithCookie(second))
	assert.False(t, ok)
}

func TestRemember_VerifyExpired(t *testing.T) {
	store := newFakeStore()
	rm := newTestRemember(store)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	require.NoError(t, rm.Issue(ctx, rec, 7))
	cookie := issuedCookie(t, rec)
	series, _, _ := strings.Cut(cookie.Value, ":")
	require.NoError(t, store.expireSeries(series))

	rec2 := httptest.NewRecorder()
	_, ok := rm.Verify(ctx, rec2, requestWithCookie(cookie))
	assert.False(t, ok)
	_, err := store.RememberTokens().Get(ctx, series)
	assert.Error(t, err, "expired series is deleted")
	assert.Equal(t, -1, issuedCookie(t, rec2).MaxAge, "cookie is cleared")
}

func TestRemember_VerifyGarbage(t *testing.T) {
	store := newFakeStore()
	rm := newTestRemember(store)
	ctx := context.Background()

	for _, value := range []string{"no-separator", "unknown:QUJD", "series:!!not-base64!!"} {
		rec := httptest.NewRecorder()
		_, ok := rm.Verify(ctx, rec, requestWithCookie(&http.Cookie{Name: "player", Value: value}))
		assert.False(t, ok, value)
	}

	// No cookie at all is a quiet miss.
	rec := httptest.NewRecorder()
	_, ok := rm.Verify(ctx, rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
	assert.Empty(t, rec.Result().Cookies())
}

func TestRemember_Forget(t *testing.T) {
	store := newFakeStore()
	rm := newTestRemember(store)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	require.NoError(t, rm.Issue(ctx, rec, 7))
	cookie := issuedCookie(t, rec)
	series, _, _ := strings.Cut(cookie.Value, ":")

	rec2 := httptest.NewRecorder()
	rm.Forget(ctx, rec2, requestWithCookie(cookie))
	_, err := store.RememberTokens().Get(ctx, series)
	assert.Error(t, err)
	assert.Equal(t, -1, issuedCookie(t, rec2).MaxAge)

	// Without a cookie Forget is a no-op.
	rec3 := httptest.NewRecorder()
	rm.Forget(ctx, rec3, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, rec3.Result().Cookies())
}
