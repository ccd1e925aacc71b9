package google

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanahead/lanahead/internal/auth/providers"
	"github.com/lanahead/lanahead/internal/session"
)

func unsignedToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	enc := func(v any) string {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		return base64.RawURLEncoding.EncodeToString(b)
	}
	header := map[string]any{"alg": "none", "typ": "JWT"}
	return enc(header) + "." + enc(claims) + "."
}

func TestBuildSignInURL(t *testing.T) {
	p := New("cid", "secret", "https://lanahead.example/", nil)
	sess := &session.Session{}

	raw, err := p.BuildSignInURL(sess, false, "#settings")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()

	assert.Equal(t, "cid", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "openid email profile", q.Get("scope"))
	assert.Equal(t, "https://lanahead.example/signin-google", q.Get("redirect_uri"))
	assert.Equal(t, "google", sess.NonceSite)

	remember, returnHash, nonce := providers.ParseState(q.Get("state"))
	assert.False(t, remember)
	assert.Equal(t, "#settings", returnHash)
	assert.Equal(t, sess.Nonce, nonce)
	assert.NotEmpty(t, nonce)
}

func TestAuthenticate(t *testing.T) {
	sess := &session.Session{}
	p := New("cid", "secret", "https://lanahead.example", nil)
	raw, err := p.BuildSignInURL(sess, true, "")
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	state := u.Query().Get("state")

	token := unsignedToken(t, map[string]any{
		"sub":     "109871234509876",
		"email":   "gamer@example.org",
		"name":    "Gamer Person",
		"picture": "https://lh3.google.example/gamer=s96",
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "code-1", r.PostForm.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id_token": token})
	}))
	defer srv.Close()
	p.TokenURL = srv.URL

	callback := url.Values{}
	callback.Set("code", "code-1")
	callback.Set("state", state)

	res, err := p.Authenticate(context.Background(), sess, callback)
	require.NoError(t, err)
	assert.Equal(t, "109871234509876", res.AccountID)
	assert.Equal(t, "gamer@example.org", res.Email)
	assert.Equal(t, "gamer", res.Username)
	assert.Equal(t, "Gamer Person", res.RealName)
	assert.Equal(t, "mailto:gamer@example.org", res.ProfileURL)
	assert.True(t, res.Remember)
}

func TestAuthenticate_NonceCheckedBeforeExchange(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	sess := &session.Session{}
	p := New("cid", "secret", "https://lanahead.example", nil)
	p.TokenURL = srv.URL
	_, err := p.BuildSignInURL(sess, false, "")
	require.NoError(t, err)

	callback := url.Values{}
	callback.Set("code", "code-1")
	callback.Set("state", providers.BuildState(false, "", "forged"))

	_, err = p.Authenticate(context.Background(), sess, callback)
	require.Error(t, err)
	assert.True(t, providers.IsAuthError(err))
	assert.Zero(t, calls.Load())
}

func TestAuthenticate_NonceSingleUse(t *testing.T) {
	sess := &session.Session{}
	p := New("cid", "secret", "https://lanahead.example", nil)
	raw, err := p.BuildSignInURL(sess, false, "")
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	state := u.Query().Get("state")

	token := unsignedToken(t, map[string]any{"sub": "42", "email": "a@example.org"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id_token": token})
	}))
	defer srv.Close()
	p.TokenURL = srv.URL

	callback := url.Values{}
	callback.Set("code", "code-1")
	callback.Set("state", state)

	_, err = p.Authenticate(context.Background(), sess, callback)
	require.NoError(t, err)

	// Replaying the same callback fails the nonce check.
	_, err = p.Authenticate(context.Background(), sess, callback)
	require.Error(t, err)
	assert.True(t, providers.IsAuthError(err))
}
