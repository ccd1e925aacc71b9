package twitch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
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
	p := New("cid", "secret", "https://lanahead.example", nil)
	sess := &session.Session{}

	raw, err := p.BuildSignInURL(sess, true, "#lobby")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()

	assert.Equal(t, "cid", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "openid user:read:email", q.Get("scope"))
	assert.Equal(t, "https://lanahead.example/signin-twitch", q.Get("redirect_uri"))
	assert.Equal(t, sess.Nonce, q.Get("nonce"))
	assert.Equal(t, "twitch", sess.NonceSite)
	assert.NotEmpty(t, sess.Nonce)

	remember, returnHash, _ := providers.ParseState(q.Get("state"))
	assert.True(t, remember)
	assert.Equal(t, "#lobby", returnHash)

	var claimReq map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(q.Get("claims")), &claimReq))
	assert.Contains(t, claimReq["id_token"], "email")
	assert.Contains(t, claimReq["id_token"], "preferred_username")
}

func TestAuthenticate(t *testing.T) {
	sess := &session.Session{}
	p := New("cid", "secret", "https://lanahead.example", nil)
	_, err := p.BuildSignInURL(sess, false, "")
	require.NoError(t, err)

	token := unsignedToken(t, map[string]any{
		"sub":                "4477",
		"nonce":              sess.Nonce,
		"email":              "gamer@example.org",
		"picture":            "https://static.twitch.example/gamer.png",
		"preferred_username": "gamer",
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "abc123", r.PostForm.Get("code"))
		assert.Equal(t, "cid", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id_token": token})
	}))
	defer srv.Close()
	p.TokenURL = srv.URL

	callback := url.Values{}
	callback.Set("code", "abc123")
	callback.Set("state", providers.BuildState(true, "#lobby", ""))

	res, err := p.Authenticate(context.Background(), sess, callback)
	require.NoError(t, err)
	assert.Equal(t, "4477", res.AccountID)
	assert.Equal(t, "gamer@example.org", res.Email)
	assert.Equal(t, "gamer", res.Username)
	assert.Equal(t, "https://static.twitch.example/gamer.png", res.AvatarURL)
	assert.Equal(t, "https://www.twitch.tv/gamer", res.ProfileURL)
	assert.True(t, res.Remember)
	assert.Equal(t, "#lobby", res.ReturnHash)

	// Nonce is single use.
	assert.Empty(t, sess.Nonce)
}

func TestAuthenticate_MissingCode(t *testing.T) {
	p := New("cid", "secret", "https://lanahead.example", nil)
	_, err := p.Authenticate(context.Background(), &session.Session{}, url.Values{})
	require.Error(t, err)
	assert.True(t, providers.IsAuthError(err))
}

func TestAuthenticate_WrongNonce(t *testing.T) {
	sess := &session.Session{}
	p := New("cid", "secret", "https://lanahead.example", nil)
	_, err := p.BuildSignInURL(sess, false, "")
	require.NoError(t, err)

	token := unsignedToken(t, map[string]any{"sub": "4477", "nonce": "stale"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id_token": token})
	}))
	defer srv.Close()
	p.TokenURL = srv.URL

	callback := url.Values{}
	callback.Set("code", "abc123")
	_, err = p.Authenticate(context.Background(), sess, callback)
	require.Error(t, err)
	assert.True(t, providers.IsAuthError(err))
}

func TestAuthenticate_ExchangeRefused(t *testing.T) {
	sess := &session.Session{}
	p := New("cid", "secret", "https://lanahead.example", nil)
	_, err := p.BuildSignInURL(sess, false, "")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid code"}`, http.StatusBadRequest)
	}))
	defer srv.Close()
	p.TokenURL = srv.URL

	callback := url.Values{}
	callback.Set("code", "expired")
	_, err = p.Authenticate(context.Background(), sess, callback)
	require.Error(t, err)
	assert.True(t, providers.IsAuthError(err))
}
