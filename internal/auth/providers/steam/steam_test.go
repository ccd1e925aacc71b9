package steam

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanahead/lanahead/internal/auth/providers"
	"github.com/lanahead/lanahead/internal/session"
)

const testSteamID = "76561197960287930"

func testCallback(t *testing.T, sess *session.Session, p *Provider) url.Values {
	t.Helper()
	raw, err := p.BuildSignInURL(sess, true, "#events")
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)

	returnTo, err := url.Parse(u.Query().Get("openid.return_to"))
	require.NoError(t, err)

	// Steam redirects back to return_to with the assertion appended.
	callback := returnTo.Query()
	callback.Set("openid.ns", "http://specs.openid.net/auth/2.0")
	callback.Set("openid.mode", "id_res")
	callback.Set("openid.claimed_id", "https://steamcommunity.com/openid/id/"+testSteamID)
	callback.Set("openid.identity", "https://steamcommunity.com/openid/id/"+testSteamID)
	callback.Set("openid.return_to", u.Query().Get("openid.return_to"))
	callback.Set("openid.assoc_handle", "1234567890")
	callback.Set("openid.signed", "signed,op_endpoint,claimed_id,identity,return_to,response_nonce,assoc_handle")
	callback.Set("openid.sig", "c2lnbmF0dXJl")
	callback.Set("openid.op_endpoint", "https://steamcommunity.com/openid/login")
	callback.Set("openid.response_nonce", "2026-08-29T10:00:00Zunique")
	return callback
}

func testServer(t *testing.T, isValid bool, profileXML string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/openid/login", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "check_authentication", r.PostForm.Get("openid.mode"))
		assert.Equal(t, "c2lnbmF0dXJl", r.PostForm.Get("openid.sig"))
		assert.Equal(t, "1234567890", r.PostForm.Get("openid.assoc_handle"))
		assert.NotEmpty(t, r.PostForm.Get("openid.response_nonce"))
		fmt.Fprintf(w, "ns:http://specs.openid.net/auth/2.0\nis_valid:%v\n", isValid)
	})
	mux.HandleFunc("/profiles/"+testSteamID+"/", func(w http.ResponseWriter, r *http.Request) {
		if profileXML == "" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/xml")
		fmt.Fprint(w, profileXML)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestBuildSignInURL(t *testing.T) {
	p := New("https://lanahead.example", nil)
	sess := &session.Session{}

	raw, err := p.BuildSignInURL(sess, true, "#events")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()

	assert.Equal(t, "http://specs.openid.net/auth/2.0", q.Get("openid.ns"))
	assert.Equal(t, "checkid_setup", q.Get("openid.mode"))
	assert.Equal(t, "https://lanahead.example/", q.Get("openid.realm"))
	assert.Equal(t, "http://specs.openid.net/auth/2.0/identifier_select", q.Get("openid.identity"))
	assert.Equal(t, "http://specs.openid.net/auth/2.0/identifier_select", q.Get("openid.claimed_id"))

	returnTo, err := url.Parse(q.Get("openid.return_to"))
	require.NoError(t, err)
	assert.Equal(t, "/signin-steam", returnTo.Path)
	_, remember := returnTo.Query()["remember"]
	assert.True(t, remember)
	assert.Equal(t, "#events", returnTo.Query().Get("returnHash"))
	assert.Equal(t, sess.Nonce, returnTo.Query().Get("nonce"))
	assert.Equal(t, "steam", sess.NonceSite)
}

func TestAuthenticate(t *testing.T) {
	profile := `<?xml version="1.0" encoding="UTF-8"?>
<profile>
  <steamID64>` + testSteamID + `</steamID64>
  <steamID><![CDATA[gamer]]></steamID>
  <customURL><![CDATA[gamer-lane]]></customURL>
  <avatarMedium><![CDATA[https://avatars.steam.example/gamer_medium.jpg]]></avatarMedium>
</profile>`
	srv := testServer(t, true, profile)

	p := New("https://lanahead.example", nil)
	p.LoginURL = srv.URL + "/openid/login"
	p.CommunityURL = srv.URL

	sess := &session.Session{}
	callback := testCallback(t, sess, p)

	res, err := p.Authenticate(context.Background(), sess, callback)
	require.NoError(t, err)
	assert.Equal(t, testSteamID, res.AccountID)
	assert.Equal(t, "gamer", res.Username)
	assert.Equal(t, "https://avatars.steam.example/gamer_medium.jpg", res.AvatarURL)
	assert.Equal(t, srv.URL+"/id/gamer-lane", res.ProfileURL)
	assert.Empty(t, res.Email)
	assert.True(t, res.Remember)
	assert.Equal(t, "#events", res.ReturnHash)
}

func TestAuthenticate_ProfileFeedDown(t *testing.T) {
	srv := testServer(t, true, "")

	p := New("https://lanahead.example", nil)
	p.LoginURL = srv.URL + "/openid/login"
	p.CommunityURL = srv.URL

	sess := &session.Session{}
	callback := testCallback(t, sess, p)

	res, err := p.Authenticate(context.Background(), sess, callback)
	require.NoError(t, err)
	assert.Equal(t, testSteamID, res.AccountID)
	assert.Empty(t, res.Username)
	assert.Empty(t, res.AvatarURL)
	assert.Equal(t, srv.URL+"/profiles/"+testSteamID, res.ProfileURL)
}

func TestAuthenticate_InvalidAssertion(t *testing.T) {
	srv := testServer(t, false, "")

	p := New("https://lanahead.example", nil)
	p.LoginURL = srv.URL + "/openid/login"
	p.CommunityURL = srv.URL

	sess := &session.Session{}
	callback := testCallback(t, sess, p)

	_, err := p.Authenticate(context.Background(), sess, callback)
	require.Error(t, err)
	assert.True(t, providers.IsAuthError(err))
}

func TestAuthenticate_WrongNonce(t *testing.T) {
	p := New("https://lanahead.example", nil)

	sess := &session.Session{}
	callback := testCallback(t, sess, p)
	callback.Set("nonce", "forged")

	_, err := p.Authenticate(context.Background(), sess, callback)
	require.Error(t, err)
	assert.True(t, providers.IsAuthError(err))
}

func TestAuthenticate_NegativeAssertion(t *testing.T) {
	p := New("https://lanahead.example", nil)

	sess := &session.Session{}
	callback := testCallback(t, sess, p)
	callback.Set("openid.mode", "cancel")

	_, err := p.Authenticate(context.Background(), sess, callback)
	require.Error(t, err)
	assert.True(t, providers.IsAuthError(err))
}

func TestSteamIDFromClaimedID(t *testing.T) {
	id, err := steamIDFromClaimedID("https://steamcommunity.com/openid/id/" + testSteamID)
	require.NoError(t, err)
	assert.Equal(t, testSteamID, id)

	for _, bad := range []string{"", "https://steamcommunity.com/openid/id/", "https://evil.example/openid/id/not-a-number"} {
		_, err := steamIDFromClaimedID(bad)
		assert.Error(t, err, bad)
	}
}
