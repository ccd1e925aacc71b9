// Package google signs players in through Google's OIDC authorization code
// flow. Google is not asked to echo a nonce in the ID token; the challenge
// rides in the state parameter instead and is checked before the code
// exchange, so a replayed callback never costs a round trip to Google.
package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/lanahead/lanahead/internal/auth/providers"
	"github.com/lanahead/lanahead/internal/session"
)

const (
	defaultAuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultTokenURL = "https://oauth2.googleapis.com/token"

	scope = "openid email profile"
)

// Provider authenticates against Google.
type Provider struct {
	clientID     string
	clientSecret string
	baseURL      string
	client       *http.Client

	// AuthURL and TokenURL default to Google's published endpoints.
	AuthURL  string
	TokenURL string
}

// New builds a Google provider. baseURL is this site's external base URL,
// used to derive the callback.
func New(clientID, clientSecret, baseURL string, client *http.Client) *Provider {
	if client == nil {
		client = providers.NewHTTPClient()
	}
	return &Provider{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      baseURL,
		client:       client,
		AuthURL:      defaultAuthURL,
		TokenURL:     defaultTokenURL,
	}
}

func (p *Provider) Site() providers.Site {
	s, _ := providers.FindSite("google")
	return s
}

// BuildSignInURL constructs the Google authorization URL with a fresh nonce
// folded into the state parameter.
func (p *Provider) BuildSignInURL(sess *session.Session, remember bool, returnHash string) (string, error) {
	nonce, err := sess.GenerateNonce("google")
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("client_id", p.clientID)
	q.Set("redirect_uri", providers.RedirectURL(p.baseURL, "google"))
	q.Set("response_type", "code")
	q.Set("scope", scope)
	q.Set("state", providers.BuildState(remember, returnHash, nonce))
	return p.AuthURL + "?" + q.Encode(), nil
}

// Authenticate validates the state nonce, exchanges the callback code for an
// ID token and maps the token claims into a Result. The account has no
// public page at Google, so the profile link is a mailto to the account's
// address and the username is the address's local part.
func (p *Provider) Authenticate(ctx context.Context, sess *session.Session, callback url.Values) (*providers.Result, error) {
	code := callback.Get("code")
	if code == "" {
		return nil, providers.NewAuthError("google: callback did not include a code")
	}
	remember, returnHash, nonce := providers.ParseState(callback.Get("state"))
	if !sess.ValidateNonce(nonce, "google") {
		return nil, providers.NewAuthError("google: nonce check failed")
	}

	form := url.Values{}
	form.Set("client_id", p.clientID)
	form.Set("client_secret", p.clientSecret)
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", providers.RedirectURL(p.baseURL, "google"))

	body, err := providers.PostForm(ctx, p.client, p.TokenURL, form)
	if err != nil {
		return nil, providers.WrapAuthError(err, "google: code exchange failed")
	}

	var tok struct {
		IDToken string `json:"id_token"`
	}
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, providers.WrapAuthError(err, "google: token response is not JSON")
	}
	if tok.IDToken == "" {
		return nil, providers.NewAuthError("google: token response did not include an ID token")
	}

	idClaims, err := providers.DecodeIDToken(tok.IDToken)
	if err != nil {
		return nil, providers.WrapAuthError(err, "google: could not decode ID token")
	}
	accountID := providers.StringClaim(idClaims, "sub")
	if accountID == "" {
		return nil, providers.NewAuthError("google: ID token did not include a subject")
	}

	email := providers.StringClaim(idClaims, "email")
	res := &providers.Result{
		Remember:   remember,
		ReturnHash: returnHash,
		AccountID:  accountID,
		Email:      email,
		RealName:   providers.StringClaim(idClaims, "name"),
		AvatarURL:  providers.StringClaim(idClaims, "picture"),
	}
	if email != "" {
		res.ProfileURL = "mailto:" + email
		res.Username = email
		if i := strings.IndexByte(email, '@'); i > 0 {
			res.Username = email[:i]
		}
	}
	return res, nil
}
