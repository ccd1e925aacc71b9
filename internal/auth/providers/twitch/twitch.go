// Package twitch signs players in through Twitch's OIDC authorization code
// flow. The nonce travels inside the ID token, so replay protection rides on
// the token itself rather than on the state parameter.
package twitch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/lanahead/lanahead/internal/auth/providers"
	"github.com/lanahead/lanahead/internal/session"
)

const (
	defaultAuthURL  = "https://id.twitch.tv/oauth2/authorize"
	defaultTokenURL = "https://id.twitch.tv/oauth2/token"

	// scope asks for an ID token plus the e-mail read grant.
	scope = "openid user:read:email"
)

// claims requests the ID token fields we consume. Twitch only includes
// e-mail, picture and preferred_username when asked for explicitly.
var claims = map[string]map[string]any{
	"id_token": {
		"email":              nil,
		"picture":            nil,
		"preferred_username": nil,
	},
}

// Provider authenticates against Twitch.
type Provider struct {
	clientID     string
	clientSecret string
	baseURL      string
	client       *http.Client

	// AuthURL and TokenURL default to Twitch's published endpoints.
	AuthURL  string
	TokenURL string
}

// New builds a Twitch provider. baseURL is this site's external base URL,
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
	s, _ := providers.FindSite("twitch")
	return s
}

// BuildSignInURL constructs the Twitch authorization URL. A fresh nonce is
// minted into sess and carried as a request parameter; Twitch echoes it
// inside the ID token.
func (p *Provider) BuildSignInURL(sess *session.Session, remember bool, returnHash string) (string, error) {
	nonce, err := sess.GenerateNonce("twitch")
	if err != nil {
		return "", err
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("claims", string(claimsJSON))
	q.Set("client_id", p.clientID)
	q.Set("nonce", nonce)
	q.Set("redirect_uri", providers.RedirectURL(p.baseURL, "twitch"))
	q.Set("response_type", "code")
	q.Set("scope", scope)
	q.Set("state", providers.BuildState(remember, returnHash, ""))
	return p.AuthURL + "?" + q.Encode(), nil
}

// Authenticate exchanges the callback code for an ID token, validates the
// nonce claim against the session and maps the token claims into a Result.
func (p *Provider) Authenticate(ctx context.Context, sess *session.Session, callback url.Values) (*providers.Result, error) {
	code := callback.Get("code")
	if code == "" {
		return nil, providers.NewAuthError("twitch: callback did not include a code")
	}
	remember, returnHash, _ := providers.ParseState(callback.Get("state"))

	form := url.Values{}
	form.Set("client_id", p.clientID)
	form.Set("client_secret", p.clientSecret)
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", providers.RedirectURL(p.baseURL, "twitch"))

	body, err := providers.PostForm(ctx, p.client, p.TokenURL, form)
	if err != nil {
		return nil, providers.WrapAuthError(err, "twitch: code exchange failed")
	}

	var tok struct {
		IDToken string `json:"id_token"`
	}
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, providers.WrapAuthError(err, "twitch: token response is not JSON")
	}
	if tok.IDToken == "" {
		return nil, providers.NewAuthError("twitch: token response did not include an ID token")
	}

	idClaims, err := providers.DecodeIDToken(tok.IDToken)
	if err != nil {
		return nil, providers.WrapAuthError(err, "twitch: could not decode ID token")
	}
	if !sess.ValidateNonce(providers.StringClaim(idClaims, "nonce"), "twitch") {
		return nil, providers.NewAuthError("twitch: nonce check failed")
	}
	accountID := providers.StringClaim(idClaims, "sub")
	if accountID == "" {
		return nil, providers.NewAuthError("twitch: ID token did not include a subject")
	}

	username := providers.StringClaim(idClaims, "preferred_username")
	res := &providers.Result{
		Remember:   remember,
		ReturnHash: returnHash,
		AccountID:  accountID,
		Email:      providers.StringClaim(idClaims, "email"),
		Username:   username,
		AvatarURL:  providers.StringClaim(idClaims, "picture"),
	}
	if username != "" {
		res.ProfileURL = "https://www.twitch.tv/" + username
	}
	return res, nil
}
