// Package steam signs players in through Steam's OpenID 2.0 endpoint. Steam
// predates OIDC: the callback is an indirect assertion that must be echoed
// back to Steam in check_authentication mode, and the nonce travels inside
// our own return_to query string since the protocol carries no client state.
package steam

import (
	"context"
	"encoding/xml"
	"net/http"
	"net/url"
	"strings"

	"github.com/lanahead/lanahead/internal/auth/providers"
	"github.com/lanahead/lanahead/internal/session"
)

const (
	// openIDNamespace is the OpenID 2.0 protocol identifier.
	openIDNamespace = "http://specs.openid.net/auth/2.0"
	// identifierSelect lets Steam choose the claimed identifier.
	identifierSelect = openIDNamespace + "/identifier_select"

	defaultLoginURL     = "https://steamcommunity.com/openid/login"
	defaultCommunityURL = "https://steamcommunity.com"
)

// Provider authenticates against Steam.
type Provider struct {
	baseURL string
	client  *http.Client

	// LoginURL is the OpenID endpoint; CommunityURL serves profile pages
	// and the XML profile feed. Both default to steamcommunity.com.
	LoginURL     string
	CommunityURL string
}

// New builds a Steam provider. baseURL is this site's external base URL,
// used to derive the callback. Steam issues no client credentials.
func New(baseURL string, client *http.Client) *Provider {
	if client == nil {
		client = providers.NewHTTPClient()
	}
	return &Provider{
		baseURL:      baseURL,
		client:       client,
		LoginURL:     defaultLoginURL,
		CommunityURL: defaultCommunityURL,
	}
}

func (p *Provider) Site() providers.Site {
	s, _ := providers.FindSite("steam")
	return s
}

// BuildSignInURL constructs the Steam checkid_setup URL. The fresh nonce and
// the remember/returnHash state ride in the return_to query string, which
// Steam signs into the assertion.
func (p *Provider) BuildSignInURL(sess *session.Session, remember bool, returnHash string) (string, error) {
	nonce, err := sess.GenerateNonce("steam")
	if err != nil {
		return "", err
	}
	returnTo := providers.RedirectURL(p.baseURL, "steam") + "?" + providers.BuildState(remember, returnHash, nonce)

	q := url.Values{}
	q.Set("openid.ns", openIDNamespace)
	q.Set("openid.mode", "checkid_setup")
	q.Set("openid.return_to", returnTo)
	q.Set("openid.realm", strings.TrimRight(p.baseURL, "/")+"/")
	q.Set("openid.identity", identifierSelect)
	q.Set("openid.claimed_id", identifierSelect)
	return p.LoginURL + "?" + q.Encode(), nil
}

// Authenticate validates the indirect assertion Steam redirected back with.
// The nonce from return_to is checked first, then the signed fields are
// echoed to Steam in check_authentication mode. On success the player's
// public profile feed fills in username and avatar; when that fetch fails
// the sign-in still succeeds with the identity alone.
func (p *Provider) Authenticate(ctx context.Context, sess *session.Session, callback url.Values) (*providers.Result, error) {
	remember, returnHash, nonce := providers.ParseState(callback.Encode())
	if !sess.ValidateNonce(nonce, "steam") {
		return nil, providers.NewAuthError("steam: nonce check failed")
	}
	if callback.Get("openid.mode") != "id_res" {
		return nil, providers.NewAuthError("steam: callback is not a positive assertion")
	}

	steamID, err := steamIDFromClaimedID(callback.Get("openid.claimed_id"))
	if err != nil {
		return nil, err
	}
	if err := p.checkAuthentication(ctx, callback); err != nil {
		return nil, err
	}

	res := &providers.Result{
		Remember:   remember,
		ReturnHash: returnHash,
		AccountID:  steamID,
		ProfileURL: p.CommunityURL + "/profiles/" + steamID,
	}
	p.fillProfile(ctx, steamID, res)
	return res, nil
}

// checkAuthentication echoes the signed assertion fields back to Steam and
// requires an is_valid:true verdict.
func (p *Provider) checkAuthentication(ctx context.Context, callback url.Values) error {
	signed := callback.Get("openid.signed")
	if signed == "" || callback.Get("openid.sig") == "" {
		return providers.NewAuthError("steam: assertion is not signed")
	}

	form := url.Values{}
	form.Set("openid.ns", openIDNamespace)
	form.Set("openid.mode", "check_authentication")
	form.Set("openid.assoc_handle", callback.Get("openid.assoc_handle"))
	form.Set("openid.signed", signed)
	form.Set("openid.sig", callback.Get("openid.sig"))
	for _, field := range strings.Split(signed, ",") {
		if field == "mode" {
			continue
		}
		form.Set("openid."+field, callback.Get("openid."+field))
	}

	body, err := providers.PostForm(ctx, p.client, p.LoginURL, form)
	if err != nil {
		return providers.WrapAuthError(err, "steam: check_authentication failed")
	}

	fields := parseKeyValue(string(body))
	if fields["ns"] != openIDNamespace {
		return providers.NewAuthError("steam: check_authentication response has the wrong namespace")
	}
	if fields["is_valid"] != "true" {
		return providers.NewAuthError("steam: assertion did not verify")
	}
	return nil
}

// fillProfile fetches the public XML profile feed. Failures are swallowed:
// the feed is a nicety, not part of authentication.
func (p *Provider) fillProfile(ctx context.Context, steamID string, res *providers.Result) {
	body, err := providers.Get(ctx, p.client, p.CommunityURL+"/profiles/"+steamID+"/?xml=1")
	if err != nil {
		return
	}
	var profile struct {
		SteamID      string `xml:"steamID"`
		CustomURL    string `xml:"customURL"`
		AvatarMedium string `xml:"avatarMedium"`
	}
	if err := xml.Unmarshal(body, &profile); err != nil {
		return
	}
	res.Username = profile.SteamID
	res.AvatarURL = profile.AvatarMedium
	if profile.CustomURL != "" {
		res.ProfileURL = p.CommunityURL + "/id/" + profile.CustomURL
	}
}

// steamIDFromClaimedID extracts the SteamID64 from a claimed identifier of
// the form https://steamcommunity.com/openid/id/<id64>.
func steamIDFromClaimedID(claimedID string) (string, error) {
	i := strings.LastIndexByte(claimedID, '/')
	if i < 0 || i == len(claimedID)-1 {
		return "", providers.NewAuthError("steam: claimed_id does not carry a Steam ID")
	}
	id := claimedID[i+1:]
	for _, r := range id {
		if r < '0' || r > '9' {
			return "", providers.NewAuthError("steam: claimed_id does not carry a Steam ID")
		}
	}
	return id, nil
}

// parseKeyValue parses an OpenID key-value response, one colon-separated
// pair per line.
func parseKeyValue(body string) map[string]string {
	fields := map[string]string{}
	for _, line := range strings.Split(body, "\n") {
		k, v, ok := strings.Cut(strings.TrimSpace(line), ":")
		if ok {
			fields[k] = v
		}
	}
	return fields
}
