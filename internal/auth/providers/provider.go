// Package providers defines the external sign-in site adapters.
//
// The set of sites is fixed and enumerated (Twitch, Google, Steam); each has
// an implementation sub-package translating its protocol (OAuth2/OIDC code
// exchange, or OpenID 2.0 indirect assertion) into a uniform Result. The
// adapters never touch storage; they only consume callback parameters and
// the session's nonce state.
package providers

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lanahead/lanahead/internal/session"
)

// Site identifies one external sign-in site.
type Site struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Sites is the closed set of supported sign-in sites, in display order.
var Sites = []Site{
	{ID: "twitch", Name: "Twitch"},
	{ID: "google", Name: "Google"},
	{ID: "steam", Name: "Steam"},
}

// FindSite looks up site information by ID, case-insensitive.
func FindSite(id string) (Site, bool) {
	id = strings.ToLower(id)
	for _, s := range Sites {
		if s.ID == id {
			return s, true
		}
	}
	return Site{}, false
}

// Result is the uniform outcome of a successful authentication at any site.
type Result struct {
	// Remember reports whether the user asked for an auto sign-in cookie.
	Remember bool
	// ReturnHash is the location hash to return to after sign-in, starting
	// with '#', or empty.
	ReturnHash string

	// AccountID is the identity at the external site.
	AccountID string

	Email      string
	Username   string
	RealName   string
	AvatarURL  string
	ProfileURL string
}

// Provider is the capability set every sign-in site adapter implements.
type Provider interface {
	// Site returns the adapter's site information.
	Site() Site

	// BuildSignInURL constructs the external authorization URL, minting a
	// nonce into sess where the site's protocol supports replay protection.
	BuildSignInURL(sess *session.Session, remember bool, returnHash string) (string, error)

	// Authenticate consumes the callback parameters the external site sent
	// back. Every failure, from missing fields to a nonce mismatch to
	// network trouble, is reported as an *AuthError.
	Authenticate(ctx context.Context, sess *session.Session, callback url.Values) (*Result, error)
}

// SignInPath is the path prefix external sites redirect back to, with the
// site ID appended.
const SignInPath = "/signin-"

// RedirectURL builds the callback URL for a site.
func RedirectURL(baseURL, siteID string) string {
	return strings.TrimRight(baseURL, "/") + SignInPath + siteID
}

// NewHTTPClient returns the outbound client used to talk to identity
// providers. Both connect and total are bounded at 30 seconds.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// CleanReturnHash keeps only hashes that actually address a location.
func CleanReturnHash(h string) string {
	if strings.HasPrefix(h, "#") && h != "#" {
		return h
	}
	return ""
}
