// Package session holds the per-browser mutable state: the signed-in player,
// the outstanding sign-in nonce and the pending-registration slot. State is
// an explicit record passed into the auth operations, not ambient globals,
// and is persisted through the cache between requests.
package session

import (
	"github.com/lanahead/lanahead/internal/security/token"
)

// PendingRegistration is an authenticated external account waiting for the
// user to complete local registration.
type PendingRegistration struct {
	Site       string `json:"site"`
	AccountID  string `json:"accountId"`
	Username   string `json:"username"`
	AvatarURL  string `json:"avatarUrl"`
	ProfileURL string `json:"profileUrl"`
	Remember   bool   `json:"remember"`
}

// Session is one browser session. The zero value is a valid anonymous
// session.
type Session struct {
	// ID addresses the record in the cache; not serialized into it.
	ID string `json:"-"`

	// PlayerID of the signed-in player, 0 when anonymous.
	PlayerID int64 `json:"playerId,omitempty"`

	// Nonce is the outstanding sign-in challenge and NonceSite the site it
	// was minted for. At most one nonce is outstanding per session, across
	// all sites.
	Nonce     string `json:"nonce,omitempty"`
	NonceSite string `json:"nonceSite,omitempty"`

	// Pending is the single pending-registration slot.
	Pending *PendingRegistration `json:"pending,omitempty"`
}

// GenerateNonce mints a fresh challenge bound to the given site, overwriting
// any previous nonce even if it was generated for a different site.
func (s *Session) GenerateNonce(site string) (string, error) {
	nonce, err := token.GenerateHex(16)
	if err != nil {
		return "", err
	}
	s.Nonce = nonce
	s.NonceSite = site
	return nonce, nil
}

// ValidateNonce checks a returned challenge against the outstanding one and
// the site it was minted for. Single use: the stored values are cleared on
// the first call regardless of the outcome, so a second check of the same
// value fails.
func (s *Session) ValidateNonce(nonce, site string) bool {
	if s.Nonce == "" || s.NonceSite == "" {
		return false
	}
	chkNonce, chkSite := s.Nonce, s.NonceSite
	s.Nonce, s.NonceSite = "", ""
	return nonce == chkNonce && site == chkSite
}

// CachePending stores an authenticated account for later registration,
// overwriting any previous slot even from a different site.
func (s *Session) CachePending(p PendingRegistration) {
	s.Pending = &p
}

// TakePending retrieves the pending registration for a site. The slot is
// cleared whether or not the site matches, so stale results from another
// site cannot be claimed later.
func (s *Session) TakePending(site string) (*PendingRegistration, bool) {
	p := s.Pending
	if p == nil {
		return nil, false
	}
	s.Pending = nil
	if p.Site != site {
		return nil, false
	}
	return p, true
}
