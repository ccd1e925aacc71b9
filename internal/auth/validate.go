package auth

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

const (
	usernameMinLen = 4
	usernameMaxLen = 20
	// usernameForbidden are characters that would break profile URLs.
	usernameForbidden = "/#? "
)

// ValidUsername checks a username for shape only; use by another player is a
// separate check.
func ValidUsername(username string) bool {
	if len(username) < usernameMinLen || len(username) > usernameMaxLen {
		return false
	}
	return !strings.ContainsAny(username, usernameForbidden)
}

// ValidEmail checks whether an address looks deliverable: one '@', a dotted
// domain, and not the reserved example.com. Deliberately loose; the address
// book is for players finding each other, not account recovery.
func ValidEmail(address string) bool {
	local, domain, ok := strings.Cut(address, "@")
	if !ok || local == "" || strings.Contains(domain, "@") {
		return false
	}
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if label == "" {
			return false
		}
	}
	return !strings.HasSuffix(strings.ToLower(domain), "example.com")
}

// GravatarURL derives the avatar URL for an email address, falling back to a
// generated monster image for addresses Gravatar does not know.
func GravatarURL(address string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(address))))
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?s=128&d=monsterid"
}
