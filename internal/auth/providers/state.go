package providers

import (
	"net/url"
	"strings"
)

// BuildState packs remember/returnHash (and, for sites that carry it there,
// the nonce) into the opaque state string round-tripped through the external
// site. "remember" travels as a bare flag.
func BuildState(remember bool, returnHash, nonce string) string {
	var parts []string
	if remember {
		parts = append(parts, "remember")
	}
	if returnHash != "" {
		parts = append(parts, "returnHash="+url.QueryEscape(returnHash))
	}
	if nonce != "" {
		parts = append(parts, "nonce="+url.QueryEscape(nonce))
	}
	return strings.Join(parts, "&")
}

// ParseState unpacks a state string built by BuildState. Unparseable state
// yields the zero values; a returnHash not starting with '#' is dropped.
func ParseState(state string) (remember bool, returnHash, nonce string) {
	v, err := url.ParseQuery(state)
	if err != nil {
		return false, "", ""
	}
	_, remember = v["remember"]
	returnHash = CleanReturnHash(v.Get("returnHash"))
	nonce = v.Get("nonce")
	return remember, returnHash, nonce
}
