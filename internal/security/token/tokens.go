// Package token generates and hashes the opaque secrets used by nonces and
// remember-me cookies.
package token

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
)

// GenerateHex returns nBytes of randomness hex-encoded. Used for nonces.
func GenerateHex(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateBytes returns nBytes of randomness. Used for secrets that are
// hashed before storage.
func GenerateBytes(nBytes int) ([]byte, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// GenerateBase64 returns nBytes of randomness base64-encoded (standard
// alphabet, padded, the remember-me cookie wire format).
func GenerateBase64(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// SHA512Base64 returns base64(sha512(input)), the stored form of remember-me
// token secrets.
func SHA512Base64(raw []byte) string {
	sum := sha512.Sum512(raw)
	return base64.StdEncoding.EncodeToString(sum[:])
}
