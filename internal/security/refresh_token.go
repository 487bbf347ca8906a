package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const refreshSecretBytes = 32

var ErrMalformedRefreshToken = errors.New("malformed refresh token")

func NewRefreshSecret() (string, error) {
	b := make([]byte, refreshSecretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate refresh secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func FormatRefreshToken(sessionID, secret string) string {
	return sessionID + "." + secret
}

// ParseRefreshToken splits on the first dot. Both halves must be non-empty.
func ParseRefreshToken(raw string) (sessionID, secret string, err error) {
	sessionID, secret, found := strings.Cut(strings.TrimSpace(raw), ".")
	if !found || sessionID == "" || secret == "" {
		return "", "", ErrMalformedRefreshToken
	}
	return sessionID, secret, nil
}

// RefreshTokenSessionID extracts only the session id; logout needs nothing more.
func RefreshTokenSessionID(raw string) (string, error) {
	sessionID, _, _ := strings.Cut(strings.TrimSpace(raw), ".")
	if sessionID == "" {
		return "", ErrMalformedRefreshToken
	}
	return sessionID, nil
}
