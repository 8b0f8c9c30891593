// Package auth gates admin operations behind a single shared bearer token.
package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/tendant/dropfeed/pkg/dropfeed"
)

const bearerScheme = "bearer"

// BearerAuthenticator compares presented credentials with one static secret.
type BearerAuthenticator struct {
	secret []byte
}

// NewBearerAuthenticator creates an authenticator for secret. An empty
// secret rejects every credential.
func NewBearerAuthenticator(secret string) *BearerAuthenticator {
	return &BearerAuthenticator{secret: []byte(secret)}
}

// Authenticate validates an Authorization header value.
func (a *BearerAuthenticator) Authenticate(header string) error {
	token := ExtractToken(header)
	if token == "" || len(a.secret) == 0 {
		return dropfeed.ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(token), a.secret) != 1 {
		return dropfeed.ErrUnauthorized
	}
	return nil
}

// ExtractToken strips a case-insensitive "Bearer" scheme and surrounding
// whitespace from an Authorization header value. A value without the
// scheme is returned trimmed.
func ExtractToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > len(bearerScheme) && strings.EqualFold(header[:len(bearerScheme)], bearerScheme) {
		rest := header[len(bearerScheme):]
		if trimmed := strings.TrimLeft(rest, " \t"); len(trimmed) < len(rest) {
			return strings.TrimSpace(trimmed)
		}
	}
	return header
}
