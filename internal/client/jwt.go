package client

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNotJWT is returned when a token is not a parseable JWT. Blog API
	// tokens may be opaque, so callers usually fall back to a default TTL.
	ErrNotJWT = errors.New("token is not a JWT")

	// ErrNoExpiry is returned when a JWT carries no exp claim.
	ErrNoExpiry = errors.New("token has no exp claim")
)

// TokenClaims is the subset of JWT claims the client cares about.
type TokenClaims struct {
	Subject   string
	Username  string
	ExpiresAt time.Time
}

// ParseTokenClaims reads claims without verifying the signature; the server
// verifies tokens, the client only uses them to schedule refreshes.
func ParseTokenClaims(tokenString string) (TokenClaims, error) {
	token, _, err := new(jwt.Parser).ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return TokenClaims{}, ErrNotJWT
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, ErrNotJWT
	}

	var out TokenClaims
	out.Subject, _ = claims.GetSubject()
	if username, ok := claims["username"].(string); ok {
		out.Username = username
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return out, ErrNoExpiry
	}
	out.ExpiresAt = exp.Time
	return out, nil
}
