package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiryFromJWT reads the exp claim of token without verifying its signature.
// The client has no key to verify with; the value is only a hint used when the
// server omits expires_in. Opaque (non-JWT) tokens yield false.
func ExpiryFromJWT(token string) (time.Time, bool) {
	claims, ok := parseUnverified(token)
	if !ok || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// SubjectFromJWT returns the sub claim of token, if it is a JWT carrying one.
func SubjectFromJWT(token string) (string, bool) {
	claims, ok := parseUnverified(token)
	if !ok || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}

func parseUnverified(token string) (*jwt.RegisteredClaims, bool) {
	if token == "" {
		return nil, false
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}
