package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry reads the exp claim without verifying the signature. The
// API signed the token and is the only party that validates it; this
// side only needs the timestamp to schedule a proactive refresh.
func TokenExpiry(token string) (time.Time, bool) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// ExpiryFor returns the token's expiry, falling back to the previous
// session expiry when the token carries no readable exp claim.
func ExpiryFor(token string, fallback time.Time) time.Time {
	if exp, ok := TokenExpiry(token); ok {
		return exp
	}
	return fallback
}

// NeedsRefresh reports whether the token expires within leeway. Tokens
// whose expiry cannot be read are never refreshed proactively; a 401
// from the API handles them.
func NeedsRefresh(token string, leeway time.Duration) bool {
	exp, ok := TokenExpiry(token)
	if !ok {
		return false
	}
	return time.Until(exp) < leeway
}
