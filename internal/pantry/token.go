package pantry

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry returns the exp claim of a backend token without verifying its
// signature. The second result is false when the token carries no exp.
func TokenExpiry(token string) (time.Time, bool, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false, fmt.Errorf("parsing token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, false, nil
	}
	return exp.Time, true, nil
}

// TokenExpired reports whether token's exp claim is before now.
// Tokens without exp never expire.
func TokenExpired(token string, now time.Time) (bool, error) {
	exp, ok, err := TokenExpiry(token)
	if err != nil || !ok {
		return false, err
	}
	return !now.Before(exp), nil
}
