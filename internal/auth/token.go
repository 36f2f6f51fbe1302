package auth

import (
	"coinflip/backend/internal/config"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// IssueToken signs claims with secret. A non-positive ttl uses the default lifetime.
func IssueToken(secret string, claims Claims, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = config.DefaultTokenTTL
	}
	if claims.AccountID == "" {
		claims.AccountID = claims.RobloxID
	}
	if claims.DisplayName == "" {
		claims.DisplayName = claims.RobloxName
	}
	now := time.Now()
	claims.Issuer = config.TokenIssuer
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
