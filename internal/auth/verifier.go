// Package auth resolves the caller of a mutating request to a stable identity.
package auth

import (
	"coinflip/backend/internal/models"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrUnauthorized covers a bad token and a missing or wrong API key.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrMissingUserHeaders means the API key was right but X-User-Id or X-User-Name was empty.
	ErrMissingUserHeaders = errors.New("x-user-id and x-user-name headers required with API key")
)

// Error is an authentication failure with the message shown to the client.
type Error struct {
	Message string
	Kind    error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

var (
	errInvalidToken = &Error{Message: "Invalid token", Kind: ErrUnauthorized}
	errMissingCreds = &Error{Message: "Missing token or API key", Kind: ErrUnauthorized}
	errUserHeaders  = &Error{Message: ErrMissingUserHeaders.Error(), Kind: ErrMissingUserHeaders}
)

// Claims is the bearer token payload.
type Claims struct {
	AccountID   string `json:"id,omitempty"`
	RobloxID    string `json:"robloxId"`
	RobloxName  string `json:"robloxName"`
	DisplayName string `json:"displayName,omitempty"`
	jwt.RegisteredClaims
}

// Identity maps the claims to the caller identity.
func (c *Claims) Identity() models.Identity {
	name := c.DisplayName
	if name == "" {
		name = c.RobloxName
	}
	return models.Identity{UserID: c.RobloxID, DisplayName: name}
}

// Verifier checks bearer tokens first and falls back to the static API key.
type Verifier struct {
	secret []byte
	apiKey string
}

// NewVerifier builds a verifier. An empty apiKey disables header based identity.
func NewVerifier(secret, apiKey string) *Verifier {
	return &Verifier{secret: []byte(secret), apiKey: apiKey}
}

// Authenticate returns the caller of r or an *Error.
func (v *Verifier) Authenticate(r *http.Request) (models.Identity, error) {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return v.ParseToken(token)
	}

	key := r.Header.Get("X-API-Key")
	if v.apiKey != "" && key != "" && subtle.ConstantTimeCompare([]byte(key), []byte(v.apiKey)) == 1 {
		userID := r.Header.Get("X-User-Id")
		name := r.Header.Get("X-User-Name")
		if userID == "" || name == "" {
			return models.Identity{}, errUserHeaders
		}
		return models.Identity{UserID: userID, DisplayName: name}, nil
	}

	return models.Identity{}, errMissingCreds
}

// ParseToken validates an HS256 token and returns its identity.
func (v *Verifier) ParseToken(raw string) (models.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return models.Identity{}, errInvalidToken
	}
	id := claims.Identity()
	if id.UserID == "" {
		return models.Identity{}, errInvalidToken
	}
	return id, nil
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
