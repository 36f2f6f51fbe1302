package auth_test

import (
	"coinflip/backend/internal/auth"
	"coinflip/backend/internal/models"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	secret = "test-secret"
	apiKey = "test-key"
)

func request(headers map[string]string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/coinflips", nil)
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	return r
}

func token(t *testing.T, claims auth.Claims, ttl time.Duration) string {
	t.Helper()
	tok, err := auth.IssueToken(secret, claims, ttl)
	require.NoError(t, err)
	return tok
}

func TestAuthenticate_Bearer(t *testing.T) {
	v := auth.NewVerifier(secret, apiKey)
	tok := token(t, auth.Claims{RobloxID: "42", RobloxName: "builderman", DisplayName: "Builder"}, time.Hour)

	id, err := v.Authenticate(request(map[string]string{"Authorization": "Bearer " + tok}))

	require.NoError(t, err)
	assert.Equal(t, models.Identity{UserID: "42", DisplayName: "Builder"}, id)
}

func TestAuthenticate_BearerFallsBackToRobloxName(t *testing.T) {
	v := auth.NewVerifier(secret, "")
	claims := jwt.MapClaims{"robloxId": "7", "robloxName": "noob", "exp": time.Now().Add(time.Hour).Unix()}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	id, err := v.Authenticate(request(map[string]string{"Authorization": "Bearer " + raw}))

	require.NoError(t, err)
	assert.Equal(t, "noob", id.DisplayName)
}

func TestAuthenticate_InvalidTokens(t *testing.T) {
	v := auth.NewVerifier(secret, apiKey)
	wrongKey, err := auth.IssueToken("other-secret", auth.Claims{RobloxID: "1", RobloxName: "x"}, time.Hour)
	require.NoError(t, err)
	noUser := token(t, auth.Claims{RobloxName: "x"}, time.Hour)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"robloxId": "1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"garbage":   "not.a.jwt",
		"wrong key": wrongKey,
		"no user":   noUser,
		"alg none":  none,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.Authenticate(request(map[string]string{
				"Authorization": "Bearer " + raw,
				// a valid key doesn't rescue a bad token
				"X-API-Key":   apiKey,
				"X-User-Id":   "1",
				"X-User-Name": "x",
			}))
			assert.ErrorIs(t, err, auth.ErrUnauthorized)
			assert.Equal(t, "Invalid token", err.Error())
		})
	}

	// IssueToken treats a non-positive ttl as the default, so an expired token is built by hand.
	old := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"robloxId": "1", "exp": time.Now().Add(-time.Hour).Unix()})
	raw, err := old.SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = v.Authenticate(request(map[string]string{"Authorization": "Bearer " + raw}))
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestAuthenticate_APIKey(t *testing.T) {
	v := auth.NewVerifier(secret, apiKey)

	id, err := v.Authenticate(request(map[string]string{
		"X-API-Key":   apiKey,
		"X-User-Id":   "555",
		"X-User-Name": "trader",
	}))

	require.NoError(t, err)
	assert.Equal(t, models.Identity{UserID: "555", DisplayName: "trader"}, id)
}

func TestAuthenticate_APIKeyMissingHeaders(t *testing.T) {
	v := auth.NewVerifier(secret, apiKey)

	_, err := v.Authenticate(request(map[string]string{"X-API-Key": apiKey, "X-User-Id": "555"}))

	assert.ErrorIs(t, err, auth.ErrMissingUserHeaders)
	assert.NotErrorIs(t, err, auth.ErrUnauthorized)
}

func TestAuthenticate_Missing(t *testing.T) {
	tests := []struct {
		name    string
		v       *auth.Verifier
		headers map[string]string
	}{
		{"nothing", auth.NewVerifier(secret, apiKey), nil},
		{"wrong key", auth.NewVerifier(secret, apiKey), map[string]string{"X-API-Key": "nope", "X-User-Id": "1", "X-User-Name": "x"}},
		{"key disabled", auth.NewVerifier(secret, ""), map[string]string{"X-API-Key": "", "X-User-Id": "1", "X-User-Name": "x"}},
		{"empty bearer", auth.NewVerifier(secret, apiKey), map[string]string{"Authorization": "Bearer "}},
		{"basic scheme", auth.NewVerifier(secret, apiKey), map[string]string{"Authorization": "Basic Zm9vOmJhcg=="}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.v.Authenticate(request(tt.headers))
			assert.ErrorIs(t, err, auth.ErrUnauthorized)
			assert.Equal(t, "Missing token or API key", err.Error())
		})
	}
}

func TestIssueToken_Defaults(t *testing.T) {
	raw := token(t, auth.Claims{RobloxID: "9", RobloxName: "nine"}, 0)

	claims := &auth.Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return []byte(secret), nil })
	require.NoError(t, err)

	assert.Equal(t, "9", claims.AccountID)
	assert.Equal(t, "nine", claims.DisplayName)
	assert.Equal(t, "coinflip-service", claims.Issuer)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}
