package handlers

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vocabpractice/internal/config"
	"vocabpractice/internal/logger"
	"vocabpractice/internal/security"
	"vocabpractice/internal/templates"
)

func signAppleToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func appleClaimsFor(aud, nonce, email string) jwt.MapClaims {
	return jwt.MapClaims{
		"iss":   appleIssuer,
		"aud":   aud,
		"sub":   "001234.apple",
		"email": email,
		"nonce": nonce,
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	}
}

func TestParseAppleIDToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keyFor := func(kid string) (*rsa.PublicKey, error) {
		require.Equal(t, "k1", kid)
		return &key.PublicKey, nil
	}

	t.Run("valid", func(t *testing.T) {
		token := signAppleToken(t, key, "k1", appleClaimsFor("com.example.vocab", "n1", "t@example.com"))
		who, err := parseAppleIDToken(token, "com.example.vocab", "n1", keyFor)
		require.NoError(t, err)
		assert.Equal(t, "001234.apple", who.Subject)
		assert.Equal(t, "t@example.com", who.Email)
	})

	tests := []struct {
		name   string
		claims jwt.MapClaims
		want   string
	}{
		{"wrong audience", appleClaimsFor("com.other", "n1", "t@example.com"), "invalid Apple audience"},
		{"wrong nonce", appleClaimsFor("com.example.vocab", "other", "t@example.com"), "invalid Apple nonce"},
		{"no email", appleClaimsFor("com.example.vocab", "n1", ""), "did not share an email"},
		{"wrong issuer", func() jwt.MapClaims {
			c := appleClaimsFor("com.example.vocab", "n1", "t@example.com")
			c["iss"] = "https://evil.example.com"
			return c
		}(), "invalid Apple token"},
		{"expired", func() jwt.MapClaims {
			c := appleClaimsFor("com.example.vocab", "n1", "t@example.com")
			c["exp"] = time.Now().Add(-time.Minute).Unix()
			return c
		}(), "invalid Apple token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := signAppleToken(t, key, "k1", tt.claims)
			_, err := parseAppleIDToken(token, "com.example.vocab", "n1", keyFor)
			assert.ErrorContains(t, err, tt.want)
		})
	}

	t.Run("signed by another key", func(t *testing.T) {
		other, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		token := signAppleToken(t, other, "k1", appleClaimsFor("com.example.vocab", "n1", "t@example.com"))
		_, err = parseAppleIDToken(token, "com.example.vocab", "n1", keyFor)
		assert.ErrorContains(t, err, "invalid Apple token")
	})
}

func TestAppleKeySetCachesKeys(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": []map[string]string{{
			"kid": "k1",
			"kty": "RSA",
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}}})
	}))
	defer srv.Close()

	set := newAppleKeySet(srv.URL, time.Hour)
	got, err := set.key(context.Background(), "k1")
	require.NoError(t, err)
	assert.True(t, key.PublicKey.Equal(got))

	_, err = set.key(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "a known key is served from cache")

	_, err = set.key(context.Background(), "missing")
	assert.ErrorContains(t, err, `apple public key "missing" not found`)
	assert.Equal(t, int32(2), hits.Load(), "an unknown key id forces a refresh")
}

func newOAuthTestHandler(t *testing.T) *AuthHandler {
	t.Helper()
	tmpl, err := templates.Load()
	require.NoError(t, err)
	render := NewRenderer(tmpl, security.NewCSRFGenerator("secret"), logger.NewNop())
	providers := NewOAuthProviders(&config.Config{
		GoogleClientID:     "google-id",
		GoogleClientSecret: "google-secret",
	})
	return NewAuthHandler(nil, render, providers, "https://vocab.example.com/", logger.NewNop())
}

func TestStartOAuthRedirectsToProvider(t *testing.T) {
	h := newOAuthTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/start", nil)
	req.SetPathValue("provider", "google")
	rec := httptest.NewRecorder()
	h.StartOAuth(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", location.Host)
	assert.Equal(t, "google-id", location.Query().Get("client_id"))
	assert.Equal(t, "https://vocab.example.com/auth/google/callback", location.Query().Get("redirect_uri"))

	cookies := map[string]string{}
	for _, c := range rec.Result().Cookies() {
		cookies[c.Name] = c.Value
	}
	assert.Equal(t, location.Query().Get("state"), cookies[oauthStateCookie])
	assert.Equal(t, "google", cookies[oauthProvCookie])
	assert.NotContains(t, cookies, oauthNonceCookie, "google does not use a nonce")
}

func TestStartOAuthUnconfiguredProvider(t *testing.T) {
	h := newOAuthTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/apple/start", nil)
	req.SetPathValue("provider", "apple")
	rec := httptest.NewRecorder()
	h.StartOAuth(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sign-in provider not configured")
}

func TestOAuthCallbackRejectsBadState(t *testing.T) {
	h := newOAuthTestHandler(t)

	tests := []struct {
		name   string
		query  string
		cookie string
		want   string
	}{
		{"missing code", "state=abc", "abc", "Missing authorization code"},
		{"no state cookie", "code=c&state=abc", "", "Invalid sign-in state"},
		{"state mismatch", "code=c&state=abc", "xyz", "Invalid sign-in state"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?"+tt.query, nil)
			req.SetPathValue("provider", "google")
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			h.OAuthCallback(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.True(t, strings.Contains(rec.Body.String(), tt.want), rec.Body.String())
		})
	}
}

func TestProviderViewsOnlyListsConfigured(t *testing.T) {
	h := newOAuthTestHandler(t)
	views := h.providerViews()
	require.Len(t, views, 1)
	assert.Equal(t, "google", views[0].Name)
	assert.Equal(t, "/auth/google/start", views[0].URL)
}
