package security

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSRFTokenBoundToSubject(t *testing.T) {
	g := NewCSRFGenerator("secret")

	token, err := g.GenerateToken("session-a")
	require.NoError(t, err)

	assert.True(t, g.ValidateToken("session-a", token))
	assert.False(t, g.ValidateToken("session-b", token))
	assert.False(t, g.ValidateToken("", token))
	assert.False(t, g.ValidateToken("session-a", ""))

	_, err = g.GenerateToken("")
	assert.Error(t, err)

	other := NewCSRFGenerator("other-secret")
	assert.False(t, other.ValidateToken("session-a", token))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)
	assert.True(t, CheckPassword("password123", hash))
	assert.False(t, CheckPassword("wrong", hash))
	assert.False(t, CheckPassword("password123", ""))
}

func TestGenerateSessionID(t *testing.T) {
	a, b := GenerateSessionID(), GenerateSessionID()
	assert.NotEqual(t, a, b)
	assert.True(t, IsValidID(a))
	assert.False(t, IsValidID("not-an-id"))
	assert.Len(t, GenerateToken(16), 32)
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"), "keys are independent")

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("1.2.3.4"), "bucket refills after the window")

	now = now.Add(5 * time.Minute)
	assert.Equal(t, 2, rl.Prune())
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", GetClientIP(r))

	r.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", GetClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.3")
	assert.Equal(t, "203.0.113.7", GetClientIP(r))
}

func TestCookies(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Forwarded-Proto", "https")

	expires := time.Now().Add(time.Hour)
	c := CreateSessionCookie(r, "session_id", "abc", expires)
	assert.True(t, c.Secure)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, "abc", c.Value)

	d := CreateDeleteCookie(httptest.NewRequest("GET", "/", nil), "session_id")
	assert.False(t, d.Secure)
	assert.Equal(t, -1, d.MaxAge)
}
