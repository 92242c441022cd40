package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// CSRFGenerator derives form tokens from a cookie value (the teacher session
// id or the student's practice id) with HMAC-SHA256, so no token store is needed.
type CSRFGenerator struct {
	secret []byte
}

// NewCSRFGenerator creates a generator. An empty secret gets a random one,
// which invalidates outstanding tokens on restart.
func NewCSRFGenerator(secret string) *CSRFGenerator {
	if secret == "" {
		secret = GenerateToken(32)
	}
	return &CSRFGenerator{secret: []byte(secret)}
}

// GenerateToken returns the token bound to subject
func (g *CSRFGenerator) GenerateToken(subject string) (string, error) {
	if subject == "" {
		return "", errors.New("csrf subject is required")
	}
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(subject))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// ValidateToken reports whether token was issued for subject
func (g *CSRFGenerator) ValidateToken(subject, token string) bool {
	if subject == "" || token == "" {
		return false
	}
	expected, err := g.GenerateToken(subject)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(token))
}
