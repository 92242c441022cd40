package handlers

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"vocabpractice/internal/config"
	"vocabpractice/internal/security"
	"vocabpractice/internal/service"
)

const (
	oauthCookieTTL   = 10 * time.Minute
	oauthStateCookie = "oauth_state"
	oauthNonceCookie = "oauth_nonce"
	oauthProvCookie  = "oauth_provider"
	appleIssuer      = "https://appleid.apple.com"
	appleKeysURL     = "https://appleid.apple.com/auth/keys"
)

// oauthIdentity is what a provider tells us about the signed in teacher
type oauthIdentity struct {
	Subject string
	Email   string
	Name    string
}

// identityFunc turns an exchanged token into an identity. r is the callback
// request, which for Apple carries the user's name on first sign in.
type identityFunc func(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token, r *http.Request) (oauthIdentity, error)

// OAuthProvider is one "Continue with ..." option on the sign in page
type OAuthProvider struct {
	Name       string
	Label      string
	Config     *oauth2.Config
	AuthParams map[string]string
	// UseNonce adds a nonce to the authorization request that must come
	// back inside the id_token.
	UseNonce bool
	identity identityFunc
}

func (p OAuthProvider) configured() bool {
	return p.Config != nil && p.Config.ClientID != "" && p.Config.ClientSecret != "" && p.identity != nil
}

// NewOAuthProviders builds the Google and Apple sign in providers. Providers
// without credentials are kept but never offered.
func NewOAuthProviders(cfg *config.Config) map[string]OAuthProvider {
	apple := newAppleKeySet(appleKeysURL, time.Hour)
	return map[string]OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			identity: googleIdentity("https://www.googleapis.com/oauth2/v2/userinfo"),
		},
		"apple": {
			Name:  "apple",
			Label: "Apple",
			Config: &oauth2.Config{
				ClientID:     cfg.AppleClientID,
				ClientSecret: cfg.AppleClientSecret,
				Endpoint: oauth2.Endpoint{
					AuthURL:  appleIssuer + "/auth/authorize",
					TokenURL: appleIssuer + "/auth/token",
				},
				Scopes: []string{"name", "email"},
			},
			AuthParams: map[string]string{"response_mode": "form_post"},
			UseNonce:   true,
			identity:   apple.identity,
		},
	}
}

// OAuthProviderView is the template view of a configured provider
type OAuthProviderView struct {
	Name     string
	Label    string
	URL      string
	CSSClass string
}

// StartOAuth redirects to the provider's consent page
func (h *AuthHandler) StartOAuth(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("provider")
	provider, ok := h.oauthProviders[key]
	if !ok || !provider.configured() {
		h.oauthFailed(w, r, http.StatusBadRequest, "Sign-in provider not configured")
		return
	}

	state := security.GenerateSessionID()
	h.setTempCookie(w, r, oauthStateCookie, state)
	h.setTempCookie(w, r, oauthProvCookie, key)

	options := []oauth2.AuthCodeOption{oauth2.AccessTypeOnline}
	for param, value := range provider.AuthParams {
		options = append(options, oauth2.SetAuthURLParam(param, value))
	}
	if provider.UseNonce {
		nonce := security.GenerateSessionID()
		h.setTempCookie(w, r, oauthNonceCookie, nonce)
		options = append(options, oauth2.SetAuthURLParam("nonce", nonce))
	}

	http.Redirect(w, r, h.oauthConfig(r, key, provider).AuthCodeURL(state, options...), http.StatusFound)
}

// OAuthCallback finishes the provider round trip and signs the teacher in.
// Apple posts the callback as a form, Google uses the query string.
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("provider")
	provider, ok := h.oauthProviders[key]
	if !ok || !provider.configured() {
		h.oauthFailed(w, r, http.StatusBadRequest, "Sign-in provider not configured")
		return
	}
	if msg := checkCallback(r, key); msg != "" {
		h.oauthFailed(w, r, http.StatusBadRequest, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	cfg := h.oauthConfig(r, key, provider)
	token, err := cfg.Exchange(ctx, r.FormValue("code"))
	if err != nil {
		h.log.Warn("oauth code exchange failed", "provider", key, "error", err)
		h.oauthFailed(w, r, http.StatusBadRequest, "Failed to complete sign-in")
		return
	}

	who, err := provider.identity(ctx, cfg, token, r)
	if err != nil {
		h.log.Warn("oauth identity lookup failed", "provider", key, "error", err)
		h.oauthFailed(w, r, http.StatusBadRequest, "Failed to complete sign-in")
		return
	}

	for _, name := range []string{oauthStateCookie, oauthProvCookie, oauthNonceCookie} {
		http.SetCookie(w, security.CreateDeleteCookie(r, name))
	}

	session, _, err := h.auth.OAuthLogin(r.Context(), key, who.Subject, who.Email, who.Name)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			h.oauthFailed(w, r, http.StatusConflict, "That email is already linked to another sign-in method")
			return
		}
		h.log.Error("oauth login failed", "provider", key, "error", err)
		h.oauthFailed(w, r, http.StatusBadRequest, "Failed to complete sign-in")
		return
	}

	h.log.Info("teacher signed in", "provider", key, "teacher_id", session.TeacherID)
	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, session.ID, session.ExpiresAt))
	http.Redirect(w, r, "/teacher/dashboard", http.StatusSeeOther)
}

// checkCallback returns a user facing message when the callback does not
// belong to a flow this browser started.
func checkCallback(r *http.Request, key string) string {
	if r.FormValue("code") == "" {
		return "Missing authorization code"
	}
	state, err := r.Cookie(oauthStateCookie)
	if err != nil || state.Value == "" || state.Value != r.FormValue("state") {
		return "Invalid sign-in state"
	}
	if prov, err := r.Cookie(oauthProvCookie); err == nil && prov.Value != key {
		return "Sign-in provider mismatch"
	}
	return ""
}

func (h *AuthHandler) oauthConfig(r *http.Request, key string, provider OAuthProvider) *oauth2.Config {
	base := strings.TrimSpace(h.oauthRedirectBaseURL)
	if base == "" {
		scheme := "http"
		if security.IsSecureRequest(r) {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	cfg := *provider.Config
	cfg.RedirectURL = strings.TrimRight(base, "/") + "/auth/" + key + "/callback"
	return &cfg
}

// Apple's form_post callback is a cross-site POST, so the temporary
// cookies must be SameSite=None (which requires Secure) to come back.
func (h *AuthHandler) setTempCookie(w http.ResponseWriter, r *http.Request, name, value string) {
	cookie := security.CreateSessionCookie(r, name, value, time.Now().Add(oauthCookieTTL))
	cookie.MaxAge = int(oauthCookieTTL.Seconds())
	if cookie.Secure {
		cookie.SameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, cookie)
}

func (h *AuthHandler) oauthFailed(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.renderLogin(w, r, status, LoginViewData{Error: message})
}

func googleIdentity(userInfoURL string) identityFunc {
	return func(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token, _ *http.Request) (oauthIdentity, error) {
		resp, err := cfg.Client(ctx, token).Get(userInfoURL)
		if err != nil {
			return oauthIdentity{}, fmt.Errorf("failed to fetch Google user info: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return oauthIdentity{}, fmt.Errorf("failed to fetch Google user info: status %d", resp.StatusCode)
		}

		var info struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
			return oauthIdentity{}, fmt.Errorf("failed to parse Google user info: %w", err)
		}
		if info.ID == "" || info.Email == "" {
			return oauthIdentity{}, errors.New("google user info is missing id or email")
		}
		return oauthIdentity{Subject: info.ID, Email: info.Email, Name: info.Name}, nil
	}
}

type appleClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Nonce string `json:"nonce"`
}

// appleKeyFunc resolves an Apple signing key by key id
type appleKeyFunc func(kid string) (*rsa.PublicKey, error)

// parseAppleIDToken verifies an id_token and returns its subject and email
func parseAppleIDToken(idToken, clientID, nonce string, keyFor appleKeyFunc) (oauthIdentity, error) {
	claims := &appleClaims{}
	_, err := jwt.ParseWithClaims(idToken, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing key id")
		}
		return keyFor(kid)
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(appleIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return oauthIdentity{}, fmt.Errorf("invalid Apple token: %w", err)
	}

	switch {
	case !slices.Contains(claims.Audience, clientID):
		return oauthIdentity{}, errors.New("invalid Apple audience")
	case nonce != "" && claims.Nonce != nonce:
		return oauthIdentity{}, errors.New("invalid Apple nonce")
	case claims.Email == "":
		return oauthIdentity{}, errors.New("apple did not share an email address")
	}
	return oauthIdentity{Subject: claims.Subject, Email: claims.Email}, nil
}

// appleKeySet caches Apple's JSON web keys and refreshes them when an
// unknown key id shows up or the cache is older than ttl.
type appleKeySet struct {
	url    string
	ttl    time.Duration
	client *http.Client

	mu      sync.Mutex
	keys    map[string]*rsa.PublicKey
	fetched time.Time
}

func newAppleKeySet(url string, ttl time.Duration) *appleKeySet {
	return &appleKeySet{url: url, ttl: ttl, client: &http.Client{Timeout: 10 * time.Second}}
}

func (s *appleKeySet) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if k, ok := s.keys[kid]; ok && time.Since(s.fetched) < s.ttl {
		return k, nil
	}
	keys, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	s.keys, s.fetched = keys, time.Now()

	if k, ok := keys[kid]; ok {
		return k, nil
	}
	return nil, fmt.Errorf("apple public key %q not found", kid)
}

func (s *appleKeySet) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Apple public keys: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch Apple public keys: status %d", resp.StatusCode)
	}

	var set struct {
		Keys []struct {
			Kid string `json:"kid"`
			Kty string `json:"kty"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("failed to parse Apple public keys: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" {
			continue
		}
		n, err := base64.RawURLEncoding.DecodeString(k.N)
		if err != nil {
			return nil, fmt.Errorf("bad modulus for key %s: %w", k.Kid, err)
		}
		e, err := base64.RawURLEncoding.DecodeString(k.E)
		if err != nil {
			return nil, fmt.Errorf("bad exponent for key %s: %w", k.Kid, err)
		}
		keys[k.Kid] = &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: int(new(big.Int).SetBytes(e).Int64())}
	}
	return keys, nil
}

func (s *appleKeySet) identity(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token, r *http.Request) (oauthIdentity, error) {
	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return oauthIdentity{}, errors.New("missing Apple id_token")
	}
	var nonce string
	if c, err := r.Cookie(oauthNonceCookie); err == nil {
		nonce = c.Value
	}

	who, err := parseAppleIDToken(idToken, cfg.ClientID, nonce, func(kid string) (*rsa.PublicKey, error) {
		return s.key(ctx, kid)
	})
	if err != nil {
		return oauthIdentity{}, err
	}

	// The name is only sent on the first authorization, as a form field
	var user struct {
		Name struct {
			FirstName string `json:"firstName"`
			LastName  string `json:"lastName"`
		} `json:"name"`
	}
	if raw := r.FormValue("user"); raw != "" && json.Unmarshal([]byte(raw), &user) == nil {
		who.Name = strings.TrimSpace(user.Name.FirstName + " " + user.Name.LastName)
	}
	return who, nil
}
