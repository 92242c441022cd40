package handlers

import (
	"errors"
	"net/http"
	"sort"

	"vocabpractice/internal/logger"
	"vocabpractice/internal/security"
	"vocabpractice/internal/service"
	"vocabpractice/internal/validation"
)

// AuthHandler handles teacher sign in, registration and password resets
type AuthHandler struct {
	auth                 *service.AuthService
	render               *Renderer
	oauthProviders       map[string]OAuthProvider
	oauthRedirectBaseURL string
	log                  *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *service.AuthService, render *Renderer, oauthProviders map[string]OAuthProvider, oauthRedirectBaseURL string, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		auth:                 auth,
		render:               render,
		oauthProviders:       oauthProviders,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
		log:                  log.With("component", "auth"),
	}
}

func signedIn(r *http.Request) bool {
	return SessionFromContext(r.Context()).Status == SessionResolved
}

func (h *AuthHandler) providerViews() []OAuthProviderView {
	var views []OAuthProviderView
	for key, provider := range h.oauthProviders {
		if !provider.configured() {
			continue
		}
		views = append(views, OAuthProviderView{
			Name:     key,
			Label:    provider.Label,
			URL:      "/auth/" + key + "/start",
			CSSClass: "btn-" + key,
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })
	return views
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, data LoginViewData) {
	data.Page = h.render.Page(w, r, "Sign in")
	data.OAuthProviders = h.providerViews()
	h.render.Render(w, status, "login.tmpl", data)
}

// ShowLogin renders the login page
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	if signedIn(r) {
		http.Redirect(w, r, "/teacher/dashboard", http.StatusSeeOther)
		return
	}
	data := LoginViewData{}
	if r.URL.Query().Get("reset") == "1" {
		data.Success = "Your password has been reset. Please sign in."
	}
	h.renderLogin(w, r, http.StatusOK, data)
}

// Login handles login form submission
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidFormData, "", err)
		return
	}
	email := r.FormValue("email")

	session, _, err := h.auth.Login(r.Context(), email, r.FormValue("password"))
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			h.log.Error("login failed", "error", err)
		}
		h.renderLogin(w, r, http.StatusOK, LoginViewData{Error: "Invalid email or password", Email: email})
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, session.ID, session.ExpiresAt))
	http.Redirect(w, r, "/teacher/dashboard", http.StatusSeeOther)
}

func (h *AuthHandler) renderRegister(w http.ResponseWriter, r *http.Request, data RegisterViewData) {
	data.Page = h.render.Page(w, r, "Register")
	data.OAuthProviders = h.providerViews()
	h.render.Render(w, http.StatusOK, "register.tmpl", data)
}

// ShowRegister renders the registration page
func (h *AuthHandler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	if signedIn(r) {
		http.Redirect(w, r, "/teacher/dashboard", http.StatusSeeOther)
		return
	}
	h.renderRegister(w, r, RegisterViewData{})
}

// Register creates the account and signs the teacher in
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidFormData, "", err)
		return
	}
	email := r.FormValue("email")
	password := r.FormValue("password")
	name := r.FormValue("name")

	if _, err := h.auth.Register(r.Context(), email, password, name); err != nil {
		message := "Registration failed. Please try again."
		switch {
		case validation.IsValidationError(err):
			var ve validation.ValidationError
			errors.As(err, &ve)
			message = capitalize(ve.Message)
		case errors.Is(err, service.ErrEmailTaken):
			message = "An account with that email already exists"
		default:
			h.log.Error("registration failed", "error", err)
		}
		h.renderRegister(w, r, RegisterViewData{Error: message, Email: email, Name: name})
		return
	}

	session, _, err := h.auth.Login(r.Context(), email, password)
	if err != nil {
		h.log.Error("login after registration failed", "error", err)
		http.Redirect(w, r, "/teacher/login", http.StatusSeeOther)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, session.ID, session.ExpiresAt))
	setFlash(w, r, "success", "Welcome! Create your first word set to get started.")
	http.Redirect(w, r, "/teacher/dashboard", http.StatusSeeOther)
}

// Logout ends the session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if state := SessionFromContext(r.Context()); state.Status == SessionResolved {
		if err := h.auth.Logout(r.Context(), state.SessionID); err != nil {
			h.log.Error("logout failed", "error", err)
		}
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ShowForgotPassword renders the reset request form
func (h *AuthHandler) ShowForgotPassword(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, http.StatusOK, "forgot_password.tmpl", ForgotPasswordViewData{
		Page: h.render.Page(w, r, "Forgot password"),
	})
}

// ForgotPassword mails a reset link. The response is the same whether or
// not the email belongs to an account.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidFormData, "", err)
		return
	}

	data := ForgotPasswordViewData{Page: h.render.Page(w, r, "Forgot password")}
	if err := h.auth.RequestPasswordReset(r.Context(), r.FormValue("email")); err != nil {
		h.log.Error("password reset request failed", "error", err)
		data.Error = "We could not send the reset email. Please try again later."
	} else {
		data.Success = "If an account exists for that email, a reset link is on its way."
	}
	h.render.Render(w, http.StatusOK, "forgot_password.tmpl", data)
}

// ShowResetPassword renders the new password form for a valid token
func (h *AuthHandler) ShowResetPassword(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	data := ResetPasswordViewData{Page: h.render.Page(w, r, "Reset password"), Token: token}

	valid, err := h.auth.ValidatePasswordResetToken(r.Context(), token)
	if err != nil {
		h.log.Error("failed to check reset token", "error", err)
	}
	data.Valid = valid
	if !valid {
		data.Error = "This reset link is invalid or has expired."
	}
	h.render.Render(w, http.StatusOK, "reset_password.tmpl", data)
}

// ResetPassword applies the new password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidFormData, "", err)
		return
	}
	token := r.FormValue("token")
	password := r.FormValue("password")

	data := ResetPasswordViewData{Page: h.render.Page(w, r, "Reset password"), Token: token, Valid: true}
	if password != r.FormValue("confirm_password") {
		data.Error = "Passwords do not match"
		h.render.Render(w, http.StatusOK, "reset_password.tmpl", data)
		return
	}

	if err := h.auth.ResetPassword(r.Context(), token, password); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidResetToken):
			data.Valid = false
			data.Error = "This reset link is invalid or has expired."
		case validation.IsValidationError(err):
			var ve validation.ValidationError
			errors.As(err, &ve)
			data.Error = capitalize(ve.Message)
		default:
			h.log.Error("password reset failed", "error", err)
			data.Error = "Failed to reset password. Please try again."
		}
		h.render.Render(w, http.StatusOK, "reset_password.tmpl", data)
		return
	}

	http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
	http.Redirect(w, r, "/teacher/login?reset=1", http.StatusSeeOther)
}
