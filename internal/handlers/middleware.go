package handlers

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"vocabpractice/internal/logger"
	"vocabpractice/internal/models"
	"vocabpractice/internal/security"
	"vocabpractice/internal/service"
)

// SessionStatus tracks whether the current teacher has been looked up yet
type SessionStatus int

const (
	SessionLoading SessionStatus = iota
	SessionResolved
	SessionAbsent
)

// SessionState is the per-request view of the signed-in teacher
type SessionState struct {
	Status    SessionStatus
	Teacher   *models.Teacher
	SessionID string
}

type contextKey string

const sessionContextKey contextKey = "session"

// SessionFromContext returns the resolved session, or SessionLoading when
// LoadSession has not run for this request.
func SessionFromContext(ctx context.Context) SessionState {
	state, ok := ctx.Value(sessionContextKey).(SessionState)
	if !ok {
		return SessionState{Status: SessionLoading}
	}
	return state
}

// WithSession stores state on ctx
func WithSession(ctx context.Context, state SessionState) context.Context {
	return context.WithValue(ctx, sessionContextKey, state)
}

// Middleware holds dependencies for middleware functions
type Middleware struct {
	auth *service.AuthService
	csrf *security.CSRFGenerator
	log  *logger.Logger
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(auth *service.AuthService, csrf *security.CSRFGenerator, log *logger.Logger) *Middleware {
	return &Middleware{auth: auth, csrf: csrf, log: log}
}

// LoadSession resolves the teacher session cookie once per request
func (m *Middleware) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := SessionState{Status: SessionAbsent}

		if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
			teacher, err := m.auth.ValidateSession(r.Context(), cookie.Value)
			switch {
			case err == nil:
				state = SessionState{Status: SessionResolved, Teacher: teacher, SessionID: cookie.Value}
			case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrSessionExpired):
				http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
			default:
				m.log.Error("failed to validate session", "error", err)
			}
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), state)))
	})
}

// RequireAuth redirects visitors without a teacher session to the login page
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if SessionFromContext(r.Context()).Status != SessionResolved {
			http.Redirect(w, r, "/teacher/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// CSRFProtect rejects state-changing requests whose form token does not
// match the caller's session or practice id.
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if !m.csrf.ValidateToken(csrfSubject(r), r.FormValue(csrfFormField)) {
				m.log.Warn("csrf validation failed", "path", r.URL.Path, "ip", security.GetClientIP(r))
				respondWithError(w, m.log, http.StatusForbidden, ErrInvalidCSRFToken, "", nil)
				return
			}
		}
		next(w, r)
	}
}

// RateLimit applies limiter per client IP
func (m *Middleware) RateLimit(limiter *security.RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow(security.GetClientIP(r)) {
			m.log.Warn("rate limit exceeded", "path", r.URL.Path, "ip", security.GetClientIP(r))
			respondWithError(w, m.log, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Logging logs every request with its status and duration
func Logging(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

// Recover turns a panic into a logged 500
func Recover(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic serving request", "path", r.URL.Path, "panic", rec, "stack", string(debug.Stack()))
				http.Error(w, ErrInternalServerError, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
