package handlers

import (
	"net/http"

	"vocabpractice/internal/logger"
	"vocabpractice/internal/security"
)

// Router bundles the handlers served by the application
type Router struct {
	Middleware *Middleware
	Home       *HomeHandler
	Auth       *AuthHandler
	Practice   *PracticeHandler
	WordSets   *WordSetHandler
	Limiter    *security.RateLimiter
	Log        *logger.Logger
}

// Handler registers every route and wraps the mux with the global middleware
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	m := rt.Middleware
	limited := func(h http.HandlerFunc) http.HandlerFunc { return m.RateLimit(rt.Limiter, h) }
	teacher := func(h http.HandlerFunc) http.HandlerFunc { return m.RequireAuth(m.CSRFProtect(h)) }

	mux.HandleFunc("GET /", rt.Home.Home)
	mux.HandleFunc("GET /healthz", rt.Home.Healthz)

	// Student practice wizard
	mux.HandleFunc("GET /student", rt.Practice.Show)
	mux.HandleFunc("POST /student/start", m.CSRFProtect(rt.Practice.Start))
	mux.HandleFunc("POST /student/teacher", m.CSRFProtect(rt.Practice.ChooseTeacher))
	mux.HandleFunc("POST /student/name", m.CSRFProtect(rt.Practice.EnterName))
	mux.HandleFunc("POST /student/word-set", m.CSRFProtect(rt.Practice.ChooseWordSet))
	mux.HandleFunc("POST /student/answer", limited(m.CSRFProtect(rt.Practice.Answer)))
	mux.HandleFunc("POST /student/done", m.CSRFProtect(rt.Practice.Done))

	// Teacher auth
	mux.HandleFunc("GET /teacher/login", rt.Auth.ShowLogin)
	mux.HandleFunc("POST /teacher/login", limited(rt.Auth.Login))
	mux.HandleFunc("GET /teacher/register", rt.Auth.ShowRegister)
	mux.HandleFunc("POST /teacher/register", limited(rt.Auth.Register))
	mux.HandleFunc("POST /teacher/logout", teacher(rt.Auth.Logout))
	mux.HandleFunc("GET /teacher/forgot-password", rt.Auth.ShowForgotPassword)
	mux.HandleFunc("POST /teacher/forgot-password", limited(rt.Auth.ForgotPassword))
	mux.HandleFunc("GET /teacher/reset-password", rt.Auth.ShowResetPassword)
	mux.HandleFunc("POST /teacher/reset-password", limited(rt.Auth.ResetPassword))
	mux.HandleFunc("GET /auth/{provider}/start", rt.Auth.StartOAuth)
	mux.HandleFunc("GET /auth/{provider}/callback", rt.Auth.OAuthCallback)
	mux.HandleFunc("POST /auth/{provider}/callback", rt.Auth.OAuthCallback)

	// Word set manager
	mux.HandleFunc("GET /teacher/dashboard", teacher(rt.WordSets.Dashboard))
	mux.HandleFunc("GET /teacher/word-sets/new", teacher(rt.WordSets.NewForm))
	mux.HandleFunc("POST /teacher/word-sets", teacher(rt.WordSets.Create))
	mux.HandleFunc("GET /teacher/word-sets/{id}", teacher(rt.WordSets.Detail))
	mux.HandleFunc("GET /teacher/word-sets/{id}/edit", teacher(rt.WordSets.EditForm))
	mux.HandleFunc("POST /teacher/word-sets/{id}/words", teacher(rt.WordSets.ReplaceWords))
	mux.HandleFunc("GET /teacher/word-sets/{id}/delete", teacher(rt.WordSets.ConfirmDelete))
	mux.HandleFunc("POST /teacher/word-sets/{id}/delete", teacher(rt.WordSets.Delete))
	mux.HandleFunc("GET /teacher/word-sets/{id}/student/{studentName}", teacher(rt.WordSets.StudentAnswers))
	mux.HandleFunc("GET /teacher/word-sets/{id}/student/{studentName}/restart", teacher(rt.WordSets.ConfirmRestart))
	mux.HandleFunc("POST /teacher/word-sets/{id}/student/{studentName}/restart", teacher(rt.WordSets.Restart))

	return Recover(rt.Log, Logging(rt.Log, m.LoadSession(mux)))
}
