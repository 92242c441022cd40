package handlers

import (
	"bytes"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vocabpractice/internal/logger"
	"vocabpractice/internal/security"
)

// Renderer executes page templates and fills the shared Page fields
type Renderer struct {
	templates *template.Template
	csrf      *security.CSRFGenerator
	log       *logger.Logger
}

// NewRenderer creates a renderer
func NewRenderer(templates *template.Template, csrf *security.CSRFGenerator, log *logger.Logger) *Renderer {
	return &Renderer{templates: templates, csrf: csrf, log: log}
}

// Page builds the shared header data for r and consumes any pending flash
func (rd *Renderer) Page(w http.ResponseWriter, r *http.Request, title string) Page {
	p := Page{
		Title: title + " - VocabPractice",
		Flash: popFlash(w, r),
	}
	if state := SessionFromContext(r.Context()); state.Status == SessionResolved {
		p.Teacher = state.Teacher
	}
	if subject := csrfSubject(r); subject != "" {
		p.CSRFToken = rd.Token(subject)
	}
	return p
}

// Token returns the CSRF token for subject, or "" when it cannot be made
func (rd *Renderer) Token(subject string) string {
	token, err := rd.csrf.GenerateToken(subject)
	if err != nil {
		return ""
	}
	return token
}

// Render writes the named template with status. Output is buffered so a
// template error becomes a clean 500.
func (rd *Renderer) Render(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := rd.templates.ExecuteTemplate(&buf, name, data); err != nil {
		respondWithError(w, rd.log, http.StatusInternalServerError, ErrInternalServerError, "failed to render "+name, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// NotFound renders the not found page with a 404
func (rd *Renderer) NotFound(w http.ResponseWriter, r *http.Request, message, back string) {
	rd.Render(w, http.StatusNotFound, "not_found.tmpl", MessageViewData{
		Page:    rd.Page(w, r, "Not found"),
		Message: message,
		Back:    back,
	})
}

// Error logs err and renders the generic error page
func (rd *Renderer) Error(w http.ResponseWriter, r *http.Request, message, back string, err error) {
	rd.log.Error(message, "path", r.URL.Path, "error", err)
	rd.Render(w, http.StatusInternalServerError, "error.tmpl", MessageViewData{
		Page:    rd.Page(w, r, "Error"),
		Message: message,
		Back:    back,
	})
}

// csrfSubject is the value form tokens are bound to: the teacher session
// when signed in, otherwise the student's practice id.
func csrfSubject(r *http.Request) string {
	if state := SessionFromContext(r.Context()); state.Status == SessionResolved {
		return state.SessionID
	}
	if c, err := r.Cookie(PracticeCookieName); err == nil && security.IsValidID(c.Value) {
		return c.Value
	}
	return ""
}

func setFlash(w http.ResponseWriter, r *http.Request, kind, message string) {
	http.SetCookie(w, security.CreateSessionCookie(r, FlashCookieName,
		kind+":"+url.QueryEscape(message), time.Now().Add(time.Minute)))
}

func popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	c, err := r.Cookie(FlashCookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, FlashCookieName))

	kind, encoded, ok := strings.Cut(c.Value, ":")
	if !ok || (kind != "success" && kind != "error") {
		return nil
	}
	message, err := url.QueryUnescape(encoded)
	if err != nil || message == "" {
		return nil
	}
	return &Flash{Kind: kind, Message: message}
}
