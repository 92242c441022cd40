package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"vocabpractice/internal/logger"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HomeHandler serves the landing page and the health check
type HomeHandler struct {
	render *Renderer
	db     Pinger
	log    *logger.Logger
}

// NewHomeHandler creates a new home handler
func NewHomeHandler(render *Renderer, db Pinger, log *logger.Logger) *HomeHandler {
	return &HomeHandler{render: render, db: db, log: log}
}

// Home renders the landing page. Unknown paths fall through to here via
// the "/" pattern and get a 404.
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.render.NotFound(w, r, "Page not found", "/")
		return
	}
	h.render.Render(w, http.StatusOK, "home.tmpl", HomeViewData{Page: h.render.Page(w, r, "Welcome")})
}

// Healthz pings the database
func (h *HomeHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	if err := h.db.PingContext(ctx); err != nil {
		h.log.Error("health check failed", "error", err)
		status, code = "unavailable", http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
