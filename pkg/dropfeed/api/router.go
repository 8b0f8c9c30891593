package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterOptions configures the middleware stack around the handler
type RouterOptions struct {
	AllowedOrigins []string
	Timeout        time.Duration
}

// NewRouter wraps h with request IDs, access logging, panic recovery,
// timeouts, CORS and security headers.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.Timeout))
	r.Use(CORS(opts.AllowedOrigins))
	r.Use(SecurityHeaders)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not found")
	})

	h.Register(r)
	return r
}
