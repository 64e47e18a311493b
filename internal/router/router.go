package router

import (
	"net/http"

	"github.com/hostedid/accounts/internal/handler"
	"github.com/hostedid/accounts/internal/middleware"
)

// New creates and configures the HTTP router
func New(h *handler.Handler, mw *middleware.Middleware) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoints
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ready", h.Ready)

	mux.HandleFunc("GET /api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Accounts API v1","version":"` + handler.Version + `"}`))
	})

	// Registration is public and rate limited
	mux.Handle("POST /api/v1/users", mw.RegisterRateLimit()(http.HandlerFunc(h.Register)))

	// Canonical user path, see model.User.AbsoluteURL
	mux.HandleFunc("GET /users/{id}/{$}", h.GetUser)

	// Apply middleware stack
	var handler http.Handler = mux

	// Request logging
	handler = mw.Logger(handler)

	// Timing
	handler = mw.Timing(handler)

	// Request ID
	handler = mw.RequestID(handler)

	// Panic recovery (outermost)
	handler = mw.Recover(handler)

	return handler
}
