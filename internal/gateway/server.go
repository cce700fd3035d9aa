package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Public.
	r.Get("/health", g.handleHealth())
	r.Handle("/metrics", promhttp.HandlerFor(g.metrics.registry, promhttp.HandlerOpts{}))

	// Dispatch surface.
	r.Post("/v1/chat", g.handleChat())
	r.Get("/v1/agent", g.handleAgentWS())
	r.Get("/v1/providers", g.handleProviders())

	// Session admin — not mounted without auth.
	if g.config.Auth.IsConfigured() {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(g.config.Auth))
			r.Get("/v1/sessions", g.handleListSessions())
			r.Delete("/v1/sessions", g.handleClearAllSessions())
			r.Delete("/v1/sessions/{id}", g.handleClearSession())
		})
	}

	return r
}
