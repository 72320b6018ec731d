// Package viewer serves acquired artifacts over loopback HTTP, so a slide
// deck, audio track, video or comic can be opened by URL from a browser or
// media player while the client runs.
package viewer

import (
	"net/http"

	"github.com/atinyakov/researchhive/internal/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter returns the viewer handler.
//
// Routes:
//
//	GET /artifacts        -> list of live handles
//	GET /artifacts/{id}   -> artifact bytes (?download=1 for an attachment)
//	GET /metrics          -> Prometheus metrics from gatherer
//
// Every route is restricted to loopback peers and logged.
func NewRouter(h *Handler, gatherer prometheus.Gatherer, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.WithRequestLogging(log))
	r.Use(middleware.LoopbackOnly)

	r.Route("/artifacts", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
