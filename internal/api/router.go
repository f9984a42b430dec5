// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig tunes the middleware stack around the handlers.
type RouterConfig struct {
	RateLimitRPS   int
	RateLimitBurst int

	// TracingService names the OpenTelemetry service; empty disables
	// tracing entirely.
	TracingService string
}

// NewRouter builds the chi router with the canonical middleware stack:
// recoverer outermost, then request id, tracing, rate limit.
func NewRouter(s *Server, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(Recoverer)
	r.Use(RequestID)
	if cfg.TracingService != "" {
		r.Use(Tracing(cfg.TracingService))
	}
	if cfg.RateLimitRPS > 0 {
		r.Use(RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/unloading-contracts/{contractId}", func(r chi.Router) {
		r.Post("/create", s.createContract)
		r.Post("/add-line", s.addLine)
		r.Post("/decrease-line", s.decreaseLine)
		r.Post("/reschedule", s.reschedule)
		r.Post("/start", s.start)
		r.Post("/complete", s.complete)
		r.Post("/cancel", s.cancel)
		r.Get("/", s.getContract)
		r.Get("/state", s.getContractState)
	})

	r.Route("/org", func(r chi.Router) {
		r.Post("/buildings", s.createBuilding)
		r.Get("/buildings/{buildingId}", s.getBuilding)
		r.Post("/facilities", s.createFacility)
		r.Get("/facilities/{facilityId}", s.getFacility)
		r.Post("/facilities/{facilityId}/sections", s.addSection)
		r.Put("/facilities/{facilityId}/sections/{code}", s.resizeSection)
	})

	return r
}
