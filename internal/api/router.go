// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router builds the chi handler tree.
func (h *Handlers) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
		MaxAge:         86400,
	}))

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httprate.LimitByIP(1000, time.Minute))
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.rateLimit())
		r.Use(prometheusMetrics)

		r.Post("/pick", h.Pick)
		r.Get("/pick/stats", h.PickStats)

		r.Get("/titles/{titleID}/signature", h.TitleSignature)
		r.Get("/taste/group", h.GroupTaste)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/taste", h.TasteVector)
			r.Post("/taste/rebuild", h.RebuildTaste)
			r.Get("/crew", h.TopCrew)
			r.Post("/crew/rebuild", h.RebuildCrew)

			r.Get("/dismissed", h.ListDismissed)
			r.Post("/dismissed", h.DismissTitle)
			r.Delete("/dismissed/{titleID}", h.UndismissTitle)

			r.Post("/ratings", h.UpsertRating)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (h *Handlers) rateLimit() func(http.Handler) http.Handler {
	if h.cfg.RateLimitReqs <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.LimitByIP(h.cfg.RateLimitReqs, h.cfg.RateLimitWindow)
}
