// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/fleetvault/internal/middleware"
)

// RouterConfig configures the HTTP surface.
type RouterConfig struct {
	CORSOrigins       []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool

	// Guard wraps download, restore, delete and the audit log. Nil leaves
	// them open.
	Guard func(http.HandlerFunc) http.HandlerFunc

	// Throttle wraps create and restore. Nil applies no global cap.
	Throttle func(http.HandlerFunc) http.HandlerFunc
}

// Router wires the handlers into a chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	guard         func(http.HandlerFunc) http.HandlerFunc
	throttle      func(http.HandlerFunc) http.HandlerFunc
}

// NewRouter creates a Router for handler.
func NewRouter(handler *Handler, cfg RouterConfig) *Router {
	mwConfig := DefaultChiMiddlewareConfig()
	if cfg.CORSOrigins != nil {
		mwConfig.CORSAllowedOrigins = cfg.CORSOrigins
	}
	if cfg.RateLimitRequests > 0 {
		mwConfig.RateLimitRequests = cfg.RateLimitRequests
	}
	if cfg.RateLimitWindow > 0 {
		mwConfig.RateLimitWindow = cfg.RateLimitWindow
	}
	mwConfig.RateLimitDisabled = cfg.RateLimitDisabled

	router := &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(mwConfig),
		guard:         cfg.Guard,
		throttle:      cfg.Throttle,
	}
	if router.guard == nil {
		router.guard = identity
	}
	if router.throttle == nil {
		router.throttle = identity
	}
	return router
}

func identity(next http.HandlerFunc) http.HandlerFunc {
	return next
}

// chiMiddleware adapts http.HandlerFunc middleware to chi's
// func(http.Handler) http.Handler.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// SetupChi builds the route tree.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
	})

	// One limiter instance so creates and restores share a budget.
	operations := router.chiMiddleware.RateLimitOperations()

	r.Route("/api/v1/backups", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.Get("/", router.handler.ListBackups)
		r.Get("/latest", router.handler.LatestBackup)
		r.Get("/schedule", router.handler.Schedule)
		r.With(operations, chiMiddleware(router.throttle)).Post("/", router.handler.CreateBackup)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware(router.guard))
			r.Use(chiMiddleware(middleware.Compression))
			r.Get("/latest/download", router.handler.DownloadLatest)
			r.Get("/{fileName}/download", router.handler.DownloadBackup)
		})

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware(router.guard))
			r.With(operations, chiMiddleware(router.throttle)).Post("/{fileName}/restore", router.handler.RestoreBackup)
			r.Delete("/{fileName}", router.handler.DeleteBackup)
		})
	})

	r.Route("/api/v1/audit", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(router.guard))
		r.Get("/", router.handler.AuditEvents)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
