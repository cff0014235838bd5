// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/flixpilot/internal/auth"
	"github.com/tomtom215/flixpilot/internal/authz"
	"github.com/tomtom215/flixpilot/internal/middleware"
)

// Router assembles the HTTP surface.
type Router struct {
	handler       *Handler
	auth          *auth.Middleware
	authz         *authz.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. The auth and authz middleware should be
// built with WriteError so failures use the response envelope.
func NewRouter(handler *Handler, authMW *auth.Middleware, authzMW *authz.Middleware, chiMW *ChiMiddleware) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, auth: authMW, authz: authzMW, chiMiddleware: chiMW}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.AccessLog)
	r.Use(middleware.PrometheusMetrics)
	r.Use(router.chiMiddleware.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusNotFound, ErrCodeNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.With(router.chiMiddleware.RateLimitLogin()).Post("/api/auth/login", h.Login)

	// Cron endpoints authenticate with the shared secret.
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit("cron", 1))
		r.Get("/api/devices/monitor", h.requireSecret(h.MonitorPass))
		r.Get("/api/devices/auto-scan", h.requireSecret(h.AutoScan))
	})

	// The websocket is long-lived; keep it out of compression and rate limits.
	r.With(router.auth.Authenticate, router.authz.Authorize).Get("/api/ws", h.WebSocket)

	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit("api", 1))
		r.Use(middleware.Compression)
		r.Use(router.auth.Authenticate)
		r.Use(router.authz.Authorize)

		r.Get("/api/auth/me", h.Me)

		r.Route("/api/devices", func(r chi.Router) {
			r.Get("/", h.ListDevices)
			r.Get("/all", h.ListAllDevices)
			r.Get("/config", h.DeviceConfig)
			r.Get("/check-limit", h.CheckLimit)
			r.Get("/check-client", h.CheckClient)
			r.Post("/record", h.RecordDevice)
			r.Post("/rules", h.AddClientRule)
			r.Delete("/rules/{type}/{id}", h.DeleteClientRule)
			r.Put("/limit", h.UpdateLimitConfig)
			r.Put("/auto-scan-config", h.UpdateAutoScanConfig)
			r.Get("/scan", h.SweepPreview)
			r.Post("/scan", h.SweepPurge)
			r.Delete("/{id}", h.DeleteDevice)
			r.Put("/{id}/inactive", h.SetDeviceInactive)
		})

		r.Route("/api/plugins/emby-scanner", func(r chi.Router) {
			r.Get("/libraries", h.DefaultLibraries)
			r.Post("/libraries", h.ManualLibraries)
			r.Post("/scan", h.Scan)
			r.Post("/delete", h.DeleteItems)
		})

		r.Get("/api/admin/emby", h.EmbyConnections)
		r.Put("/api/admin/emby", h.ReplaceEmbyConnections)
	})

	return r
}
