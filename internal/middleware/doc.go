// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

/*
Package middleware provides HTTP middleware shared by every route.

All middleware has the chi signature func(http.Handler) http.Handler. The
router installs them in this order:

	r.Use(middleware.RequestID)         // X-Request-ID + logging context
	r.Use(middleware.AccessLog)         // one zerolog line per request
	r.Use(middleware.PrometheusMetrics) // request counters and latency
	r.Use(middleware.Compression)       // gzip when the client accepts it

Prometheus labels use the chi route pattern (for example
/api/devices/{id}) instead of the raw path.
*/
package middleware
