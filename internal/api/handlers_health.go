// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/flixpilot/internal/emby"
)

// Version is set at build time.
var Version = "dev"

const healthEmbyTimeout = 5 * time.Second

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status           string  `json:"status"`
	Version          string  `json:"version"`
	Uptime           float64 `json:"uptime_seconds"`
	EmbyConfigured   bool    `json:"emby_configured"`
	EmbyReachable    bool    `json:"emby_reachable"`
	EmbyServerName   string  `json:"emby_server_name,omitempty"`
	EmbyVersion      string  `json:"emby_version,omitempty"`
	CircuitBreaker   string  `json:"circuit_breaker,omitempty"`
	WebSocketClients int     `json:"websocket_clients"`
}

// Health always answers 200 while the process is up. Status is "degraded"
// when the default Emby server is missing or unreachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	health := HealthStatus{
		Status:  "healthy",
		Version: Version,
		Uptime:  time.Since(h.startTime).Seconds(),
	}
	if h.wsHub != nil {
		health.WebSocketClients = h.wsHub.GetClientCount()
	}

	conn, ok, err := h.conns.DefaultConnection()
	health.EmbyConfigured = err == nil && ok && conn.IsConfigured()
	if health.EmbyConfigured {
		if client, err := h.pool.Get(conn, emby.IdentityDashboard); err == nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthEmbyTimeout)
			info, err := client.GetSystemInfo(ctx)
			cancel()
			if err == nil {
				health.EmbyReachable = true
				health.EmbyServerName = info.ServerName
				health.EmbyVersion = info.Version
			}
			health.CircuitBreaker = client.BreakerState()
		}
	}
	if !health.EmbyReachable {
		health.Status = "degraded"
	}

	NewResponseWriter(w, r).Success(health)
}
