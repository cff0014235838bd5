// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/flixpilot/internal/auth"
	"github.com/tomtom215/flixpilot/internal/config"
	"github.com/tomtom215/flixpilot/internal/devices"
	"github.com/tomtom215/flixpilot/internal/emby"
	"github.com/tomtom215/flixpilot/internal/logging"
	"github.com/tomtom215/flixpilot/internal/models"
	"github.com/tomtom215/flixpilot/internal/monitor"
	"github.com/tomtom215/flixpilot/internal/scanner"
	ws "github.com/tomtom215/flixpilot/internal/websocket"
)

// ConnectionStore persists the Emby connections. The first one is the
// default.
type ConnectionStore interface {
	Connections() ([]models.EmbyConnection, error)
	DefaultConnection() (models.EmbyConnection, bool, error)
	SaveConnections(conns []models.EmbyConnection) ([]models.EmbyConnection, error)
}

// Dependencies wires the handler to the rest of the service.
type Dependencies struct {
	Config      *config.Config
	Registry    *devices.Registry
	Monitor     *monitor.Monitor
	Scanner     *scanner.Scanner
	Connections ConnectionStore
	Pool        *emby.Pool
	Hub         *ws.Hub
	JWT         *auth.JWTManager

	// Admin is nil when no admin password is configured.
	Admin *auth.AdminCredentials
}

// Handler holds the dependencies shared by every endpoint.
type Handler struct {
	cfg       *config.Config
	registry  *devices.Registry
	monitor   *monitor.Monitor
	scanner   *scanner.Scanner
	conns     ConnectionStore
	pool      *emby.Pool
	wsHub     *ws.Hub
	jwt       *auth.JWTManager
	admin     *auth.AdminCredentials
	startTime time.Time
}

// NewHandler creates the API handler.
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		cfg:       deps.Config,
		registry:  deps.Registry,
		monitor:   deps.Monitor,
		scanner:   deps.Scanner,
		conns:     deps.Connections,
		pool:      deps.Pool,
		wsHub:     deps.Hub,
		jwt:       deps.JWT,
		admin:     deps.Admin,
		startTime: time.Now(),
	}
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin only accepts browsers from the configured CORS
// origins. Requests without an Origin header are rejected.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}
	if h.cfg == nil {
		return true
	}
	for _, allowed := range h.cfg.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", origin).Msg("WebSocket connection rejected: origin not allowed")
	return false
}
