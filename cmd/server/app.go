// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package main

import (
	"fmt"
	"path/filepath"

	"github.com/tomtom215/flixpilot/internal/access"
	"github.com/tomtom215/flixpilot/internal/api"
	"github.com/tomtom215/flixpilot/internal/auth"
	"github.com/tomtom215/flixpilot/internal/authz"
	"github.com/tomtom215/flixpilot/internal/config"
	"github.com/tomtom215/flixpilot/internal/devices"
	"github.com/tomtom215/flixpilot/internal/emby"
	"github.com/tomtom215/flixpilot/internal/logging"
	"github.com/tomtom215/flixpilot/internal/models"
	"github.com/tomtom215/flixpilot/internal/monitor"
	"github.com/tomtom215/flixpilot/internal/scanner"
	"github.com/tomtom215/flixpilot/internal/store"
	ws "github.com/tomtom215/flixpilot/internal/websocket"
)

// app holds the long-lived components shared by the HTTP router and the
// scheduler services.
type app struct {
	router   *api.Router
	monitor  *monitor.Monitor
	hub      *ws.Hub
	enforcer *authz.Enforcer
}

func storeDir(dataDir string) string {
	return filepath.Join(dataDir, "db")
}

func newApp(cfg *config.Config, st *store.Store) (*app, error) {
	seeded, err := st.SeedConnection(models.EmbyConnection{
		Name:      cfg.Emby.Name,
		ServerURL: cfg.Emby.URL,
		APIKey:    cfg.Emby.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("seed emby connection: %w", err)
	}
	if seeded {
		logging.Info().Str("emby_url", cfg.Emby.URL).Msg("Seeded Emby connection from configuration")
	}

	pool := emby.NewPool(emby.Options{
		Timeout:         cfg.Emby.Timeout,
		BreakerFailures: cfg.Emby.BreakerFailures,
		BreakerTimeout:  cfg.Emby.BreakerTimeout,
	})

	registry := devices.NewRegistry(st, access.NewMatcher())
	scan := scanner.New(pool, scanner.Options{
		PageSize:       cfg.Scanner.PageSize,
		DeleteInterval: cfg.Scanner.DeleteInterval,
	})
	hub := ws.NewHub(monitor.SnapshotEvents...)
	mon := monitor.New(pool, st, registry, hub)

	jwtManager, err := auth.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.SessionTimeout)
	if err != nil {
		return nil, fmt.Errorf("jwt manager: %w", err)
	}

	var admin *auth.AdminCredentials
	if cfg.Security.AdminPassword != "" {
		admin, err = auth.NewAdminCredentials(cfg.Security.AdminUsername, cfg.Security.AdminPassword)
		if err != nil {
			return nil, fmt.Errorf("admin credentials: %w", err)
		}
		logging.Info().Str("username", cfg.Security.AdminUsername).Msg("Admin login enabled")
	} else {
		logging.Info().Msg("Admin login disabled (no ADMIN_PASSWORD); admin tokens must come from the identity provider")
	}

	enforcer, err := authz.NewEnforcer(authz.DefaultEnforcerConfig())
	if err != nil {
		return nil, fmt.Errorf("authorization enforcer: %w", err)
	}

	handler := api.NewHandler(api.Dependencies{
		Config:      cfg,
		Registry:    registry,
		Monitor:     mon,
		Scanner:     scan,
		Connections: st,
		Pool:        pool,
		Hub:         hub,
		JWT:         jwtManager,
		Admin:       admin,
	})

	chiMW := api.NewChiMiddleware(&api.ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.Security.CORSOrigins,
		CORSMaxAge:         86400,
		RateLimitRequests:  cfg.Security.RateLimitRequests,
		RateLimitWindow:    cfg.Security.RateLimitWindow,
	})

	router := api.NewRouter(
		handler,
		auth.NewMiddleware(jwtManager, api.WriteError),
		authz.NewMiddleware(enforcer, api.WriteError),
		chiMW,
	)

	return &app{router: router, monitor: mon, hub: hub, enforcer: enforcer}, nil
}

// Close releases resources not owned by the supervisor tree.
func (a *app) Close() {
	a.enforcer.Close()
}
