// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

// Package main is the entry point for the FlixPilot server.
//
// FlixPilot sits next to an Emby server and gives administrators device
// limits, client black and white lists, a session monitor that kicks
// violating playback, and a duplicate scanner for the media libraries.
//
// # Startup
//
//  1. Configuration: defaults, optional config.yaml, environment (Koanf v2)
//  2. Store: BadgerDB under DATA_DIR/db, with a one-time import of legacy
//     devices.json, device-config.json and config.json
//  3. Components: Emby client pool, device registry, scanner, monitor,
//     WebSocket hub, JWT and Casbin authorization
//  4. Supervisor tree: scheduler, messaging and API layers (suture v4)
//
// # Environment
//
//	EMBY_URL, EMBY_API_KEY      seed the default Emby connection
//	JWT_SECRET                  32+ character signing secret (required)
//	ADMIN_USERNAME, ADMIN_PASSWORD
//	AUTO_SCAN_SECRET            secret for the cron-facing monitor endpoints
//	MONITOR_ENABLED=true        run the monitor in-process instead of via cron
//	DATA_DIR                    state directory (default ./data)
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context. The supervisor stops the
// HTTP server gracefully, then the hub and schedulers, and the store is
// closed last.
//
// # Example
//
//	export EMBY_URL=http://emby:8096
//	export EMBY_API_KEY=your-api-key
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export ADMIN_PASSWORD=secure-password
//	./flixpilot
//
// Build with a version string:
//
//	go build -ldflags "-X github.com/tomtom215/flixpilot/internal/api.Version=1.0.0" ./cmd/server
package main
