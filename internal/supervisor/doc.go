// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

/*
Package supervisor runs FlixPilot's long-lived services under suture v4.

The tree has three layers so that a misbehaving job cannot take the HTTP
surface with it:

	RootSupervisor ("flixpilot")
	├── SchedulerSupervisor ("scheduler-layer")
	│   ├── MonitorService   (if monitor.enabled)
	│   └── AutoScanService  (if monitor.enabled)
	├── MessagingSupervisor ("messaging-layer")
	│   └── WebSocketHubService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Supervisor events (start, failure, backoff, restart) are logged through
sutureslog with the slog adapter from internal/logging.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	return tree.Serve(ctx)

Services added to a layer are removed from that layer, not from Root();
suture tokens are only valid for the supervisor that issued them.

See package services for the wrappers.
*/
package supervisor
