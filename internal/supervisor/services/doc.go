// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

/*
Package services adapts FlixPilot components to suture.Service.

	HTTPServerService    ListenAndServe with graceful Shutdown
	WebSocketHubService  websocket.Hub.RunWithContext
	MonitorService       session monitor pass on a fixed ticker
	AutoScanService      robfig/cron job that sweeps devices when due
	StoreGCService       badger value-log GC on a fixed ticker

The scheduler services log failed passes and keep running; only a broken
listener or hub returns an error and gets restarted by the supervisor.
*/
package services
