// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

/*
Package api exposes the FlixPilot admin backend over HTTP.

Routes are served by a chi router. Every /api route except login and the two
secret-protected cron endpoints goes through authentication
(auth.Middleware) and casbin authorization (authz.Middleware):

	POST   /api/auth/login                        admin login, sets auth-token cookie
	GET    /api/auth/me                           current subject
	GET    /api/devices                           own devices and limit summary
	GET    /api/devices/all                       every device (admin)
	GET    /api/devices/config                    rules (user) or full settings (admin)
	GET    /api/devices/check-limit               device quota check
	GET    /api/devices/check-client?client=      client rule check
	POST   /api/devices/record                    device heartbeat
	DELETE /api/devices/{id}                      delete own device (admin: any)
	PUT    /api/devices/{id}/inactive             soft-deactivate (admin)
	POST   /api/devices/rules                     add client rule (admin)
	DELETE /api/devices/rules/{type}/{id}         delete client rule (admin)
	PUT    /api/devices/limit                     device limit settings (admin)
	PUT    /api/devices/auto-scan-config          auto-scan settings (admin)
	GET    /api/devices/monitor?secret=           one monitor pass
	GET    /api/devices/auto-scan?secret=         scheduled device sweep
	GET    /api/devices/scan                      sweep preview (admin)
	POST   /api/devices/scan                      sweep and delete (admin)
	GET    /api/plugins/emby-scanner/libraries    libraries of the default server
	POST   /api/plugins/emby-scanner/libraries    libraries of a given server
	POST   /api/plugins/emby-scanner/scan         duplicate scan
	POST   /api/plugins/emby-scanner/delete       delete Emby items
	GET    /api/admin/emby                        stored Emby connections
	PUT    /api/admin/emby                        replace Emby connections
	GET    /api/ws                                live monitor events (websocket)
	GET    /health                                liveness and Emby reachability
	GET    /metrics                               Prometheus

Responses use the envelope in response.go:

	{"success": true, "data": {...}, "meta": {"request_id": "...", ...}}
	{"success": false, "error": {"code": "FORBIDDEN", "message": "无权限"}}
*/
package api
