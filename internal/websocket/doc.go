// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

/*
Package websocket pushes live monitor events to admin dashboards.

A single Hub owns the set of connected clients and fans every broadcast out to
them. Each Client runs a read goroutine (pings, close detection) and a write
goroutine (messages, keepalive pings). A client whose send buffer is full is
dropped rather than allowed to stall the hub.

Message types:

  - monitor_pass: a completed session monitor pass
  - session_kicked: one session removed by the monitor
  - device_sweep: a manual device purge
  - auto_scan: a scheduled device purge
  - ping / pong: client keepalive
  - snapshot: client request to resend the retained events

Events of the types passed to NewHub are retained; the latest of each is
replayed with "replayed": true when a client connects or sends snapshot.

Usage:

	hub := websocket.NewHub("monitor_pass", "device_sweep", "auto_scan")
	go hub.RunWithContext(ctx)

	conn, _ := upgrader.Upgrade(w, r, nil)
	client := websocket.NewClient(hub, conn, subject.Username)
	hub.Register <- client
	client.Start()

	hub.BroadcastJSON("monitor_pass", result)

RunWithContext returns when its context is cancelled, closing every client,
so the hub can run as a supervised service.
*/
package websocket
