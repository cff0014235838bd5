// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

/*
Package emby is the REST client used for every call FlixPilot makes to an Emby
server.

Requests go to <server>/emby/<endpoint> with the API key appended as the last
query parameter and an X-Emby-Authorization header naming one of the service
identities (Dashboard, Monitor, Web). Non-2xx responses surface as *APIError;
nothing is retried.

Each server gets one circuit breaker. Transport errors and 5xx responses count
as failures; after Options.BreakerFailures consecutive failures calls fail fast
with ErrCircuitOpen until Options.BreakerTimeout has passed.

Clients are obtained from a Pool so that the dashboard, monitor and scanner share
breaker state for the same server:

	pool := emby.NewPool(emby.Options{Timeout: 30 * time.Second})
	client, err := pool.Get(conn, emby.IdentityMonitor)
	if errors.Is(err, emby.ErrNotConfigured) {
		// no server URL or API key
	}
	sessions, err := client.GetSessions(ctx)
*/
package emby
