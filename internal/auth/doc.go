// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

/*
Package auth verifies who is calling the API.

User accounts live in the member portal, which signs HS256 tokens with the
shared JWT secret and hands them to the browser in the auth-token cookie. This
package validates those tokens and issues tokens of the same shape for the
single configured admin login. Cron-style callers of the monitor and
auto-scan endpoints authenticate with a shared secret instead.

Token claims:

	{"userId": "u-42", "username": "alice", "role": "user", "exp": 1767225600}

Usage:

	jwtManager, err := auth.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.SessionTimeout)
	mw := auth.NewMiddleware(jwtManager, writeError)
	r.With(mw.Authenticate).Get("/api/devices", h.ListDevices)

	subject := auth.SubjectFromContext(r.Context())
*/
package auth
