// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

// Package authz authorizes API requests using Casbin.
//
// Requests pass through authentication first, then this package:
//
//	Request -> auth.Middleware.Authenticate -> authz.Middleware.Authorize -> Handler
//
// # RBAC Model
//
// Policies map a role to a path pattern (keyMatch2, so /api/devices/:id matches
// one segment) and a method regex. The admin role inherits every user
// permission:
//
//	[request_definition]
//	r = sub, obj, act
//
//	[policy_definition]
//	p = sub, obj, act
//
//	[role_definition]
//	g = _, _
//
//	[policy_effect]
//	e = some(where (p.eft == allow))
//
//	[matchers]
//	m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
//
// Decisions are cached per (role, path, method) for a short TTL.
package authz
