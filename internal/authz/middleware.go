// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package authz

import (
	"net/http"

	"github.com/tomtom215/flixpilot/internal/auth"
	"github.com/tomtom215/flixpilot/internal/logging"
)

// Middleware enforces the policy on the request path and method.
type Middleware struct {
	enforcer *Enforcer
	writeErr auth.ErrorWriter
}

// NewMiddleware creates a new authorization middleware. writeErr may be nil.
func NewMiddleware(enforcer *Enforcer, writeErr auth.ErrorWriter) *Middleware {
	if writeErr == nil {
		writeErr = func(w http.ResponseWriter, _ *http.Request, status int, _ string, message string) {
			http.Error(w, message, status)
		}
	}
	return &Middleware{enforcer: enforcer, writeErr: writeErr}
}

// Authorize must run after auth.Middleware.Authenticate. Requests without a
// subject or without a matching policy get 403.
func (m *Middleware) Authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject := auth.SubjectFromContext(r.Context())
		if subject == nil {
			m.writeErr(w, r, http.StatusForbidden, "FORBIDDEN", "无权限")
			return
		}

		allowed, err := m.enforcer.Enforce(subject.Role, r.URL.Path, r.Method)
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("Authorization error")
			RecordAuthzError("enforce")
			m.writeErr(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
			return
		}
		if !allowed {
			logging.Ctx(r.Context()).Debug().
				Str("user", subject.Username).
				Str("role", subject.Role).
				Str("path", r.URL.Path).
				Msg("Authorization denied")
			m.writeErr(w, r, http.StatusForbidden, "FORBIDDEN", "无权限")
			return
		}

		next.ServeHTTP(w, r)
	})
}
