// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package auth

import "context"

// Roles understood by the authorization policy.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Subject is the authenticated caller.
type Subject struct {
	ID       string `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// IsAdmin reports whether the subject holds the admin role.
func (s *Subject) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

// SubjectFromClaims maps token claims to a Subject. Unknown roles are
// treated as user.
func SubjectFromClaims(c *Claims) *Subject {
	role := c.Role
	if role != RoleAdmin {
		role = RoleUser
	}
	return &Subject{ID: c.UserID, Username: c.Username, Role: role}
}

type contextKey struct{}

// ContextWithSubject stores s in ctx.
func ContextWithSubject(ctx context.Context, s *Subject) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// SubjectFromContext returns the subject stored by Authenticate, or nil.
func SubjectFromContext(ctx context.Context) *Subject {
	s, _ := ctx.Value(contextKey{}).(*Subject)
	return s
}
