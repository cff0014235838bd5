// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package authz

import (
	"fmt"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/tomtom215/flixpilot/internal/auth"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

// DefaultPolicies are the built-in permissions. Admin inherits user.
var DefaultPolicies = [][]string{
	{auth.RoleUser, "/api/auth/me", "GET"},
	{auth.RoleUser, "/api/devices", "GET"},
	{auth.RoleUser, "/api/devices/config", "GET"},
	{auth.RoleUser, "/api/devices/check-limit", "GET"},
	{auth.RoleUser, "/api/devices/check-client", "GET"},
	{auth.RoleUser, "/api/devices/record", "POST"},
	{auth.RoleUser, "/api/devices/:id", "DELETE"},

	{auth.RoleAdmin, "/api/*", "^(GET|POST|PUT|DELETE)$"},
}

// DefaultRoleInheritance lists (child, parent) role pairs.
var DefaultRoleInheritance = [][]string{
	{auth.RoleAdmin, auth.RoleUser},
}

// EnforcerConfig holds configuration for the Casbin enforcer.
type EnforcerConfig struct {
	// Policies replaces DefaultPolicies when non-nil.
	Policies [][]string

	// CacheTTL is how long decisions are cached. Zero disables caching.
	CacheTTL time.Duration
}

// DefaultEnforcerConfig returns default configuration.
func DefaultEnforcerConfig() *EnforcerConfig {
	return &EnforcerConfig{CacheTTL: time.Minute}
}

// Enforcer wraps the Casbin enforcer with a decision cache.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
	cache    *enforcementCache
}

// NewEnforcer creates an enforcer loaded with the configured policies.
func NewEnforcer(config *EnforcerConfig) (*Enforcer, error) {
	if config == nil {
		config = DefaultEnforcerConfig()
	}

	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	policies := config.Policies
	if policies == nil {
		policies = DefaultPolicies
	}
	if _, err := enforcer.AddPolicies(policies); err != nil {
		return nil, fmt.Errorf("failed to add policies: %w", err)
	}
	if _, err := enforcer.AddGroupingPolicies(DefaultRoleInheritance); err != nil {
		return nil, fmt.Errorf("failed to add role inheritance: %w", err)
	}

	e := &Enforcer{enforcer: enforcer}
	if config.CacheTTL > 0 {
		e.cache = newEnforcementCache(config.CacheTTL)
	}
	return e, nil
}

// Enforce reports whether role may perform method on path.
func (e *Enforcer) Enforce(role, path, method string) (bool, error) {
	start := time.Now()
	if e.cache != nil {
		if allowed, ok := e.cache.get(role, path, method); ok {
			RecordAuthzDecision(role, path, method, allowed, time.Since(start), true)
			return allowed, nil
		}
	}

	allowed, err := e.enforcer.Enforce(role, path, method)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}

	if e.cache != nil {
		e.cache.set(role, path, method, allowed)
	}
	RecordAuthzDecision(role, path, method, allowed, time.Since(start), false)
	return allowed, nil
}

// AddPolicy adds a rule and clears cached decisions.
func (e *Enforcer) AddPolicy(role, path, methods string) (bool, error) {
	added, err := e.enforcer.AddPolicy(role, path, methods)
	if err != nil {
		return false, fmt.Errorf("failed to add policy: %w", err)
	}
	if e.cache != nil {
		e.cache.clear()
	}
	return added, nil
}

// Close stops the cache cleanup goroutine.
func (e *Enforcer) Close() {
	if e.cache != nil {
		e.cache.stop()
	}
}
