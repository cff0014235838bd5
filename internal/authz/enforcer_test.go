// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package authz

import (
	"testing"
	"time"

	"github.com/tomtom215/flixpilot/internal/auth"
)

func setupEnforcer(t *testing.T) *Enforcer {
	t.Helper()
	enforcer, err := NewEnforcer(nil)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	t.Cleanup(enforcer.Close)
	return enforcer
}

func assertEnforce(t *testing.T, enforcer *Enforcer, role, path, method string, want bool) {
	t.Helper()
	got, err := enforcer.Enforce(role, path, method)
	if err != nil {
		t.Fatalf("Enforce(%s, %s, %s) error = %v", role, path, method, err)
	}
	if got != want {
		t.Errorf("Enforce(%s, %s, %s) = %v, want %v", role, path, method, got, want)
	}
}

func TestDefaultPolicies(t *testing.T) {
	e := setupEnforcer(t)

	tests := []struct {
		role, path, method string
		want               bool
	}{
		{auth.RoleUser, "/api/devices", "GET", true},
		{auth.RoleUser, "/api/devices/config", "GET", true},
		{auth.RoleUser, "/api/devices/check-limit", "GET", true},
		{auth.RoleUser, "/api/devices/check-client", "GET", true},
		{auth.RoleUser, "/api/devices/record", "POST", true},
		{auth.RoleUser, "/api/devices/5f0c3c36-2f51-4b61-9a4b-3b1a0d3e9a11", "DELETE", true},
		{auth.RoleUser, "/api/auth/me", "GET", true},

		{auth.RoleUser, "/api/devices/all", "GET", false},
		{auth.RoleUser, "/api/devices/rules", "POST", false},
		{auth.RoleUser, "/api/devices/rules/whitelist/abc", "DELETE", false},
		{auth.RoleUser, "/api/devices/abc/inactive", "PUT", false},
		{auth.RoleUser, "/api/devices/limit", "PUT", false},
		{auth.RoleUser, "/api/devices/scan", "POST", false},
		{auth.RoleUser, "/api/plugins/emby-scanner/scan", "POST", false},
		{auth.RoleUser, "/api/admin/emby", "GET", false},
		{auth.RoleUser, "/api/ws", "GET", false},

		{auth.RoleAdmin, "/api/devices", "GET", true},
		{auth.RoleAdmin, "/api/devices/all", "GET", true},
		{auth.RoleAdmin, "/api/devices/rules/blacklist/abc", "DELETE", true},
		{auth.RoleAdmin, "/api/plugins/emby-scanner/delete", "POST", true},
		{auth.RoleAdmin, "/api/admin/emby", "PUT", true},
		{auth.RoleAdmin, "/api/devices", "PATCH", false},

		{"guest", "/api/devices", "GET", false},
	}
	for _, tt := range tests {
		assertEnforce(t, e, tt.role, tt.path, tt.method, tt.want)
	}
}

func TestEnforceUsesCache(t *testing.T) {
	e := setupEnforcer(t)
	assertEnforce(t, e, auth.RoleUser, "/api/devices", "GET", true)
	assertEnforce(t, e, auth.RoleUser, "/api/devices", "GET", true)
	if got := e.cache.size(); got != 1 {
		t.Errorf("cache size = %d, want 1", got)
	}
}

func TestAddPolicyClearsCache(t *testing.T) {
	e := setupEnforcer(t)
	assertEnforce(t, e, auth.RoleUser, "/api/devices/all", "GET", false)

	if _, err := e.AddPolicy(auth.RoleUser, "/api/devices/all", "GET"); err != nil {
		t.Fatalf("AddPolicy: %v", err)
	}
	assertEnforce(t, e, auth.RoleUser, "/api/devices/all", "GET", true)
}

func TestCustomPoliciesWithoutCache(t *testing.T) {
	e, err := NewEnforcer(&EnforcerConfig{
		Policies: [][]string{{auth.RoleUser, "/api/auth/me", "GET"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	if e.cache != nil {
		t.Error("cache should be disabled with zero TTL")
	}
	assertEnforce(t, e, auth.RoleUser, "/api/devices", "GET", false)
	assertEnforce(t, e, auth.RoleAdmin, "/api/auth/me", "GET", true)
}

func TestCacheExpiry(t *testing.T) {
	c := newEnforcementCache(20 * time.Millisecond)
	defer c.stop()

	c.set("user", "/api/devices", "GET", true)
	if allowed, ok := c.get("user", "/api/devices", "GET"); !ok || !allowed {
		t.Fatal("expected cached decision")
	}
	time.Sleep(40 * time.Millisecond)
	if _, ok := c.get("user", "/api/devices", "GET"); ok {
		t.Error("expected decision to expire")
	}
	c.stop()
}

func TestNormalizeResourcePattern(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/api/devices", "/api/devices"},
		{"/api/devices/5f0c3c36-2f51-4b61-9a4b-3b1a0d3e9a11", "/api/devices/:id"},
		{"/api/devices/5f0c3c36-2f51-4b61-9a4b-3b1a0d3e9a11/inactive", "/api/devices/:id/inactive"},
		{"/api/devices/rules/whitelist/42", "/api/devices/rules/whitelist/:id"},
	}
	for _, tt := range tests {
		if got := normalizeResourcePattern(tt.in); got != tt.want {
			t.Errorf("normalizeResourcePattern(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
