// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tomtom215/flixpilot/internal/auth"
	"github.com/tomtom215/flixpilot/internal/config"
	"github.com/tomtom215/flixpilot/internal/models"
)

func TestLogin(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{})

	w := env.do(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "admin", "password": testAdminPassword}, "")
	checkStatus(t, w, http.StatusOK)

	var resp loginResponse
	decodeData(t, w, &resp)
	if resp.Token == "" || resp.User == nil || !resp.User.IsAdmin() {
		t.Fatalf("login response = %+v", resp)
	}

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.CookieName {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value != resp.Token || !cookie.HttpOnly {
		t.Fatalf("session cookie = %+v", cookie)
	}

	// The issued token opens admin routes.
	w = env.do(t, http.MethodGet, "/api/devices/all", nil, resp.Token)
	checkStatus(t, w, http.StatusOK)
}

func TestLogin_Rejected(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{})

	w := env.do(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "admin", "password": "wrong-password"}, "")
	checkError(t, w, http.StatusUnauthorized, ErrCodeUnauthorized, "用户名或密码错误")

	w = env.do(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "admin"}, "")
	checkError(t, w, http.StatusBadRequest, ErrCodeValidationFailed, "")

	w = env.do(t, http.MethodPost, "/api/auth/login", "{", "")
	checkError(t, w, http.StatusBadRequest, ErrCodeBadRequest, "")
}

func TestLogin_Disabled(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{noAdmin: true})

	w := env.do(t, http.MethodPost, "/api/auth/login", map[string]string{"username": "admin", "password": testAdminPassword}, "")
	checkError(t, w, http.StatusForbidden, ErrCodeForbidden, "管理员登录未启用")
}

func TestEmbyConnections_Masked(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{})

	w := env.do(t, http.MethodGet, "/api/admin/emby", nil, env.adminToken(t))
	checkStatus(t, w, http.StatusOK)
	var data struct {
		Connections []maskedConnection `json:"connections"`
	}
	decodeData(t, w, &data)
	if len(data.Connections) != 1 {
		t.Fatalf("connections = %+v", data.Connections)
	}
	if got := data.Connections[0].APIKey; got != "****1234" {
		t.Errorf("apiKey = %q, want masked", got)
	}
	if data.Connections[0].ServerURL != env.embyURL {
		t.Errorf("serverUrl = %q, want %q", data.Connections[0].ServerURL, env.embyURL)
	}
}

func TestReplaceEmbyConnections(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{})
	admin := env.adminToken(t)

	w := env.do(t, http.MethodPut, "/api/admin/emby", map[string]interface{}{
		"connections": []map[string]string{
			{"serverUrl": "http://emby.local:8096/", "apiKey": "abcdefgh"},
			{"name": "Backup", "serverUrl": "https://backup.example", "apiKey": "zz"},
		},
	}, admin)
	checkStatus(t, w, http.StatusOK)

	conns, err := env.store.Connections()
	if err != nil {
		t.Fatalf("connections: %v", err)
	}
	if len(conns) != 2 {
		t.Fatalf("stored %d connections, want 2", len(conns))
	}
	if conns[0].ServerURL != "http://emby.local:8096" || conns[0].Name == "" {
		t.Errorf("default connection = %+v", conns[0])
	}

	w = env.do(t, http.MethodPut, "/api/admin/emby", map[string]interface{}{
		"connections": []map[string]string{{"serverUrl": "ftp://emby.local", "apiKey": "k"}},
	}, admin)
	checkError(t, w, http.StatusBadRequest, ErrCodeValidationFailed, "Emby 配置无效")
}

func TestMaskKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "****"},
		{"abcd", "****"},
		{"abcdef", "****cdef"},
	}
	for _, tt := range tests {
		if got := maskKey(tt.in); got != tt.want {
			t.Errorf("maskKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestScanner_NotConfigured(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{noEmby: true})
	admin := env.adminToken(t)

	w := env.do(t, http.MethodGet, "/api/plugins/emby-scanner/libraries", nil, admin)
	checkError(t, w, http.StatusBadRequest, ErrCodeNotConfigured, "未配置 Emby 服务器")

	w = env.do(t, http.MethodPost, "/api/plugins/emby-scanner/scan", map[string]string{"mode": "strict"}, admin)
	checkError(t, w, http.StatusBadRequest, ErrCodeNotConfigured, "")
}

func TestScanner_Libraries(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{})
	admin := env.adminToken(t)

	var data struct {
		Libraries []models.ScannerLibrary `json:"libraries"`
	}
	w := env.do(t, http.MethodGet, "/api/plugins/emby-scanner/libraries", nil, admin)
	checkStatus(t, w, http.StatusOK)
	decodeData(t, w, &data)
	if len(data.Libraries) != 1 || data.Libraries[0].ID != "lib-movies" {
		t.Errorf("libraries = %+v, want only the movie library", data.Libraries)
	}

	w = env.do(t, http.MethodPost, "/api/plugins/emby-scanner/libraries", map[string]string{
		"serverUrl": env.embyURL + "/",
		"apiKey":    "other-key",
	}, admin)
	checkStatus(t, w, http.StatusOK)

	w = env.do(t, http.MethodPost, "/api/plugins/emby-scanner/libraries", map[string]string{"serverUrl": env.embyURL}, admin)
	checkError(t, w, http.StatusBadRequest, ErrCodeValidationFailed, "")
}

func TestScanner_Scan(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{})

	w := env.do(t, http.MethodPost, "/api/plugins/emby-scanner/scan", map[string]interface{}{"mode": "loose"}, env.adminToken(t))
	checkStatus(t, w, http.StatusOK)
	var result models.ScannerResult
	decodeData(t, w, &result)
	if result.Mode != models.ScanModeLoose {
		t.Errorf("mode = %q, want loose", result.Mode)
	}
}

func TestScanner_Delete(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{})
	admin := env.adminToken(t)

	w := env.do(t, http.MethodPost, "/api/plugins/emby-scanner/delete", map[string]interface{}{"items": []string{}}, admin)
	checkError(t, w, http.StatusBadRequest, ErrCodeValidationFailed, "请选择至少一个要删除的条目")

	w = env.do(t, http.MethodPost, "/api/plugins/emby-scanner/delete", map[string]interface{}{"items": []string{"i1", "i2"}}, admin)
	checkStatus(t, w, http.StatusOK)
	var report models.ItemDeleteReport
	decodeData(t, w, &report)
	if report.Summary.SuccessCount != 2 {
		t.Errorf("summary = %+v", report.Summary)
	}
	if got := env.fake.deletedIDs(); len(got) != 2 {
		t.Errorf("emby deletes = %v", got)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{})

	w := env.do(t, http.MethodGet, "/health", nil, "")
	checkStatus(t, w, http.StatusOK)
	var health HealthStatus
	decodeData(t, w, &health)
	if health.Status != "healthy" || !health.EmbyReachable || health.EmbyServerName != "Living Room" {
		t.Errorf("health = %+v", health)
	}
}

func TestHealth_Degraded(t *testing.T) {
	env := newTestEnv(t, testEnvOptions{noEmby: true})

	w := env.do(t, http.MethodGet, "/health", nil, "")
	checkStatus(t, w, http.StatusOK)
	var health HealthStatus
	decodeData(t, w, &health)
	if health.Status != "degraded" || health.EmbyConfigured {
		t.Errorf("health = %+v", health)
	}
}

func TestCheckWebSocketOrigin(t *testing.T) {
	h := &Handler{cfg: &config.Config{Security: config.SecurityConfig{CORSOrigins: []string{"https://app.example"}}}}

	tests := []struct {
		origin string
		want   bool
	}{
		{"", false},
		{"https://app.example", true},
		{"https://evil.example", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/ws", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		if got := h.checkWebSocketOrigin(req); got != tt.want {
			t.Errorf("origin %q: got %v, want %v", tt.origin, got, tt.want)
		}
	}
}
