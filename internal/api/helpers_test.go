// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/flixpilot/internal/access"
	"github.com/tomtom215/flixpilot/internal/auth"
	"github.com/tomtom215/flixpilot/internal/authz"
	"github.com/tomtom215/flixpilot/internal/config"
	"github.com/tomtom215/flixpilot/internal/devices"
	"github.com/tomtom215/flixpilot/internal/emby"
	"github.com/tomtom215/flixpilot/internal/models"
	"github.com/tomtom215/flixpilot/internal/monitor"
	"github.com/tomtom215/flixpilot/internal/scanner"
	"github.com/tomtom215/flixpilot/internal/store"
	ws "github.com/tomtom215/flixpilot/internal/websocket"
)

const (
	testJWTSecret     = "test-jwt-secret-with-enough-entropy-0123456789"
	testMonitorSecret = "cron-secret"
	testAdminPassword = "correct-horse-battery"
	testAPIKey        = "emby-api-key-1234"
)

// fakeEmby is a minimal Emby server: sessions, devices, system info, media
// folders and item deletes.
type fakeEmby struct {
	mu       sync.Mutex
	sessions []models.EmbySession
	devices  []models.EmbyDevice
	folders  []models.EmbyMediaFolder
	deleted  []string
	down     bool
}

func (f *fakeEmby) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.down {
		w.WriteHeader(http.StatusBadGateway)
		return
	}

	p := strings.TrimPrefix(r.URL.Path, "/emby/")
	switch {
	case r.Method == http.MethodGet && p == "Sessions":
		writeTestJSON(w, f.sessions)
	case r.Method == http.MethodPost && (strings.HasSuffix(p, "/Playing/Stop") || strings.HasSuffix(p, "/Message")):
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodGet && p == "Devices":
		writeTestJSON(w, models.EmbyDevicesResponse{Items: f.devices, TotalRecordCount: len(f.devices)})
	case r.Method == http.MethodDelete && p == "Devices":
		f.deleted = append(f.deleted, r.URL.Query().Get("Id"))
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodGet && p == "System/Info":
		writeTestJSON(w, models.EmbySystemInfo{ServerName: "Living Room", Version: "4.8.0.0", ID: "srv1"})
	case r.Method == http.MethodGet && p == "Library/MediaFolders":
		writeTestJSON(w, models.EmbyMediaFoldersResponse{Items: f.folders})
	case r.Method == http.MethodGet && p == "Items":
		writeTestJSON(w, models.EmbyItemsResponse{})
	case r.Method == http.MethodDelete && strings.HasPrefix(p, "Items/"):
		f.deleted = append(f.deleted, strings.TrimPrefix(p, "Items/"))
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeEmby) deletedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func writeTestJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type testEnvOptions struct {
	noEmby  bool
	noAdmin bool
}

type testEnv struct {
	router   http.Handler
	store    *store.Store
	registry *devices.Registry
	fake     *fakeEmby
	embyURL  string
	jwt      *auth.JWTManager
}

func newTestEnv(t *testing.T, opts testEnvOptions) *testEnv {
	t.Helper()

	st, err := store.Open(store.Options{InMemory: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	fake := &fakeEmby{
		folders: []models.EmbyMediaFolder{
			{ID: "lib-movies", Name: "Movies", CollectionType: "movies"},
			{ID: "lib-music", Name: "Music", CollectionType: "music"},
		},
	}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	if !opts.noEmby {
		if _, err := st.SaveConnections([]models.EmbyConnection{{Name: "test", ServerURL: srv.URL, APIKey: testAPIKey}}); err != nil {
			t.Fatalf("save connection: %v", err)
		}
	}

	cfg := &config.Config{
		Security: config.SecurityConfig{
			JWTSecret:      testJWTSecret,
			SessionTimeout: time.Hour,
			MonitorSecret:  testMonitorSecret,
			CORSOrigins:    []string{"http://localhost:3000"},
		},
	}

	jwtManager, err := auth.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.SessionTimeout)
	if err != nil {
		t.Fatalf("jwt manager: %v", err)
	}
	var admin *auth.AdminCredentials
	if !opts.noAdmin {
		admin, err = auth.NewAdminCredentials("admin", testAdminPassword)
		if err != nil {
			t.Fatalf("admin credentials: %v", err)
		}
	}

	enforcer, err := authz.NewEnforcer(nil)
	if err != nil {
		t.Fatalf("enforcer: %v", err)
	}
	t.Cleanup(enforcer.Close)

	pool := emby.NewPool(emby.Options{Timeout: 5 * time.Second})
	registry := devices.NewRegistry(st, access.NewMatcher())
	hub := ws.NewHub(monitor.SnapshotEvents...)

	handler := NewHandler(Dependencies{
		Config:      cfg,
		Registry:    registry,
		Monitor:     monitor.New(pool, st, registry, hub),
		Scanner:     scanner.New(pool, scanner.Options{}),
		Connections: st,
		Pool:        pool,
		Hub:         hub,
		JWT:         jwtManager,
		Admin:       admin,
	})
	router := NewRouter(handler,
		auth.NewMiddleware(jwtManager, WriteError),
		authz.NewMiddleware(enforcer, WriteError),
		NewChiMiddleware(&ChiMiddlewareConfig{
			CORSAllowedOrigins: cfg.Security.CORSOrigins,
			RateLimitDisabled:  true,
		}),
	)

	return &testEnv{
		router:   router.SetupChi(),
		store:    st,
		registry: registry,
		fake:     fake,
		embyURL:  srv.URL,
		jwt:      jwtManager,
	}
}

func (e *testEnv) token(t *testing.T, id, name, role string) string {
	t.Helper()
	token, _, err := e.jwt.GenerateToken(auth.Subject{ID: id, Username: name, Role: role})
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func (e *testEnv) userToken(t *testing.T, id string) string {
	t.Helper()
	return e.token(t, id, "user-"+id, auth.RoleUser)
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	return e.token(t, auth.AdminUserID, "admin", auth.RoleAdmin)
}

// do sends a request through the full router. body is JSON encoded unless it
// is already a string.
func (e *testEnv) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, w.Body.String())
	}
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	env := decodeEnvelope(t, w)
	if !env.Success {
		t.Fatalf("expected success, got error %+v", env.Error)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data: %v (data %s)", err, env.Data)
	}
}

func checkStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, want, w.Body.String())
	}
}

func checkError(t *testing.T, w *httptest.ResponseRecorder, status int, code, message string) *APIError {
	t.Helper()
	checkStatus(t, w, status)
	env := decodeEnvelope(t, w)
	if env.Success || env.Error == nil {
		t.Fatalf("expected error envelope, got %s", w.Body.String())
	}
	if code != "" && env.Error.Code != code {
		t.Errorf("error code = %q, want %q", env.Error.Code, code)
	}
	if message != "" && env.Error.Message != message {
		t.Errorf("error message = %q, want %q", env.Error.Message, message)
	}
	return env.Error
}
