// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package monitor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/flixpilot/internal/access"
	"github.com/tomtom215/flixpilot/internal/devices"
	"github.com/tomtom215/flixpilot/internal/emby"
	"github.com/tomtom215/flixpilot/internal/models"
	"github.com/tomtom215/flixpilot/internal/store"
)

// fakeEmby records kick side effects and device deletes.
type fakeEmby struct {
	mu          sync.Mutex
	sessions    []models.EmbySession
	devices     []models.EmbyDevice
	sessionsErr int
	failMessage map[string]bool
	failDelete  map[string]bool

	stopped  []string
	messages map[string]models.EmbyMessage
	deleted  []string
}

func (f *fakeEmby) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p := strings.TrimPrefix(r.URL.Path, "/emby/")
	switch {
	case r.Method == http.MethodGet && p == "Sessions":
		if f.sessionsErr != 0 {
			w.WriteHeader(f.sessionsErr)
			return
		}
		writeJSON(w, f.sessions)
	case r.Method == http.MethodPost && strings.HasSuffix(p, "/Playing/Stop"):
		f.stopped = append(f.stopped, strings.TrimSuffix(strings.TrimPrefix(p, "Sessions/"), "/Playing/Stop"))
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodPost && strings.HasSuffix(p, "/Message"):
		id := strings.TrimSuffix(strings.TrimPrefix(p, "Sessions/"), "/Message")
		if f.failMessage[id] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var msg models.EmbyMessage
		_ = json.NewDecoder(r.Body).Decode(&msg)
		f.messages[id] = msg
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodGet && p == "Devices":
		writeJSON(w, models.EmbyDevicesResponse{Items: f.devices, TotalRecordCount: len(f.devices)})
	case r.Method == http.MethodDelete && p == "Devices":
		id := r.URL.Query().Get("Id")
		if f.failDelete[id] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		f.deleted = append(f.deleted, id)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type staticConns struct {
	conn models.EmbyConnection
	ok   bool
}

func (s staticConns) DefaultConnection() (models.EmbyConnection, bool, error) {
	return s.conn, s.ok, nil
}

type recordedEvent struct {
	kind string
	data interface{}
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) BroadcastJSON(kind string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{kind: kind, data: data})
}

func (r *recorder) count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.kind == kind {
			n++
		}
	}
	return n
}

type testEnv struct {
	monitor  *Monitor
	fake     *fakeEmby
	registry *devices.Registry
	events   *recorder
	now      time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	fake := &fakeEmby{
		failMessage: map[string]bool{},
		failDelete:  map[string]bool{},
		messages:    map[string]models.EmbyMessage{},
	}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	st, err := store.Open(store.Options{InMemory: true})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	env := &testEnv{
		fake:   fake,
		events: &recorder{},
		now:    time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return env.now }
	st.SetClock(clock)
	env.registry = devices.NewRegistry(st, access.NewMatcher())
	env.registry.SetClock(clock)

	conns := staticConns{conn: models.EmbyConnection{Name: "test", ServerURL: server.URL, APIKey: "key"}, ok: true}
	env.monitor = New(emby.NewPool(emby.Options{}), conns, env.registry, env.events)
	env.monitor.SetClock(clock)
	return env
}

func playing(name string) *models.EmbyNowPlayingItem {
	return &models.EmbyNowPlayingItem{ID: "i-" + name, Name: name}
}

func stepByName(t *testing.T, k models.KickedSession, step models.KickStep) models.StepResult {
	t.Helper()
	for _, s := range k.Steps {
		if s.Step == step {
			return s
		}
	}
	t.Fatalf("step %s missing from %+v", step, k.Steps)
	return models.StepResult{}
}

func TestRunKicksViolatingSessions(t *testing.T) {
	env := newTestEnv(t)
	env.fake.sessions = []models.EmbySession{
		{ID: "s1", Client: "Emby Web", DeviceID: "d1", UserName: "alice", NowPlayingItem: playing("a")},
		{ID: "s2", Client: "Plex for Windows", DeviceID: "d2", NowPlayingItem: playing("b")},
		{ID: "s3", DeviceName: "Zidoo Player", DeviceID: "d3", UserName: "bob"},
	}
	env.fake.failMessage["s2"] = true

	result, err := env.monitor.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Success || result.TotalSessions != 3 || result.ActivePlaying != 2 || result.Kicked != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Timestamp != "2026-06-01T12:00:00Z" {
		t.Errorf("timestamp = %q", result.Timestamp)
	}

	blocked := result.KickedSessions[0]
	if blocked.SessionID != "s2" || blocked.Reason != "黑名单: Plex" || blocked.UserName != "Unknown" || !blocked.WasPlaying {
		t.Errorf("unexpected blacklist kick %+v", blocked)
	}
	if s := stepByName(t, blocked, models.KickStepStopPlayback); !s.OK || s.Skipped {
		t.Errorf("stop step = %+v", s)
	}
	if s := stepByName(t, blocked, models.KickStepSendMessage); s.OK || s.Error == "" {
		t.Errorf("message step should record the failure: %+v", s)
	}
	if s := stepByName(t, blocked, models.KickStepDeleteDevice); !s.OK {
		t.Errorf("delete must still run after a failed message: %+v", s)
	}

	missing := result.KickedSessions[1]
	if missing.SessionID != "s3" || missing.Reason != "不在白名单" || missing.Client != "Zidoo Player" || missing.WasPlaying {
		t.Errorf("unexpected whitelist kick %+v", missing)
	}
	if s := stepByName(t, missing, models.KickStepStopPlayback); !s.Skipped {
		t.Errorf("stop step should be skipped when nothing plays: %+v", s)
	}

	if len(env.fake.stopped) != 1 || env.fake.stopped[0] != "s2" {
		t.Errorf("stopped = %v", env.fake.stopped)
	}
	msg := env.fake.messages["s3"]
	if msg.Header != "客户端不在白名单" || msg.TimeoutMs != 10000 ||
		msg.Text != "您使用的客户端 Zidoo Player 不在允许列表中，请更换其他客户端。" {
		t.Errorf("unexpected message %+v", msg)
	}
	if got := strings.Join(env.fake.deleted, ","); got != "d2,d3" {
		t.Errorf("deleted devices = %s", got)
	}

	if env.events.count(EventSessionKicked) != 2 || env.events.count(EventMonitorPass) != 1 {
		t.Errorf("unexpected events %+v", env.events.events)
	}
}

func TestRunBlacklistMessage(t *testing.T) {
	env := newTestEnv(t)
	env.fake.sessions = []models.EmbySession{{ID: "s1", Client: "VLC", DeviceID: "d1"}}

	if _, err := env.monitor.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	msg := env.fake.messages["s1"]
	if msg.Header != "客户端已被禁止" || msg.Text != "您使用的客户端 VLC 已被管理员禁止，请更换其他客户端。" {
		t.Errorf("unexpected message %+v", msg)
	}
}

func TestRunEmptyWhitelistAllowsUnknownClients(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.registry.Settings(); err != nil {
		t.Fatal(err)
	}
	cfg, _ := env.registry.ClientConfig()
	for _, rule := range cfg.Whitelist {
		if err := env.registry.DeleteClientRule(models.RuleListWhitelist, rule.ID); err != nil {
			t.Fatalf("DeleteClientRule: %v", err)
		}
	}
	env.fake.sessions = []models.EmbySession{{ID: "s1", Client: "Zidoo Player", DeviceID: "d1"}}

	result, err := env.monitor.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Kicked != 0 {
		t.Errorf("an empty whitelist must allow every non-blacklisted client, kicked %d", result.Kicked)
	}
}

func TestRunNotConfigured(t *testing.T) {
	env := newTestEnv(t)
	env.monitor.conns = staticConns{}

	_, err := env.monitor.Run(context.Background())
	if !errors.Is(err, emby.ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestRunSessionsError(t *testing.T) {
	env := newTestEnv(t)
	env.fake.sessionsErr = http.StatusUnauthorized

	_, err := env.monitor.Run(context.Background())
	if emby.StatusCode(err) != http.StatusUnauthorized {
		t.Errorf("expected wrapped 401, got %v", err)
	}
	if env.events.count(EventMonitorPass) != 0 {
		t.Error("failed passes must not be broadcast")
	}
}

func sweepDevices() []models.EmbyDevice {
	return []models.EmbyDevice{
		{ID: "d1", Name: "Phone", AppName: "Emby for iOS", LastUserName: "alice"},
		{ID: "d2", Name: "Laptop", Client: "VLC for Windows", LastUserName: "bob", DateLastActivity: "2026-05-30T10:00:00Z"},
		{ID: "d3", Name: "Living Room", AppName: "Zidoo", Client: "Emby Web", LastUserName: "carol"},
	}
}

func TestPreview(t *testing.T) {
	env := newTestEnv(t)
	env.fake.devices = sweepDevices()

	preview, err := env.monitor.Preview(context.Background())
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if preview.Total != 3 || preview.Violating != 2 {
		t.Fatalf("unexpected preview %+v", preview)
	}
	vlc := preview.Devices[0]
	if vlc.ID != "d2" || vlc.Reason != "匹配黑名单规则: VLC" || vlc.User != "bob" || vlc.LastActivity != "2026-05-30T10:00:00Z" {
		t.Errorf("unexpected blacklist device %+v", vlc)
	}
	// AppName wins over Client.
	zidoo := preview.Devices[1]
	if zidoo.Client != "Zidoo" || zidoo.Reason != "不在白名单中" {
		t.Errorf("unexpected whitelist device %+v", zidoo)
	}
	if len(env.fake.deleted) != 0 {
		t.Errorf("preview must not delete, deleted %v", env.fake.deleted)
	}
}

func TestPurgeCollectsDeleteErrors(t *testing.T) {
	env := newTestEnv(t)
	env.fake.devices = sweepDevices()
	env.fake.failDelete["d2"] = true

	result, err := env.monitor.Purge(context.Background())
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if result.Scanned != 3 || result.Blocked != 1 || result.NotInWhitelist != 1 || result.Deleted != 1 {
		t.Errorf("unexpected result %+v", result)
	}
	if len(result.Errors) != 1 || result.Errors[0] != "删除设备 Laptop 失败: 500" {
		t.Errorf("errors = %v", result.Errors)
	}
	if len(result.BlockedDevices) != 2 {
		t.Errorf("blocked devices = %+v", result.BlockedDevices)
	}
	if env.events.count(EventDeviceSweep) != 1 {
		t.Error("expected a device_sweep event")
	}
}

func TestAutoScanDisabled(t *testing.T) {
	env := newTestEnv(t)
	env.fake.devices = sweepDevices()

	report, err := env.monitor.AutoScan(context.Background())
	if err != nil {
		t.Fatalf("AutoScan: %v", err)
	}
	if report.Success || report.Enabled || report.Message != "自动扫描未启用" {
		t.Errorf("unexpected report %+v", report)
	}
	if len(env.fake.deleted) != 0 {
		t.Error("disabled auto-scan must not delete devices")
	}
}

func TestAutoScanRecordsResult(t *testing.T) {
	env := newTestEnv(t)
	env.fake.devices = sweepDevices()
	if _, err := env.registry.UpdateAutoScanConfig(true, 5); err != nil {
		t.Fatal(err)
	}

	report, err := env.monitor.AutoScan(context.Background())
	if err != nil {
		t.Fatalf("AutoScan: %v", err)
	}
	if !report.Success || !report.Enabled || report.Scanned != 3 || report.Deleted != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
	want := []string{"Laptop (VLC for Windows) - 黑名单", "Living Room (Zidoo) - 不在白名单"}
	if strings.Join(report.DeletedDevices, "|") != strings.Join(want, "|") {
		t.Errorf("deletedDevices = %v", report.DeletedDevices)
	}

	settings, err := env.registry.Settings()
	if err != nil {
		t.Fatal(err)
	}
	cfg := settings.AutoScanConfig
	if cfg.LastScanAt == nil || !cfg.LastScanAt.Equal(env.now) {
		t.Errorf("lastScanAt = %v", cfg.LastScanAt)
	}
	if cfg.LastScanResult == nil || cfg.LastScanResult.Scanned != 3 || cfg.LastScanResult.Deleted != 2 {
		t.Errorf("lastScanResult = %+v", cfg.LastScanResult)
	}
	if env.events.count(EventAutoScan) != 1 || env.events.count(EventDeviceSweep) != 0 {
		t.Errorf("unexpected events %+v", env.events.events)
	}
}

func TestAutoScanDue(t *testing.T) {
	env := newTestEnv(t)

	if due, err := env.monitor.AutoScanDue(); err != nil || due {
		t.Fatalf("disabled auto-scan must not be due (due=%v err=%v)", due, err)
	}
	if _, err := env.registry.UpdateAutoScanConfig(true, 5); err != nil {
		t.Fatal(err)
	}
	if due, _ := env.monitor.AutoScanDue(); !due {
		t.Error("never-run auto-scan should be due")
	}

	if err := env.registry.RecordAutoScanResult(env.now, models.AutoScanResult{}); err != nil {
		t.Fatal(err)
	}
	env.now = env.now.Add(4 * time.Minute)
	if due, _ := env.monitor.AutoScanDue(); due {
		t.Error("auto-scan should not be due before the interval elapses")
	}
	env.now = env.now.Add(time.Minute)
	if due, _ := env.monitor.AutoScanDue(); !due {
		t.Error("auto-scan should be due once the interval elapses")
	}
}
