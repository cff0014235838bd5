// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

// Package monitor enforces client rules against live Emby sessions and
// registered Emby devices.
//
// A monitor pass lists the sessions of the default connection and kicks every
// session whose client is blacklisted or missing from a non-empty whitelist.
// A device sweep applies the same rules to the server's device list, either as
// a preview or by deleting the violators. Auto-scan wraps a sweep with the
// persisted schedule bookkeeping.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/flixpilot/internal/devices"
	"github.com/tomtom215/flixpilot/internal/emby"
	"github.com/tomtom215/flixpilot/internal/logging"
	"github.com/tomtom215/flixpilot/internal/metrics"
	"github.com/tomtom215/flixpilot/internal/models"
)

// Live event types published to admin dashboards.
const (
	EventMonitorPass   = "monitor_pass"
	EventSessionKicked = "session_kicked"
	EventDeviceSweep   = "device_sweep"
	EventAutoScan      = "auto_scan"
)

// SnapshotEvents are the summary events a newly connected dashboard is sent
// again. Individual kicks are not replayed.
var SnapshotEvents = []string{EventMonitorPass, EventDeviceSweep, EventAutoScan}

// ConnectionSource resolves the Emby server the monitor works against.
type ConnectionSource interface {
	DefaultConnection() (models.EmbyConnection, bool, error)
}

// Broadcaster receives live events. The websocket hub implements it.
type Broadcaster interface {
	BroadcastJSON(messageType string, data interface{})
}

type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastJSON(string, interface{}) {}

// Monitor runs monitor passes and device sweeps.
type Monitor struct {
	pool     *emby.Pool
	conns    ConnectionSource
	registry *devices.Registry
	events   Broadcaster
	now      func() time.Time

	// passMu serializes passes so the scheduler and the HTTP trigger never
	// kick the same session twice.
	passMu sync.Mutex
	// sweepMu does the same for sweeps.
	sweepMu sync.Mutex
}

// New creates a Monitor. events may be nil.
func New(pool *emby.Pool, conns ConnectionSource, registry *devices.Registry, events Broadcaster) *Monitor {
	if events == nil {
		events = nopBroadcaster{}
	}
	return &Monitor{
		pool:     pool,
		conns:    conns,
		registry: registry,
		events:   events,
		now:      time.Now,
	}
}

// SetClock replaces the time source. Tests only.
func (m *Monitor) SetClock(now func() time.Time) {
	m.now = now
}

func (m *Monitor) client(identity emby.Identity) (*emby.Client, error) {
	conn, ok, err := m.conns.DefaultConnection()
	if err != nil {
		return nil, fmt.Errorf("load emby connection: %w", err)
	}
	if !ok {
		return nil, emby.ErrNotConfigured
	}
	return m.pool.Get(conn, identity)
}

// Run performs one monitor pass. Kick side effects that fail are recorded in
// the returned steps; only failing to list sessions or load rules is an error.
func (m *Monitor) Run(ctx context.Context) (*models.MonitorResult, error) {
	m.passMu.Lock()
	defer m.passMu.Unlock()

	result, err := m.run(ctx)
	if err != nil {
		metrics.RecordMonitorPass(0, 0, err)
		logging.Ctx(ctx).Warn().Str("component", "monitor").Err(err).Msg("Monitor pass failed")
		return nil, err
	}
	metrics.RecordMonitorPass(result.TotalSessions, result.ActivePlaying, nil)
	m.events.BroadcastJSON(EventMonitorPass, result)

	event := logging.Ctx(ctx).Debug()
	if result.Kicked > 0 {
		event = logging.Ctx(ctx).Info()
	}
	event.Str("component", "monitor").
		Int("sessions", result.TotalSessions).
		Int("playing", result.ActivePlaying).
		Int("kicked", result.Kicked).
		Msg("Monitor pass finished")
	return result, nil
}

func (m *Monitor) run(ctx context.Context) (*models.MonitorResult, error) {
	client, err := m.client(emby.IdentityMonitor)
	if err != nil {
		return nil, err
	}
	cfg, err := m.registry.ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("load client rules: %w", err)
	}
	sessions, err := client.GetSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	result := &models.MonitorResult{
		Success:        true,
		TotalSessions:  len(sessions),
		KickedSessions: []models.KickedSession{},
	}
	matcher := m.registry.Matcher()
	for i := range sessions {
		s := &sessions[i]
		if s.IsPlaying() {
			result.ActivePlaying++
		}
		v, ok := sessionViolation(matcher, &cfg, s.ClientName())
		if !ok {
			continue
		}
		kicked := kick(ctx, client, s, v)
		metrics.SessionsKicked.WithLabelValues(v.list).Inc()
		m.events.BroadcastJSON(EventSessionKicked, kicked)
		result.KickedSessions = append(result.KickedSessions, kicked)
	}
	result.Kicked = len(result.KickedSessions)
	result.Timestamp = m.now().UTC().Format(time.RFC3339)
	return result, nil
}
