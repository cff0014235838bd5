// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package services

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/flixpilot/internal/emby"
	"github.com/tomtom215/flixpilot/internal/logging"
	"github.com/tomtom215/flixpilot/internal/models"
)

// DefaultMonitorInterval is used when the configured interval is not positive.
const DefaultMonitorInterval = time.Minute

// MonitorRunner is satisfied by *monitor.Monitor.
type MonitorRunner interface {
	Run(ctx context.Context) (*models.MonitorResult, error)
}

// MonitorService runs a session monitor pass on every tick. It replaces an
// external cron hitting /api/devices/monitor; both can coexist since passes
// are serialized by the monitor.
//
// A failed pass is logged and the ticker keeps going. Emby being down is
// not a reason to restart the service.
type MonitorService struct {
	runner   MonitorRunner
	interval time.Duration
	name     string
}

// NewMonitorService creates the ticker service.
func NewMonitorService(runner MonitorRunner, interval time.Duration) *MonitorService {
	if interval <= 0 {
		interval = DefaultMonitorInterval
	}
	return &MonitorService{
		runner:   runner,
		interval: interval,
		name:     "session-monitor",
	}
}

// Serve implements suture.Service.
func (s *MonitorService) Serve(ctx context.Context) error {
	logger := logging.WithComponent(s.name)
	logger.Info().Dur("interval", s.interval).Msg("Session monitor started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.pass(ctx)
		}
	}
}

func (s *MonitorService) pass(ctx context.Context) {
	logger := logging.WithComponent(s.name)

	// Bound a pass by the interval so a hung Emby cannot stack passes.
	passCtx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	result, err := s.runner.Run(logging.ContextWithNewCorrelationID(passCtx))
	switch {
	case err == nil:
		if result.Kicked > 0 {
			logger.Info().
				Int("sessions", result.TotalSessions).
				Int("playing", result.ActivePlaying).
				Int("kicked", result.Kicked).
				Msg("Monitor pass kicked sessions")
		}
	case errors.Is(err, emby.ErrNotConfigured):
		logger.Debug().Msg("Monitor pass skipped: Emby not configured")
	case ctx.Err() != nil:
		// shutting down
	default:
		logger.Warn().Err(err).Msg("Monitor pass failed")
	}
}

func (s *MonitorService) String() string {
	return s.name
}
