// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/tomtom215/flixpilot/internal/emby"
	"github.com/tomtom215/flixpilot/internal/logging"
	"github.com/tomtom215/flixpilot/internal/models"
)

// DefaultAutoScanSchedule checks every minute whether a sweep is due. The
// sweep interval itself lives in the device settings.
const DefaultAutoScanSchedule = "* * * * *"

// autoScanTimeout bounds one sweep.
const autoScanTimeout = 5 * time.Minute

// AutoScanner is satisfied by *monitor.Monitor.
type AutoScanner interface {
	AutoScanDue() (bool, error)
	AutoScan(ctx context.Context) (*models.AutoScanReport, error)
}

// AutoScanService fires a device sweep on a cron schedule whenever the
// stored auto-scan config says one is due.
type AutoScanService struct {
	scanner  AutoScanner
	schedule string
	name     string
}

// NewAutoScanService validates schedule (standard five-field cron syntax,
// descriptors such as @every 5m allowed) and creates the service.
func NewAutoScanService(scanner AutoScanner, schedule string) (*AutoScanService, error) {
	if schedule == "" {
		schedule = DefaultAutoScanSchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid auto-scan schedule %q: %w", schedule, err)
	}
	return &AutoScanService{
		scanner:  scanner,
		schedule: schedule,
		name:     "auto-scan",
	}, nil
}

// Serve implements suture.Service. Overlapping runs are skipped.
func (s *AutoScanService) Serve(ctx context.Context) error {
	logger := cronLogger{logging.WithComponent(s.name)}

	c := cron.New(cron.WithChain(
		cron.Recover(logger),
		cron.SkipIfStillRunning(logger),
	))
	if _, err := c.AddFunc(s.schedule, func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("schedule auto-scan: %w", err)
	}

	c.Start()
	logger.l.Info().Str("schedule", s.schedule).Msg("Auto-scan scheduler started")

	<-ctx.Done()

	// Wait for a running sweep; it sees the canceled ctx.
	<-c.Stop().Done()
	return ctx.Err()
}

// tick sweeps when the stored config says a sweep is due.
func (s *AutoScanService) tick(ctx context.Context) {
	logger := logging.WithComponent(s.name)

	due, err := s.scanner.AutoScanDue()
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to read auto-scan config")
		return
	}
	if !due {
		return
	}

	scanCtx, cancel := context.WithTimeout(ctx, autoScanTimeout)
	defer cancel()

	report, err := s.scanner.AutoScan(logging.ContextWithNewCorrelationID(scanCtx))
	switch {
	case err == nil:
		logger.Info().
			Int("scanned", report.Scanned).
			Int("deleted", report.Deleted).
			Msg("Auto-scan finished")
	case errors.Is(err, emby.ErrNotConfigured):
		logger.Debug().Msg("Auto-scan skipped: Emby not configured")
	case ctx.Err() != nil:
		// shutting down
	default:
		logger.Warn().Err(err).Msg("Auto-scan failed")
	}
}

func (s *AutoScanService) String() string {
	return s.name
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	l zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
