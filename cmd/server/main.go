// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/flixpilot/internal/config"
	"github.com/tomtom215/flixpilot/internal/logging"
	"github.com/tomtom215/flixpilot/internal/store"
	"github.com/tomtom215/flixpilot/internal/supervisor"
	"github.com/tomtom215/flixpilot/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("data_dir", cfg.Storage.DataDir).
		Bool("monitor", cfg.Monitor.Enabled).
		Msg("Starting FlixPilot with supervisor tree")

	if cfg.UsesDefaultMonitorSecret() {
		logging.Warn().Msg("AUTO_SCAN_SECRET is the built-in default; set it before exposing the monitor endpoints")
	}

	st, err := openStore(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()

	app, err := newApp(cfg, st)
	if err != nil {
		// Fatal skips deferred calls.
		_ = st.Close()
		logging.Fatal().Err(err).Msg("Failed to initialize components")
	}
	defer app.Close()

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           app.router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	treeConfig := supervisor.DefaultTreeConfig()
	treeConfig.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), treeConfig)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// === SCHEDULER LAYER ===

	tree.AddSchedulerService(services.NewStoreGCService(st, services.DefaultStoreGCInterval))

	if cfg.Monitor.Enabled {
		tree.AddSchedulerService(services.NewMonitorService(app.monitor, cfg.Monitor.Interval))

		autoScan, err := services.NewAutoScanService(app.monitor, cfg.Monitor.AutoScanSchedule)
		if err != nil {
			logging.Fatal().Err(err).Msg("Invalid auto-scan schedule")
		}
		tree.AddSchedulerService(autoScan)

		logging.Info().
			Dur("interval", cfg.Monitor.Interval).
			Str("auto_scan_schedule", cfg.Monitor.AutoScanSchedule).
			Msg("In-process session monitor enabled")
	} else {
		logging.Info().Msg("In-process session monitor disabled; expecting an external cron to call /api/monitor")
	}

	// === MESSAGING LAYER ===

	tree.AddMessagingService(services.NewWebSocketHubService(app.hub))

	// === API LAYER ===

	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Starting supervisor tree...")
	started := time.Now()
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Received shutdown signal, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Dur("uptime", time.Since(started).Round(time.Second)).Msg("Application stopped gracefully")
}

// openStore opens the badger database under the data directory and, on first
// start, imports the JSON files written by older releases.
func openStore(cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(store.Options{Dir: storeDir(cfg.Storage.DataDir)})
	if err != nil {
		return nil, err
	}

	if cfg.Storage.ImportLegacy {
		report, err := st.ImportLegacy(cfg.Storage.DataDir)
		switch {
		case err != nil:
			logging.Warn().Err(err).Msg("Legacy JSON import failed; continuing with current store")
		case report.AlreadyImported:
			logging.Debug().Msg("Legacy JSON files already imported")
		default:
			logging.Info().
				Int("devices", report.Devices).
				Int("connections", report.Connections).
				Bool("settings", report.Settings).
				Strs("skipped", report.Skipped).
				Msg("Imported legacy JSON files")
		}
	}

	return st, nil
}
