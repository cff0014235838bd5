// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package monitor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/tomtom215/flixpilot/internal/access"
	"github.com/tomtom215/flixpilot/internal/emby"
	"github.com/tomtom215/flixpilot/internal/logging"
	"github.com/tomtom215/flixpilot/internal/metrics"
	"github.com/tomtom215/flixpilot/internal/models"
)

const autoScanDisabledMessage = "自动扫描未启用"

type deviceViolation struct {
	list   string
	device models.ViolatingDevice
}

// label is the auto-scan summary line for a deleted device.
func (v deviceViolation) label() string {
	kind := "黑名单"
	if v.list == listWhitelist {
		kind = "不在白名单"
	}
	return fmt.Sprintf("%s (%s) - %s", v.device.Name, v.device.Client, kind)
}

// evaluateDevices lists the server's devices and returns those whose client
// violates the rules, together with the number of devices inspected.
func (m *Monitor) evaluateDevices(ctx context.Context) (*emby.Client, int, []deviceViolation, error) {
	client, err := m.client(emby.IdentityWeb)
	if err != nil {
		return nil, 0, nil, err
	}
	cfg, err := m.registry.ClientConfig()
	if err != nil {
		return nil, 0, nil, fmt.Errorf("load client rules: %w", err)
	}
	list, err := client.GetDevices(ctx)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("list devices: %w", err)
	}

	matcher := m.registry.Matcher()
	var out []deviceViolation
	for i := range list {
		d := &list[i]
		name := d.ClientName()

		var v deviceViolation
		decision := matcher.Evaluate(&cfg, name)
		switch decision.Verdict {
		case access.Blacklisted:
			v.list = listBlacklist
			v.device.Reason = "匹配黑名单规则: " + decision.Rule.Name
		case access.NotWhitelisted:
			v.list = listWhitelist
			v.device.Reason = "不在白名单中"
		default:
			continue
		}
		v.device.ID = d.ID
		v.device.Name = d.Name
		v.device.Client = name
		v.device.User = d.LastUserName
		v.device.LastActivity = d.DateLastActivity
		out = append(out, v)
	}
	return client, len(list), out, nil
}

// Preview reports the devices a sweep would delete without deleting them.
func (m *Monitor) Preview(ctx context.Context) (*models.SweepPreview, error) {
	_, total, violations, err := m.evaluateDevices(ctx)
	if err != nil {
		return nil, err
	}
	preview := &models.SweepPreview{
		Total:     total,
		Violating: len(violations),
		Devices:   make([]models.ViolatingDevice, 0, len(violations)),
	}
	for _, v := range violations {
		preview.Devices = append(preview.Devices, v.device)
	}
	return preview, nil
}

// Purge deletes every violating device. Delete failures are collected in the
// result and do not stop the sweep.
func (m *Monitor) Purge(ctx context.Context) (*models.SweepResult, error) {
	m.sweepMu.Lock()
	defer m.sweepMu.Unlock()

	result, _, err := m.purge(ctx)
	if err != nil {
		return nil, err
	}
	m.events.BroadcastJSON(EventDeviceSweep, result)
	return result, nil
}

func (m *Monitor) purge(ctx context.Context) (*models.SweepResult, []string, error) {
	client, total, violations, err := m.evaluateDevices(ctx)
	if err != nil {
		return nil, nil, err
	}

	result := &models.SweepResult{
		Scanned:        total,
		Errors:         []string{},
		BlockedDevices: make([]models.ViolatingDevice, 0, len(violations)),
	}
	deleted := []string{}
	for _, v := range violations {
		if v.list == listBlacklist {
			result.Blocked++
		} else {
			result.NotInWhitelist++
		}
		result.BlockedDevices = append(result.BlockedDevices, v.device)

		if err := client.DeleteDevice(ctx, v.device.ID); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("删除设备 %s 失败: %s", v.device.Name, deleteFailure(err)))
			metrics.DevicesSwept.WithLabelValues("failed").Inc()
			logging.Ctx(ctx).Warn().
				Str("component", "device-sweep").
				Str("device_id", v.device.ID).
				Str("client", v.device.Client).
				Err(err).
				Msg("Failed to delete violating device")
			continue
		}
		result.Deleted++
		deleted = append(deleted, v.label())
		metrics.DevicesSwept.WithLabelValues("deleted").Inc()
	}

	logging.Ctx(ctx).Info().
		Str("component", "device-sweep").
		Int("scanned", result.Scanned).
		Int("blocked", result.Blocked).
		Int("not_in_whitelist", result.NotInWhitelist).
		Int("deleted", result.Deleted).
		Int("errors", len(result.Errors)).
		Msg("Device sweep finished")
	return result, deleted, nil
}

// deleteFailure is the HTTP status for Emby rejections and the error text
// otherwise.
func deleteFailure(err error) string {
	if status := emby.StatusCode(err); status > 0 {
		return strconv.Itoa(status)
	}
	return err.Error()
}

// AutoScan runs a purge when auto-scan is enabled and records its outcome.
// A disabled auto-scan is reported in the result, not as an error.
func (m *Monitor) AutoScan(ctx context.Context) (*models.AutoScanReport, error) {
	m.sweepMu.Lock()
	defer m.sweepMu.Unlock()

	settings, err := m.registry.Settings()
	if err != nil {
		return nil, fmt.Errorf("load auto-scan settings: %w", err)
	}
	if !settings.AutoScanConfig.Enabled {
		return &models.AutoScanReport{
			Success:        false,
			Enabled:        false,
			Message:        autoScanDisabledMessage,
			DeletedDevices: []string{},
		}, nil
	}

	result, deleted, err := m.purge(ctx)
	if err != nil {
		return nil, err
	}

	now := m.now()
	if err := m.registry.RecordAutoScanResult(now, models.AutoScanResult{
		Scanned: result.Scanned,
		Deleted: result.Deleted,
	}); err != nil {
		logging.Ctx(ctx).Warn().Str("component", "auto-scan").Err(err).Msg("Failed to record auto-scan result")
	}

	report := &models.AutoScanReport{
		Success:        true,
		Enabled:        true,
		Scanned:        result.Scanned,
		Deleted:        result.Deleted,
		DeletedDevices: deleted,
		Timestamp:      now.UTC().Format(time.RFC3339),
	}
	m.events.BroadcastJSON(EventAutoScan, report)
	return report, nil
}

// AutoScanDue reports whether auto-scan is enabled and its interval has
// elapsed since the last recorded scan.
func (m *Monitor) AutoScanDue() (bool, error) {
	settings, err := m.registry.Settings()
	if err != nil {
		return false, err
	}
	cfg := settings.AutoScanConfig
	if !cfg.Enabled {
		return false, nil
	}
	if cfg.LastScanAt == nil {
		return true, nil
	}
	interval := cfg.IntervalMinutes
	if interval <= 0 {
		interval = models.DefaultAutoScanIntervalMinutes
	}
	return !m.now().Before(cfg.LastScanAt.Add(time.Duration(interval) * time.Minute)), nil
}
