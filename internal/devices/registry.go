// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

// Package devices tracks which client installations each user runs, enforces
// the per-user device limit and manages the client allow/deny rules.
package devices

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/flixpilot/internal/access"
	"github.com/tomtom215/flixpilot/internal/logging"
	"github.com/tomtom215/flixpilot/internal/metrics"
	"github.com/tomtom215/flixpilot/internal/models"
	"github.com/tomtom215/flixpilot/internal/store"
)

// DefaultDeviceName is stored when a heartbeat carries no device name.
const DefaultDeviceName = "未知设备"

// Registry is the device and rule service used by the API and the monitor.
type Registry struct {
	store   *store.Store
	matcher *access.Matcher
	now     func() time.Time
}

// NewRegistry wires a registry to its store and rule matcher.
func NewRegistry(st *store.Store, matcher *access.Matcher) *Registry {
	return &Registry{store: st, matcher: matcher, now: time.Now}
}

// SetClock replaces the time source (tests).
func (r *Registry) SetClock(now func() time.Time) {
	r.now = now
}

// Matcher exposes the shared rule matcher.
func (r *Registry) Matcher() *access.Matcher {
	return r.matcher
}

// Settings returns the full device configuration.
func (r *Registry) Settings() (models.DeviceSettings, error) {
	return r.store.Settings()
}

// ClientConfig returns only the rule sets.
func (r *Registry) ClientConfig() (models.ClientConfig, error) {
	cfg, err := r.store.Settings()
	if err != nil {
		return models.ClientConfig{}, err
	}
	return cfg.ClientConfig, nil
}

// softDeactivateAge is at least SoftDeactivateAge and always one day past the
// configured activity window.
func softDeactivateAge(limit models.DeviceLimitConfig) time.Duration {
	window := time.Duration(limit.InactiveDays+1) * 24 * time.Hour
	if window > models.SoftDeactivateAge {
		return window
	}
	return models.SoftDeactivateAge
}

// activeSince is the cut-off for the activity window.
func (r *Registry) activeSince(limit models.DeviceLimitConfig) time.Time {
	return r.now().AddDate(0, 0, -limit.InactiveDays)
}

// withActivity recomputes IsActive and sorts newest first.
func (r *Registry) withActivity(list []models.Device, limit models.DeviceLimitConfig) []models.Device {
	cutoff := r.activeSince(limit)
	for i := range list {
		list[i].IsActive = list[i].LastActiveAt.After(cutoff)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].LastActiveAt.After(list[j].LastActiveAt)
	})
	if list == nil {
		list = []models.Device{}
	}
	return list
}

// UserDevices returns one user's devices, most recently active first.
func (r *Registry) UserDevices(userID string) ([]models.Device, error) {
	cfg, err := r.store.Settings()
	if err != nil {
		return nil, err
	}
	list, err := r.store.ListDevices(func(d *models.Device) bool { return d.UserID == userID })
	if err != nil {
		return nil, err
	}
	return r.withActivity(list, cfg.LimitConfig), nil
}

// AllDevices returns every device, most recently active first.
func (r *Registry) AllDevices() ([]models.Device, error) {
	cfg, err := r.store.Settings()
	if err != nil {
		return nil, err
	}
	list, err := r.store.ListDevices(nil)
	if err != nil {
		return nil, err
	}
	return r.withActivity(list, cfg.LimitConfig), nil
}

// ActiveDeviceCount counts a user's devices inside the activity window.
func (r *Registry) ActiveDeviceCount(userID string) (int, error) {
	list, err := r.UserDevices(userID)
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range list {
		if list[i].IsActive {
			n++
		}
	}
	return n, nil
}

// CheckDeviceLimit reports whether the user may add another device. With the
// limit disabled it always allows and reports zero counts.
func (r *Registry) CheckDeviceLimit(userID string) (models.LimitCheck, error) {
	cfg, err := r.store.Settings()
	if err != nil {
		return models.LimitCheck{}, err
	}
	if !cfg.LimitConfig.Enabled {
		return models.LimitCheck{Allowed: true}, nil
	}
	active, err := r.ActiveDeviceCount(userID)
	if err != nil {
		return models.LimitCheck{}, err
	}
	return models.LimitCheck{
		Allowed:     active < cfg.LimitConfig.MaxDevices,
		ActiveCount: active,
		MaxDevices:  cfg.LimitConfig.MaxDevices,
	}, nil
}

// CheckClientAllowed evaluates name against the stored rules.
func (r *Registry) CheckClientAllowed(name string) (models.ClientCheck, error) {
	cfg, err := r.store.Settings()
	if err != nil {
		return models.ClientCheck{}, err
	}
	return r.matcher.Check(&cfg.ClientConfig, name), nil
}

// RecordDevice upserts the (UserID, DeviceID) record without any checks.
func (r *Registry) RecordDevice(report models.DeviceReport) (*models.Device, error) {
	if report.DeviceName == "" {
		report.DeviceName = DefaultDeviceName
	}
	return r.store.UpsertDevice(&report, r.now())
}

// RegisterDevice is the checked heartbeat path: the client must pass the
// rules, and a device the user has not registered before must fit in the
// limit. Known devices are always refreshed.
func (r *Registry) RegisterDevice(report models.DeviceReport) (*models.Device, error) {
	if report.DeviceID == "" || report.Client == "" {
		return nil, ErrIncompleteDevice
	}

	check, err := r.CheckClientAllowed(report.Client)
	if err != nil {
		return nil, err
	}
	if !check.Allowed {
		metrics.DevicesRecorded.WithLabelValues("blocked_client").Inc()
		return nil, &RejectedError{Err: ErrClientBlocked, Reason: check.Reason}
	}

	limit, err := r.CheckDeviceLimit(report.UserID)
	if err != nil {
		return nil, err
	}
	if !limit.Allowed {
		known, err := r.hasDevice(report.UserID, report.DeviceID)
		if err != nil {
			return nil, err
		}
		if !known {
			metrics.DevicesRecorded.WithLabelValues("limit_reached").Inc()
			return nil, &RejectedError{
				Err:    ErrLimitReached,
				Reason: fmt.Sprintf("设备数量已达上限 (%d/%d)", limit.ActiveCount, limit.MaxDevices),
				Limit:  &limit,
			}
		}
	}

	d, err := r.RecordDevice(report)
	if err != nil {
		return nil, err
	}
	metrics.DevicesRecorded.WithLabelValues("recorded").Inc()
	return d, nil
}

func (r *Registry) hasDevice(userID, deviceID string) (bool, error) {
	list, err := r.store.ListDevices(func(d *models.Device) bool {
		return d.UserID == userID && d.DeviceID == deviceID
	})
	return len(list) > 0, err
}

// DeleteDevice removes a device record by id.
func (r *Registry) DeleteDevice(id string) error {
	found, err := r.store.DeleteDevice(id)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// DeleteOwnDevice removes a device on behalf of userID. Admins may delete any
// device; other users only their own, anything else is ErrForbidden.
func (r *Registry) DeleteOwnDevice(userID, id string, admin bool) error {
	if !admin {
		d, ok, err := r.store.GetDevice(id)
		if err != nil {
			return err
		}
		if !ok || d.UserID != userID {
			return ErrForbidden
		}
	}
	return r.DeleteDevice(id)
}

// SetDeviceInactive rewinds LastActiveAt so the device drops out of the
// activity window without being deleted.
func (r *Registry) SetDeviceInactive(id string) error {
	cfg, err := r.store.Settings()
	if err != nil {
		return err
	}
	rewound := r.now().Add(-softDeactivateAge(cfg.LimitConfig))
	found, err := r.store.UpdateDevice(id, func(d *models.Device) {
		d.LastActiveAt = rewound
		d.IsActive = false
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// RuleInput is a rule as submitted by an admin.
type RuleInput struct {
	Name        string
	Pattern     string
	IsRegex     bool
	Description string
}

// AddClientRule appends a rule to the named list.
func (r *Registry) AddClientRule(list models.RuleListType, in RuleInput) (*models.ClientRule, error) {
	if !list.Valid() {
		return nil, ErrInvalidRuleType
	}
	if err := access.ValidatePattern(in.Pattern, in.IsRegex); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}

	rule := models.ClientRule{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Pattern:     in.Pattern,
		IsRegex:     in.IsRegex,
		Description: in.Description,
		CreatedAt:   r.now(),
	}
	_, err := r.store.UpdateSettings(func(cfg *models.DeviceSettings) error {
		rules := cfg.ClientConfig.List(list)
		*rules = append(*rules, rule)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Info().Str("component", "devices").Str("list", string(list)).
		Str("rule", rule.Name).Str("pattern", rule.Pattern).Bool("regex", rule.IsRegex).
		Msg("Client rule added")
	return &rule, nil
}

// DeleteClientRule removes a rule by id from the named list.
func (r *Registry) DeleteClientRule(list models.RuleListType, id string) error {
	if !list.Valid() {
		return ErrInvalidRuleType
	}
	_, err := r.store.UpdateSettings(func(cfg *models.DeviceSettings) error {
		rules := cfg.ClientConfig.List(list)
		for i := range *rules {
			if (*rules)[i].ID == id {
				*rules = append((*rules)[:i], (*rules)[i+1:]...)
				return nil
			}
		}
		return ErrNotFound
	})
	return err
}

// UpdateLimitConfig stores a new limit config. Zero MaxDevices or
// InactiveDays and an empty BlockAction fall back to the defaults.
func (r *Registry) UpdateLimitConfig(in models.DeviceLimitConfig) (models.DeviceLimitConfig, error) {
	if in.MaxDevices <= 0 {
		in.MaxDevices = models.DefaultMaxDevices
	}
	if in.InactiveDays <= 0 {
		in.InactiveDays = models.DefaultInactiveDays
	}
	if in.BlockAction != models.BlockActionBlock {
		in.BlockAction = models.BlockActionWarn
	}
	_, err := r.store.UpdateSettings(func(cfg *models.DeviceSettings) error {
		cfg.LimitConfig = in
		return nil
	})
	return in, err
}

// UpdateAutoScanConfig changes the enabled flag and interval, keeping the
// last-scan bookkeeping.
func (r *Registry) UpdateAutoScanConfig(enabled bool, intervalMinutes int) (models.AutoScanConfig, error) {
	if intervalMinutes <= 0 {
		intervalMinutes = models.DefaultAutoScanIntervalMinutes
	}
	cfg, err := r.store.UpdateSettings(func(cfg *models.DeviceSettings) error {
		cfg.AutoScanConfig.Enabled = enabled
		cfg.AutoScanConfig.IntervalMinutes = intervalMinutes
		return nil
	})
	return cfg.AutoScanConfig, err
}

// RecordAutoScanResult stamps the outcome of an automatic sweep.
func (r *Registry) RecordAutoScanResult(at time.Time, result models.AutoScanResult) error {
	_, err := r.store.UpdateSettings(func(cfg *models.DeviceSettings) error {
		cfg.AutoScanConfig.LastScanAt = &at
		cfg.AutoScanConfig.LastScanResult = &result
		return nil
	})
	return err
}
