// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package store

import (
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/flixpilot/internal/access"
	"github.com/tomtom215/flixpilot/internal/logging"
	"github.com/tomtom215/flixpilot/internal/models"
)

// DefaultSettings is the configuration seeded on first use.
func DefaultSettings(now time.Time) models.DeviceSettings {
	return models.DeviceSettings{
		ClientConfig:   access.DefaultClientConfig(now),
		LimitConfig:    models.DefaultLimitConfig(),
		AutoScanConfig: models.DefaultAutoScanConfig(),
	}
}

// Settings returns the device settings. When none are stored the defaults are
// written and returned. A corrupt value is logged and the defaults returned
// without overwriting it.
func (s *Store) Settings() (models.DeviceSettings, error) {
	var cfg models.DeviceSettings
	var found bool
	err := s.view(func(txn *badger.Txn) error {
		var err error
		found, err = getJSON(txn, keySettings, &cfg)
		return err
	})
	if err != nil {
		if isDecodeError(err) {
			logging.Warn().Str("component", "store").Err(err).Msg("Device settings are corrupt, using defaults")
			return DefaultSettings(s.now()), nil
		}
		return cfg, err
	}
	if found {
		return cfg, nil
	}

	// Seed under the writer lock; another writer may have won the race.
	err = s.update(func(txn *badger.Txn) error {
		found, err := getJSON(txn, keySettings, &cfg)
		if err != nil || found {
			return err
		}
		cfg = DefaultSettings(s.now())
		return setJSON(txn, keySettings, &cfg)
	})
	return cfg, err
}

// UpdateSettings applies fn to the current settings and stores the result in
// one transaction. Missing or corrupt settings start from the defaults.
func (s *Store) UpdateSettings(fn func(*models.DeviceSettings) error) (models.DeviceSettings, error) {
	var cfg models.DeviceSettings
	err := s.update(func(txn *badger.Txn) error {
		found, err := getJSON(txn, keySettings, &cfg)
		if err != nil && !isDecodeError(err) {
			return err
		}
		if !found || err != nil {
			cfg = DefaultSettings(s.now())
		}
		if err := fn(&cfg); err != nil {
			return err
		}
		return setJSON(txn, keySettings, &cfg)
	})
	return cfg, err
}
