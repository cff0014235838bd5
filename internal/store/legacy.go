// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package store

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/flixpilot/internal/logging"
	"github.com/tomtom215/flixpilot/internal/models"
)

// Legacy JSON documents written by earlier FlixPilot releases.
const (
	LegacyDevicesFile      = "devices.json"
	LegacyDeviceConfigFile = "device-config.json"
	LegacyConfigFile       = "config.json"
)

// ImportReport describes what ImportLegacy did.
type ImportReport struct {
	AlreadyImported bool     `json:"alreadyImported"`
	Devices         int      `json:"devices"`
	Settings        bool     `json:"settings"`
	Connections     int      `json:"connections"`
	Skipped         []string `json:"skipped,omitempty"`
}

type legacyDeviceConfig struct {
	ClientConfig   *models.ClientConfig      `json:"clientConfig"`
	LimitConfig    *models.DeviceLimitConfig `json:"limitConfig"`
	AutoScanConfig *models.AutoScanConfig    `json:"autoScanConfig"`
}

type legacyConfig struct {
	Emby legacyConnections `json:"emby"`
}

// legacyConnections accepts config.json's "emby" as a list of connections or
// as a single connection object.
type legacyConnections []models.EmbyConnection

func (l *legacyConnections) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")):
		*l = nil
		return nil
	case trimmed[0] == '[':
		var list []models.EmbyConnection
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		*l = list
		return nil
	default:
		var one models.EmbyConnection
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return fmt.Errorf("emby: %w", err)
		}
		*l = legacyConnections{one}
		return nil
	}
}

// ImportLegacy loads the JSON documents in dir into an empty store, once.
// Missing files are ignored; unreadable or corrupt ones are skipped with a
// warning. The import is recorded so later starts do nothing, even when the
// files are still present.
func (s *Store) ImportLegacy(dir string) (*ImportReport, error) {
	report := &ImportReport{}
	log := logging.WithComponent("store")

	imported, err := s.legacyImported()
	if err != nil {
		return nil, err
	}
	if imported {
		report.AlreadyImported = true
		return report, nil
	}

	var devices []models.Device
	if ok := readLegacy(filepath.Join(dir, LegacyDevicesFile), &devices, report); !ok {
		devices = nil
	}
	var deviceCfg legacyDeviceConfig
	haveSettings := readLegacy(filepath.Join(dir, LegacyDeviceConfigFile), &deviceCfg, report)
	var cfg legacyConfig
	haveConfig := readLegacy(filepath.Join(dir, LegacyConfigFile), &cfg, report)

	err = s.update(func(txn *badger.Txn) error {
		if err := writeLegacyDevices(txn, devices, report); err != nil {
			return err
		}

		if haveSettings {
			merged := DefaultSettings(s.now())
			if deviceCfg.ClientConfig != nil {
				merged.ClientConfig = *deviceCfg.ClientConfig
			}
			if deviceCfg.LimitConfig != nil {
				merged.LimitConfig = *deviceCfg.LimitConfig
			}
			if deviceCfg.AutoScanConfig != nil {
				merged.AutoScanConfig = *deviceCfg.AutoScanConfig
			}
			if err := setJSON(txn, keySettings, &merged); err != nil {
				return err
			}
			report.Settings = true
		}

		if haveConfig {
			var conns []models.EmbyConnection
			for _, c := range cfg.Emby {
				if c.IsConfigured() {
					conns = append(conns, c)
				}
			}
			if len(conns) > 0 {
				if err := setJSON(txn, keyConnections, normalizeConnections(conns)); err != nil {
					return err
				}
				report.Connections = len(conns)
			}
		}

		return txn.Set([]byte(keyLegacyImport), []byte(s.now().UTC().Format(time.RFC3339)))
	})
	if err != nil {
		return nil, fmt.Errorf("import legacy data: %w", err)
	}

	log.Info().
		Int("devices", report.Devices).
		Bool("settings", report.Settings).
		Int("connections", report.Connections).
		Strs("skipped", report.Skipped).
		Msg("Legacy JSON import finished")
	return report, nil
}

// legacyImported reports whether an import already ran or the store already
// holds data of its own.
func (s *Store) legacyImported() (bool, error) {
	done := false
	err := s.view(func(txn *badger.Txn) error {
		for _, key := range []string{keyLegacyImport, keySettings, keyConnections} {
			_, err := txn.Get([]byte(key))
			if err == nil {
				done = true
				return nil
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		return nil
	})
	if err != nil || done {
		return done, err
	}
	n, err := s.CountDevices()
	return n > 0, err
}

func readLegacy(path string, v any, report *ImportReport) bool {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false
	}
	if err == nil {
		err = json.Unmarshal(data, v)
	}
	if err != nil {
		logging.Warn().Str("component", "store").Str("file", path).Err(err).
			Msg("Skipping unreadable legacy file")
		report.Skipped = append(report.Skipped, filepath.Base(path))
		return false
	}
	return true
}

func writeLegacyDevices(txn *badger.Txn, devices []models.Device, report *ImportReport) error {
	// Later entries win for a repeated (userId, deviceId) pair.
	seen := make(map[string]string, len(devices))
	for i := range devices {
		d := &devices[i]
		if d.ID == "" || d.UserID == "" || d.DeviceID == "" {
			continue
		}
		idx := deviceIndexKey(d.UserID, d.DeviceID)
		if prev, ok := seen[idx]; ok {
			if err := txn.Delete([]byte(deviceKey(prev))); err != nil {
				return err
			}
			report.Devices--
		}
		seen[idx] = d.ID
		if err := setJSON(txn, deviceKey(d.ID), d); err != nil {
			return err
		}
		if err := setJSON(txn, idx, d.ID); err != nil {
			return err
		}
		report.Devices++
	}
	return nil
}
