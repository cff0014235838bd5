// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/flixpilot/internal/logging"
	"github.com/tomtom215/flixpilot/internal/models"
)

func deviceKey(id string) string {
	return prefixDevice + id
}

func deviceIndexKey(userID, deviceID string) string {
	return prefixDeviceIndex + userID + "\x00" + deviceID
}

// UpsertDevice records a heartbeat. The record for (UserID, DeviceID) is
// created if missing, otherwise non-empty report fields overwrite the stored
// ones. Either way LastActiveAt becomes now and IsActive true.
func (s *Store) UpsertDevice(report *models.DeviceReport, now time.Time) (*models.Device, error) {
	var out models.Device
	err := s.update(func(txn *badger.Txn) error {
		idxKey := deviceIndexKey(report.UserID, report.DeviceID)

		var id string
		found, err := getJSON(txn, idxKey, &id)
		if err != nil {
			return fmt.Errorf("read device index: %w", err)
		}

		if found {
			ok, err := getJSON(txn, deviceKey(id), &out)
			if err != nil {
				return fmt.Errorf("read device %s: %w", id, err)
			}
			if !ok {
				// dangling index entry; recreate the record under the same id
				out = models.Device{ID: id, CreatedAt: now}
			}
		} else {
			out = models.Device{ID: uuid.NewString(), CreatedAt: now}
			if err := setJSON(txn, idxKey, out.ID); err != nil {
				return err
			}
		}

		applyReport(&out, report)
		out.LastActiveAt = now
		out.IsActive = true
		return setJSON(txn, deviceKey(out.ID), &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func applyReport(d *models.Device, r *models.DeviceReport) {
	d.UserID = r.UserID
	d.DeviceID = r.DeviceID
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&d.Username, r.Username)
	set(&d.EmbyUserID, r.EmbyUserID)
	set(&d.DeviceName, r.DeviceName)
	set(&d.Client, r.Client)
	set(&d.ClientVersion, r.ClientVersion)
	set(&d.DeviceType, r.DeviceType)
	set(&d.AppName, r.AppName)
	set(&d.LastIP, r.LastIP)
}

// GetDevice returns the device with the given record id.
func (s *Store) GetDevice(id string) (*models.Device, bool, error) {
	var d models.Device
	var found bool
	err := s.view(func(txn *badger.Txn) error {
		var err error
		found, err = getJSON(txn, deviceKey(id), &d)
		return err
	})
	if err != nil || !found {
		return nil, false, err
	}
	return &d, true, nil
}

// UpdateDevice applies fn to a stored device. It reports false when id does
// not exist. fn must not change UserID or DeviceID.
func (s *Store) UpdateDevice(id string, fn func(*models.Device)) (bool, error) {
	var found bool
	err := s.update(func(txn *badger.Txn) error {
		var d models.Device
		var err error
		found, err = getJSON(txn, deviceKey(id), &d)
		if err != nil || !found {
			return err
		}
		fn(&d)
		return setJSON(txn, deviceKey(id), &d)
	})
	return found, err
}

// DeleteDevice removes a device and its index entry.
func (s *Store) DeleteDevice(id string) (bool, error) {
	var found bool
	err := s.update(func(txn *badger.Txn) error {
		var d models.Device
		var err error
		found, err = getJSON(txn, deviceKey(id), &d)
		if err != nil || !found {
			return err
		}
		if err := txn.Delete([]byte(deviceKey(id))); err != nil {
			return err
		}
		err = txn.Delete([]byte(deviceIndexKey(d.UserID, d.DeviceID)))
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})
	return found, err
}

// ListDevices returns every device for which keep returns true, or all of
// them when keep is nil. Undecodable records are skipped with a warning.
func (s *Store) ListDevices(keep func(*models.Device) bool) ([]models.Device, error) {
	var out []models.Device
	err := s.view(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixDevice)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var d models.Device
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &d)
			}); err != nil {
				logging.Warn().Str("component", "store").Str("key", string(item.Key())).Err(err).
					Msg("Skipping undecodable device record")
				continue
			}
			if keep == nil || keep(&d) {
				out = append(out, d)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate devices: %w", err)
	}
	return out, nil
}

// CountDevices returns the number of stored devices.
func (s *Store) CountDevices() (int, error) {
	n := 0
	err := s.view(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixDevice)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}
