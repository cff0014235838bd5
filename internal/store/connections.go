// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package store

import (
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/flixpilot/internal/logging"
	"github.com/tomtom215/flixpilot/internal/models"
)

// DefaultConnectionName is used for connections saved without a name.
const DefaultConnectionName = "默认服务器"

// Connections returns the stored Emby connections. The first is the default.
func (s *Store) Connections() ([]models.EmbyConnection, error) {
	var conns []models.EmbyConnection
	err := s.view(func(txn *badger.Txn) error {
		_, err := getJSON(txn, keyConnections, &conns)
		return err
	})
	if err != nil && isDecodeError(err) {
		logging.Warn().Str("component", "store").Err(err).Msg("Emby connections are corrupt, ignoring")
		return nil, nil
	}
	return conns, err
}

// DefaultConnection returns the first stored connection. ok is false when
// nothing is stored.
func (s *Store) DefaultConnection() (conn models.EmbyConnection, ok bool, err error) {
	conns, err := s.Connections()
	if err != nil || len(conns) == 0 {
		return models.EmbyConnection{}, false, err
	}
	return conns[0], true, nil
}

// SaveConnections replaces the stored list. Names default to
// DefaultConnectionName and URLs lose their trailing slash.
func (s *Store) SaveConnections(conns []models.EmbyConnection) ([]models.EmbyConnection, error) {
	clean := normalizeConnections(conns)
	err := s.update(func(txn *badger.Txn) error {
		return setJSON(txn, keyConnections, clean)
	})
	return clean, err
}

// SeedConnection stores conn as the only connection when none exist yet.
// It reports whether anything was written.
func (s *Store) SeedConnection(conn models.EmbyConnection) (bool, error) {
	if !conn.IsConfigured() {
		return false, nil
	}
	seeded := false
	err := s.update(func(txn *badger.Txn) error {
		var existing []models.EmbyConnection
		if _, err := getJSON(txn, keyConnections, &existing); err != nil && !isDecodeError(err) {
			return err
		}
		if len(existing) > 0 {
			return nil
		}
		seeded = true
		return setJSON(txn, keyConnections, normalizeConnections([]models.EmbyConnection{conn}))
	})
	return seeded, err
}

func normalizeConnections(conns []models.EmbyConnection) []models.EmbyConnection {
	out := make([]models.EmbyConnection, 0, len(conns))
	for _, c := range conns {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			c.Name = DefaultConnectionName
		}
		c.ServerURL = strings.TrimRight(strings.TrimSpace(c.ServerURL), "/")
		c.APIKey = strings.TrimSpace(c.APIKey)
		out = append(out, c)
	}
	return out
}
