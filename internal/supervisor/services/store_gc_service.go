// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package services

import (
	"context"
	"time"

	"github.com/tomtom215/flixpilot/internal/logging"
)

// DefaultStoreGCInterval is how often the badger value log is compacted.
const DefaultStoreGCInterval = 10 * time.Minute

// GarbageCollector is satisfied by *store.Store.
type GarbageCollector interface {
	RunGC() error
}

// StoreGCService periodically reclaims badger value-log space. Device
// heartbeats rewrite the same keys constantly, so stale versions pile up.
type StoreGCService struct {
	gc       GarbageCollector
	interval time.Duration
	name     string
}

// NewStoreGCService creates the service. A non-positive interval means
// DefaultStoreGCInterval.
func NewStoreGCService(gc GarbageCollector, interval time.Duration) *StoreGCService {
	if interval <= 0 {
		interval = DefaultStoreGCInterval
	}
	return &StoreGCService{gc: gc, interval: interval, name: "store-gc"}
}

// Serve implements suture.Service.
func (s *StoreGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := s.gc.RunGC(); err != nil {
				logging.Warn().Err(err).Str("service", s.name).Msg("Value log GC failed")
				continue
			}
			logging.Debug().Dur("took", time.Since(start)).Msg("Value log GC finished")
		}
	}
}

func (s *StoreGCService) String() string {
	return s.name
}
