// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/flixpilot/internal/store"
)

type countingGC struct {
	runs atomic.Int32
	err  error
}

func (c *countingGC) RunGC() error {
	c.runs.Add(1)
	return c.err
}

func TestStoreGCService_Interface(t *testing.T) {
	var _ GarbageCollector = (*store.Store)(nil)
}

func TestStoreGCService_Defaults(t *testing.T) {
	svc := NewStoreGCService(&countingGC{}, 0)
	if svc.interval != DefaultStoreGCInterval || svc.String() != "store-gc" {
		t.Errorf("service = %+v", svc)
	}
}

func TestStoreGCService_RunsAndSurvivesErrors(t *testing.T) {
	gc := &countingGC{err: errors.New("value log busy")}
	svc := NewStoreGCService(gc, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v", err)
	}
	if gc.runs.Load() < 2 {
		t.Errorf("runs = %d, want the ticker to keep going after errors", gc.runs.Load())
	}
}

func TestStoreGCService_InMemoryStore(t *testing.T) {
	st, err := store.Open(store.Options{InMemory: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = st.Close() }()

	svc := NewStoreGCService(st, 10*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v", err)
	}
}
