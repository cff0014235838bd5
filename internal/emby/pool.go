// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package emby

import (
	"sync"

	"github.com/tomtom215/flixpilot/internal/models"
)

// Pool hands out clients that share one circuit breaker per server.
type Pool struct {
	opts Options

	mu       sync.Mutex
	breakers map[string]*breaker
}

// NewPool creates an empty pool.
func NewPool(opts Options) *Pool {
	return &Pool{
		opts:     opts,
		breakers: make(map[string]*breaker),
	}
}

// Get returns a client for conn speaking as identity. Clients are cheap; the
// breaker is what is pooled, keyed by server URL and API key.
func (p *Pool) Get(conn models.EmbyConnection, identity Identity) (*Client, error) {
	if !conn.IsConfigured() {
		return nil, ErrNotConfigured
	}
	base := normalizeBaseURL(conn.ServerURL)
	key := base + "\x00" + conn.APIKey

	p.mu.Lock()
	b, ok := p.breakers[key]
	if !ok {
		b = newBreaker(breakerName(base), p.opts.BreakerFailures, p.opts.BreakerTimeout)
		p.breakers[key] = b
	}
	p.mu.Unlock()

	return newClient(conn, identity, p.opts, b), nil
}

// Len returns the number of servers with a breaker.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.breakers)
}
