// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

const minJWTSecretLength = 32

// Validate checks required values and ranges.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateEmby(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateMonitor(); err != nil {
		return err
	}
	return c.validateScanner()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}

// validateEmby allows an empty URL: the connection may be configured later
// through the admin API.
func (c *Config) validateEmby() error {
	if c.Emby.URL == "" {
		return nil
	}
	u, err := url.Parse(c.Emby.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("EMBY_URL must be an absolute http(s) URL, got %q", c.Emby.URL)
	}
	if c.Emby.APIKey == "" {
		return fmt.Errorf("EMBY_API_KEY is required when EMBY_URL is set")
	}
	if c.Emby.Timeout <= 0 {
		return fmt.Errorf("EMBY_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if len(c.Security.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if c.Security.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be positive")
	}
	if strings.TrimSpace(c.Security.MonitorSecret) == "" {
		return fmt.Errorf("AUTO_SCAN_SECRET must not be empty")
	}
	if c.Security.AdminPassword != "" && len(c.Security.AdminPassword) < 8 {
		return fmt.Errorf("ADMIN_PASSWORD must be at least 8 characters")
	}
	if c.Security.RateLimitRequests < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must not be negative")
	}
	if c.Security.RateLimitRequests > 0 && c.Security.RateLimitWindow < time.Second {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s")
	}
	return nil
}

func (c *Config) validateMonitor() error {
	if c.Monitor.Interval < time.Second {
		return fmt.Errorf("MONITOR_INTERVAL must be at least 1s, got %s", c.Monitor.Interval)
	}
	if _, err := cron.ParseStandard(c.Monitor.AutoScanSchedule); err != nil {
		return fmt.Errorf("AUTO_SCAN_SCHEDULE %q is invalid: %w", c.Monitor.AutoScanSchedule, err)
	}
	return nil
}

func (c *Config) validateScanner() error {
	if c.Scanner.PageSize <= 0 {
		return fmt.Errorf("SCANNER_PAGE_SIZE must be positive")
	}
	if c.Scanner.DeleteInterval < 0 {
		return fmt.Errorf("SCANNER_DELETE_DELAY must not be negative")
	}
	return nil
}

// UsesDefaultMonitorSecret reports whether the shared secret was left at its
// well-known default. main logs a warning in that case.
func (c *Config) UsesDefaultMonitorSecret() bool {
	return c.Security.MonitorSecret == DefaultMonitorSecret
}
