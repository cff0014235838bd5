// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

// Package config loads service configuration from defaults, an optional YAML
// file and environment variables, in that order of precedence.
package config

import "time"

// Config is the root configuration document.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Emby     EmbyConfig     `koanf:"emby"`
	Storage  StorageConfig  `koanf:"storage"`
	Security SecurityConfig `koanf:"security"`
	Monitor  MonitorConfig  `koanf:"monitor"`
	Scanner  ScannerConfig  `koanf:"scanner"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// EmbyConfig seeds the default Emby connection. Connections edited through the
// admin API are persisted in the store and take precedence once present.
type EmbyConfig struct {
	Name    string        `koanf:"name"`
	URL     string        `koanf:"url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`

	// BreakerFailures is the number of consecutive failed calls that opens
	// the circuit. Zero disables the breaker.
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// StorageConfig locates persisted state.
type StorageConfig struct {
	// DataDir holds the badger database under db/ and, optionally, legacy
	// devices.json, device-config.json and config.json files to import.
	DataDir      string `koanf:"data_dir"`
	ImportLegacy bool   `koanf:"import_legacy"`
}

// SecurityConfig configures authentication and request limits.
type SecurityConfig struct {
	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`
	AdminUsername  string        `koanf:"admin_username"`
	AdminPassword  string        `koanf:"admin_password"`
	CookieSecure   bool          `koanf:"cookie_secure"`

	// MonitorSecret guards the cron-facing monitor and auto-scan endpoints.
	MonitorSecret string `koanf:"monitor_secret"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
}

// MonitorConfig configures the in-process schedulers.
type MonitorConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval"`

	// AutoScanSchedule is the cron spec at which the auto-scan service checks
	// whether a device sweep is due.
	AutoScanSchedule string `koanf:"auto_scan_schedule"`
}

// ScannerConfig tunes the duplicate scanner.
type ScannerConfig struct {
	PageSize       int           `koanf:"page_size"`
	DeleteInterval time.Duration `koanf:"delete_interval"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return joinHostPort(s.Host, s.Port)
}
