// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/flixpilot/config.yaml",
	"/etc/flixpilot/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultMonitorSecret matches the value deployments used before the secret
// became configurable.
const DefaultMonitorSecret = "flixpilot-auto-scan"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3857,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute, // duplicate scans of large libraries are slow
			ShutdownTimeout: 10 * time.Second,
		},
		Emby: EmbyConfig{
			Name:            "默认服务器",
			Timeout:         30 * time.Second,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Storage: StorageConfig{
			DataDir:      "./data",
			ImportLegacy: true,
		},
		Security: SecurityConfig{
			SessionTimeout:    24 * time.Hour,
			AdminUsername:     "admin",
			MonitorSecret:     DefaultMonitorSecret,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 120,
			RateLimitWindow:   time.Minute,
		},
		Monitor: MonitorConfig{
			Enabled:          false,
			Interval:         10 * time.Second,
			AutoScanSchedule: "@every 1m",
		},
		Scanner: ScannerConfig{
			PageSize:       1000,
			DeleteInterval: 300 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load layers defaults, the config file and environment variables, then
// validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields splits comma-separated env values into slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings lists every environment variable the service reads. Variables
// not listed here are ignored.
var envMappings = map[string]string{
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	"emby_name":             "emby.name",
	"emby_url":              "emby.url",
	"emby_api_key":          "emby.api_key",
	"emby_timeout":          "emby.timeout",
	"emby_breaker_failures": "emby.breaker_failures",
	"emby_breaker_timeout":  "emby.breaker_timeout",

	"data_dir":             "storage.data_dir",
	"import_legacy_json":   "storage.import_legacy",
	"jwt_secret":           "security.jwt_secret",
	"session_timeout":      "security.session_timeout",
	"admin_username":       "security.admin_username",
	"admin_password":       "security.admin_password",
	"cookie_secure":        "security.cookie_secure",
	"auto_scan_secret":     "security.monitor_secret",
	"cors_origins":         "security.cors_origins",
	"rate_limit_requests":  "security.rate_limit_requests",
	"rate_limit_window":    "security.rate_limit_window",
	"monitor_enabled":      "monitor.enabled",
	"monitor_interval":     "monitor.interval",
	"auto_scan_schedule":   "monitor.auto_scan_schedule",
	"scanner_page_size":    "scanner.page_size",
	"scanner_delete_delay": "scanner.delete_interval",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
