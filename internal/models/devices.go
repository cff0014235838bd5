// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package models

import "time"

// Device is a (user, client installation) pair tracked for access control and
// quota purposes. IsActive is derived on read from LastActiveAt and the
// configured activity window; the stored value is not authoritative.
type Device struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Username      string    `json:"username"`
	EmbyUserID    string    `json:"embyUserId,omitempty"`
	DeviceID      string    `json:"deviceId"`
	DeviceName    string    `json:"deviceName"`
	Client        string    `json:"client"`
	ClientVersion string    `json:"clientVersion,omitempty"`
	DeviceType    string    `json:"deviceType,omitempty"`
	AppName       string    `json:"appName,omitempty"`
	LastActiveAt  time.Time `json:"lastActiveAt"`
	LastIP        string    `json:"lastIp,omitempty"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
}

// DeviceReport is what a client heartbeat supplies for RecordDevice.
type DeviceReport struct {
	UserID        string
	Username      string
	EmbyUserID    string
	DeviceID      string
	DeviceName    string
	Client        string
	ClientVersion string
	DeviceType    string
	AppName       string
	LastIP        string
}

// RuleListType names one of the two rule sets.
type RuleListType string

const (
	RuleListWhitelist RuleListType = "whitelist"
	RuleListBlacklist RuleListType = "blacklist"
)

// Valid reports whether t is whitelist or blacklist.
func (t RuleListType) Valid() bool {
	return t == RuleListWhitelist || t == RuleListBlacklist
}

// ClientRule classifies client names by literal substring or regex.
type ClientRule struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Pattern     string    `json:"pattern"`
	IsRegex     bool      `json:"isRegex"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ClientConfig holds both rule sets.
type ClientConfig struct {
	Whitelist []ClientRule `json:"whitelist"`
	Blacklist []ClientRule `json:"blacklist"`
}

// List returns a pointer to the named rule slice, or nil for an unknown type.
func (c *ClientConfig) List(t RuleListType) *[]ClientRule {
	switch t {
	case RuleListWhitelist:
		return &c.Whitelist
	case RuleListBlacklist:
		return &c.Blacklist
	default:
		return nil
	}
}

// BlockAction is what happens when a user exceeds the device limit.
type BlockAction string

const (
	BlockActionWarn  BlockAction = "warn"
	BlockActionBlock BlockAction = "block"
)

// Defaults applied when settings are seeded or an update leaves a field zero.
const (
	DefaultMaxDevices              = 10
	DefaultInactiveDays            = 7
	DefaultAutoScanIntervalMinutes = 5

	// SoftDeactivateAge is how far SetDeviceInactive rewinds LastActiveAt.
	SoftDeactivateAge = 30 * 24 * time.Hour
)

// DefaultLimitConfig is the quota a fresh installation starts with.
func DefaultLimitConfig() DeviceLimitConfig {
	return DeviceLimitConfig{
		Enabled:      true,
		MaxDevices:   DefaultMaxDevices,
		InactiveDays: DefaultInactiveDays,
		BlockAction:  BlockActionWarn,
	}
}

// DefaultAutoScanConfig leaves automatic sweeps disabled.
func DefaultAutoScanConfig() AutoScanConfig {
	return AutoScanConfig{IntervalMinutes: DefaultAutoScanIntervalMinutes}
}

// DeviceLimitConfig is the global per-user device quota.
type DeviceLimitConfig struct {
	Enabled      bool        `json:"enabled"`
	MaxDevices   int         `json:"maxDevices"`
	InactiveDays int         `json:"inactiveDays"`
	BlockAction  BlockAction `json:"blockAction"`
}

// AutoScanResult summarizes the last automatic device sweep.
type AutoScanResult struct {
	Scanned int `json:"scanned"`
	Deleted int `json:"deleted"`
}

// AutoScanConfig controls the periodic device sweep.
type AutoScanConfig struct {
	Enabled         bool            `json:"enabled"`
	IntervalMinutes int             `json:"intervalMinutes"`
	LastScanAt      *time.Time      `json:"lastScanAt,omitempty"`
	LastScanResult  *AutoScanResult `json:"lastScanResult,omitempty"`
}

// DeviceSettings is the full admin-editable device configuration.
type DeviceSettings struct {
	ClientConfig   ClientConfig      `json:"clientConfig"`
	LimitConfig    DeviceLimitConfig `json:"limitConfig"`
	AutoScanConfig AutoScanConfig    `json:"autoScanConfig"`
}

// LimitCheck is the result of a device quota check. When the limit is
// disabled ActiveCount and MaxDevices are zero.
type LimitCheck struct {
	Allowed     bool `json:"allowed"`
	ActiveCount int  `json:"activeCount"`
	MaxDevices  int  `json:"maxDevices"`
}

// ClientCheck is the result of evaluating a client name against the rules.
type ClientCheck struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}
