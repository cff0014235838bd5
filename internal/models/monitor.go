// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package models

// KickStep names one side effect of kicking a session.
type KickStep string

const (
	KickStepStopPlayback KickStep = "stop_playback"
	KickStepSendMessage  KickStep = "send_message"
	KickStepDeleteDevice KickStep = "delete_device"
)

// StepResult is the outcome of one kick step. A skipped step did not run.
type StepResult struct {
	Step    KickStep `json:"step"`
	OK      bool     `json:"ok"`
	Skipped bool     `json:"skipped,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// KickedSession is the audit record for one session that violated the rules.
type KickedSession struct {
	SessionID  string       `json:"sessionId"`
	UserName   string       `json:"userName"`
	Client     string       `json:"client"`
	Reason     string       `json:"reason"`
	WasPlaying bool         `json:"wasPlaying"`
	Steps      []StepResult `json:"steps"`
}

// MonitorResult summarizes one pass over the live sessions.
type MonitorResult struct {
	Success        bool            `json:"success"`
	Timestamp      string          `json:"timestamp"`
	TotalSessions  int             `json:"totalSessions"`
	ActivePlaying  int             `json:"activePlaying"`
	Kicked         int             `json:"kicked"`
	KickedSessions []KickedSession `json:"kickedSessions"`
}

// ViolatingDevice is an Emby device whose client breaks the rules.
type ViolatingDevice struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Client       string `json:"client"`
	User         string `json:"user"`
	Reason       string `json:"reason"`
	LastActivity string `json:"lastActivity"`
}

// SweepPreview lists violating devices without touching them.
type SweepPreview struct {
	Total     int               `json:"total"`
	Violating int               `json:"violating"`
	Devices   []ViolatingDevice `json:"devices"`
}

// SweepResult reports a device sweep that deleted violators.
type SweepResult struct {
	Scanned        int               `json:"scanned"`
	Blocked        int               `json:"blocked"`
	Deleted        int               `json:"deleted"`
	NotInWhitelist int               `json:"notInWhitelist"`
	Errors         []string          `json:"errors"`
	BlockedDevices []ViolatingDevice `json:"blockedDevices"`
}

// AutoScanReport is returned by the scheduled sweep. DeletedDevices holds
// "<name> (<client>) - <reason>" labels.
type AutoScanReport struct {
	Success        bool     `json:"success"`
	Enabled        bool     `json:"enabled"`
	Message        string   `json:"message,omitempty"`
	Scanned        int      `json:"scanned"`
	Deleted        int      `json:"deleted"`
	DeletedDevices []string `json:"deletedDevices"`
	Timestamp      string   `json:"timestamp,omitempty"`
}
