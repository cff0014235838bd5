// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package devices

import (
	"errors"

	"github.com/tomtom215/flixpilot/internal/models"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("设备不存在或无权限")
	ErrIncompleteDevice = errors.New("设备信息不完整")
	ErrInvalidRuleType  = errors.New("rule type must be whitelist or blacklist")
	ErrInvalidPattern   = errors.New("invalid rule pattern")
	ErrClientBlocked    = errors.New("client blocked")
	ErrLimitReached     = errors.New("device limit reached")
)

// RejectedError is returned by RegisterDevice when a heartbeat is refused.
// It wraps ErrClientBlocked or ErrLimitReached.
type RejectedError struct {
	Err    error
	Reason string

	// Limit is set for ErrLimitReached.
	Limit *models.LimitCheck
}

func (e *RejectedError) Error() string { return e.Reason }

func (e *RejectedError) Unwrap() error { return e.Err }
