// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package monitor

import (
	"context"
	"fmt"

	"github.com/tomtom215/flixpilot/internal/access"
	"github.com/tomtom215/flixpilot/internal/emby"
	"github.com/tomtom215/flixpilot/internal/logging"
	"github.com/tomtom215/flixpilot/internal/metrics"
	"github.com/tomtom215/flixpilot/internal/models"
)

const (
	messageTimeoutMs = 10000
	unknownUser      = "Unknown"

	listBlacklist = "blacklist"
	listWhitelist = "whitelist"
)

// violation describes why a session is kicked and what its user is told.
type violation struct {
	list   string
	reason string
	header string
	text   string
}

func sessionViolation(m *access.Matcher, cfg *models.ClientConfig, client string) (violation, bool) {
	d := m.Evaluate(cfg, client)
	switch d.Verdict {
	case access.Blacklisted:
		return violation{
			list:   listBlacklist,
			reason: "黑名单: " + d.Rule.Name,
			header: "客户端已被禁止",
			text:   fmt.Sprintf("您使用的客户端 %s 已被管理员禁止，请更换其他客户端。", client),
		}, true
	case access.NotWhitelisted:
		return violation{
			list:   listWhitelist,
			reason: "不在白名单",
			header: "客户端不在白名单",
			text:   fmt.Sprintf("您使用的客户端 %s 不在允许列表中，请更换其他客户端。", client),
		}, true
	default:
		return violation{}, false
	}
}

type kickStep struct {
	step models.KickStep
	skip bool
	run  func(context.Context) error
}

// kick runs the ordered kick steps against one session. A failed step is
// logged and recorded; the remaining steps still run.
func kick(ctx context.Context, client *emby.Client, s *models.EmbySession, v violation) models.KickedSession {
	steps := []kickStep{
		{
			step: models.KickStepStopPlayback,
			skip: !s.IsPlaying(),
			run: func(ctx context.Context) error {
				return client.StopPlayback(ctx, s.ID)
			},
		},
		{
			step: models.KickStepSendMessage,
			run: func(ctx context.Context) error {
				return client.SendMessage(ctx, s.ID, models.EmbyMessage{
					Header:    v.header,
					Text:      v.text,
					TimeoutMs: messageTimeoutMs,
				})
			},
		},
		{
			step: models.KickStepDeleteDevice,
			skip: s.DeviceID == "",
			run: func(ctx context.Context) error {
				return client.DeleteDevice(ctx, s.DeviceID)
			},
		},
	}

	userName := s.UserName
	if userName == "" {
		userName = unknownUser
	}
	kicked := models.KickedSession{
		SessionID:  s.ID,
		UserName:   userName,
		Client:     s.ClientName(),
		Reason:     v.reason,
		WasPlaying: s.IsPlaying(),
		Steps:      make([]models.StepResult, 0, len(steps)),
	}

	for _, st := range steps {
		res := models.StepResult{Step: st.step}
		switch {
		case st.skip:
			res.Skipped = true
			res.OK = true
		default:
			if err := st.run(ctx); err != nil {
				res.Error = err.Error()
				metrics.KickStepFailures.WithLabelValues(string(st.step)).Inc()
				logging.Ctx(ctx).Warn().
					Str("component", "monitor").
					Str("step", string(st.step)).
					Str("session_id", s.ID).
					Str("client", kicked.Client).
					Err(err).
					Msg("Kick step failed")
			} else {
				res.OK = true
			}
		}
		kicked.Steps = append(kicked.Steps, res)
	}

	logging.Ctx(ctx).Info().
		Str("component", "monitor").
		Str("session_id", s.ID).
		Str("user", userName).
		Str("client", kicked.Client).
		Str("reason", v.reason).
		Bool("was_playing", kicked.WasPlaying).
		Msg("Session kicked")
	return kicked
}
