// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package api

import (
	"net/http"

	"github.com/tomtom215/flixpilot/internal/auth"
	"github.com/tomtom215/flixpilot/internal/logging"
)

// requireSecret guards the cron endpoints with the shared monitor secret.
func (h *Handler) requireSecret(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !auth.SecretsMatch(r.URL.Query().Get("secret"), h.cfg.Security.MonitorSecret) {
			logging.Ctx(r.Context()).Warn().Str("path", r.URL.Path).Str("remote", r.RemoteAddr).Msg("Rejected invalid monitor secret")
			NewResponseWriter(w, r).Unauthorized("无效的密钥")
			return
		}
		next(w, r)
	}
}

// MonitorPass runs one session monitor pass.
func (h *Handler) MonitorPass(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	result, err := h.monitor.Run(r.Context())
	if err != nil {
		embyError(rw, err, http.StatusInternalServerError, "获取会话失败")
		return
	}
	rw.Success(result)
}

// AutoScan runs the scheduled device sweep if it is enabled.
func (h *Handler) AutoScan(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	report, err := h.monitor.AutoScan(r.Context())
	if err != nil {
		embyError(rw, err, http.StatusInternalServerError, "获取设备列表失败")
		return
	}
	rw.Success(report)
}

// SweepPreview lists Emby devices that break the client rules.
func (h *Handler) SweepPreview(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	preview, err := h.monitor.Preview(r.Context())
	if err != nil {
		embyError(rw, err, http.StatusInternalServerError, "预览失败")
		return
	}
	rw.Success(preview)
}

// SweepPurge deletes every Emby device that breaks the client rules.
func (h *Handler) SweepPurge(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	result, err := h.monitor.Purge(r.Context())
	if err != nil {
		embyError(rw, err, http.StatusInternalServerError, "扫描失败")
		return
	}
	logging.Ctx(r.Context()).Info().
		Str("by", auth.SubjectFromContext(r.Context()).Username).
		Int("deleted", result.Deleted).
		Msg("Manual device sweep")
	rw.Success(result)
}
