// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package api

import (
	"net/http"

	"github.com/tomtom215/flixpilot/internal/auth"
	"github.com/tomtom215/flixpilot/internal/logging"
	"github.com/tomtom215/flixpilot/internal/models"
	"github.com/tomtom215/flixpilot/internal/validation"
)

// maskedConnection hides all but the last four characters of the API key.
type maskedConnection struct {
	Name      string `json:"name"`
	ServerURL string `json:"serverUrl"`
	APIKey    string `json:"apiKey"`
}

func maskConnections(conns []models.EmbyConnection) []maskedConnection {
	out := make([]maskedConnection, len(conns))
	for i, c := range conns {
		out[i] = maskedConnection{Name: c.Name, ServerURL: c.ServerURL, APIKey: maskKey(c.APIKey)}
	}
	return out
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

// EmbyConnections lists the stored Emby servers.
func (h *Handler) EmbyConnections(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	conns, err := h.conns.Connections()
	if err != nil {
		rw.InternalError("获取 Emby 配置失败", err)
		return
	}
	rw.Success(map[string]interface{}{"connections": maskConnections(conns)})
}

// ReplaceEmbyConnections stores a new list of Emby servers. The first one
// becomes the default used by the monitor and scanner.
func (h *Handler) ReplaceEmbyConnections(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req embyConnectionsRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest("请求格式错误")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		validationError(rw, verr, "Emby 配置无效")
		return
	}

	conns := make([]models.EmbyConnection, len(req.Connections))
	for i, c := range req.Connections {
		conns[i] = models.EmbyConnection{Name: c.Name, ServerURL: c.ServerURL, APIKey: c.APIKey}
	}
	saved, err := h.conns.SaveConnections(conns)
	if err != nil {
		rw.InternalError("保存 Emby 配置失败", err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("by", auth.SubjectFromContext(r.Context()).Username).
		Int("connections", len(saved)).
		Msg("Emby connections replaced")
	rw.Success(map[string]interface{}{"connections": maskConnections(saved)})
}
