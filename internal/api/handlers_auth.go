// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/flixpilot/internal/auth"
	"github.com/tomtom215/flixpilot/internal/logging"
	"github.com/tomtom215/flixpilot/internal/validation"
)

type loginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	User      *auth.Subject `json:"user"`
}

// Login checks the configured admin credentials and sets the auth-token
// cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.admin == nil {
		rw.Forbidden("管理员登录未启用")
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest("请求格式错误")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		validationError(rw, verr, "请输入用户名和密码")
		return
	}

	subject, ok := h.admin.Verify(req.Username, req.Password)
	if !ok {
		logging.Ctx(r.Context()).Warn().Str("username", req.Username).Str("remote", r.RemoteAddr).Msg("Failed admin login")
		rw.Unauthorized("用户名或密码错误")
		return
	}

	token, expiresAt, err := h.jwt.GenerateToken(*subject)
	if err != nil {
		rw.InternalError("登录失败", err)
		return
	}

	http.SetCookie(w, auth.SessionCookie(token, int(h.jwt.Timeout().Seconds()), h.cfg.Security.CookieSecure))
	logging.Ctx(r.Context()).Info().Str("username", subject.Username).Msg("Admin logged in")
	rw.Success(loginResponse{Token: token, ExpiresAt: expiresAt, User: subject})
}

// Me returns the authenticated subject.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"user": auth.SubjectFromContext(r.Context()),
	})
}
