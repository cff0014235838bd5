// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package api

import (
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/flixpilot/internal/auth"
	"github.com/tomtom215/flixpilot/internal/devices"
	"github.com/tomtom215/flixpilot/internal/logging"
	"github.com/tomtom215/flixpilot/internal/models"
	"github.com/tomtom215/flixpilot/internal/validation"
)

type userDevicesResponse struct {
	Devices      []models.Device `json:"devices"`
	ActiveCount  int             `json:"activeCount"`
	MaxDevices   int             `json:"maxDevices"`
	LimitEnabled bool            `json:"limitEnabled"`
}

// ListDevices returns the caller's devices with the limit summary.
func (h *Handler) ListDevices(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	subject := auth.SubjectFromContext(r.Context())

	list, err := h.registry.UserDevices(subject.ID)
	if err != nil {
		rw.InternalError("获取设备失败", err)
		return
	}
	settings, err := h.registry.Settings()
	if err != nil {
		rw.InternalError("获取设备失败", err)
		return
	}

	active := 0
	for i := range list {
		if list[i].IsActive {
			active++
		}
	}
	rw.Success(userDevicesResponse{
		Devices:      list,
		ActiveCount:  active,
		MaxDevices:   settings.LimitConfig.MaxDevices,
		LimitEnabled: settings.LimitConfig.Enabled,
	})
}

// ListAllDevices returns every device record.
func (h *Handler) ListAllDevices(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	list, err := h.registry.AllDevices()
	if err != nil {
		rw.InternalError("获取设备失败", err)
		return
	}
	rw.Success(map[string]interface{}{"devices": list})
}

// DeviceConfig returns the full settings to admins and only the client rules
// to everyone else.
func (h *Handler) DeviceConfig(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	settings, err := h.registry.Settings()
	if err != nil {
		rw.InternalError("获取配置失败", err)
		return
	}

	if auth.SubjectFromContext(r.Context()).IsAdmin() {
		rw.Success(map[string]interface{}{"config": settings})
		return
	}
	rw.Success(map[string]interface{}{
		"config": map[string]interface{}{"clientConfig": settings.ClientConfig},
	})
}

// CheckLimit reports whether the caller may add another device.
func (h *Handler) CheckLimit(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	check, err := h.registry.CheckDeviceLimit(auth.SubjectFromContext(r.Context()).ID)
	if err != nil {
		rw.InternalError("检查设备限制失败", err)
		return
	}
	rw.Success(check)
}

// CheckClient evaluates ?client= against the rules.
func (h *Handler) CheckClient(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	client := r.URL.Query().Get("client")
	if client == "" {
		rw.BadRequest("参数不完整")
		return
	}
	check, err := h.registry.CheckClientAllowed(client)
	if err != nil {
		rw.InternalError("检查客户端失败", err)
		return
	}
	rw.Success(check)
}

// RecordDevice is the client heartbeat. The device is attributed to the
// caller, whatever the body says.
func (h *Handler) RecordDevice(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	subject := auth.SubjectFromContext(r.Context())

	var req recordDeviceRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest("请求格式错误")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		validationError(rw, verr, devices.ErrIncompleteDevice.Error())
		return
	}

	lastIP := req.LastIP
	if lastIP == "" {
		lastIP = clientIP(r)
	}

	device, err := h.registry.RegisterDevice(models.DeviceReport{
		UserID:        subject.ID,
		Username:      subject.Username,
		EmbyUserID:    req.EmbyUserID,
		DeviceID:      req.DeviceID,
		DeviceName:    req.DeviceName,
		Client:        req.Client,
		ClientVersion: req.ClientVersion,
		DeviceType:    req.DeviceType,
		AppName:       req.AppName,
		LastIP:        lastIP,
	})
	if err != nil {
		registryError(rw, err, "设备不存在")
		return
	}
	rw.Success(map[string]interface{}{"device": device})
}

// DeleteDevice deletes a device. Non-admins may only delete their own.
func (h *Handler) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	subject := auth.SubjectFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.registry.DeleteOwnDevice(subject.ID, id, subject.IsAdmin()); err != nil {
		registryError(rw, err, "设备不存在")
		return
	}
	logging.Ctx(r.Context()).Info().Str("device", id).Str("by", subject.Username).Msg("Device deleted")
	rw.Success(map[string]bool{"deleted": true})
}

// SetDeviceInactive pushes a device out of the activity window.
func (h *Handler) SetDeviceInactive(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id := chi.URLParam(r, "id")
	if id == "" {
		rw.BadRequest("设备ID不能为空")
		return
	}
	if err := h.registry.SetDeviceInactive(id); err != nil {
		registryError(rw, err, "设备不存在")
		return
	}
	rw.Success(map[string]bool{"inactive": true})
}

// AddClientRule adds a whitelist or blacklist rule.
func (h *Handler) AddClientRule(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req addRuleRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest("请求格式错误")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		validationError(rw, verr, "参数不完整")
		return
	}

	rule, err := h.registry.AddClientRule(models.RuleListType(req.Type), devices.RuleInput{
		Name:        req.Name,
		Pattern:     req.Pattern,
		IsRegex:     req.IsRegex,
		Description: req.Description,
	})
	if err != nil {
		registryError(rw, err, "规则不存在")
		return
	}
	rw.Created(map[string]interface{}{"rule": rule})
}

// DeleteClientRule removes a rule from the list named in the path.
func (h *Handler) DeleteClientRule(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	list := models.RuleListType(chi.URLParam(r, "type"))
	if err := h.registry.DeleteClientRule(list, chi.URLParam(r, "id")); err != nil {
		registryError(rw, err, "规则不存在")
		return
	}
	rw.Success(map[string]bool{"deleted": true})
}

// UpdateLimitConfig replaces the device limit settings. A missing enabled
// flag means enabled.
func (h *Handler) UpdateLimitConfig(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req updateLimitRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest("请求格式错误")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		validationError(rw, verr, "参数无效")
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	limit, err := h.registry.UpdateLimitConfig(models.DeviceLimitConfig{
		Enabled:      enabled,
		MaxDevices:   req.MaxDevices,
		InactiveDays: req.InactiveDays,
		BlockAction:  models.BlockAction(req.BlockAction),
	})
	if err != nil {
		rw.InternalError("保存配置失败", err)
		return
	}
	rw.Success(map[string]interface{}{"limitConfig": limit})
}

// UpdateAutoScanConfig changes the scheduled sweep settings.
func (h *Handler) UpdateAutoScanConfig(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req updateAutoScanRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest("请求格式错误")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		validationError(rw, verr, "参数无效")
		return
	}

	cfg, err := h.registry.UpdateAutoScanConfig(req.Enabled, req.IntervalMinutes)
	if err != nil {
		rw.InternalError("保存配置失败", err)
		return
	}
	rw.Success(map[string]interface{}{"autoScanConfig": cfg})
}

// clientIP is the address the request came from, without the port.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
