// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package api

import (
	"errors"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/tomtom215/flixpilot/internal/auth"
	"github.com/tomtom215/flixpilot/internal/emby"
	"github.com/tomtom215/flixpilot/internal/logging"
	"github.com/tomtom215/flixpilot/internal/models"
	"github.com/tomtom215/flixpilot/internal/scanner"
	"github.com/tomtom215/flixpilot/internal/validation"
)

// resolveConnection picks the connection from the body, falling back to
// the stored default.
func (h *Handler) resolveConnection(fields connectionFields) (models.EmbyConnection, error) {
	if conn, ok := fields.manual(); ok {
		return conn, nil
	}
	conn, ok, err := h.conns.DefaultConnection()
	if err != nil {
		return models.EmbyConnection{}, err
	}
	if !ok || !conn.IsConfigured() {
		return models.EmbyConnection{}, emby.ErrNotConfigured
	}
	return conn, nil
}

// scannerError keeps the scanner endpoints' 500-with-message behaviour for
// upstream failures.
func scannerError(rw *ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, emby.ErrNotConfigured):
		rw.Error(http.StatusBadRequest, ErrCodeNotConfigured, emby.ErrNotConfigured.Error())
	case errors.Is(err, scanner.ErrNoLibraries):
		rw.Error(http.StatusBadRequest, ErrCodeBadRequest, scanner.ErrNoLibraries.Error())
	default:
		logging.Ctx(rw.r.Context()).Error().Err(err).Msg(fallback)
		rw.ErrorWithDetails(http.StatusInternalServerError, ErrCodeExternalService, fallback,
			map[string]string{"cause": err.Error()})
	}
}

// DefaultLibraries lists the libraries of the default Emby server.
func (h *Handler) DefaultLibraries(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	conn, err := h.resolveConnection(connectionFields{})
	if err != nil {
		scannerError(rw, err, "获取媒体库列表失败")
		return
	}
	libs, err := h.scanner.ListLibraries(r.Context(), conn)
	if err != nil {
		scannerError(rw, err, "获取媒体库列表失败")
		return
	}
	rw.Success(map[string]interface{}{"libraries": libs})
}

// ManualLibraries lists the libraries of the server given in the body.
func (h *Handler) ManualLibraries(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req librariesRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest("请求格式错误")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		validationError(rw, verr, "请提供 Emby 服务器地址和 API Key")
		return
	}

	conn, _ := connectionFields{ServerURL: req.ServerURL, APIKey: req.APIKey}.manual()
	libs, err := h.scanner.ListLibraries(r.Context(), conn)
	if err != nil {
		scannerError(rw, err, "无法连接到 Emby 服务器，请检查地址")
		return
	}
	rw.Success(map[string]interface{}{"libraries": libs})
}

// Scan runs a duplicate scan.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req scanRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest("请求格式错误")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		validationError(rw, verr, "参数无效")
		return
	}

	conn, err := h.resolveConnection(req.connectionFields)
	if err != nil {
		scannerError(rw, err, "扫描失败")
		return
	}

	result, err := h.scanner.Scan(r.Context(), conn, scanner.Request{
		Mode:       models.ParseScanMode(req.Mode),
		LibraryIDs: req.LibraryIDs,
	})
	if err != nil {
		scannerError(rw, err, "扫描失败")
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("mode", string(result.Mode)).
		Int("groups", result.Totals.DuplicateGroups).
		Str("reclaimable", humanize.IBytes(uint64(result.Totals.DuplicateBytes))).
		Msg("Duplicate scan finished")
	rw.Success(result)
}

// DeleteItems deletes Emby items chosen from a scan result.
func (h *Handler) DeleteItems(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req deleteItemsRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest("请求格式错误")
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		validationError(rw, verr, "请选择至少一个要删除的条目")
		return
	}

	conn, err := h.resolveConnection(req.connectionFields)
	if err != nil {
		scannerError(rw, err, "删除失败，请稍后重试")
		return
	}

	report, err := h.scanner.DeleteItems(r.Context(), conn, req.Items)
	if err != nil {
		scannerError(rw, err, "删除失败，请稍后重试")
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("by", auth.SubjectFromContext(r.Context()).Username).
		Int("deleted", report.Summary.SuccessCount).
		Int("failed", report.Summary.FailureCount).
		Msg("Emby items deleted")
	rw.Success(report)
}
