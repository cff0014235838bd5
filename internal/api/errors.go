// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/flixpilot/internal/devices"
	"github.com/tomtom215/flixpilot/internal/emby"
	"github.com/tomtom215/flixpilot/internal/validation"
)

// embyError maps an error from an Emby-backed operation. Upstream failures
// become 502 with fallback as the message. A missing connection is reported
// with notConfiguredStatus, which differs between endpoints.
func embyError(rw *ResponseWriter, err error, notConfiguredStatus int, fallback string) {
	switch {
	case errors.Is(err, emby.ErrNotConfigured):
		rw.Error(notConfiguredStatus, ErrCodeNotConfigured, emby.ErrNotConfigured.Error())
	case errors.Is(err, emby.ErrCircuitOpen):
		rw.Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Emby 服务器暂时不可用，请稍后重试")
	default:
		rw.ExternalServiceError(fallback, err)
	}
}

// registryError maps device registry errors.
func registryError(rw *ResponseWriter, err error, notFound string) {
	var rejected *devices.RejectedError
	switch {
	case errors.As(err, &rejected):
		details := map[string]interface{}{"blocked": true}
		code := ErrCodeClientBlocked
		if rejected.Limit != nil {
			code = ErrCodeLimitReached
			details["activeCount"] = rejected.Limit.ActiveCount
			details["maxDevices"] = rejected.Limit.MaxDevices
		}
		rw.ErrorWithDetails(http.StatusForbidden, code, rejected.Reason, details)
	case errors.Is(err, devices.ErrNotFound):
		rw.NotFound(notFound)
	case errors.Is(err, devices.ErrForbidden):
		rw.Forbidden(devices.ErrForbidden.Error())
	case errors.Is(err, devices.ErrIncompleteDevice):
		rw.BadRequest(devices.ErrIncompleteDevice.Error())
	case errors.Is(err, devices.ErrInvalidRuleType), errors.Is(err, devices.ErrInvalidPattern):
		rw.Error(http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
	default:
		rw.InternalError("操作失败", err)
	}
}

// validationError renders a failed request struct with message as the
// user-facing text.
func validationError(rw *ResponseWriter, verr *validation.RequestValidationError, message string) {
	apiErr := verr.ToAPIError()
	rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, message, apiErr.Details)
}
