// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package emby

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotConfigured is returned before any network call when the connection
	// has no server URL or API key.
	ErrNotConfigured = errors.New("未配置 Emby 服务器")

	// ErrCircuitOpen is returned while the server's circuit breaker is open.
	ErrCircuitOpen = errors.New("emby circuit breaker open")
)

// APIError is a non-2xx response from Emby.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	text := e.Body
	if text == "" {
		text = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("Emby API error %d: %s", e.StatusCode, text)
}

// ServerError reports whether the response was a 5xx.
func (e *APIError) ServerError() bool {
	return e.StatusCode >= 500
}

// StatusCode extracts the HTTP status from an *APIError in err's chain.
// It returns 0 when err carries no Emby response.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
