// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/flixpilot/internal/models"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// manualConnectionName labels connections supplied in a request body.
const manualConnectionName = "手动配置"

// decodeJSON reads the request body into v. An empty body leaves v
// untouched.
func decodeJSON(r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	err := json.NewDecoder(body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

type loginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=256"`
}

type recordDeviceRequest struct {
	DeviceID      string `json:"deviceId" validate:"required,max=256"`
	DeviceName    string `json:"deviceName" validate:"max=256"`
	Client        string `json:"client" validate:"required,max=256"`
	ClientVersion string `json:"clientVersion" validate:"max=64"`
	DeviceType    string `json:"deviceType" validate:"max=64"`
	AppName       string `json:"appName" validate:"max=256"`
	LastIP        string `json:"lastIp" validate:"omitempty,ip"`
	EmbyUserID    string `json:"embyUserId" validate:"max=64"`
}

type addRuleRequest struct {
	Type        string `json:"type" validate:"required,ruletype"`
	Name        string `json:"name" validate:"required,max=100"`
	Pattern     string `json:"pattern" validate:"required,max=500"`
	IsRegex     bool   `json:"isRegex"`
	Description string `json:"description" validate:"max=500"`
}

type updateLimitRequest struct {
	Enabled      *bool  `json:"enabled"`
	MaxDevices   int    `json:"maxDevices" validate:"gte=0,lte=1000"`
	InactiveDays int    `json:"inactiveDays" validate:"gte=0,lte=3650"`
	BlockAction  string `json:"blockAction" validate:"omitempty,oneof=warn block"`
}

type updateAutoScanRequest struct {
	Enabled         bool `json:"enabled"`
	IntervalMinutes int  `json:"intervalMinutes" validate:"gte=0,lte=10080"`
}

// connectionFields is embedded by requests that may target a server other
// than the default one.
type connectionFields struct {
	ServerURL string `json:"serverUrl" validate:"omitempty,embyurl"`
	APIKey    string `json:"apiKey" validate:"max=256"`
}

// manual returns the connection given in the body, if both fields are set.
func (c connectionFields) manual() (models.EmbyConnection, bool) {
	if c.ServerURL == "" || c.APIKey == "" {
		return models.EmbyConnection{}, false
	}
	return models.EmbyConnection{
		Name:      manualConnectionName,
		ServerURL: strings.TrimRight(c.ServerURL, "/"),
		APIKey:    c.APIKey,
	}, true
}

type librariesRequest struct {
	ServerURL string `json:"serverUrl" validate:"required,embyurl"`
	APIKey    string `json:"apiKey" validate:"required,max=256"`
}

type scanRequest struct {
	connectionFields
	Mode       string   `json:"mode"`
	LibraryIDs []string `json:"libraryIds" validate:"max=100,dive,max=64"`
}

type deleteItemsRequest struct {
	connectionFields
	Items []string `json:"items" validate:"required,min=1,max=1000,dive,required,max=64"`
}

type embyConnectionInput struct {
	Name      string `json:"name" validate:"max=100"`
	ServerURL string `json:"serverUrl" validate:"required,embyurl"`
	APIKey    string `json:"apiKey" validate:"required,max=256"`
}

type embyConnectionsRequest struct {
	Connections []embyConnectionInput `json:"connections" validate:"max=20,dive"`
}
