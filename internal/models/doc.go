// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

// Package models holds the data types shared between the store, the Emby
// client, the domain services and the HTTP API.
//
// Emby* types mirror the PascalCase JSON of the Emby REST API. Every other
// type uses the camelCase field names the dashboard front end consumes.
package models
