// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared by all handlers. Field names in
// errors are taken from the json tag so they match the request body:
//
//	type addRuleRequest struct {
//	    Type    string `json:"type" validate:"required,ruletype"`
//	    Name    string `json:"name" validate:"required,max=100"`
//	    Pattern string `json:"pattern" validate:"required,max=500"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    // apiErr.Details["field"] == "pattern"
//	}
//
// Custom tags:
//   - ruletype: "whitelist" or "blacklist"
//   - embyurl: absolute http or https URL
package validation
