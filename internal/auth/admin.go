// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package auth

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// AdminUserID is the user id carried by tokens issued to the admin login.
const AdminUserID = "admin"

const bcryptCost = 12

// AdminCredentials verifies the configured admin login. The password is
// hashed once at startup.
type AdminCredentials struct {
	username     string
	passwordHash []byte
}

// NewAdminCredentials hashes password for later comparisons.
func NewAdminCredentials(username, password string) (*AdminCredentials, error) {
	if username == "" {
		return nil, fmt.Errorf("admin username is required")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("admin password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return &AdminCredentials{username: username, passwordHash: hash}, nil
}

// Verify returns the admin subject when username and password match. Both
// checks always run.
func (a *AdminCredentials) Verify(username, password string) (*Subject, bool) {
	usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passwordMatch := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) == nil
	if !usernameMatch || !passwordMatch {
		return nil, false
	}
	return &Subject{ID: AdminUserID, Username: a.username, Role: RoleAdmin}, true
}

// SecretsMatch compares a caller-supplied shared secret in constant time.
// An empty expected secret never matches.
func SecretsMatch(provided, expected string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}
