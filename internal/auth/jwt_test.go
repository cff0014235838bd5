// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-with-at-least-32-characters"

func newTestManager(t *testing.T) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	return m
}

func TestNewJWTManagerRequiresSecret(t *testing.T) {
	if _, err := NewJWTManager("", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	m := newTestManager(t)
	token, expiresAt, err := m.GenerateToken(Subject{ID: "u-1", Username: "alice", Role: RoleUser})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Errorf("expiresAt %v is not in the future", expiresAt)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "u-1" || claims.Username != "alice" || claims.Role != RoleUser {
		t.Errorf("claims = %+v", claims)
	}
}

// Tokens minted by the member portal carry only userId/username/role/exp.
func TestValidatePortalToken(t *testing.T) {
	m := newTestManager(t)
	portal := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId":   "u-9",
		"username": "bob",
		"role":     "user",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	signed, err := portal.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}

	claims, err := m.ValidateToken(signed)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "u-9" || claims.Username != "bob" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	m := newTestManager(t)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": "u-1",
		"exp":    time.Now().Add(-time.Minute).Unix(),
	})
	expiredToken, _ := expired.SignedString([]byte(testSecret))

	wrongKey := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": "u-1",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	wrongKeyToken, _ := wrongKey.SignedString([]byte("another-secret-key-of-sufficient-len"))

	noUser := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": "ghost",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	noUserToken, _ := noUser.SignedString([]byte(testSecret))

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"userId": "u-1",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	noneToken, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"expired", expiredToken},
		{"wrong key", wrongKeyToken},
		{"missing user id", noUserToken},
		{"alg none", noneToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.ValidateToken(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestSubjectFromClaimsNormalizesRole(t *testing.T) {
	s := SubjectFromClaims(&Claims{UserID: "u-1", Role: "superuser"})
	if s.Role != RoleUser {
		t.Errorf("Role = %q, want %q", s.Role, RoleUser)
	}
	if s.IsAdmin() {
		t.Error("unknown role must not be admin")
	}
	if !SubjectFromClaims(&Claims{UserID: "a", Role: RoleAdmin}).IsAdmin() {
		t.Error("admin role lost")
	}
}
