// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tomtom215/flixpilot/internal/logging"
)

// CookieName is the cookie carrying the session token.
const CookieName = "auth-token"

// ErrMissingToken is returned when a request carries no token.
var ErrMissingToken = errors.New("missing token")

// ErrorWriter writes an error response. The API package supplies one that
// renders its JSON envelope.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, status int, code, message string)

func plainError(w http.ResponseWriter, _ *http.Request, status int, _ string, message string) {
	http.Error(w, message, status)
}

// Middleware authenticates requests with session tokens.
type Middleware struct {
	jwt      *JWTManager
	writeErr ErrorWriter
}

// NewMiddleware creates the middleware. writeErr may be nil.
func NewMiddleware(jwtManager *JWTManager, writeErr ErrorWriter) *Middleware {
	if writeErr == nil {
		writeErr = plainError
	}
	return &Middleware{jwt: jwtManager, writeErr: writeErr}
}

// TokenFromRequest returns the auth-token cookie or, failing that, a Bearer
// token from the Authorization header.
func TokenFromRequest(r *http.Request) (string, error) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrInvalidToken
	}
	return strings.TrimSpace(token), nil
}

// Authenticate rejects requests without a valid token with 401 and stores
// the Subject in the request context otherwise.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := TokenFromRequest(r)
		if err != nil {
			m.writeErr(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "未登录")
			return
		}
		claims, err := m.jwt.ValidateToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Token validation failed")
			m.writeErr(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "登录已过期")
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithSubject(r.Context(), SubjectFromClaims(claims))))
	})
}

// SessionCookie builds the auth-token cookie for token.
func SessionCookie(token string, maxAge int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
