// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package auth

import (
	"context"
	"net/http"

	"github.com/tomtom215/fleetvault/internal/logging"
)

type contextKey string

const usernameKey contextKey = "auth_username"

// Guard rejects requests without valid Basic credentials. On a nil manager
// it passes every request through.
func (m *BasicAuthManager) Guard(next http.HandlerFunc) http.HandlerFunc {
	if m == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			m.challenge(w, "authentication required")
			return
		}

		username, err := m.ValidateCredentials(header)
		if err != nil {
			logging.Ctx(r.Context()).Warn().
				Err(err).
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Msg("Rejected backup request with invalid credentials")
			m.challenge(w, "invalid credentials")
			return
		}

		ctx := context.WithValue(r.Context(), usernameKey, username)
		next(w, r.WithContext(ctx))
	}
}

func (m *BasicAuthManager) challenge(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", m.GetWWWAuthenticateHeader())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"status":"error","error":{"code":"UNAUTHORIZED","message":"` + message + `"}}`))
}

// UsernameFromContext returns the authenticated username or "".
func UsernameFromContext(ctx context.Context) string {
	if u, ok := ctx.Value(usernameKey).(string); ok {
		return u
	}
	return ""
}
