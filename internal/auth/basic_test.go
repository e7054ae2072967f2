// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package auth

import (
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// newBasicAuthManagerForTest uses bcrypt.MinCost to keep tests fast.
func newBasicAuthManagerForTest(t *testing.T, username, password string) *BasicAuthManager {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword() error = %v", err)
	}
	m, err := NewBasicAuthManagerFromHash(username, string(hash))
	if err != nil {
		t.Fatalf("NewBasicAuthManagerFromHash() error = %v", err)
	}
	return m
}

func makeAuthHeader(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

func TestNewBasicAuthManager(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		errorMsg string
	}{
		{"valid credentials", "admin", "securepassword123", ""},
		{"minimum password length", "admin", "12345678", ""},
		{"empty username", "", "securepassword123", "username is required"},
		{"empty password", "admin", "", "password is required"},
		{"password too short", "admin", "1234567", "at least 8 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager, err := NewBasicAuthManager(tt.username, tt.password)
			if tt.errorMsg != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("error = %v, want %q", err, tt.errorMsg)
				}
				if manager != nil {
					t.Error("Expected nil manager on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if string(manager.passwordHash) == tt.password {
				t.Error("Password should be hashed, not stored in plaintext")
			}
			if cost, _ := bcrypt.Cost(manager.passwordHash); cost != bcryptCost {
				t.Errorf("bcrypt cost = %d, want %d", cost, bcryptCost)
			}
		})
	}
}

func TestNewBasicAuthManagerFromHash(t *testing.T) {
	if _, err := NewBasicAuthManagerFromHash("admin", "plaintext"); err == nil {
		t.Error("plain text accepted as hash")
	}
	if _, err := NewBasicAuthManagerFromHash("", "$2a$04$abcdefghijklmnopqrstuu5n0P7pKx0t7rZ1J1yq2x9q3XkP3ZbO6"); err == nil {
		t.Error("empty username accepted")
	}
}

func TestValidateCredentials(t *testing.T) {
	manager := newBasicAuthManagerForTest(t, "admin", "securepass123")

	tests := []struct {
		name        string
		authHeader  string
		expectValid bool
	}{
		{"valid credentials", makeAuthHeader("admin", "securepass123"), true},
		{"wrong password", makeAuthHeader("admin", "wrongpassword"), false},
		{"wrong username", makeAuthHeader("hacker", "securepass123"), false},
		{"empty password", makeAuthHeader("admin", ""), false},
		{"missing Basic prefix", base64.StdEncoding.EncodeToString([]byte("admin:securepass123")), false},
		{"wrong scheme", "Bearer " + base64.StdEncoding.EncodeToString([]byte("admin:securepass123")), false},
		{"invalid base64", "Basic !!invalid!!", false},
		{"missing colon separator", "Basic " + base64.StdEncoding.EncodeToString([]byte("adminsecurepass123")), false},
		{"case sensitive username", makeAuthHeader("Admin", "securepass123"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := manager.ValidateCredentials(tt.authHeader)
			if tt.expectValid {
				if err != nil || user != "admin" {
					t.Errorf("ValidateCredentials() = %q, %v", user, err)
				}
				return
			}
			if err == nil {
				t.Errorf("ValidateCredentials() accepted %q", tt.authHeader)
			}
		})
	}

	if _, err := manager.ValidateCredentials(makeAuthHeader("admin", "nope")); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("mismatch error = %v, want ErrInvalidCredentials", err)
	}
}

func TestGuard(t *testing.T) {
	manager := newBasicAuthManagerForTest(t, "admin", "securepass123")

	var gotUser string
	handler := manager.Guard(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UsernameFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"bad password", makeAuthHeader("admin", "bad"), http.StatusUnauthorized},
		{"valid", makeAuthHeader("admin", "securepass123"), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUser = ""
			req := httptest.NewRequest(http.MethodGet, "/api/v1/backups/latest/download", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				if rec.Header().Get("WWW-Authenticate") == "" {
					t.Error("missing WWW-Authenticate challenge")
				}
				if gotUser != "" {
					t.Error("handler ran for rejected request")
				}
				return
			}
			if gotUser != "admin" {
				t.Errorf("username in context = %q, want admin", gotUser)
			}
		})
	}
}

func TestGuard_NilManagerDisabled(t *testing.T) {
	var m *BasicAuthManager
	called := false
	handler := m.Guard(func(w http.ResponseWriter, r *http.Request) { called = true })

	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Error("nil manager should pass requests through")
	}
}
