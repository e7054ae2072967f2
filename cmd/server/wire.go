// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package main

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/fleetvault/internal/api"
	"github.com/tomtom215/fleetvault/internal/audit"
	"github.com/tomtom215/fleetvault/internal/auth"
	"github.com/tomtom215/fleetvault/internal/backup"
	"github.com/tomtom215/fleetvault/internal/config"
	"github.com/tomtom215/fleetvault/internal/middleware"
	"github.com/tomtom215/fleetvault/internal/store"
)

func storeConfig(cfg *config.Config) store.Config {
	return store.Config{
		Path:        cfg.Store.Path,
		InMemory:    cfg.Store.InMemory,
		SyncWrites:  cfg.Store.SyncWrites,
		Compression: cfg.Store.Compression,
	}
}

func backupConfig(cfg *config.Config) backup.Config {
	r := cfg.Backup.Retention
	return backup.Config{
		Dir:           cfg.Backup.Dir,
		Database:      cfg.Backup.Database,
		FormatVersion: cfg.Backup.FormatVersion,
		Retention: backup.RetentionPolicy{
			backup.ClassDaily:   r.Daily,
			backup.ClassWeekly:  r.Weekly,
			backup.ClassMonthly: r.Monthly,
			backup.ClassManual:  r.Manual,
		},
	}
}

// schedulerConfig maps the validated cron expressions onto the built-in
// classes.
func schedulerConfig(cfg *config.Config) backup.SchedulerConfig {
	s := cfg.Backup.Schedule
	return backup.SchedulerConfig{
		Location: s.Location(),
		Schedules: []backup.Schedule{
			{Class: backup.ClassDaily, Spec: s.Daily},
			{Class: backup.ClassWeekly, Spec: s.Weekly},
			{Class: backup.ClassMonthly, Spec: s.Monthly},
		},
	}
}

// newGuard returns nil when no admin is configured. A configured hash wins
// over a plain password.
func newGuard(s config.ServerConfig) (*auth.BasicAuthManager, error) {
	if !s.AuthEnabled() {
		return nil, nil
	}
	if s.AdminPasswordHash != "" {
		return auth.NewBasicAuthManagerFromHash(s.AdminUsername, s.AdminPasswordHash)
	}
	return auth.NewBasicAuthManager(s.AdminUsername, s.AdminPassword)
}

// newAuditLogger returns nil when the audit trail is disabled.
func newAuditLogger(a config.AuditConfig) *audit.Logger {
	if !a.Enabled {
		return nil
	}
	return audit.NewLogger(audit.NewMemoryStore(a.MaxEvents), &audit.Config{
		Enabled:     true,
		BufferSize:  a.BufferSize,
		LogToStdout: a.LogToStdout,
	})
}

// newOperationLimiter returns nil when OperationRate is zero.
func newOperationLimiter(s config.ServerConfig) *rate.Limiter {
	if s.OperationRate <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.OperationRate)), s.OperationBurst)
}

func routerConfig(s config.ServerConfig, guard *auth.BasicAuthManager, limiter *rate.Limiter) api.RouterConfig {
	rc := api.RouterConfig{
		CORSOrigins:       s.CORSOrigins,
		RateLimitRequests: s.RateLimitRequests,
		RateLimitWindow:   s.RateLimitWindow,
		RateLimitDisabled: s.RateLimitDisabled,
	}
	if guard != nil {
		rc.Guard = guard.Guard
	}
	if limiter != nil {
		rc.Throttle = middleware.Throttle(limiter)
	}
	return rc
}

func newHTTPServer(s config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              s.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.Timeout,
		// Downloads of large snapshots and long restores need the full
		// configured timeout for the response.
		WriteTimeout: s.Timeout,
		IdleTimeout:  60 * time.Second,
	}
}
