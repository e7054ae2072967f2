// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tomtom215/fleetvault/internal/logging"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBackup(); err != nil {
		return err
	}
	if err := c.validateSchedule(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateAudit()
}

func (c *Config) validateBackup() error {
	b := c.Backup
	if strings.TrimSpace(b.Dir) == "" {
		return fmt.Errorf("BACKUP_DIR must not be empty")
	}
	if strings.TrimSpace(b.Database) == "" {
		return fmt.Errorf("BACKUP_DATABASE must not be empty")
	}
	if strings.ContainsAny(b.Database, `/\`) {
		return fmt.Errorf("BACKUP_DATABASE must not contain path separators, got %q", b.Database)
	}
	if len(b.Collections) == 0 {
		return fmt.Errorf("BACKUP_COLLECTIONS must name at least one collection")
	}

	seen := make(map[string]struct{}, len(b.Collections))
	for _, name := range b.Collections {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("BACKUP_COLLECTIONS contains an empty name")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("BACKUP_COLLECTIONS lists %q more than once", name)
		}
		seen[name] = struct{}{}
	}

	r := b.Retention
	if r.Daily < 0 || r.Weekly < 0 || r.Monthly < 0 || r.Manual < 0 {
		return fmt.Errorf("retention counts must be >= 0 (daily=%d weekly=%d monthly=%d manual=%d)",
			r.Daily, r.Weekly, r.Monthly, r.Manual)
	}
	return nil
}

func (c *Config) validateSchedule() error {
	s := c.Backup.Schedule
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return fmt.Errorf("BACKUP_TIMEZONE %q is not a known timezone: %w", s.Timezone, err)
	}
	if !s.Enabled {
		return nil
	}
	for name, spec := range map[string]string{"daily": s.Daily, "weekly": s.Weekly, "monthly": s.Monthly} {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("invalid %s schedule %q: %w", name, spec, err)
		}
	}
	return nil
}

func (c *Config) validateStore() error {
	if !c.Store.InMemory && strings.TrimSpace(c.Store.Path) == "" {
		return fmt.Errorf("STORE_PATH is required unless STORE_IN_MEMORY=true")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	if !c.Server.RateLimitDisabled {
		if c.Server.RateLimitRequests < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got %d", c.Server.RateLimitRequests)
		}
		if c.Server.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", c.Server.RateLimitWindow)
		}
	}
	if c.Server.OperationRate < 0 {
		return fmt.Errorf("OPERATION_RATE must be >= 0, got %d", c.Server.OperationRate)
	}
	if c.Server.OperationRate > 0 && c.Server.OperationBurst < 1 {
		return fmt.Errorf("OPERATION_BURST must be at least 1 when OPERATION_RATE is set, got %d", c.Server.OperationBurst)
	}

	hasSecret := c.Server.AdminPassword != "" || c.Server.AdminPasswordHash != ""
	if c.Server.AdminUsername != "" && !hasSecret {
		return fmt.Errorf("ADMIN_USERNAME is set but neither ADMIN_PASSWORD nor ADMIN_PASSWORD_HASH is")
	}
	if c.Server.AdminUsername == "" && hasSecret {
		return fmt.Errorf("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH is set without ADMIN_USERNAME")
	}
	return nil
}

func (c *Config) validateAudit() error {
	if !c.Audit.Enabled {
		return nil
	}
	if c.Audit.MaxEvents < 1 {
		return fmt.Errorf("AUDIT_MAX_EVENTS must be at least 1, got %d", c.Audit.MaxEvents)
	}
	if c.Audit.BufferSize < 1 {
		return fmt.Errorf("AUDIT_BUFFER_SIZE must be at least 1, got %d", c.Audit.BufferSize)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}

// Location returns the scheduler timezone. Validate has already checked it.
func (s ScheduleConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AuthEnabled reports whether admin credentials are configured.
func (s ServerConfig) AuthEnabled() bool {
	return s.AdminUsername != ""
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
