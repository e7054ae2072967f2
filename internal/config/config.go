// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

// Package config loads Fleetvault's layered configuration.
//
// Sources are applied in order, later ones winning:
//
//  1. Built-in defaults (defaultConfig)
//  2. An optional YAML file (CONFIG_PATH, ./config.yaml, /etc/fleetvault/config.yaml)
//  3. Environment variables (BACKUP_DIR, BACKUP_TIMEZONE, HTTP_PORT, LOG_LEVEL, ...)
//
// Example config.yaml:
//
//	backup:
//	  dir: /var/lib/fleetvault/backups
//	  database: fleet
//	  collections: [curse, soferi, vehicule]
//	  schedule:
//	    timezone: Europe/Bucharest
//	    daily: "0 2 * * *"
//	  retention:
//	    daily: 30
//	store:
//	  path: /var/lib/fleetvault/store
package config

import "time"

// Config is the root configuration.
type Config struct {
	Backup  BackupConfig  `koanf:"backup"`
	Store   StoreConfig   `koanf:"store"`
	Server  ServerConfig  `koanf:"server"`
	Logging LoggingConfig `koanf:"logging"`
	Audit   AuditConfig   `koanf:"audit"`
}

// BackupConfig configures snapshot creation, scheduling and retention.
type BackupConfig struct {
	// Dir is where snapshot files are written and read.
	Dir string `koanf:"dir"`

	// Database is the store name used as the snapshot file name prefix.
	Database string `koanf:"database"`

	// FormatVersion is written into every snapshot's metadata.
	FormatVersion string `koanf:"format_version"`

	// Collections lists the collections to snapshot, in export order.
	Collections []string `koanf:"collections"`

	Schedule  ScheduleConfig  `koanf:"schedule"`
	Retention RetentionConfig `koanf:"retention"`
}

// ScheduleConfig holds the cron expressions for the automatic classes. All of
// them are evaluated in Timezone.
type ScheduleConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Timezone string `koanf:"timezone"`
	Daily    string `koanf:"daily"`
	Weekly   string `koanf:"weekly"`
	Monthly  string `koanf:"monthly"`
}

// RetentionConfig is the number of snapshots kept per class. Zero keeps everything.
type RetentionConfig struct {
	Daily   int `koanf:"daily"`
	Weekly  int `koanf:"weekly"`
	Monthly int `koanf:"monthly"`
	Manual  int `koanf:"manual"`
}

// StoreConfig configures the BadgerDB document store.
type StoreConfig struct {
	Path        string `koanf:"path"`
	InMemory    bool   `koanf:"in_memory"`
	SyncWrites  bool   `koanf:"sync_writes"`
	Compression bool   `koanf:"compression"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port"`
	Timeout           time.Duration `koanf:"timeout"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// OperationRate caps creates and restores per minute across all
	// clients. Zero disables the cap.
	OperationRate  int `koanf:"operation_rate"`
	OperationBurst int `koanf:"operation_burst"`

	// Admin credentials guard snapshot download and restore. Both empty
	// leaves those routes open. AdminPasswordHash (bcrypt) wins over
	// AdminPassword when both are set.
	AdminUsername     string `koanf:"admin_username"`
	AdminPassword     string `koanf:"admin_password"`
	AdminPasswordHash string `koanf:"admin_password_hash"`
}

// LoggingConfig mirrors logging.Config for the loadable fields.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// AuditConfig configures the in-memory trail of operator actions.
type AuditConfig struct {
	Enabled     bool `koanf:"enabled"`
	MaxEvents   int  `koanf:"max_events"`
	BufferSize  int  `koanf:"buffer_size"`
	LogToStdout bool `koanf:"log_to_stdout"`
}

// DefaultCollections is the fleet back office's collection set.
var DefaultCollections = []string{
	"curse",
	"soferi",
	"vehicule",
	"parteneri",
	"facturi",
	"cheltuieli",
	"utilizatori",
	"setari",
}
