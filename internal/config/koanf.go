// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/fleetvault/config.yaml",
	"/etc/fleetvault/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	collections := make([]string, len(DefaultCollections))
	copy(collections, DefaultCollections)

	return &Config{
		Backup: BackupConfig{
			Dir:           "./backups",
			Database:      "fleet",
			FormatVersion: "1.0",
			Collections:   collections,
			Schedule: ScheduleConfig{
				Enabled:  true,
				Timezone: "Europe/Bucharest",
				Daily:    "0 2 * * *",
				Weekly:   "0 3 * * 0",
				Monthly:  "0 4 1 * *",
			},
			Retention: RetentionConfig{
				Daily:   30,
				Weekly:  8,
				Monthly: 12,
				Manual:  0,
			},
		},
		Store: StoreConfig{
			Path:        "./data/store",
			InMemory:    false,
			SyncWrites:  true,
			Compression: true,
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			Timeout:           60 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
			OperationRate:     6,
			OperationBurst:    2,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Audit: AuditConfig{
			Enabled:     true,
			MaxEvents:   1000,
			BufferSize:  256,
			LogToStdout: true,
		},
	}
}

// Load reads defaults, the optional config file and the environment, then
// validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"backup.collections",
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	"backup_dir":               "backup.dir",
	"backup_database":          "backup.database",
	"backup_format_version":    "backup.format_version",
	"backup_collections":       "backup.collections",
	"backup_schedule_enabled":  "backup.schedule.enabled",
	"backup_timezone":          "backup.schedule.timezone",
	"backup_schedule_daily":    "backup.schedule.daily",
	"backup_schedule_weekly":   "backup.schedule.weekly",
	"backup_schedule_monthly":  "backup.schedule.monthly",
	"backup_retention_daily":   "backup.retention.daily",
	"backup_retention_weekly":  "backup.retention.weekly",
	"backup_retention_monthly": "backup.retention.monthly",
	"backup_retention_manual":  "backup.retention.manual",

	"store_path":        "store.path",
	"store_in_memory":   "store.in_memory",
	"store_sync_writes": "store.sync_writes",
	"store_compression": "store.compression",

	"http_host":           "server.host",
	"http_port":           "server.port",
	"http_timeout":        "server.timeout",
	"cors_origins":        "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_requests",
	"rate_limit_window":   "server.rate_limit_window",
	"disable_rate_limit":  "server.rate_limit_disabled",
	"operation_rate":      "server.operation_rate",
	"operation_burst":     "server.operation_burst",
	"admin_username":      "server.admin_username",
	"admin_password":      "server.admin_password",
	"admin_password_hash": "server.admin_password_hash",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"audit_enabled":       "audit.enabled",
	"audit_max_events":    "audit.max_events",
	"audit_buffer_size":   "audit.buffer_size",
	"audit_log_to_stdout": "audit.log_to_stdout",
}

// envTransformFunc turns BACKUP_DIR into backup.dir. Unknown variables map to
// "" which koanf drops.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
