// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

/*
Package main is the Fleetvault server: scheduled and on-demand snapshots of
the fleet document store, with restore, listing and download over HTTP.

# Process Layout

	fleetvault
	├── scheduler-layer
	│   └── backup-scheduler   daily 02:00, weekly Sun 03:00, monthly 1st 04:00
	└── api-layer
	    └── http-server        /api/v1/backups, /api/v1/audit, /api/v1/health/live, /metrics

Startup order:

 1. Configuration (koanf: defaults, config.yaml, environment)
 2. Logging (zerolog)
 3. Document store (BadgerDB) and collection registry
 4. Backup service, which creates the backup directory and removes stale
    temporary files
 5. Scheduler, when BACKUP_SCHEDULE_ENABLED is true
 6. Audit trail, admin guard and operation throttle, when configured
 7. Router and supervisor tree

SIGINT and SIGTERM cancel the tree. The scheduler cancels a running backup
and the HTTP server drains in-flight requests before the store is closed.

# Configuration

Common environment variables:

	BACKUP_DIR               snapshot directory (./backups)
	BACKUP_DATABASE          file name prefix (fleet)
	BACKUP_TIMEZONE          schedule timezone (Europe/Bucharest)
	BACKUP_SCHEDULE_ENABLED  run the cron schedules (true)
	STORE_PATH               BadgerDB directory
	HTTP_PORT                listen port (8080)
	ADMIN_USERNAME           enables basic auth on download, restore, delete and audit
	ADMIN_PASSWORD_HASH      bcrypt hash for ADMIN_USERNAME
	OPERATION_RATE           creates+restores per minute across all clients
	AUDIT_ENABLED            keep an in-memory trail of API actions (true)
	AUDIT_MAX_EVENTS         events kept before the oldest is evicted (1000)
	LOG_LEVEL, LOG_FORMAT    zerolog level and json|console
*/
package main
