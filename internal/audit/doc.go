// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

/*
Package audit records operator actions taken against snapshots over the API.

Every create, restore, download and delete that reaches a handler produces one
Event carrying who did it (the basic-auth user, or "anonymous" when the guard
is disabled), where the request came from, the snapshot it touched and how it
ended. Events are written asynchronously by a Logger into a bounded
MemoryStore and are readable through GET /api/v1/audit.

Scheduled backups are not audited here; they are covered by the backup
metrics and the scheduler's own log lines.

# Usage

	store := audit.NewMemoryStore(1000)
	logger := audit.NewLogger(store, audit.DefaultConfig())
	defer logger.Close()

	logger.Log(&audit.Event{
	    Type:    audit.EventBackupRestored,
	    Outcome: audit.OutcomeSuccess,
	    Actor:   audit.Actor{ID: "admin", Type: audit.ActorUser},
	    Target:  "fleet-backup-daily-2026-01-01-02-00-00.json",
	})

The store is process-local. A restart clears it.
*/
package audit
