// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

/*
Package backup produces point-in-time snapshots of the document store,
prunes old snapshots per class and restores the store from a snapshot.

# Snapshot Files

One snapshot is one JSON file in the backup directory, named

	<database>-backup-<class>-<YYYY-MM-DD>-<HH-MM-SS>.json

with the timestamp in UTC. The file holds two top-level objects:

	{
	  "data":     {"curse": [...], "soferi": [...]},
	  "metadata": {"backupDate": "...", "type": "daily", "database": "fleet",
	               "version": "1.0", "collections": ["curse", "soferi"],
	               "totalRecords": 7}
	}

Key order carries no meaning. The writer emits data first so that
totalRecords is known when metadata is written. Files are written to a
hidden temporary name and renamed into place, so a listed snapshot is
always complete. Snapshots are never modified after the rename.

# Classes and Retention

Scheduled snapshots use the daily, weekly and monthly classes. Manual
snapshots and any custom class are kept forever unless a limit is
configured. After every successful write the files of that class are
ordered by modification time and everything past the limit is deleted.

# Failure Handling

  - Setup failures (backup directory, empty collection registry) fail the call.
  - A collection that cannot be exported is written as an empty array.
  - A collection that cannot be restored is skipped; the others continue.
  - A snapshot without metadata or data fails restore before any write.
  - Unknown file names and an empty directory are reported, not raised.

Every create and restore runs under one service-wide lock.

# Usage

	svc, err := backup.NewService(cfg, registry)
	if err != nil {
	    return err
	}
	res := svc.CreateBackup(ctx, backup.ClassManual)
	if !res.Success {
	    logging.Error().Str("error", res.Error).Msg("Backup failed")
	}

	sched, err := backup.NewScheduler(svc, backup.SchedulerConfig{Location: loc})
	...
	_ = sched.Start()
*/
package backup
