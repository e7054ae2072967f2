// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

/*
Package models defines the wire types shared by Fleetvault's HTTP surface.

Every endpoint answers with an APIResponse envelope:

	{
	  "status": "success",
	  "data": {...},
	  "metadata": {"timestamp": "2026-01-01T02:00:00Z"}
	}

Failures set status to "error" and fill Error with a machine-readable code
(VALIDATION_ERROR, NOT_FOUND, INVALID_FORMAT, BACKUP_FAILED, ...) and a
message. Snapshot results themselves live in package backup; this package
only carries them.
*/
package models
