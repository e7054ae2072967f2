// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

/*
Package validation provides struct validation for API requests using
go-playground/validator v10.

A single validator instance is built once and shared; it caches struct
metadata, so creating one per request would be wasteful. Field names in
errors come from the json tag, matching what the client sent.

Custom tags:

  - backupclass: a snapshot class usable in a file name (lowercase
    letters and digits, at most 32)
  - snapshotname: a bare snapshot file name such as
    fleet-backup-daily-2026-01-02-03-04-05.json

Example:

	req := validation.CreateBackupRequest{Class: "manual"}
	if verr := validation.ValidateStruct(&req); verr != nil {
	    apiErr := verr.ToAPIError()
	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, verr)
	    return
	}
*/
package validation
