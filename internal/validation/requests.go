// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package validation

// CreateBackupRequest is the body of POST /api/v1/backups. An empty class
// means manual.
type CreateBackupRequest struct {
	Class string `json:"class" validate:"omitempty,lowercase,alphanum,max=32,backupclass"`
}

// SnapshotRequest carries the {fileName} path parameter of the download and
// restore routes.
type SnapshotRequest struct {
	FileName string `json:"fileName" validate:"required,max=255,snapshotname"`
}

// AuditQueryRequest carries the query parameters of GET /api/v1/audit.
type AuditQueryRequest struct {
	Type    string `json:"type" validate:"omitempty,oneof=backup.created backup.restored backup.downloaded backup.deleted"`
	Outcome string `json:"outcome" validate:"omitempty,oneof=success partial failure"`
	Target  string `json:"target" validate:"omitempty,max=255"`
	Limit   int    `json:"limit" validate:"omitempty,min=1,max=1000"`
}
