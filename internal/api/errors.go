// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/fleetvault/internal/backup"
)

// Error codes placed in the response envelope.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeInvalidJSON    = "INVALID_JSON"
	CodeInvalidFormat  = "INVALID_FORMAT"
	CodeNotFound       = "NOT_FOUND"
	CodeNoBackups      = "NO_BACKUPS"
	CodeBackupFailed   = "BACKUP_FAILED"
	CodeRestoreFailed  = "RESTORE_FAILED"
	CodeDownloadFailed = "DOWNLOAD_FAILED"
	CodeDeleteFailed   = "DELETE_FAILED"
	CodeListFailed     = "LIST_FAILED"
)

// errorStatus maps a backup error to its HTTP status and error code.
// fallback is the code used for anything unrecognised, which is a 500.
func errorStatus(err error, fallback string) (int, string) {
	switch {
	case errors.Is(err, backup.ErrInvalidFileName), errors.Is(err, backup.ErrInvalidClass):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, backup.ErrInvalidFormat):
		return http.StatusBadRequest, CodeInvalidFormat
	case errors.Is(err, backup.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, backup.ErrNoBackups):
		return http.StatusNotFound, CodeNoBackups
	default:
		return http.StatusInternalServerError, fallback
	}
}

// failureMessage maps err like errorStatus and picks the client message.
// Client errors keep err's text. A 500 gets generic and err is logged.
func failureMessage(r *http.Request, err error, fallback, generic string) (int, string, string) {
	status, code := errorStatus(err, fallback)
	if status != http.StatusInternalServerError {
		return status, code, err.Error()
	}
	logAPIError(r, code, err)
	return status, code, generic
}

// withoutReasons copies cs with the failure text dropped.
func withoutReasons(cs []backup.CollectionResult) []backup.CollectionResult {
	if cs == nil {
		return nil
	}
	out := make([]backup.CollectionResult, len(cs))
	for i, c := range cs {
		c.Reason = ""
		out[i] = c
	}
	return out
}
