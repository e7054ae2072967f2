// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/fleetvault/internal/audit"
	"github.com/tomtom215/fleetvault/internal/backup"
	"github.com/tomtom215/fleetvault/internal/logging"
	"github.com/tomtom215/fleetvault/internal/models"
	"github.com/tomtom215/fleetvault/internal/validation"
)

// maxCreateBodyBytes bounds the create request body.
const maxCreateBodyBytes = 4 << 10

// ScheduleResponse is the body of GET /api/v1/backups/schedule.
type ScheduleResponse struct {
	Enabled bool                    `json:"enabled"`
	Entries []backup.ScheduledEntry `json:"entries"`
}

// DeleteResponse is the body of a successful delete.
type DeleteResponse struct {
	Deleted string `json:"deleted"`
}

// fileNameParam reads and validates the {fileName} path segment. It writes
// the 400 itself and reports false when the name is rejected.
func (h *Handler) fileNameParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	req := validation.SnapshotRequest{FileName: chi.URLParam(r, "fileName")}
	if verr := validation.ValidateStruct(&req); verr != nil {
		h.respondValidation(w, verr)
		return "", false
	}
	return req.FileName, true
}

// CreateBackup creates a snapshot. The body is optional; an absent or empty
// class means manual.
// POST /api/v1/backups
func (h *Handler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	var req validation.CreateBackupRequest
	err := json.NewDecoder(io.LimitReader(r.Body, maxCreateBodyBytes)).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		h.respondError(w, r, http.StatusBadRequest, CodeInvalidJSON, "Request body must be a JSON object", nil)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		h.respondValidation(w, verr)
		return
	}

	result := h.service.CreateBackup(r.Context(), backup.Class(req.Class))
	if !result.Success {
		h.record(r, audit.EventBackupCreated, audit.OutcomeFailure, result.FileName, result.Err)
		status, code, message := failureMessage(r, result.Err, CodeBackupFailed, "Failed to create backup")
		if status == http.StatusInternalServerError {
			result.Error = ""
			result.Collections = withoutReasons(result.Collections)
		}
		resp := models.NewError(code, message, h.now())
		resp.Data = result
		resp.Metadata.DurationMS = result.DurationMs
		respondJSON(w, status, resp)
		return
	}

	h.record(r, audit.EventBackupCreated, audit.OutcomeSuccess, result.FileName, nil)
	resp := models.NewSuccess(result, h.now())
	resp.Metadata.DurationMS = result.DurationMs
	respondJSON(w, http.StatusCreated, resp)
}

// ListBackups lists snapshot files, newest first.
// GET /api/v1/backups
func (h *Handler) ListBackups(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListBackups()
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, CodeListFailed, "Failed to list backups", err)
		return
	}
	if entries == nil {
		entries = []backup.CatalogEntry{}
	}
	h.respondSuccess(w, http.StatusOK, entries)
}

// LatestBackup describes the newest snapshot of any class.
// GET /api/v1/backups/latest
func (h *Handler) LatestBackup(w http.ResponseWriter, r *http.Request) {
	result := h.service.GetLatestBackup()
	if !result.Success {
		status, code := errorStatus(result.Err, CodeListFailed)
		h.respondError(w, r, status, code, result.Message, result.Err)
		return
	}
	h.respondSuccess(w, http.StatusOK, result)
}

// Schedule lists the registered schedules with their next fire times.
// GET /api/v1/backups/schedule
func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	resp := ScheduleResponse{Entries: []backup.ScheduledEntry{}}
	if h.schedule != nil {
		resp.Enabled = true
		if entries := h.schedule.Entries(); len(entries) > 0 {
			resp.Entries = entries
		}
	}
	h.respondSuccess(w, http.StatusOK, resp)
}

// DownloadLatest streams the newest snapshot file.
// GET /api/v1/backups/latest/download
func (h *Handler) DownloadLatest(w http.ResponseWriter, r *http.Request) {
	f, entry, err := h.service.OpenLatestBackup()
	h.serveSnapshot(w, r, f, entry, "latest", err)
}

// DownloadBackup streams a named snapshot file.
// GET /api/v1/backups/{fileName}/download
func (h *Handler) DownloadBackup(w http.ResponseWriter, r *http.Request) {
	name, ok := h.fileNameParam(w, r)
	if !ok {
		return
	}
	f, entry, err := h.service.OpenBackup(name)
	h.serveSnapshot(w, r, f, entry, name, err)
}

// serveSnapshot streams f. requested names the snapshot for the audit trail
// when the open failed.
func (h *Handler) serveSnapshot(w http.ResponseWriter, r *http.Request, f *os.File, entry backup.CatalogEntry, requested string, err error) {
	if err != nil {
		h.record(r, audit.EventBackupDownloaded, audit.OutcomeFailure, requested, err)
		status, code := errorStatus(err, CodeDownloadFailed)
		message := "Failed to open backup"
		if status != http.StatusInternalServerError {
			message = err.Error()
			err = nil
		}
		h.respondError(w, r, status, code, message, err)
		return
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logging.Ctx(r.Context()).Warn().Err(cerr).Str("file", entry.FileName).Msg("Failed to close snapshot after download")
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", entry.FileName))
	w.Header().Set("Cache-Control", "no-store")
	logging.Ctx(r.Context()).Info().Str("file", entry.FileName).Int64("size_bytes", entry.SizeBytes).Msg("Snapshot download")
	h.record(r, audit.EventBackupDownloaded, audit.OutcomeSuccess, entry.FileName, nil)
	http.ServeContent(w, r, entry.FileName, entry.ModifiedAt, f)
}

// RestoreBackup replaces the live collections with a snapshot's contents.
// POST /api/v1/backups/{fileName}/restore
func (h *Handler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	name, ok := h.fileNameParam(w, r)
	if !ok {
		return
	}

	result := h.service.RestoreFromBackup(r.Context(), name)
	h.record(r, audit.EventBackupRestored, restoreOutcome(result), name, result.Err)
	switch {
	case result.Success && result.Partial:
		resp := models.NewSuccess(result, h.now())
		resp.Metadata.DurationMS = result.DurationMs
		respondJSON(w, http.StatusMultiStatus, resp)
	case result.Success:
		resp := models.NewSuccess(result, h.now())
		resp.Metadata.DurationMS = result.DurationMs
		respondJSON(w, http.StatusOK, resp)
	default:
		status, code, message := failureMessage(r, result.Err, CodeRestoreFailed, "Failed to restore backup")
		if status == http.StatusInternalServerError {
			result.Error = ""
			result.Collections = withoutReasons(result.Collections)
		}
		resp := models.NewError(code, message, h.now())
		resp.Data = result
		resp.Metadata.DurationMS = result.DurationMs
		respondJSON(w, status, resp)
	}
}

// DeleteBackup removes a named snapshot file.
// DELETE /api/v1/backups/{fileName}
func (h *Handler) DeleteBackup(w http.ResponseWriter, r *http.Request) {
	name, ok := h.fileNameParam(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteBackup(r.Context(), name); err != nil {
		h.record(r, audit.EventBackupDeleted, audit.OutcomeFailure, name, err)
		status, code := errorStatus(err, CodeDeleteFailed)
		if status == http.StatusInternalServerError {
			h.respondError(w, r, status, code, "Failed to delete backup", err)
			return
		}
		h.respondError(w, r, status, code, err.Error(), nil)
		return
	}
	h.record(r, audit.EventBackupDeleted, audit.OutcomeSuccess, name, nil)
	h.respondSuccess(w, http.StatusOK, DeleteResponse{Deleted: name})
}

func restoreOutcome(result backup.RestoreResult) audit.Outcome {
	switch {
	case result.Success && result.Partial:
		return audit.OutcomePartial
	case result.Success:
		return audit.OutcomeSuccess
	default:
		return audit.OutcomeFailure
	}
}
