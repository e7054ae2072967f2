// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package api

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fleetvault/internal/audit"
	"github.com/tomtom215/fleetvault/internal/auth"
	"github.com/tomtom215/fleetvault/internal/backup"
	"github.com/tomtom215/fleetvault/internal/logging"
	"github.com/tomtom215/fleetvault/internal/models"
	"github.com/tomtom215/fleetvault/internal/validation"
)

// BackupService is the part of backup.Service the handlers use.
type BackupService interface {
	CreateBackup(ctx context.Context, class backup.Class) backup.CreateResult
	RestoreFromBackup(ctx context.Context, fileName string) backup.RestoreResult
	ListBackups() ([]backup.CatalogEntry, error)
	GetLatestBackup() backup.LatestResult
	OpenBackup(fileName string) (*os.File, backup.CatalogEntry, error)
	OpenLatestBackup() (*os.File, backup.CatalogEntry, error)
	DeleteBackup(ctx context.Context, fileName string) error
}

// ScheduleLister reports the registered backup schedules.
type ScheduleLister interface {
	Entries() []backup.ScheduledEntry
}

// Handler serves the backup endpoints.
type Handler struct {
	service   BackupService
	schedule  ScheduleLister
	audit     *audit.Logger
	startTime time.Time
	now       func() time.Time
}

// HandlerOption customises a Handler.
type HandlerOption func(*Handler)

// WithSchedule exposes the scheduler's entries on /api/v1/backups/schedule.
// Without it the endpoint reports the scheduler as disabled.
func WithSchedule(s ScheduleLister) HandlerOption {
	return func(h *Handler) {
		h.schedule = s
	}
}

// WithAudit records snapshot actions to logger and serves them on
// /api/v1/audit.
func WithAudit(logger *audit.Logger) HandlerOption {
	return func(h *Handler) {
		h.audit = logger
	}
}

// NewHandler creates a Handler over service.
func NewHandler(service BackupService, opts ...HandlerOption) *Handler {
	h := &Handler{
		service:   service,
		startTime: time.Now(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// respondJSON writes response with status. Backup listings change on every
// run so nothing is cacheable.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func (h *Handler) respondSuccess(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, models.NewSuccess(data, h.now()))
}

// respondError writes an error envelope. err is logged, never sent.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	logAPIError(r, code, err)
	respondJSON(w, status, models.NewError(code, message, h.now()))
}

func logAPIError(r *http.Request, code string, err error) {
	if err == nil {
		return
	}
	logging.Ctx(r.Context()).Error().
		Str("code", code).
		Str("error", sanitizeLogValue(err.Error())).
		Str("path", sanitizeLogValue(r.URL.Path)).
		Msg("API error")
}

// respondValidation writes a VALIDATION_ERROR envelope with field details.
func (h *Handler) respondValidation(w http.ResponseWriter, verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	resp := models.NewError(apiErr.Code, apiErr.Message, h.now())
	resp.Error.Details = apiErr.Details
	respondJSON(w, http.StatusBadRequest, resp)
}

// record audits an action once the service has been asked to perform it.
func (h *Handler) record(r *http.Request, eventType audit.EventType, outcome audit.Outcome, target string, err error) {
	h.audit.LogRequest(r, auth.UsernameFromContext(r.Context()), eventType, outcome, target, err)
}

// sanitizeLogValue strips line breaks so caller-supplied names cannot forge
// log lines.
func sanitizeLogValue(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}
