// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package api

import (
	"net/http"
	"strconv"

	"github.com/tomtom215/fleetvault/internal/audit"
	"github.com/tomtom215/fleetvault/internal/validation"
)

// AuditResponse is the body of GET /api/v1/audit.
type AuditResponse struct {
	Enabled bool          `json:"enabled"`
	Total   int64         `json:"total"`
	Events  []audit.Event `json:"events"`
}

// AuditEvents lists recorded snapshot actions, newest first.
// Optional query parameters: type, outcome, target, limit (1-1000, default 100).
// GET /api/v1/audit
func (h *Handler) AuditEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := validation.AuditQueryRequest{
		Type:    q.Get("type"),
		Outcome: q.Get("outcome"),
		Target:  q.Get("target"),
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.respondError(w, r, http.StatusBadRequest, CodeValidation, "limit must be an integer", nil)
			return
		}
		req.Limit = n
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		h.respondValidation(w, verr)
		return
	}

	if h.audit == nil {
		h.respondSuccess(w, http.StatusOK, AuditResponse{Events: []audit.Event{}})
		return
	}

	filter := audit.DefaultQueryFilter()
	if req.Type != "" {
		filter.Types = []audit.EventType{audit.EventType(req.Type)}
	}
	if req.Outcome != "" {
		filter.Outcomes = []audit.Outcome{audit.Outcome(req.Outcome)}
	}
	filter.Target = req.Target
	if req.Limit > 0 {
		filter.Limit = req.Limit
	}

	events, err := h.audit.Query(r.Context(), filter)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, CodeListFailed, "Failed to read audit events", err)
		return
	}
	total, err := h.audit.Count(r.Context(), filter)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, CodeListFailed, "Failed to count audit events", err)
		return
	}
	h.respondSuccess(w, http.StatusOK, AuditResponse{Enabled: true, Total: total, Events: events})
}
