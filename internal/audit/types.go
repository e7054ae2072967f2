// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package audit

import (
	"context"
	"time"
)

// EventType identifies the snapshot action that was audited.
type EventType string

const (
	EventBackupCreated    EventType = "backup.created"
	EventBackupRestored   EventType = "backup.restored"
	EventBackupDownloaded EventType = "backup.downloaded"
	EventBackupDeleted    EventType = "backup.deleted"
)

// Outcome is how the action ended.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailure Outcome = "failure"
)

// Actor types.
const (
	ActorUser      = "user"
	ActorAnonymous = "anonymous"
)

// Actor is who performed the action.
type Actor struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Source is where the request came from.
type Source struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent,omitempty"`
}

// Event is one audited action.
type Event struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Type          EventType         `json:"type"`
	Outcome       Outcome           `json:"outcome"`
	Actor         Actor             `json:"actor"`
	Source        Source            `json:"source"`
	Target        string            `json:"target,omitempty"`
	Description   string            `json:"description,omitempty"`
	Error         string            `json:"error,omitempty"`
	RequestID     string            `json:"request_id,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

// Store persists audit events.
type Store interface {
	Save(ctx context.Context, event *Event) error
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)
	Count(ctx context.Context, filter QueryFilter) (int64, error)
}

// QueryFilter selects events. Zero fields match everything.
type QueryFilter struct {
	Types    []EventType `json:"types,omitempty"`
	Outcomes []Outcome   `json:"outcomes,omitempty"`
	ActorID  string      `json:"actor_id,omitempty"`
	Target   string      `json:"target,omitempty"`
	Since    *time.Time  `json:"since,omitempty"`

	// Limit caps the result; <= 0 means no cap.
	Limit int `json:"limit,omitempty"`
}

// DefaultQueryFilter returns the filter used when a request supplies none.
func DefaultQueryFilter() QueryFilter {
	return QueryFilter{Limit: 100}
}
