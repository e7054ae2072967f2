// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package audit

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/fleetvault/internal/logging"
)

// Config holds configuration for the audit logger.
type Config struct {
	// Enabled controls whether events are recorded at all.
	Enabled bool `json:"enabled"`

	// BufferSize is the size of the async write buffer.
	BufferSize int `json:"buffer_size"`

	// LogToStdout also writes every event through the application logger.
	LogToStdout bool `json:"log_to_stdout"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Enabled:     true,
		BufferSize:  256,
		LogToStdout: true,
	}
}

// Logger writes events to a Store from a background goroutine so handlers
// never wait on persistence.
type Logger struct {
	config    *Config
	store     Store
	eventChan chan *Event
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	now       func() time.Time
}

// NewLogger creates a logger and starts its writer.
func NewLogger(store Store, config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}

	l := &Logger{
		config:    config,
		store:     store,
		eventChan: make(chan *Event, config.BufferSize),
		stopChan:  make(chan struct{}),
		now:       time.Now,
	}

	l.wg.Add(1)
	go l.asyncWriter()

	return l
}

func (l *Logger) asyncWriter() {
	defer l.wg.Done()

	for {
		select {
		case <-l.stopChan:
			for {
				select {
				case event := <-l.eventChan:
					l.writeEvent(event)
				default:
					return
				}
			}
		case event := <-l.eventChan:
			l.writeEvent(event)
		}
	}
}

func (l *Logger) writeEvent(event *Event) {
	if l.config.LogToStdout {
		data, err := json.Marshal(event)
		if err != nil {
			logging.Error().Err(err).Msg("Failed to marshal audit event")
		} else {
			logging.Info().RawJSON("event", data).Msg("Audit event")
		}
	}

	if l.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.store.Save(ctx, event); err != nil {
		logging.Error().Err(err).Str("event_id", event.ID).Msg("Failed to save audit event")
	}
}

// Log queues event for writing, filling in ID and Timestamp when unset.
// A full buffer drops the event with a warning. Log after Close is a no-op.
func (l *Logger) Log(event *Event) {
	if l == nil || !l.config.Enabled || event == nil {
		return
	}
	select {
	case <-l.stopChan:
		return
	default:
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now().UTC()
	}

	select {
	case l.eventChan <- event:
	default:
		logging.Warn().Str("event_id", event.ID).Str("type", string(event.Type)).
			Msg("Audit event buffer full, dropping event")
	}
}

// LogRequest records an action taken by the request's caller.
// The actor, source, request id and correlation id come from r.
func (l *Logger) LogRequest(r *http.Request, actorID string, eventType EventType, outcome Outcome, target string, err error) {
	if l == nil {
		return
	}
	event := &Event{
		Type:          eventType,
		Outcome:       outcome,
		Actor:         ActorFromUsername(actorID),
		Source:        SourceFromRequest(r),
		Target:        target,
		RequestID:     logging.RequestIDFromContext(r.Context()),
		CorrelationID: logging.CorrelationIDFromContext(r.Context()),
	}
	if err != nil {
		event.Error = err.Error()
	}
	l.Log(event)
}

// Query reads events from the underlying store.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	if l.store == nil {
		return []Event{}, nil
	}
	return l.store.Query(ctx, filter)
}

// Count counts events in the underlying store.
func (l *Logger) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	if l.store == nil {
		return 0, nil
	}
	return l.store.Count(ctx, filter)
}

// Close flushes queued events and stops the writer. It is safe to call twice.
func (l *Logger) Close() error {
	l.stopOnce.Do(func() { close(l.stopChan) })
	l.wg.Wait()
	return nil
}

// ActorFromUsername maps an authenticated username to an Actor;
// "" means the guard was disabled.
func ActorFromUsername(username string) Actor {
	if username == "" {
		return Actor{ID: ActorAnonymous, Type: ActorAnonymous}
	}
	return Actor{ID: username, Type: ActorUser}
}

// SourceFromRequest extracts the client address and user agent. RemoteAddr
// has already been rewritten by the RealIP middleware when it is installed.
func SourceFromRequest(r *http.Request) Source {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return Source{IPAddress: ip, UserAgent: r.UserAgent()}
}
