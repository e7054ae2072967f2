// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package backup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tomtom215/fleetvault/internal/logging"
	"github.com/tomtom215/fleetvault/internal/metrics"
)

// BackupCreator is the part of Service the scheduler drives.
type BackupCreator interface {
	CreateBackup(ctx context.Context, class Class) CreateResult
}

// Schedule binds a class to a standard five-field cron expression.
type Schedule struct {
	Class Class
	Spec  string
}

// DefaultSchedules fires daily at 02:00, weekly on Sunday at 03:00 and
// monthly on the 1st at 04:00.
func DefaultSchedules() []Schedule {
	return []Schedule{
		{Class: ClassDaily, Spec: "0 2 * * *"},
		{Class: ClassWeekly, Spec: "0 3 * * 0"},
		{Class: ClassMonthly, Spec: "0 4 1 * *"},
	}
}

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	// Location pins every schedule to one timezone. Defaults to UTC.
	Location *time.Location

	// Schedules defaults to DefaultSchedules.
	Schedules []Schedule
}

// ScheduledEntry describes one registered schedule.
type ScheduledEntry struct {
	Class Class     `json:"class"`
	Spec  string    `json:"spec"`
	Next  time.Time `json:"next"`
	Prev  time.Time `json:"prev"`
}

// Scheduler fires CreateBackup for each schedule. A failing or panicking run
// is logged and never stops later runs. A class never overlaps itself; a
// fire that arrives while the previous run of that class is still going is
// skipped.
type Scheduler struct {
	creator   BackupCreator
	location  *time.Location
	schedules []Schedule
	parsed    []cron.Schedule

	mu      sync.Mutex
	cron    *cron.Cron
	ids     map[Class]cron.EntryID
	cancel  context.CancelFunc
	ctx     context.Context
	started bool
}

// NewScheduler parses every schedule up front so that bad expressions fail
// at construction rather than at Start.
func NewScheduler(creator BackupCreator, cfg SchedulerConfig) (*Scheduler, error) {
	if creator == nil {
		return nil, fmt.Errorf("scheduler needs a backup creator")
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	schedules := cfg.Schedules
	if len(schedules) == 0 {
		schedules = DefaultSchedules()
	}

	parsed := make([]cron.Schedule, len(schedules))
	seen := make(map[Class]struct{}, len(schedules))
	for i, sc := range schedules {
		if err := ValidateClass(sc.Class); err != nil {
			return nil, err
		}
		if _, dup := seen[sc.Class]; dup {
			return nil, fmt.Errorf("class %s scheduled twice", sc.Class)
		}
		seen[sc.Class] = struct{}{}

		sched, err := cron.ParseStandard(sc.Spec)
		if err != nil {
			return nil, fmt.Errorf("invalid schedule %q for %s: %w", sc.Spec, sc.Class, err)
		}
		parsed[i] = sched
	}

	return &Scheduler{
		creator:   creator,
		location:  loc,
		schedules: schedules,
		parsed:    parsed,
	}, nil
}

// Start registers every schedule once and starts the cron loop. A second
// Start before Stop returns ErrSchedulerStarted and registers nothing.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrSchedulerStarted
	}

	cronLogger := logging.NewCronLogger()
	c := cron.New(
		cron.WithLocation(s.location),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.ids = make(map[Class]cron.EntryID, len(s.schedules))
	for i, sc := range s.schedules {
		class := sc.Class
		s.ids[class] = c.Schedule(s.parsed[i], cron.FuncJob(func() { s.run(class) }))
	}

	c.Start()
	s.cron = c
	s.started = true

	for _, e := range s.entriesLocked() {
		logging.Info().
			Str("class", string(e.Class)).
			Str("spec", e.Spec).
			Time("next", e.Next).
			Str("timezone", s.location.String()).
			Msg("Backup schedule registered")
	}
	return nil
}

// Stop halts the cron loop, cancels running backups and waits for them to
// return. Stopping a stopped scheduler is a no-op.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	c, cancel := s.cron, s.cancel
	s.started = false
	s.mu.Unlock()

	stopped := c.Stop()
	cancel()
	<-stopped.Done()

	logging.Info().Msg("Backup scheduler stopped")
	return nil
}

// Running reports whether Start has been called without Stop.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Entries returns the registered schedules with their next and previous
// fire times. Empty when the scheduler is not running.
func (s *Scheduler) Entries() []ScheduledEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entriesLocked()
}

func (s *Scheduler) entriesLocked() []ScheduledEntry {
	if !s.started {
		return nil
	}
	out := make([]ScheduledEntry, 0, len(s.schedules))
	for _, sc := range s.schedules {
		entry := s.cron.Entry(s.ids[sc.Class])
		next := entry.Next
		if next.IsZero() {
			next = entry.Schedule.Next(time.Now().In(s.location))
		}
		out = append(out, ScheduledEntry{
			Class: sc.Class,
			Spec:  sc.Spec,
			Next:  next,
			Prev:  entry.Prev,
		})
	}
	return out
}

// run is one scheduled fire. It never panics and never returns an error to
// the cron loop.
func (s *Scheduler) run(class Class) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logging.ContextWithNewCorrelationID(ctx)

	defer func() {
		if r := recover(); r != nil {
			metrics.RecordScheduledRun(string(class), "panic")
			logging.Ctx(ctx).Error().
				Str("class", string(class)).
				Interface("panic", r).
				Msg("Scheduled backup panicked")
		}
	}()

	logging.Ctx(ctx).Info().Str("class", string(class)).Msg("Scheduled backup starting")
	result := s.creator.CreateBackup(ctx, class)
	if !result.Success {
		metrics.RecordScheduledRun(string(class), "failure")
		logging.Ctx(ctx).Error().
			Str("class", string(class)).
			Str("error", result.Error).
			Msg("Scheduled backup failed")
		return
	}
	metrics.RecordScheduledRun(string(class), "success")
}
