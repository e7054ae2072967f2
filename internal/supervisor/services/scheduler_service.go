// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package services

import (
	"context"
	"fmt"
)

// BackupScheduler is the lifecycle of *backup.Scheduler.
type BackupScheduler interface {
	Start() error
	Stop() error
}

// SchedulerService runs the backup scheduler under suture.
//
//	scheduler, _ := backup.NewScheduler(svc, backup.SchedulerConfig{Location: loc})
//	tree.AddSchedulerService(services.NewSchedulerService(scheduler))
type SchedulerService struct {
	scheduler BackupScheduler
	name      string
}

// NewSchedulerService wraps scheduler.
func NewSchedulerService(scheduler BackupScheduler) *SchedulerService {
	return &SchedulerService{
		scheduler: scheduler,
		name:      "backup-scheduler",
	}
}

// Serve implements suture.Service. It starts the cron loop, waits for
// cancellation and then stops it, which also cancels and waits for any
// backup still running. A failed Start is returned so suture retries it.
func (s *SchedulerService) Serve(ctx context.Context) error {
	if err := s.scheduler.Start(); err != nil {
		return fmt.Errorf("backup scheduler start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.scheduler.Stop(); err != nil {
		return fmt.Errorf("backup scheduler stop failed: %w", err)
	}
	return ctx.Err()
}

// String names the service in suture events.
func (s *SchedulerService) String() string {
	return s.name
}
