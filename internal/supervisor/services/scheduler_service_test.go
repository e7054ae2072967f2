// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/fleetvault/internal/backup"
)

type mockScheduler struct {
	startErr   error
	stopErr    error
	startCount atomic.Int32
	stopCount  atomic.Int32
	started    chan struct{}
}

func newMockScheduler() *mockScheduler {
	return &mockScheduler{started: make(chan struct{}, 8)}
}

func (m *mockScheduler) Start() error {
	m.startCount.Add(1)
	if m.startErr != nil {
		return m.startErr
	}
	m.started <- struct{}{}
	return nil
}

func (m *mockScheduler) Stop() error {
	m.stopCount.Add(1)
	return m.stopErr
}

func TestSchedulerService_Interface(t *testing.T) {
	var _ suture.Service = (*SchedulerService)(nil)
	var _ BackupScheduler = (*backup.Scheduler)(nil)
}

func TestSchedulerService_Serve(t *testing.T) {
	t.Run("starts then stops on cancellation", func(t *testing.T) {
		sched := newMockScheduler()
		svc := NewSchedulerService(sched)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		select {
		case <-sched.started:
		case <-time.After(time.Second):
			t.Fatal("scheduler was not started")
		}
		if sched.stopCount.Load() != 0 {
			t.Error("Stop called before cancellation")
		}

		cancel()
		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() = %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return after cancellation")
		}
		if sched.stopCount.Load() != 1 {
			t.Errorf("Stop called %d times, want 1", sched.stopCount.Load())
		}
	})

	t.Run("start failure is returned", func(t *testing.T) {
		sched := newMockScheduler()
		sched.startErr = backup.ErrSchedulerStarted
		err := NewSchedulerService(sched).Serve(context.Background())
		if !errors.Is(err, backup.ErrSchedulerStarted) {
			t.Errorf("Serve() = %v, want wrapped ErrSchedulerStarted", err)
		}
		if sched.stopCount.Load() != 0 {
			t.Error("Stop must not be called after a failed Start")
		}
	})

	t.Run("stop failure is returned", func(t *testing.T) {
		sched := newMockScheduler()
		sched.stopErr = errors.New("cron did not stop")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := NewSchedulerService(sched).Serve(ctx); !errors.Is(err, sched.stopErr) {
			t.Errorf("Serve() = %v, want stop error", err)
		}
	})
}

func TestSchedulerService_String(t *testing.T) {
	if got := NewSchedulerService(newMockScheduler()).String(); got != "backup-scheduler" {
		t.Errorf("String() = %q, want backup-scheduler", got)
	}
}

type noopCreator struct{}

func (noopCreator) CreateBackup(ctx context.Context, class backup.Class) backup.CreateResult {
	return backup.CreateResult{Success: true, Class: class}
}

func TestSchedulerService_RealScheduler(t *testing.T) {
	sched, err := backup.NewScheduler(noopCreator{}, backup.SchedulerConfig{Location: time.UTC})
	if err != nil {
		t.Fatal(err)
	}

	sup := suture.New("test-sup", suture.Spec{Timeout: 2 * time.Second})
	sup.Add(NewSchedulerService(sched))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := sup.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for !sched.Running() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !sched.Running() {
		t.Fatal("scheduler not running under supervisor")
	}
	if n := len(sched.Entries()); n != 3 {
		t.Errorf("Entries() = %d, want 3 default schedules", n)
	}

	cancel()
	<-errCh
	if sched.Running() {
		t.Error("scheduler still running after supervisor stopped")
	}
}
