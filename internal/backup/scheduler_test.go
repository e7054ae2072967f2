// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package backup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// mockCreator records CreateBackup calls.
type mockCreator struct {
	mu      sync.Mutex
	classes []Class

	createFunc func(ctx context.Context, class Class) CreateResult
}

func (m *mockCreator) CreateBackup(ctx context.Context, class Class) CreateResult {
	m.mu.Lock()
	m.classes = append(m.classes, class)
	fn := m.createFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, class)
	}
	return CreateResult{Success: true, Class: class}
}

func (m *mockCreator) calls() []Class {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Class(nil), m.classes...)
}

func TestNewScheduler_Validation(t *testing.T) {
	creator := &mockCreator{}

	tests := []struct {
		name      string
		schedules []Schedule
		wantErr   bool
	}{
		{"defaults", nil, false},
		{"custom class", []Schedule{{Class: "hourly", Spec: "0 * * * *"}}, false},
		{"bad spec", []Schedule{{Class: ClassDaily, Spec: "every day"}}, true},
		{"six fields", []Schedule{{Class: ClassDaily, Spec: "0 0 2 * * *"}}, true},
		{"bad class", []Schedule{{Class: "Daily", Spec: "0 2 * * *"}}, true},
		{"duplicate class", []Schedule{{Class: ClassDaily, Spec: "0 2 * * *"}, {Class: ClassDaily, Spec: "0 3 * * *"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScheduler(creator, SchedulerConfig{Schedules: tt.schedules})
			if (err != nil) != tt.wantErr {
				t.Errorf("NewScheduler() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if _, err := NewScheduler(nil, SchedulerConfig{}); err == nil {
		t.Error("NewScheduler(nil) should fail")
	}
}

func TestScheduler_StartRegistersOnce(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Bucharest")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	s, err := NewScheduler(&mockCreator{}, SchedulerConfig{Location: loc})
	if err != nil {
		t.Fatal(err)
	}
	if entries := s.Entries(); entries != nil {
		t.Errorf("Entries() before Start = %v, want nil", entries)
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer func() { _ = s.Stop() }()

	if err := s.Start(); !errors.Is(err, ErrSchedulerStarted) {
		t.Errorf("second Start() error = %v, want ErrSchedulerStarted", err)
	}
	if !s.Running() {
		t.Error("Running() = false after Start")
	}

	entries := s.Entries()
	if len(entries) != 3 {
		t.Fatalf("Entries() = %d, want 3", len(entries))
	}

	wantHour := map[Class]int{ClassDaily: 2, ClassWeekly: 3, ClassMonthly: 4}
	for _, e := range entries {
		next := e.Next.In(loc)
		if next.Hour() != wantHour[e.Class] || next.Minute() != 0 {
			t.Errorf("%s next fire %v, want %02d:00 Bucharest time", e.Class, next, wantHour[e.Class])
		}
		switch e.Class {
		case ClassWeekly:
			if next.Weekday() != time.Sunday {
				t.Errorf("weekly fires on %v, want Sunday", next.Weekday())
			}
		case ClassMonthly:
			if next.Day() != 1 {
				t.Errorf("monthly fires on day %d, want 1", next.Day())
			}
		}
	}
}

func TestScheduler_StopAndRestart(t *testing.T) {
	s, err := NewScheduler(&mockCreator{}, SchedulerConfig{})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Stop(); err != nil {
		t.Errorf("Stop() before Start error = %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	if s.Running() {
		t.Error("Running() = true after Stop")
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start() after Stop error = %v", err)
	}
	if got := len(s.Entries()); got != 3 {
		t.Errorf("Entries() after restart = %d, want 3", got)
	}
	_ = s.Stop()
}

func TestScheduler_RunSurvivesFailureAndPanic(t *testing.T) {
	creator := &mockCreator{}
	s, err := NewScheduler(creator, SchedulerConfig{})
	if err != nil {
		t.Fatal(err)
	}

	creator.createFunc = func(context.Context, Class) CreateResult {
		return CreateResult{Success: false, Error: "disk full"}
	}
	s.run(ClassDaily)

	creator.createFunc = func(context.Context, Class) CreateResult {
		panic("boom")
	}
	s.run(ClassWeekly)

	creator.createFunc = nil
	s.run(ClassMonthly)

	got := creator.calls()
	if len(got) != 3 || got[0] != ClassDaily || got[1] != ClassWeekly || got[2] != ClassMonthly {
		t.Errorf("CreateBackup calls = %v", got)
	}
}

func TestScheduler_JobsCallCreatorWithClass(t *testing.T) {
	creator := &mockCreator{}
	s, err := NewScheduler(creator, SchedulerConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	s.mu.Lock()
	c, id := s.cron, s.ids[ClassWeekly]
	s.mu.Unlock()
	c.Entry(id).WrappedJob.Run()

	if got := creator.calls(); len(got) != 1 || got[0] != ClassWeekly {
		t.Errorf("CreateBackup calls = %v, want [weekly]", got)
	}
	_ = s.Stop()
}

func TestScheduler_StopCancelsRunningBackup(t *testing.T) {
	started := make(chan struct{})
	cancelled := make(chan struct{})
	creator := &mockCreator{
		createFunc: func(ctx context.Context, _ Class) CreateResult {
			close(started)
			<-ctx.Done()
			close(cancelled)
			return CreateResult{Success: false, Error: ctx.Err().Error()}
		},
	}
	s, err := NewScheduler(creator, SchedulerConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	go s.run(ClassDaily)
	<-started

	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("running backup was not cancelled by Stop")
	}
}
