// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fleetvault/internal/collections"
)

// memCollection is an in-memory Collection with injectable failures.
type memCollection struct {
	name string

	mu           sync.Mutex
	docs         []collections.Document
	exportErr    error
	replaceErr   error
	exportPanic  bool
	replaceCalls int
}

func newMemCollection(name string, n int) *memCollection {
	c := &memCollection{name: name}
	for i := 0; i < n; i++ {
		c.docs = append(c.docs, collections.Document(fmt.Sprintf(`{"id":%d,"collection":%q}`, i, name)))
	}
	return c
}

func (c *memCollection) Name() string { return c.name }

func (c *memCollection) ExportAll(_ context.Context) ([]collections.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exportPanic {
		panic("export exploded")
	}
	if c.exportErr != nil {
		return nil, c.exportErr
	}
	out := make([]collections.Document, len(c.docs))
	copy(out, c.docs)
	return out, nil
}

func (c *memCollection) ReplaceAll(_ context.Context, docs []collections.Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replaceCalls++
	if c.replaceErr != nil {
		return c.replaceErr
	}
	c.docs = append([]collections.Document(nil), docs...)
	return nil
}

func (c *memCollection) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.docs)
}

func (c *memCollection) Replaced() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.replaceCalls
}

// fakeClock hands out a controllable time.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 2, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	t     *testing.T
	dir   string
	svc   *Service
	clock *fakeClock
	cols  map[string]*memCollection
}

// newTestEnv builds a service over fresh in-memory collections. Each spec
// is "name=count"; order is registry order.
func newTestEnv(t *testing.T, specs ...string) *testEnv {
	t.Helper()

	cols := make(map[string]*memCollection, len(specs))
	registered := make([]collections.Collection, 0, len(specs))
	for _, spec := range specs {
		name, countStr, _ := strings.Cut(spec, "=")
		var n int
		if countStr != "" {
			if _, err := fmt.Sscanf(countStr, "%d", &n); err != nil {
				t.Fatalf("bad collection spec %q", spec)
			}
		}
		c := newMemCollection(name, n)
		cols[name] = c
		registered = append(registered, c)
	}
	registry, err := collections.NewRegistry(registered...)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	dir := filepath.Join(t.TempDir(), "backups")
	svc, err := NewService(Config{
		Dir:       dir,
		Database:  "fleet",
		Retention: DefaultRetentionPolicy(),
	}, registry)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	clock := newFakeClock()
	svc.now = clock.Now

	return &testEnv{t: t, dir: dir, svc: svc, clock: clock, cols: cols}
}

func (e *testEnv) create(class Class) CreateResult {
	e.t.Helper()
	res := e.svc.CreateBackup(context.Background(), class)
	if !res.Success {
		e.t.Fatalf("CreateBackup(%s) failed: %s", class, res.Error)
	}
	return res
}

// snapshotFiles lists snapshot file names in the backup directory, sorted.
func (e *testEnv) snapshotFiles() []string {
	e.t.Helper()
	entries, err := os.ReadDir(e.dir)
	if err != nil {
		e.t.Fatalf("ReadDir() error = %v", err)
	}
	var names []string
	for _, de := range entries {
		if _, ok := ParseFileName(de.Name()); ok {
			names = append(names, de.Name())
		}
	}
	sort.Strings(names)
	return names
}

func (e *testEnv) countClass(class Class) int {
	n := 0
	for _, name := range e.snapshotFiles() {
		if p, _ := ParseFileName(name); p.Class == class {
			n++
		}
	}
	return n
}

// rawSnapshot is a loosely typed view of a snapshot file.
type rawSnapshot struct {
	Metadata Metadata                          `json:"metadata"`
	Data     map[string][]collections.Document `json:"data"`
}

func (e *testEnv) readSnapshot(name string) rawSnapshot {
	e.t.Helper()
	raw, err := os.ReadFile(filepath.Join(e.dir, name))
	if err != nil {
		e.t.Fatalf("ReadFile() error = %v", err)
	}
	var snap rawSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		e.t.Fatalf("snapshot %s is not valid JSON: %v", name, err)
	}
	return snap
}

func (e *testEnv) writeFile(name, content string) {
	e.t.Helper()
	if err := os.WriteFile(filepath.Join(e.dir, name), []byte(content), 0o600); err != nil {
		e.t.Fatalf("WriteFile() error = %v", err)
	}
}
