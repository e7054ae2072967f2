// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{InMemory: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func docs(n int, field string) []json.RawMessage {
	out := make([]json.RawMessage, n)
	for i := range out {
		out[i] = json.RawMessage(fmt.Sprintf(`{"%s":%d}`, field, i))
	}
	return out
}

func TestInsertAndAllPreservesOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := s.Insert(ctx, "curse", json.RawMessage(fmt.Sprintf(`{"n":%d}`, i))); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	all, err := s.All(ctx, "curse")
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 documents, got %d", len(all))
	}
	for i, doc := range all {
		want := fmt.Sprintf(`{"n":%d}`, i)
		if string(doc) != want {
			t.Errorf("doc %d = %s, want %s", i, doc, want)
		}
	}
}

func TestCollectionsAreIsolated(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.InsertMany(ctx, "curse", docs(3, "c")); err != nil {
		t.Fatalf("InsertMany() error = %v", err)
	}
	// "curse2" shares a string prefix with "curse"; the separator keeps them apart.
	if err := s.InsertMany(ctx, "curse2", docs(2, "d")); err != nil {
		t.Fatalf("InsertMany() error = %v", err)
	}

	if n, _ := s.Count(ctx, "curse"); n != 3 {
		t.Errorf("Count(curse) = %d, want 3", n)
	}
	if n, _ := s.Count(ctx, "curse2"); n != 2 {
		t.Errorf("Count(curse2) = %d, want 2", n)
	}

	all, err := s.All(ctx, "soferi")
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if all == nil || len(all) != 0 {
		t.Errorf("expected empty non-nil slice for unknown collection, got %v", all)
	}
}

func TestReplaceAll(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.InsertMany(ctx, "soferi", docs(4, "old")); err != nil {
		t.Fatalf("InsertMany() error = %v", err)
	}
	if err := s.ReplaceAll(ctx, "soferi", docs(2, "new")); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}

	all, err := s.All(ctx, "soferi")
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 documents after replace, got %d", len(all))
	}
	if string(all[0]) != `{"new":0}` {
		t.Errorf("first doc = %s", all[0])
	}
}

func TestReplaceAllRejectsInvalidJSONWithoutDeleting(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.InsertMany(ctx, "facturi", docs(3, "f")); err != nil {
		t.Fatalf("InsertMany() error = %v", err)
	}

	bad := []json.RawMessage{json.RawMessage(`{"ok":1}`), json.RawMessage(`{broken`)}
	err := s.ReplaceAll(ctx, "facturi", bad)
	if !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
	if n, _ := s.Count(ctx, "facturi"); n != 3 {
		t.Errorf("Count(facturi) = %d, want 3 (untouched)", n)
	}
}

func TestDeleteAll(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.InsertMany(ctx, "vehicule", docs(10, "v")); err != nil {
		t.Fatalf("InsertMany() error = %v", err)
	}
	n, err := s.DeleteAll(ctx, "vehicule")
	if err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}
	if n != 10 {
		t.Errorf("DeleteAll() = %d, want 10", n)
	}
	if c, _ := s.Count(ctx, "vehicule"); c != 0 {
		t.Errorf("Count after DeleteAll = %d, want 0", c)
	}
}

func TestInvalidCollectionName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"", "bad\x00name"} {
		if _, err := s.All(ctx, name); !errors.Is(err, ErrInvalidCollection) {
			t.Errorf("All(%q) error = %v, want ErrInvalidCollection", name, err)
		}
	}
}

func TestClosedStore(t *testing.T) {
	s, err := Open(Config{InMemory: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close() error = %v, want ErrClosed", err)
	}
	if _, err := s.All(context.Background(), "curse"); !errors.Is(err, ErrClosed) {
		t.Errorf("All() after close error = %v, want ErrClosed", err)
	}
}

func TestCancelledContext(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Insert(ctx, "curse", json.RawMessage(`{}`)); !errors.Is(err, context.Canceled) {
		t.Errorf("Insert() error = %v, want context.Canceled", err)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store")
	ctx := context.Background()

	s, err := Open(Config{Path: path})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.InsertMany(ctx, "setari", docs(2, "s")); err != nil {
		t.Fatalf("InsertMany() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(Config{Path: path})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	if n, _ := reopened.Count(ctx, "setari"); n != 2 {
		t.Errorf("Count after reopen = %d, want 2", n)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(Config{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}
