// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package collections

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tomtom215/fleetvault/internal/store"
)

func TestRegistryPreservesOrder(t *testing.T) {
	s, err := store.Open(store.Config{InMemory: true})
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	defer s.Close()

	r, err := FromStore(s, []string{"soferi", "curse", "vehicule"})
	if err != nil {
		t.Fatalf("FromStore() error = %v", err)
	}

	if got := strings.Join(r.Names(), ","); got != "soferi,curse,vehicule" {
		t.Errorf("Names() = %s", got)
	}
	if r.Len() != 3 {
		t.Errorf("Len() = %d, want 3", r.Len())
	}
	if _, ok := r.Get("curse"); !ok {
		t.Error("expected curse to be registered")
	}
	if _, ok := r.Get("facturi"); ok {
		t.Error("did not expect facturi to be registered")
	}
}

func TestRegistryRejectsDuplicatesAndEmptyNames(t *testing.T) {
	s, err := store.Open(store.Config{InMemory: true})
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	defer s.Close()

	if _, err := FromStore(s, []string{"curse", "curse"}); !errors.Is(err, ErrDuplicateCollection) {
		t.Errorf("expected ErrDuplicateCollection, got %v", err)
	}
	if _, err := FromStore(s, []string{" "}); !errors.Is(err, ErrEmptyName) {
		t.Errorf("expected ErrEmptyName, got %v", err)
	}
}

func TestStoreCollectionRoundTrip(t *testing.T) {
	s, err := store.Open(store.Config{InMemory: true})
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	c := NewStoreCollection(s, "parteneri")
	in := []Document{Document(`{"id":1}`), Document(`{"id":2}`)}
	if err := c.ReplaceAll(ctx, in); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}

	out, err := c.ExportAll(ctx)
	if err != nil {
		t.Fatalf("ExportAll() error = %v", err)
	}
	if len(out) != 2 || string(out[1]) != `{"id":2}` {
		t.Errorf("ExportAll() = %s", out)
	}
}

func TestNilRegistryLen(t *testing.T) {
	var r *Registry
	if r.Len() != 0 {
		t.Error("nil registry should have length 0")
	}
}
