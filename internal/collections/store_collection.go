// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package collections

import (
	"context"

	"github.com/tomtom215/fleetvault/internal/store"
)

// StoreCollection exposes one collection of the document store.
type StoreCollection struct {
	name  string
	store *store.Store
}

// NewStoreCollection binds name to s.
func NewStoreCollection(s *store.Store, name string) *StoreCollection {
	return &StoreCollection{name: name, store: s}
}

// Name implements Collection.
func (c *StoreCollection) Name() string { return c.name }

// ExportAll implements Collection.
func (c *StoreCollection) ExportAll(ctx context.Context) ([]Document, error) {
	return c.store.All(ctx, c.name)
}

// ReplaceAll implements Collection.
func (c *StoreCollection) ReplaceAll(ctx context.Context, docs []Document) error {
	return c.store.ReplaceAll(ctx, c.name, docs)
}

// FromStore builds a registry with one StoreCollection per name.
func FromStore(s *store.Store, names []string) (*Registry, error) {
	r := &Registry{byName: make(map[string]Collection, len(names))}
	for _, name := range names {
		if err := r.Register(NewStoreCollection(s, name)); err != nil {
			return nil, err
		}
	}
	return r, nil
}
