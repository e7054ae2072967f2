// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

// Package collections holds the registry of document collections that take
// part in backup and restore. The registry is built once at startup; its
// order is the export order and the order collections appear in snapshot
// metadata.
package collections

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Document is one stored record. It is never interpreted, only copied.
type Document = json.RawMessage

// Collection is a named set of documents that can be read in full and
// replaced in full.
type Collection interface {
	Name() string
	ExportAll(ctx context.Context) ([]Document, error)
	ReplaceAll(ctx context.Context, docs []Document) error
}

var (
	// ErrDuplicateCollection is returned when a name is registered twice.
	ErrDuplicateCollection = errors.New("collection already registered")

	// ErrEmptyName is returned for collections without a name.
	ErrEmptyName = errors.New("collection name is empty")
)

// Registry is an ordered set of collections keyed by name. It is not safe
// for concurrent registration; build it fully before sharing it.
type Registry struct {
	order  []Collection
	byName map[string]Collection
}

// NewRegistry registers cols in order.
func NewRegistry(cols ...Collection) (*Registry, error) {
	r := &Registry{byName: make(map[string]Collection, len(cols))}
	for _, c := range cols {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends c to the registry.
func (r *Registry) Register(c Collection) error {
	name := c.Name()
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCollection, name)
	}
	r.byName[name] = c
	r.order = append(r.order, c)
	return nil
}

// Get returns the collection registered under name.
func (r *Registry) Get(name string) (Collection, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// All returns the registered collections in registration order.
func (r *Registry) All() []Collection {
	out := make([]Collection, len(r.order))
	copy(out, r.order)
	return out
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	for i, c := range r.order {
		names[i] = c.Name()
	}
	return names
}

// Len returns the number of registered collections.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}
