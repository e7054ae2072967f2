// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package backup

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fleetvault/internal/collections"
)

// snapshotReader holds a parsed snapshot. Collection arrays stay raw until
// Documents asks for them and are released once decoded.
type snapshotReader struct {
	meta Metadata
	data map[string]json.RawMessage
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// openSnapshot loads and validates the snapshot at path. It fails with
// ErrNotFound for missing files and ErrInvalidFormat when metadata or data
// is missing or malformed.
func openSnapshot(path string) (*snapshotReader, error) {
	f, err := os.Open(path) //nolint:gosec // path resolved inside the backup directory
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
		}
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	var top struct {
		Metadata json.RawMessage `json:"metadata"`
		Data     json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(bufio.NewReader(f)).Decode(&top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if isAbsent(top.Metadata) {
		return nil, fmt.Errorf("%w: missing metadata", ErrInvalidFormat)
	}
	if isAbsent(top.Data) {
		return nil, fmt.Errorf("%w: missing data", ErrInvalidFormat)
	}

	r := &snapshotReader{}
	if err := json.Unmarshal(top.Metadata, &r.meta); err != nil {
		return nil, fmt.Errorf("%w: metadata: %v", ErrInvalidFormat, err)
	}
	if err := json.Unmarshal(top.Data, &r.data); err != nil {
		return nil, fmt.Errorf("%w: data is not an object: %v", ErrInvalidFormat, err)
	}
	return r, nil
}

// CollectionNames lists collections in metadata order, followed by any
// collections present only in data, sorted by name.
func (r *snapshotReader) CollectionNames() []string {
	seen := make(map[string]struct{}, len(r.meta.Collections)+len(r.data))
	names := make([]string, 0, len(r.meta.Collections)+len(r.data))
	for _, name := range r.meta.Collections {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	var extra []string
	for name := range r.data {
		if _, ok := seen[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// Has reports whether data carries a non-null entry for name.
func (r *snapshotReader) Has(name string) bool {
	raw, ok := r.data[name]
	return ok && !isAbsent(raw)
}

// Documents decodes the array stored under name. A missing or null entry
// returns nil without error. The raw bytes are dropped after decoding.
func (r *snapshotReader) Documents(name string) ([]collections.Document, error) {
	raw, ok := r.data[name]
	if !ok || isAbsent(raw) {
		return nil, nil
	}
	var docs []collections.Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("collection %s is not an array of documents: %w", name, err)
	}
	delete(r.data, name)
	return docs, nil
}
