// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package backup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/tomtom215/fleetvault/internal/logging"
)

// Catalog enumerates the snapshot files in one directory. It keeps no state;
// every call rescans the directory.
type Catalog struct {
	dir string
}

// NewCatalog returns a catalog over dir.
func NewCatalog(dir string) *Catalog {
	return &Catalog{dir: dir}
}

// Dir returns the directory the catalog scans.
func (c *Catalog) Dir() string {
	return c.dir
}

// List returns every snapshot in the directory, newest first. CreatedAt comes
// from the timestamp in the file name; files are ordered by it and then by
// name. Temporary files and anything that is not a snapshot name are ignored.
func (c *Catalog) List() ([]CatalogEntry, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("read backup directory: %w", err)
	}

	out := make([]CatalogEntry, 0, len(entries))
	for _, de := range entries {
		if !de.Type().IsRegular() {
			continue
		}
		parsed, ok := ParseFileName(de.Name())
		if !ok {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// Removed between ReadDir and Info, most likely by retention.
			if !errors.Is(err, fs.ErrNotExist) {
				logging.Warn().Err(err).Str("file", de.Name()).Msg("Failed to stat snapshot file")
			}
			continue
		}
		out = append(out, newCatalogEntry(de.Name(), parsed, info))
	}

	sortNewestFirst(out)
	return out, nil
}

func newCatalogEntry(name string, parsed ParsedName, info fs.FileInfo) CatalogEntry {
	return CatalogEntry{
		FileName:   name,
		Database:   parsed.Database,
		Class:      parsed.Class,
		SizeBytes:  info.Size(),
		SizeMB:     bytesToMB(info.Size()),
		CreatedAt:  parsed.CreatedAt,
		ModifiedAt: info.ModTime().UTC(),
	}
}

func sortNewestFirst(entries []CatalogEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].FileName > entries[j].FileName
	})
}

// Latest returns the newest snapshot of any class.
func (c *Catalog) Latest() (CatalogEntry, error) {
	entries, err := c.List()
	if err != nil {
		return CatalogEntry{}, err
	}
	if len(entries) == 0 {
		return CatalogEntry{}, ErrNoBackups
	}
	return entries[0], nil
}

// Lookup returns the entry for one file name.
func (c *Catalog) Lookup(name string) (CatalogEntry, error) {
	path, err := resolvePath(c.dir, name)
	if err != nil {
		return CatalogEntry{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return CatalogEntry{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return CatalogEntry{}, fmt.Errorf("stat snapshot: %w", err)
	}
	if !info.Mode().IsRegular() {
		return CatalogEntry{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	parsed, _ := ParseFileName(name)
	return newCatalogEntry(name, parsed, info), nil
}

// Path returns the absolute path of a named snapshot inside the directory.
func (c *Catalog) Path(name string) (string, error) {
	return resolvePath(c.dir, name)
}
