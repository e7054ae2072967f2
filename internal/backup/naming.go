// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package backup

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	fileTimeLayout = "2006-01-02-15-04-05"
	fileExtension  = ".json"
	tmpPrefix      = "."
	tmpSuffix      = ".tmp"
)

// snapshotNamePattern splits "<database>-backup-<class>-<date>-<time>.json".
// The database part is greedy so names like "fleet-backup-eu" still parse.
var snapshotNamePattern = regexp.MustCompile(
	`^(.+)-backup-([a-z0-9]{1,32})-(\d{4}-\d{2}-\d{2}-\d{2}-\d{2}-\d{2})\.json$`,
)

// FileName builds the snapshot file name for database, class and t.
func FileName(database string, class Class, t time.Time) string {
	return fmt.Sprintf("%s-backup-%s-%s%s", database, class, t.UTC().Format(fileTimeLayout), fileExtension)
}

// ParsedName is what a snapshot file name encodes.
type ParsedName struct {
	Database  string
	Class     Class
	CreatedAt time.Time
}

// ParseFileName extracts database, class and timestamp from a snapshot file
// name. ok is false for anything that is not a snapshot file name.
func ParseFileName(name string) (parsed ParsedName, ok bool) {
	m := snapshotNamePattern.FindStringSubmatch(name)
	if m == nil {
		return ParsedName{}, false
	}
	createdAt, err := time.ParseInLocation(fileTimeLayout, m[3], time.UTC)
	if err != nil {
		return ParsedName{}, false
	}
	return ParsedName{Database: m[1], Class: Class(m[2]), CreatedAt: createdAt}, true
}

// validateFileName rejects anything that is not a bare snapshot file name.
func validateFileName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}
	if _, ok := ParseFileName(name); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}
	return nil
}

// pathWithinRoot reports whether path resolves inside root.
func pathWithinRoot(root, path string) bool {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	pathAbs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(filepath.Clean(rootAbs), filepath.Clean(pathAbs))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// resolvePath returns the absolute location of a snapshot inside dir.
func resolvePath(dir, name string) (string, error) {
	if err := validateFileName(name); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if !pathWithinRoot(dir, path) {
		return "", fmt.Errorf("%w: %q escapes backup directory", ErrInvalidFileName, name)
	}
	return path, nil
}

func tmpFileName(name string) string {
	return tmpPrefix + name + tmpSuffix
}
