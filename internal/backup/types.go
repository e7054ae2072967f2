// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package backup

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Class is the recurrence category of a snapshot.
type Class string

// Built-in classes. Any other lowercase alphanumeric name is a custom class.
const (
	ClassDaily   Class = "daily"
	ClassWeekly  Class = "weekly"
	ClassMonthly Class = "monthly"
	ClassManual  Class = "manual"
)

// DefaultFormatVersion is written into snapshot metadata when none is configured.
const DefaultFormatVersion = "1.0"

var classPattern = regexp.MustCompile(`^[a-z0-9]{1,32}$`)

// ValidateClass checks that class can be embedded in a snapshot file name
// and parsed back out of it.
func ValidateClass(class Class) error {
	if !classPattern.MatchString(string(class)) {
		return fmt.Errorf("%w: %q", ErrInvalidClass, class)
	}
	return nil
}

var (
	// ErrInvalidFormat is returned when a snapshot lacks metadata or data.
	ErrInvalidFormat = errors.New("invalid snapshot format")

	// ErrNotFound is returned when a named snapshot does not exist.
	ErrNotFound = errors.New("snapshot not found")

	// ErrNoBackups is returned by latest lookups on an empty directory.
	ErrNoBackups = errors.New("no backups found")

	// ErrInvalidFileName is returned for names that are not snapshot file
	// names or that would resolve outside the backup directory.
	ErrInvalidFileName = errors.New("invalid snapshot file name")

	// ErrInvalidClass is returned for classes that cannot appear in a file name.
	ErrInvalidClass = errors.New("invalid backup class")

	// ErrNoCollections is returned when the collection registry is empty.
	ErrNoCollections = errors.New("no collections registered")

	// ErrSchedulerStarted is returned by a second Start without Stop.
	ErrSchedulerStarted = errors.New("scheduler already started")
)

// Metadata is the "metadata" object of a snapshot file.
type Metadata struct {
	BackupDate   time.Time `json:"backupDate"`
	Type         Class     `json:"type"`
	Database     string    `json:"database"`
	Version      string    `json:"version"`
	Collections  []string  `json:"collections"`
	TotalRecords int       `json:"totalRecords"`
}

// CollectionStatus is the outcome for one collection in a create or restore.
type CollectionStatus string

const (
	StatusOK      CollectionStatus = "ok"
	StatusFailed  CollectionStatus = "failed"
	StatusSkipped CollectionStatus = "skipped"
)

// CollectionResult reports what happened to one collection.
type CollectionResult struct {
	Name    string           `json:"name"`
	Status  CollectionStatus `json:"status"`
	Records int              `json:"records"`
	Reason  string           `json:"reason,omitempty"`
	Err     error            `json:"-"`
}

// CreateResult is returned by CreateBackup.
type CreateResult struct {
	Success       bool               `json:"success"`
	FileName      string             `json:"fileName,omitempty"`
	Class         Class              `json:"class,omitempty"`
	FileSizeBytes int64              `json:"fileSizeBytes,omitempty"`
	FileSizeMB    float64            `json:"fileSizeMB"`
	DurationMs    int64              `json:"durationMs"`
	TotalRecords  int                `json:"totalRecords"`
	Collections   []CollectionResult `json:"collections,omitempty"`
	Retention     *RetentionReport   `json:"retention,omitempty"`
	Error         string             `json:"error,omitempty"`
	Err           error              `json:"-"`
}

// FailedCollections returns the number of collections written as empty
// because their export failed.
func (r CreateResult) FailedCollections() int {
	return countStatus(r.Collections, StatusFailed)
}

// RestoreResult is returned by RestoreFromBackup. Success with Partial set
// means at least one collection failed while the others were restored.
type RestoreResult struct {
	Success             bool               `json:"success"`
	Partial             bool               `json:"partial"`
	FileName            string             `json:"fileName,omitempty"`
	RestoredCollections int                `json:"restoredCollections"`
	TotalCollections    int                `json:"totalCollections"`
	TotalRecords        int                `json:"totalRecords"`
	DurationMs          int64              `json:"durationMs"`
	Collections         []CollectionResult `json:"collections,omitempty"`
	Missing             []string           `json:"missing,omitempty"`
	Error               string             `json:"error,omitempty"`
	Err                 error              `json:"-"`
}

// CatalogEntry describes one snapshot file on disk.
type CatalogEntry struct {
	FileName   string    `json:"fileName"`
	Database   string    `json:"database"`
	Class      Class     `json:"class"`
	SizeBytes  int64     `json:"sizeBytes"`
	SizeMB     float64   `json:"sizeMB"`
	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// LatestResult is returned by GetLatestBackup.
type LatestResult struct {
	Success   bool       `json:"success"`
	FileName  string     `json:"fileName,omitempty"`
	FilePath  string     `json:"filePath,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	Message   string     `json:"message,omitempty"`
	Err       error      `json:"-"`
}

// RetentionReport summarises one retention pass.
type RetentionReport struct {
	Class   Class    `json:"class"`
	Limit   int      `json:"limit"`
	Kept    int      `json:"kept"`
	Deleted []string `json:"deleted,omitempty"`
	Failed  []string `json:"failed,omitempty"`
}

func countStatus(results []CollectionResult, status CollectionStatus) int {
	n := 0
	for _, r := range results {
		if r.Status == status {
			n++
		}
	}
	return n
}

// bytesToMB rounds to two decimals.
func bytesToMB(n int64) float64 {
	return float64(int64(float64(n)/(1024*1024)*100+0.5)) / 100
}
