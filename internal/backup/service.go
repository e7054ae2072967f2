// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/fleetvault/internal/collections"
	"github.com/tomtom215/fleetvault/internal/logging"
	"github.com/tomtom215/fleetvault/internal/metrics"
)

// Config configures a Service.
type Config struct {
	// Dir is the backup directory. Created on NewService if missing.
	Dir string

	// Database prefixes every snapshot file name.
	Database string

	// FormatVersion is written into snapshot metadata.
	FormatVersion string

	// Retention is the per-class keep count.
	Retention RetentionPolicy
}

// DefaultConfig returns a configuration writing to ./backups.
func DefaultConfig() Config {
	return Config{
		Dir:           "./backups",
		Database:      "fleet",
		FormatVersion: DefaultFormatVersion,
		Retention:     DefaultRetentionPolicy(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Dir) == "" {
		return fmt.Errorf("backup directory is required")
	}
	if strings.TrimSpace(c.Database) == "" {
		return fmt.Errorf("database name is required")
	}
	if strings.ContainsAny(c.Database, `/\`) {
		return fmt.Errorf("database name %q must not contain path separators", c.Database)
	}
	return nil
}

// maxNameProbes bounds the search for a free file name when several
// snapshots of one class are taken within the same second.
const maxNameProbes = 120

type phase string

const (
	phaseExporting phase = "exporting"
	phaseWriting   phase = "writing"
	phasePruning   phase = "pruning"
	phaseReading   phase = "reading"
	phaseRestoring phase = "restoring"
	phaseDone      phase = "done"
)

// Service creates, lists and restores snapshots. All creates, restores and
// deletes are serialized by one lock; listing only reads the directory.
type Service struct {
	cfg      Config
	registry *collections.Registry
	catalog  *Catalog

	mu sync.Mutex

	now        func() time.Time
	removeFile func(string) error

	hookMu    sync.RWMutex
	onBackup  []func(CreateResult)
	onRestore []func(RestoreResult)
}

// NewService validates cfg, creates the backup directory and removes
// temporary files left behind by an interrupted write. Scheduling is separate;
// see NewScheduler.
func NewService(cfg Config, registry *collections.Registry) (*Service, error) {
	if cfg.FormatVersion == "" {
		cfg.FormatVersion = DefaultFormatVersion
	}
	if cfg.Retention == nil {
		cfg.Retention = DefaultRetentionPolicy()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backup config: %w", err)
	}
	if registry == nil {
		return nil, ErrNoCollections
	}

	s := &Service{
		cfg:        cfg,
		registry:   registry,
		catalog:    NewCatalog(cfg.Dir),
		now:        time.Now,
		removeFile: os.Remove,
	}
	if err := s.ensureDir(); err != nil {
		return nil, err
	}
	s.cleanupTempFiles()

	logging.Info().
		Str("dir", cfg.Dir).
		Str("database", cfg.Database).
		Strs("collections", registry.Names()).
		Msg("Backup service initialized")
	return s, nil
}

// Catalog returns the catalog over the backup directory.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// OnBackupComplete registers fn to run after every CreateBackup.
func (s *Service) OnBackupComplete(fn func(CreateResult)) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	s.onBackup = append(s.onBackup, fn)
}

// OnRestoreComplete registers fn to run after every RestoreFromBackup.
func (s *Service) OnRestoreComplete(fn func(RestoreResult)) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	s.onRestore = append(s.onRestore, fn)
}

func (s *Service) ensureDir() error {
	if err := os.MkdirAll(s.cfg.Dir, 0o750); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}
	return nil
}

func (s *Service) cleanupTempFiles() {
	entries, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		return
	}
	for _, de := range entries {
		name := de.Name()
		if !strings.HasPrefix(name, tmpPrefix) || !strings.HasSuffix(name, tmpSuffix) {
			continue
		}
		inner := strings.TrimSuffix(strings.TrimPrefix(name, tmpPrefix), tmpSuffix)
		if _, ok := ParseFileName(inner); !ok {
			continue
		}
		if err := os.Remove(filepath.Join(s.cfg.Dir, name)); err != nil {
			logging.Warn().Err(err).Str("file", name).Msg("Failed to remove stale temporary snapshot")
			continue
		}
		logging.Info().Str("file", name).Msg("Removed stale temporary snapshot")
	}
}

func logPhase(ctx context.Context, operation string, p phase) {
	logging.Ctx(ctx).Debug().Str("operation", operation).Str("phase", string(p)).Msg("Backup phase")
}

// nextFileName picks the snapshot name for now, moving forward one second at
// a time while the name is taken. Must be called with mu held.
func (s *Service) nextFileName(class Class) (string, time.Time, error) {
	t := s.now().UTC().Truncate(time.Second)
	for i := 0; i < maxNameProbes; i++ {
		name := FileName(s.cfg.Database, class, t)
		if !fileExists(filepath.Join(s.cfg.Dir, name)) && !fileExists(filepath.Join(s.cfg.Dir, tmpFileName(name))) {
			return name, t, nil
		}
		t = t.Add(time.Second)
	}
	return "", time.Time{}, fmt.Errorf("no free snapshot name for class %s", class)
}

func fileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// CreateBackup exports every registered collection into a new snapshot of
// class and then applies retention for that class. An empty class means
// manual. Collections that fail to export are written empty and reported in
// the result; the call still succeeds.
func (s *Service) CreateBackup(ctx context.Context, class Class) CreateResult {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	start := time.Now()

	if class == "" {
		class = ClassManual
	}
	result := CreateResult{Class: class}

	var err error
	if err = ValidateClass(class); err == nil {
		s.mu.Lock()
		err = s.create(ctx, class, &result)
		s.mu.Unlock()
	}

	return s.finishCreate(ctx, result, start, err)
}

func (s *Service) create(ctx context.Context, class Class, result *CreateResult) error {
	const op = "create"
	logPhase(ctx, op, phaseExporting)

	if err := s.ensureDir(); err != nil {
		return err
	}
	if s.registry.Len() == 0 {
		return ErrNoCollections
	}

	name, createdAt, err := s.nextFileName(class)
	if err != nil {
		return err
	}
	w, err := newSnapshotWriter(s.cfg.Dir, name)
	if err != nil {
		return err
	}

	results, err := s.exportCollections(ctx, w)
	if err != nil {
		w.Abort()
		return err
	}

	logPhase(ctx, op, phaseWriting)
	size, err := w.Commit(Metadata{
		BackupDate:  createdAt,
		Type:        class,
		Database:    s.cfg.Database,
		Version:     s.cfg.FormatVersion,
		Collections: s.registry.Names(),
	})
	if err != nil {
		return err
	}

	result.FileName = name
	result.FileSizeBytes = size
	result.FileSizeMB = bytesToMB(size)
	result.TotalRecords = w.records
	result.Collections = results

	logPhase(ctx, op, phasePruning)
	result.Retention = s.applyRetention(ctx, class)

	logPhase(ctx, op, phaseDone)
	return nil
}

func (s *Service) finishCreate(ctx context.Context, result CreateResult, start time.Time, err error) CreateResult {
	duration := time.Since(start)
	result.DurationMs = duration.Milliseconds()

	if err != nil {
		result.Success = false
		result.Err = err
		result.Error = err.Error()
		logging.Ctx(ctx).Error().Err(err).Str("class", string(result.Class)).Msg("Backup failed")
	} else {
		result.Success = true
		logging.Ctx(ctx).Info().
			Str("class", string(result.Class)).
			Str("file", result.FileName).
			Int("total_records", result.TotalRecords).
			Int("failed_collections", result.FailedCollections()).
			Float64("size_mb", result.FileSizeMB).
			Int64("duration_ms", result.DurationMs).
			Msg("Backup created")
	}

	metrics.RecordBackup(string(result.Class), duration, result.TotalRecords, result.FileSizeBytes, result.Success)

	s.hookMu.RLock()
	hooks := s.onBackup
	s.hookMu.RUnlock()
	for _, fn := range hooks {
		fn(result)
	}
	return result
}

// RestoreFromBackup replaces the live collections with the contents of the
// named snapshot. A malformed snapshot fails before any collection is
// touched. Collections that fail are reported and the rest continue; the
// result is then marked Partial. If every attempted collection fails the
// restore as a whole fails.
func (s *Service) RestoreFromBackup(ctx context.Context, fileName string) RestoreResult {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	start := time.Now()
	result := RestoreResult{FileName: fileName}

	path, err := s.catalog.Path(fileName)
	if err == nil {
		s.mu.Lock()
		err = s.restore(ctx, path, &result)
		s.mu.Unlock()
	}

	return s.finishRestore(ctx, result, start, err)
}

func (s *Service) restore(ctx context.Context, path string, result *RestoreResult) error {
	const op = "restore"
	if s.registry.Len() == 0 {
		return ErrNoCollections
	}

	logPhase(ctx, op, phaseReading)
	snap, err := openSnapshot(path)
	if err != nil {
		return err
	}

	result.Missing = s.missingCollections(snap)
	if len(result.Missing) > 0 {
		logging.Ctx(ctx).Warn().
			Strs("collections", result.Missing).
			Msg("Snapshot does not contain every registered collection, their live data is left as is")
	}
	result.TotalCollections = len(snap.CollectionNames())

	logPhase(ctx, op, phaseRestoring)
	tally, err := s.restoreCollections(ctx, snap)
	result.Collections = tally.results
	result.RestoredCollections = tally.restored
	result.TotalRecords = tally.records
	result.Partial = tally.failed > 0
	if err != nil {
		return err
	}
	if tally.failed > 0 && tally.restored == 0 {
		return fmt.Errorf("none of %d attempted collections could be restored", tally.failed)
	}

	logPhase(ctx, op, phaseDone)
	return nil
}

func (s *Service) finishRestore(ctx context.Context, result RestoreResult, start time.Time, err error) RestoreResult {
	duration := time.Since(start)
	result.DurationMs = duration.Milliseconds()

	if err != nil {
		result.Success = false
		result.Err = err
		result.Error = err.Error()
		logging.Ctx(ctx).Error().Err(err).Str("file", result.FileName).Msg("Restore failed")
	} else {
		result.Success = true
		event := logging.Ctx(ctx).Info()
		if result.Partial {
			event = logging.Ctx(ctx).Warn()
		}
		event.
			Str("file", result.FileName).
			Int("restored_collections", result.RestoredCollections).
			Int("total_collections", result.TotalCollections).
			Int("total_records", result.TotalRecords).
			Bool("partial", result.Partial).
			Int64("duration_ms", result.DurationMs).
			Msg("Restore completed")
	}

	metrics.RecordRestore(duration, result.Success, result.Partial)

	s.hookMu.RLock()
	hooks := s.onRestore
	s.hookMu.RUnlock()
	for _, fn := range hooks {
		fn(result)
	}
	return result
}

// ListBackups returns every snapshot in the backup directory, newest first.
func (s *Service) ListBackups() ([]CatalogEntry, error) {
	return s.catalog.List()
}

// GetLatestBackup returns the newest snapshot of any class. An empty
// directory is reported through Success and Message.
func (s *Service) GetLatestBackup() LatestResult {
	entry, err := s.catalog.Latest()
	if err != nil {
		if errors.Is(err, ErrNoBackups) {
			return LatestResult{Success: false, Message: "No backups found", Err: err}
		}
		return LatestResult{Success: false, Message: err.Error(), Err: err}
	}

	path := filepath.Join(s.cfg.Dir, entry.FileName)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	createdAt := entry.CreatedAt
	return LatestResult{
		Success:   true,
		FileName:  entry.FileName,
		FilePath:  path,
		CreatedAt: &createdAt,
	}
}

// OpenBackup opens a named snapshot for download. The caller closes the file.
func (s *Service) OpenBackup(fileName string) (*os.File, CatalogEntry, error) {
	entry, err := s.catalog.Lookup(fileName)
	if err != nil {
		return nil, CatalogEntry{}, err
	}
	path, err := s.catalog.Path(fileName)
	if err != nil {
		return nil, CatalogEntry{}, err
	}
	f, err := os.Open(path) //nolint:gosec // path resolved inside the backup directory
	if err != nil {
		if os.IsNotExist(err) {
			return nil, CatalogEntry{}, fmt.Errorf("%w: %s", ErrNotFound, fileName)
		}
		return nil, CatalogEntry{}, fmt.Errorf("open snapshot: %w", err)
	}
	return f, entry, nil
}

// OpenLatestBackup opens the newest snapshot for download.
func (s *Service) OpenLatestBackup() (*os.File, CatalogEntry, error) {
	entry, err := s.catalog.Latest()
	if err != nil {
		return nil, CatalogEntry{}, err
	}
	return s.OpenBackup(entry.FileName)
}

// DeleteBackup removes one snapshot file.
func (s *Service) DeleteBackup(ctx context.Context, fileName string) error {
	path, err := s.catalog.Path(fileName)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.removeFile(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, fileName)
		}
		return fmt.Errorf("delete snapshot: %w", err)
	}
	logging.Ctx(ctx).Info().Str("file", fileName).Msg("Snapshot deleted")
	return nil
}
