// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package backup

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/tomtom215/fleetvault/internal/logging"
	"github.com/tomtom215/fleetvault/internal/metrics"
)

// RetentionPolicy maps a class to the number of snapshots kept. Classes
// without an entry, and limits of zero or less, are never pruned.
type RetentionPolicy map[Class]int

// DefaultRetentionPolicy keeps 30 daily, 8 weekly and 12 monthly snapshots
// and every manual one.
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{
		ClassDaily:   30,
		ClassWeekly:  8,
		ClassMonthly: 12,
	}
}

// Limit returns the retained count for class, 0 meaning unbounded.
func (p RetentionPolicy) Limit(class Class) int {
	limit := p[class]
	if limit < 0 {
		return 0
	}
	return limit
}

type retentionCandidate struct {
	name    string
	modTime time.Time
}

// retentionCandidates lists the files of one database and class.
func retentionCandidates(dir, database string, class Class) ([]retentionCandidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []retentionCandidate
	for _, de := range entries {
		if !de.Type().IsRegular() {
			continue
		}
		parsed, ok := ParseFileName(de.Name())
		if !ok || parsed.Database != database || parsed.Class != class {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		out = append(out, retentionCandidate{name: de.Name(), modTime: info.ModTime()})
	}

	// Newest first. Names embed the creation time, so they break mod time ties.
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].modTime.Equal(out[j].modTime) {
			return out[i].modTime.After(out[j].modTime)
		}
		return out[i].name > out[j].name
	})
	return out, nil
}

// applyRetention deletes the snapshots of class beyond the policy limit.
// Deletion failures are logged and reported but never returned as errors.
func (s *Service) applyRetention(ctx context.Context, class Class) *RetentionReport {
	limit := s.cfg.Retention.Limit(class)
	report := &RetentionReport{Class: class, Limit: limit}

	candidates, err := retentionCandidates(s.cfg.Dir, s.cfg.Database, class)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("class", string(class)).Msg("Retention could not list snapshots")
		return report
	}
	if limit == 0 || len(candidates) <= limit {
		report.Kept = len(candidates)
		return report
	}

	for _, c := range candidates[limit:] {
		if err := s.removeFile(filepath.Join(s.cfg.Dir, c.name)); err != nil && !os.IsNotExist(err) {
			logging.Ctx(ctx).Warn().Err(err).Str("file", c.name).Msg("Retention failed to delete snapshot")
			report.Failed = append(report.Failed, c.name)
			continue
		}
		report.Deleted = append(report.Deleted, c.name)
		logging.Ctx(ctx).Info().Str("file", c.name).Str("class", string(class)).Msg("Deleted old snapshot")
	}

	report.Kept = len(candidates) - len(report.Deleted)
	metrics.RecordRetention(string(class), len(report.Deleted), len(report.Failed))
	return report
}
