// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package backup

import (
	"context"
	"fmt"

	"github.com/tomtom215/fleetvault/internal/collections"
	"github.com/tomtom215/fleetvault/internal/logging"
	"github.com/tomtom215/fleetvault/internal/metrics"
)

func replaceCollection(ctx context.Context, c collections.Collection, docs []collections.Document) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("restore panicked: %v", r)
		}
	}()
	return c.ReplaceAll(ctx, docs)
}

// restoreTally accumulates per-collection outcomes of a restore.
type restoreTally struct {
	results  []CollectionResult
	restored int
	failed   int
	records  int
}

func (t *restoreTally) add(r CollectionResult) {
	t.results = append(t.results, r)
	switch r.Status {
	case StatusOK:
		t.restored++
		t.records += r.Records
	case StatusFailed:
		t.failed++
	}
}

// restoreCollections replaces every collection found in snap. Empty or
// absent arrays are skipped so the live data stays as it is. Collections the
// registry does not know are skipped too. A failing collection is logged and
// the rest continue. Cancellation stops before the next collection.
func (s *Service) restoreCollections(ctx context.Context, snap *snapshotReader) (*restoreTally, error) {
	tally := &restoreTally{}

	for _, name := range snap.CollectionNames() {
		if err := ctx.Err(); err != nil {
			return tally, fmt.Errorf("restore cancelled: %w", err)
		}

		result := CollectionResult{Name: name}

		c, registered := s.registry.Get(name)
		if !registered {
			logging.Ctx(ctx).Warn().Str("collection", name).Msg("Snapshot collection is not registered, skipping")
			result.Status = StatusSkipped
			result.Reason = "collection not registered"
			tally.add(result)
			continue
		}

		docs, err := snap.Documents(name)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("collection", name).Msg("Collection restore failed")
			metrics.RecordRestoreFailure(name)
			result.Status = StatusFailed
			result.Reason = err.Error()
			result.Err = err
			tally.add(result)
			continue
		}
		if len(docs) == 0 {
			logging.Ctx(ctx).Info().Str("collection", name).Msg("Snapshot collection is empty, leaving live data untouched")
			result.Status = StatusSkipped
			result.Reason = "empty in snapshot"
			tally.add(result)
			continue
		}

		if err := replaceCollection(ctx, c, docs); err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("collection", name).Msg("Collection restore failed")
			metrics.RecordRestoreFailure(name)
			result.Status = StatusFailed
			result.Reason = err.Error()
			result.Err = err
			tally.add(result)
			continue
		}

		result.Status = StatusOK
		result.Records = len(docs)
		tally.add(result)
		logging.Ctx(ctx).Debug().Str("collection", name).Int("records", len(docs)).Msg("Collection restored")
	}
	return tally, nil
}

// missingCollections returns registered collections the snapshot does not
// carry at all.
func (s *Service) missingCollections(snap *snapshotReader) []string {
	var missing []string
	for _, name := range s.registry.Names() {
		if !snap.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}
