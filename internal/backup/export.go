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

// exportCollection reads one collection, turning a panic in the collection
// into an error.
func exportCollection(ctx context.Context, c collections.Collection) (docs []collections.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("export panicked: %v", r)
		}
	}()
	return c.ExportAll(ctx)
}

// exportCollections writes every registered collection to w in registry
// order. A collection that fails to export is written as an empty array and
// reported as failed. Only cancellation and write errors abort the export.
func (s *Service) exportCollections(ctx context.Context, w *snapshotWriter) ([]CollectionResult, error) {
	results := make([]CollectionResult, 0, s.registry.Len())

	for _, c := range s.registry.All() {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("export cancelled: %w", err)
		}

		name := c.Name()
		result := CollectionResult{Name: name, Status: StatusOK}

		docs, err := exportCollection(ctx, c)
		var encoded []byte
		if err == nil {
			encoded, err = encodeCollection(docs)
		}
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("collection", name).
				Msg("Collection export failed, writing empty collection")
			metrics.RecordExportFailure(name)
			result.Status = StatusFailed
			result.Reason = err.Error()
			result.Err = err
			docs = nil
			encoded = []byte("[]")
		}
		result.Records = len(docs)

		if err := w.WriteCollection(name, encoded, len(docs)); err != nil {
			return results, err
		}
		results = append(results, result)

		logging.Ctx(ctx).Debug().Str("collection", name).Int("records", result.Records).Msg("Collection exported")
	}
	return results, nil
}
