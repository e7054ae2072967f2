// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package backup

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fleetvault/internal/collections"
	"github.com/tomtom215/fleetvault/internal/logging"
)

// snapshotWriter streams a snapshot into a temporary file one collection at
// a time and renames it into place on Commit.
type snapshotWriter struct {
	dir     string
	name    string
	tmpPath string

	f  *os.File
	bw *bufio.Writer

	collections int
	records     int
	closed      bool
}

func newSnapshotWriter(dir, name string) (*snapshotWriter, error) {
	tmpPath := filepath.Join(dir, tmpFileName(name))
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // name validated by caller
	if err != nil {
		return nil, fmt.Errorf("create temp snapshot file: %w", err)
	}

	w := &snapshotWriter{
		dir:     dir,
		name:    name,
		tmpPath: tmpPath,
		f:       f,
		bw:      bufio.NewWriterSize(f, 256*1024),
	}
	if _, err := w.bw.WriteString(`{"data":{`); err != nil {
		w.Abort()
		return nil, fmt.Errorf("write snapshot header: %w", err)
	}
	return w, nil
}

// encodeCollection renders docs as a JSON array. Every document is compacted,
// which also rejects invalid JSON before anything reaches the file.
func encodeCollection(docs []collections.Document) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, doc := range docs {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
		if err := json.Compact(&buf, doc); err != nil {
			return nil, fmt.Errorf("document %d is not valid JSON: %w", i, err)
		}
	}
	if len(docs) > 0 {
		buf.WriteByte('\n')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// WriteCollection appends one encoded collection under name.
func (w *snapshotWriter) WriteCollection(name string, encoded []byte, count int) error {
	key, err := json.Marshal(name)
	if err != nil {
		return fmt.Errorf("encode collection name %q: %w", name, err)
	}
	if w.collections > 0 {
		if err := w.bw.WriteByte(','); err != nil {
			return fmt.Errorf("write collection %s: %w", name, err)
		}
	}
	if err := w.bw.WriteByte('\n'); err != nil {
		return fmt.Errorf("write collection %s: %w", name, err)
	}
	if _, err := w.bw.Write(key); err != nil {
		return fmt.Errorf("write collection %s: %w", name, err)
	}
	if err := w.bw.WriteByte(':'); err != nil {
		return fmt.Errorf("write collection %s: %w", name, err)
	}
	if _, err := w.bw.Write(encoded); err != nil {
		return fmt.Errorf("write collection %s: %w", name, err)
	}
	w.collections++
	w.records += count
	return nil
}

// Commit writes the metadata, syncs and renames the file into place. The
// record total is taken from what was actually written. It returns the final
// file size.
func (w *snapshotWriter) Commit(meta Metadata) (int64, error) {
	meta.TotalRecords = w.records

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		w.Abort()
		return 0, fmt.Errorf("encode metadata: %w", err)
	}

	if _, err := w.bw.WriteString("\n},\"metadata\":"); err != nil {
		w.Abort()
		return 0, fmt.Errorf("write metadata: %w", err)
	}
	if _, err := w.bw.Write(metaJSON); err != nil {
		w.Abort()
		return 0, fmt.Errorf("write metadata: %w", err)
	}
	if _, err := w.bw.WriteString("}\n"); err != nil {
		w.Abort()
		return 0, fmt.Errorf("write snapshot trailer: %w", err)
	}
	if err := w.bw.Flush(); err != nil {
		w.Abort()
		return 0, fmt.Errorf("flush snapshot: %w", err)
	}
	if err := w.f.Sync(); err != nil {
		w.Abort()
		return 0, fmt.Errorf("sync snapshot: %w", err)
	}
	if err := w.f.Close(); err != nil {
		w.closed = true
		_ = os.Remove(w.tmpPath)
		return 0, fmt.Errorf("close snapshot: %w", err)
	}
	w.closed = true

	finalPath := filepath.Join(w.dir, w.name)
	if err := os.Rename(w.tmpPath, finalPath); err != nil {
		_ = os.Remove(w.tmpPath)
		return 0, fmt.Errorf("finalize snapshot: %w", err)
	}
	syncDir(w.dir)

	info, err := os.Stat(finalPath)
	if err != nil {
		return 0, fmt.Errorf("stat snapshot: %w", err)
	}
	return info.Size(), nil
}

// Abort discards the temporary file. Safe to call more than once.
func (w *snapshotWriter) Abort() {
	if w.closed {
		return
	}
	w.closed = true
	_ = w.f.Close()
	if err := os.Remove(w.tmpPath); err != nil && !os.IsNotExist(err) {
		logging.Warn().Err(err).Str("path", w.tmpPath).Msg("Failed to remove temporary snapshot file")
	}
}

// syncDir makes the rename durable. Not every platform can fsync a
// directory, so failures are only logged.
func syncDir(dir string) {
	d, err := os.Open(dir) //nolint:gosec // backup directory from config
	if err != nil {
		logging.Debug().Err(err).Str("dir", dir).Msg("Open backup directory for sync failed")
		return
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		logging.Debug().Err(err).Str("dir", dir).Msg("Sync backup directory failed")
	}
}
