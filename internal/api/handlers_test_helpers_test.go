// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fleetvault/internal/backup"
	"github.com/tomtom215/fleetvault/internal/models"
)

const testFileName = "fleet-backup-manual-2026-01-01-02-00-00.json"

// mockBackupService implements BackupService for testing
type mockBackupService struct {
	createFunc     func(ctx context.Context, class backup.Class) backup.CreateResult
	restoreFunc    func(ctx context.Context, fileName string) backup.RestoreResult
	listFunc       func() ([]backup.CatalogEntry, error)
	latestFunc     func() backup.LatestResult
	openFunc       func(fileName string) (*os.File, backup.CatalogEntry, error)
	openLatestFunc func() (*os.File, backup.CatalogEntry, error)
	deleteFunc     func(ctx context.Context, fileName string) error
}

func (m *mockBackupService) CreateBackup(ctx context.Context, class backup.Class) backup.CreateResult {
	if m.createFunc != nil {
		return m.createFunc(ctx, class)
	}
	return backup.CreateResult{Success: true, Class: class}
}

func (m *mockBackupService) RestoreFromBackup(ctx context.Context, fileName string) backup.RestoreResult {
	if m.restoreFunc != nil {
		return m.restoreFunc(ctx, fileName)
	}
	return backup.RestoreResult{Success: true, FileName: fileName}
}

func (m *mockBackupService) ListBackups() ([]backup.CatalogEntry, error) {
	if m.listFunc != nil {
		return m.listFunc()
	}
	return nil, nil
}

func (m *mockBackupService) GetLatestBackup() backup.LatestResult {
	if m.latestFunc != nil {
		return m.latestFunc()
	}
	return backup.LatestResult{Success: false, Message: "No backups found", Err: backup.ErrNoBackups}
}

func (m *mockBackupService) OpenBackup(fileName string) (*os.File, backup.CatalogEntry, error) {
	if m.openFunc != nil {
		return m.openFunc(fileName)
	}
	return nil, backup.CatalogEntry{}, backup.ErrNotFound
}

func (m *mockBackupService) OpenLatestBackup() (*os.File, backup.CatalogEntry, error) {
	if m.openLatestFunc != nil {
		return m.openLatestFunc()
	}
	return nil, backup.CatalogEntry{}, backup.ErrNoBackups
}

func (m *mockBackupService) DeleteBackup(ctx context.Context, fileName string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, fileName)
	}
	return nil
}

type mockScheduleLister struct {
	entries []backup.ScheduledEntry
}

func (m *mockScheduleLister) Entries() []backup.ScheduledEntry {
	return m.entries
}

var fixedNow = time.Date(2026, 1, 1, 2, 0, 0, 0, time.UTC)

func newTestHandler(svc BackupService, opts ...HandlerOption) *Handler {
	h := NewHandler(svc, opts...)
	h.now = func() time.Time { return fixedNow }
	return h
}

// serve sends one request through the full route tree.
func serve(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not an envelope: %v\nbody: %s", err, rec.Body.String())
	}
	return env
}

func decodeData(t *testing.T, env envelope, into interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, into); err != nil {
		t.Fatalf("decode data: %v\ndata: %s", err, env.Data)
	}
}

func writeSnapshotFile(t *testing.T, content string) (string, backup.CatalogEntry) {
	t.Helper()
	path := t.TempDir() + "/" + testFileName
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path, backup.CatalogEntry{
		FileName:   testFileName,
		Database:   "fleet",
		Class:      backup.ClassManual,
		SizeBytes:  int64(len(content)),
		CreatedAt:  fixedNow,
		ModifiedAt: fixedNow,
	}
}
