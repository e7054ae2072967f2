// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

// Package metrics defines Fleetvault's Prometheus instruments. They are
// registered on the default registry and served by promhttp at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Backup Metrics
	BackupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fleetvault_backup_duration_seconds",
			Help:    "Duration of snapshot creation in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"class"},
	)

	BackupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetvault_backups_total",
			Help: "Total number of snapshot attempts by class and result",
		},
		[]string{"class", "result"}, // result: "success", "failure"
	)

	BackupRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fleetvault_backup_records",
			Help: "Number of documents in the most recent snapshot of each class",
		},
		[]string{"class"},
	)

	BackupSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fleetvault_backup_size_bytes",
			Help: "Size of the most recent snapshot of each class",
		},
		[]string{"class"},
	)

	BackupLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fleetvault_backup_last_success_timestamp_seconds",
			Help: "Unix time of the last successful snapshot of each class",
		},
		[]string{"class"},
	)

	CollectionExportFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetvault_collection_export_failures_total",
			Help: "Collections that could not be read and were written as empty",
		},
		[]string{"collection"},
	)

	// Restore Metrics
	RestoresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetvault_restores_total",
			Help: "Total number of restore attempts by result",
		},
		[]string{"result"}, // result: "success", "partial", "failure"
	)

	RestoreDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fleetvault_restore_duration_seconds",
			Help:    "Duration of restores in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	RestoreCollectionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetvault_restore_collection_failures_total",
			Help: "Collections that failed to restore",
		},
		[]string{"collection"},
	)

	// Retention Metrics
	RetentionDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetvault_retention_deleted_total",
			Help: "Snapshot files removed by retention",
		},
		[]string{"class"},
	)

	RetentionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetvault_retention_failures_total",
			Help: "Snapshot files retention failed to remove",
		},
		[]string{"class"},
	)

	// Scheduler Metrics
	ScheduledRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetvault_scheduled_runs_total",
			Help: "Scheduled backup fires by class and result",
		},
		[]string{"class", "result"}, // result: "success", "failure", "panic"
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetvault_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fleetvault_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fleetvault_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)
)

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// ClassLabel keeps the built-in snapshot classes and folds every custom
// class into "custom", bounding the label set.
func ClassLabel(class string) string {
	switch class {
	case "daily", "weekly", "monthly", "manual":
		return class
	}
	return "custom"
}

// RecordBackup records one CreateBackup call.
func RecordBackup(class string, duration time.Duration, records int, sizeBytes int64, ok bool) {
	class = ClassLabel(class)
	BackupsTotal.WithLabelValues(class, resultLabel(ok)).Inc()
	BackupDuration.WithLabelValues(class).Observe(duration.Seconds())
	if !ok {
		return
	}
	BackupRecords.WithLabelValues(class).Set(float64(records))
	BackupSizeBytes.WithLabelValues(class).Set(float64(sizeBytes))
	BackupLastSuccess.WithLabelValues(class).Set(float64(time.Now().Unix()))
}

// RecordExportFailure counts a collection that was written as empty.
func RecordExportFailure(collection string) {
	CollectionExportFailures.WithLabelValues(collection).Inc()
}

// RecordRestore records one RestoreFromBackup call.
func RecordRestore(duration time.Duration, ok, partial bool) {
	result := resultLabel(ok)
	if ok && partial {
		result = "partial"
	}
	RestoresTotal.WithLabelValues(result).Inc()
	RestoreDuration.Observe(duration.Seconds())
}

// RecordRestoreFailure counts a collection that failed to restore.
func RecordRestoreFailure(collection string) {
	RestoreCollectionFailures.WithLabelValues(collection).Inc()
}

// RecordRetention records the outcome of one retention pass.
func RecordRetention(class string, deleted, failed int) {
	class = ClassLabel(class)
	if deleted > 0 {
		RetentionDeleted.WithLabelValues(class).Add(float64(deleted))
	}
	if failed > 0 {
		RetentionFailures.WithLabelValues(class).Add(float64(failed))
	}
}

// RecordScheduledRun records one scheduler fire.
func RecordScheduledRun(class, result string) {
	ScheduledRuns.WithLabelValues(ClassLabel(class), result).Inc()
}

// RecordAPIRequest records an API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
