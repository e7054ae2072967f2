// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

/*
Package middleware provides HTTP middleware for the backup API.

Every middleware here has the shape func(http.HandlerFunc) http.HandlerFunc;
the api package adapts them to chi's func(http.Handler) http.Handler.

Key Components:

  - RequestID: X-Request-ID propagation plus request and correlation ids in
    the logging context
  - PrometheusMetrics: request count, latency and in-flight gauge labelled by
    chi route pattern, so /backups/{fileName}/download is one series
  - Compression: gzip for JSON bodies, which is what snapshot downloads are
  - Throttle: a global token bucket in front of expensive operations such as
    create and restore, on top of the per-IP limits in the api package

Usage Example:

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chiMiddleware(middleware.PrometheusMetrics))

	throttle := middleware.Throttle(rate.NewLimiter(rate.Every(10*time.Second), 2))
	r.With(chiMiddleware(throttle)).Post("/backups/{fileName}/restore", h.RestoreBackup)
*/
package middleware
