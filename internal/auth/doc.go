// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

/*
Package auth guards the sensitive backup routes with HTTP Basic
Authentication.

Snapshot downloads expose every collection and restores overwrite them, so
both sit behind Guard when an admin account is configured. Listing and
creating snapshots stay open, the same as the health and metrics routes.

The password is kept only as a bcrypt hash. It can be configured either in
plain text (hashed once at startup) or as a ready-made hash:

	mgr, err := auth.NewBasicAuthManagerFromHash("admin", cfg.Server.AdminPasswordHash)
	r.With(chiMiddleware(mgr.Guard)).Get("/backups/latest/download", h.DownloadLatest)

A nil *BasicAuthManager disables the guard, which keeps wiring code free of
conditionals.
*/
package auth
