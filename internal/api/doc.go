// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

/*
Package api exposes the backup service over HTTP using the chi router.

Routes:

	GET    /api/v1/health/live                 liveness probe
	GET    /api/v1/backups                     list snapshots, newest first
	POST   /api/v1/backups                     create a snapshot {"class":"manual"}
	GET    /api/v1/backups/latest              newest snapshot (404 when none)
	GET    /api/v1/backups/schedule            registered schedules and next fire times
	GET    /api/v1/backups/latest/download     stream the newest snapshot
	GET    /api/v1/backups/{fileName}/download stream a named snapshot
	POST   /api/v1/backups/{fileName}/restore  restore a named snapshot
	DELETE /api/v1/backups/{fileName}          remove a named snapshot
	GET    /api/v1/audit                       recorded snapshot actions
	GET    /metrics                            Prometheus scrape endpoint

Downloads, restores, deletes and the audit log pass through the optional
guard configured in RouterConfig. Creates and restores additionally pass through a stricter
per-IP rate limit and the optional global operation throttle.

Restore status codes:

	200  every collection in the snapshot was restored
	207  some collections failed, the rest were restored
	400  the file name or snapshot format is invalid
	404  the snapshot does not exist
	500  nothing could be restored

All JSON responses use the models.APIResponse envelope.
*/
package api
