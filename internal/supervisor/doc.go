// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

/*
Package supervisor runs Fleetvault's long-lived components under a suture v4
supervisor tree.

	fleetvault
	├── scheduler-layer   backup scheduler (cron)
	└── api-layer         HTTP server

A crash in one layer restarts only that layer's service. Suture events are
logged through log/slog, which main wires to zerolog with
logging.NewSlogLogger, so restarts show up in the same structured stream as
backup runs.

Services live in the services subpackage; they adapt Start/Stop and
ListenAndServe lifecycles to suture.Service.
*/
package supervisor
