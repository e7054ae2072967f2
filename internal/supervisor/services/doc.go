// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

/*
Package services adapts Fleetvault components to suture.Service.

	HTTPServerService   ListenAndServe/Shutdown  -> Serve
	SchedulerService    Start/Stop               -> Serve

Return values follow suture's rules: an error restarts the service, ctx.Err()
after cancellation is a normal stop.

Both wrappers accept small interfaces rather than concrete types so tests can
drive them with mocks.
*/
package services
