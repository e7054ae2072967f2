// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package logging

import (
	"fmt"

	"github.com/rs/zerolog"
)

// CronLogger satisfies robfig/cron's Logger interface. Info messages from the
// cron loop (schedule, wake, run) are chatty, so they go out at debug level.
type CronLogger struct {
	logger zerolog.Logger
}

// NewCronLogger returns a cron logger tagged with component=cron.
func NewCronLogger() CronLogger {
	return CronLogger{logger: WithComponent("cron")}
}

// NewCronLoggerWithLogger wraps the given logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewCronLoggerWithLogger(logger zerolog.Logger) CronLogger {
	return CronLogger{logger: logger}
}

// Info logs routine cron messages.
func (l CronLogger) Info(msg string, keysAndValues ...interface{}) {
	withKeysAndValues(l.logger.Debug(), keysAndValues).Msg(msg)
}

// Error logs cron failures, including recovered job panics.
func (l CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	withKeysAndValues(l.logger.Error().Err(err), keysAndValues).Msg(msg)
}

func withKeysAndValues(event *zerolog.Event, keysAndValues []interface{}) *zerolog.Event {
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if i+1 >= len(keysAndValues) {
			event = event.Str(key, "")
			break
		}
		event = event.Interface(key, keysAndValues[i+1])
	}
	return event
}
