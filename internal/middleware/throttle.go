// Fleetvault - Fleet Document Store Backup and Restore
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetvault

package middleware

import (
	"math"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/tomtom215/fleetvault/internal/logging"
)

// Throttle shares one token bucket across all callers. Per-IP limits cannot
// stop several clients from queueing restores back to back; this can. A nil
// limiter disables the check.
func Throttle(limiter *rate.Limiter) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if limiter == nil {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			if limiter.Allow() {
				next(w, r)
				return
			}

			logging.Ctx(r.Context()).Warn().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("Operation throttled")

			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(limiter.Limit())))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"status":"error","error":{"code":"THROTTLED","message":"too many backup operations, retry later"}}`))
		}
	}
}

// retryAfterSeconds is the time for one token to refill, at least a second.
func retryAfterSeconds(limit rate.Limit) int {
	if limit <= 0 || limit == rate.Inf {
		return 1
	}
	secs := int(math.Ceil(1/float64(limit) - 1e-9))
	if secs < 1 {
		return 1
	}
	return secs
}
