// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package platform

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
)

// QuotaExceededError signals that the daily budget is spent, either from
// the local governor's pre-check or from the platform's 403 quota reason.
// It is terminal for the current stage: callers stop cleanly instead of
// retrying, and the rest of the pipeline proceeds with what was produced.
type QuotaExceededError struct {
	Endpoint string
	Cost     int
	Reason   string
}

func (e *QuotaExceededError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("platform quota exceeded on %s (reason %s)", e.Endpoint, e.Reason)
	}
	return fmt.Sprintf("platform quota exhausted: %d units not affordable for %s", e.Cost, e.Endpoint)
}

// IsQuotaExceeded reports whether err is a quota exhaustion signal.
func IsQuotaExceeded(err error) bool {
	var qe *QuotaExceededError
	return errors.As(err, &qe)
}

// APIError is a non-retryable platform failure (4xx other than quota/429).
type APIError struct {
	Endpoint   string
	StatusCode int
	Reason     string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("platform %s returned %d (%s): %s", e.Endpoint, e.StatusCode, e.Reason, e.Message)
}

// quotaReasons are the structured 403 reasons that mean the daily budget
// is spent platform-side.
var quotaReasons = map[string]bool{
	"quotaExceeded":      true,
	"dailyLimitExceeded": true,
}

// retryableStatus reports whether an HTTP status merits another attempt.
// Non-quota 403s are transient on this platform and are retried.
func retryableStatus(status int) bool {
	switch {
	case status == http.StatusTooManyRequests:
		return true
	case status == http.StatusForbidden:
		return true
	case status >= 500:
		return true
	default:
		return false
	}
}

// retryableTransport reports whether a transport-level error merits
// another attempt: timeouts, resets, DNS failures.
func retryableTransport(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, os.ErrDeadlineExceeded)
}

// errorBody is the platform's structured error envelope.
type errorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

// firstReason extracts the first structured reason, or "".
func (b *errorBody) firstReason() string {
	if len(b.Error.Errors) > 0 {
		return b.Error.Errors[0].Reason
	}
	return ""
}
