// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

package pick

import (
	"errors"
)

// Sentinel errors for request classification. An empty result set is NOT an
// error: a valid request that filters down to nothing returns an empty
// Response.
var (
	// ErrInvalidRequest marks a malformed or unsatisfiable-by-construction
	// request. Not retryable: the same request will fail the same way.
	ErrInvalidRequest = errors.New("pick: invalid request")

	// ErrUpstreamUnavailable marks a transient dependency failure
	// (catalog/store down, circuit open). Retryable.
	ErrUpstreamUnavailable = errors.New("pick: upstream unavailable")
)

// IsRetryable reports whether the caller may retry the identical request.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}
