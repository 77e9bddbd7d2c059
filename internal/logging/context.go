// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// WithRequestID returns a context carrying a child logger tagged with the
// given request id. Handlers attach it once per request; downstream code
// retrieves it with Ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	l := Logger().With().Str("request_id", requestID).Logger()
	return context.WithValue(ctx, ctxKey{}, &l)
}

// Ctx returns the logger stored in ctx, or the global logger when none is
// attached.
func Ctx(ctx context.Context) *zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok {
		return l
	}
	l := Logger()
	return &l
}
