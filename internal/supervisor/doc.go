// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

/*
Package supervisor provides process supervision using suture v4.

The tree groups long-running services into two layers:

	Root ("reelcircle")
	├── SignalsSupervisor ("signals-layer")
	│   ├── ConsumerService (rating events, if NATS enabled)
	│   └── RebuildService (periodic profile refresh)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Failure isolation is the point of the split: a crash-looping event
consumer backs off inside the signals layer while the HTTP server keeps
answering pick requests from cached taste and crew snapshots.

Crashed services restart automatically with exponential backoff. The
failure counter decays over FailureDecay seconds; once it exceeds
FailureThreshold the layer waits FailureBackoff before restarting.

All services implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Returning nil stops the service for good, returning an error triggers a
restart, and a canceled context means shutdown was requested.

DuckDB and Badger are not supervised. Both are embedded libraries whose
connections the store and cache packages own, and a crash in either
would require a process restart anyway.

Supervisor events are logged through the sutureslog adapter, which is
why the tree takes an *slog.Logger rather than the zerolog logger used
everywhere else.
*/
package supervisor
