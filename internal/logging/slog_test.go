// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewSlogLogger_WritesThroughZerolog(t *testing.T) {
	var buf bytes.Buffer
	old := Logger()
	SetLogger(NewTestLogger(&buf))
	defer SetLogger(old)

	sl := NewSlogLogger()
	sl.Info("service started",
		slog.Int64("user_id", 7),
		slog.Group("req", slog.String("method", "GET")))

	out := buf.String()
	for _, want := range []string{
		`"message":"service started"`,
		`"user_id":7`,
		`"req.method":"GET"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestNewSlogLogger_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	old := Logger()
	SetLogger(NewTestLogger(&buf))
	defer SetLogger(old)

	sl := NewSlogLogger().With("component", "supervisor")
	sl.Warn("service restarted")

	out := buf.String()
	if !strings.Contains(out, `"component":"supervisor"`) {
		t.Errorf("output missing pre-configured attr: %s", out)
	}
	if !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("output missing warn level: %s", out)
	}
}
