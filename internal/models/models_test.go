// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

package models

import "testing"

func TestTitle_Decade(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		year int
		want int
	}{
		{"mid decade", 1994, 1990},
		{"decade start", 2020, 2020},
		{"decade end", 1979, 1970},
		{"unknown year", 0, 0},
		{"negative year", -5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			title := Title{Year: tt.year}
			if got := title.Decade(); got != tt.want {
				t.Errorf("Decade() = %d, want %d", got, tt.want)
			}
		})
	}
}
