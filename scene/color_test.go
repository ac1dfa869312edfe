// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import "testing"

func TestColor_IsBlack(t *testing.T) {
	tests := []struct {
		name string
		c    Color
		want bool
	}{
		{"black", Black, true},
		{"black zero alpha", Color{0, 0, 0, 0}, true},
		{"white", White, false},
		{"dim red", RGB(0.01, 0, 0), false},
		{"negative", RGB(-0.5, 0, 0), false},
	}
	for _, tt := range tests {
		if got := tt.c.IsBlack(); got != tt.want {
			t.Errorf("%s: IsBlack() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestColor_MulScalar(t *testing.T) {
	c := RGB(1, 0.5, 0.25).MulScalar(2)
	if c.R != 2 || c.G != 1 || c.B != 0.5 {
		t.Errorf("MulScalar(2) = %+v, want {2 1 0.5 1}", c)
	}
	if c.A != 1 {
		t.Errorf("MulScalar must not scale alpha, got %v", c.A)
	}
}

func TestColor_Luminance(t *testing.T) {
	if got := White.Luminance(); got < 0.999 || got > 1.001 {
		t.Errorf("White.Luminance() = %v, want 1", got)
	}
	if got := Black.Luminance(); got != 0 {
		t.Errorf("Black.Luminance() = %v, want 0", got)
	}
	// Green dominates luma.
	if RGB(0, 1, 0).Luminance() <= RGB(1, 0, 0).Luminance() {
		t.Error("green should contribute more luminance than red")
	}
}
