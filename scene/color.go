// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

// Color is a linear-space RGBA color with float32 channels.
// Light colors may exceed 1 (HDR) or be negative (subtractive lights).
type Color struct {
	R, G, B, A float32
}

// Common colors.
var (
	Black = Color{0, 0, 0, 1}
	White = Color{1, 1, 1, 1}
)

// RGB returns an opaque color.
func RGB(r, g, b float32) Color {
	return Color{r, g, b, 1}
}

// MulScalar scales the RGB channels, leaving alpha unchanged.
func (c Color) MulScalar(s float32) Color {
	return Color{c.R * s, c.G * s, c.B * s, c.A}
}

// IsBlack reports whether all RGB channels are exactly zero.
// A black light contributes nothing and is skipped by the collector.
func (c Color) IsBlack() bool {
	return c.R == 0 && c.G == 0 && c.B == 0
}

// Luminance returns the Rec. 601 luma of the RGB channels.
func (c Color) Luminance() float32 {
	return 0.299*c.R + 0.587*c.G + 0.114*c.B
}
