// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scenebatch

// Light budget per drawable. MaxPixelLights is a hard bound on the
// configurable per-drawable pixel light count.
const (
	MaxVertexLights = 4
	MaxPixelLights  = 4
)

// AccumulatedLight is one ranked (light, penalty) entry in a drawable's
// accumulator. Index refers to the frame's visible-light list.
type AccumulatedLight struct {
	Index   int
	Penalty float32
}

// LightAccumulator ranks the lights touching one drawable and retains the
// most significant ones under a fixed budget. Entries are kept sorted by
// ascending penalty (lower is more important) with ties broken by lowest
// light index, so the result is deterministic for any accumulation order.
//
// The first maxPixel entries become per-pixel lights; the remainder are
// vertex lights. The main light's penalty is forced to -LargeValue by the
// collector, so it always occupies the first slot of every drawable it
// touches.
//
// One accumulator is written by at most one worker at a time: forward
// lighting processes lights sequentially and parallelizes over disjoint
// geometries within each light.
type LightAccumulator struct {
	entries  [MaxVertexLights + MaxPixelLights]AccumulatedLight
	n        int
	maxTotal int
	maxPixel int
}

// Reset clears the accumulator for a new frame with the given pixel light
// budget, clamped to [1, MaxPixelLights].
func (a *LightAccumulator) Reset(maxPixelLights int) {
	if maxPixelLights < 1 {
		maxPixelLights = 1
	}
	if maxPixelLights > MaxPixelLights {
		maxPixelLights = MaxPixelLights
	}
	a.n = 0
	a.maxPixel = maxPixelLights
	a.maxTotal = maxPixelLights + MaxVertexLights
}

// Accumulate inserts a light keeping the entries sorted; when the budget
// is full the worst entry is dropped.
func (a *LightAccumulator) Accumulate(lightIndex int, penalty float32) {
	entry := AccumulatedLight{Index: lightIndex, Penalty: penalty}

	// Find the insertion point preserving (penalty asc, index asc) order.
	pos := a.n
	for pos > 0 {
		prev := a.entries[pos-1]
		if prev.Penalty < penalty || (prev.Penalty == penalty && prev.Index < lightIndex) {
			break
		}
		pos--
	}

	if pos >= a.maxTotal {
		return
	}
	if a.n < a.maxTotal {
		a.n++
	}
	copy(a.entries[pos+1:a.n], a.entries[pos:a.n-1])
	a.entries[pos] = entry
}

// Len returns the number of retained lights.
func (a *LightAccumulator) Len() int { return a.n }

// PixelLights returns the per-pixel light entries, most important first.
// The slice aliases internal storage and is valid until the next Reset.
func (a *LightAccumulator) PixelLights() []AccumulatedLight {
	return a.entries[:min(a.n, a.maxPixel)]
}

// VertexLights returns the vertex light entries ranked below the pixel
// budget. The slice aliases internal storage.
func (a *LightAccumulator) VertexLights() []AccumulatedLight {
	if a.n <= a.maxPixel {
		return nil
	}
	return a.entries[a.maxPixel:a.n]
}
