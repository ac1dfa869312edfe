// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scenebatch

import (
	"cogentcore.org/core/math32"
	chewxy "github.com/chewxy/math32"

	"github.com/gogpu/scenebatch/scene"
)

const (
	// LargeValue is the magnitude past which a bounding volume is treated
	// as unbounded (skyboxes). Also used as the main-light penalty bias.
	LargeValue = 1e9

	// LargeEpsilon is the smallest distance the lighting penalty math
	// operates on; light-to-drawable distances are clamped up to it.
	LargeEpsilon = 5e-5
)

// DrawableZRange is a view-space depth interval. The zero interval is a
// valid single-plane range; invalid ranges have Min > Max.
type DrawableZRange struct {
	Min, Max float32
}

// InvalidZRange returns the empty interval used both as the accumulation
// identity and as the evaluator's "unbounded object" result.
func InvalidZRange() DrawableZRange {
	return DrawableZRange{Min: chewxy.MaxFloat32, Max: -chewxy.MaxFloat32}
}

// Valid reports whether the range describes an actual depth interval.
func (r DrawableZRange) Valid() bool { return r.Min <= r.Max }

// Include grows the range to cover other. Invalid inputs are ignored, so
// Include is commutative and associative over any mix of partial ranges.
func (r *DrawableZRange) Include(other DrawableZRange) {
	if !other.Valid() {
		return
	}
	if !r.Valid() {
		*r = other
		return
	}
	r.Min = chewxy.Min(r.Min, other.Min)
	r.Max = chewxy.Max(r.Max, other.Max)
}

// Intersects reports whether two valid ranges overlap.
func (r DrawableZRange) Intersects(other DrawableZRange) bool {
	return r.Valid() && other.Valid() && r.Min <= other.Max && other.Min <= r.Max
}

// ZRangeEvaluator computes view-space depth intervals of world-space
// bounding boxes for one camera. It is a pure value; build one per frame
// and share it freely across workers.
type ZRangeEvaluator struct {
	rowZ    math32.Vector3
	absRowZ math32.Vector3
	offsetZ float32
}

// NewZRangeEvaluator precomputes the depth row of the camera's view
// matrix. View space looks down -Z, so the row is negated to make depth
// grow positive into the screen.
func NewZRangeEvaluator(camera *scene.Camera) ZRangeEvaluator {
	v := camera.View()
	rowZ := math32.Vec3(-v[2], -v[6], -v[10])
	return ZRangeEvaluator{
		rowZ:    rowZ,
		absRowZ: rowZ.Abs(),
		offsetZ: -v[14],
	}
}

// Evaluate returns the depth interval covered by bounds. Boxes whose
// half-extent reaches LargeValue are unbounded and yield the invalid
// sentinel; callers must exclude those from scene-range accumulation or
// shadow focusing breaks.
func (e ZRangeEvaluator) Evaluate(bounds math32.Box3) DrawableZRange {
	center := bounds.Center()
	edge := bounds.Size().MulScalar(0.5)

	if edge.LengthSquared() >= LargeValue*LargeValue {
		return InvalidZRange()
	}

	centerZ := e.rowZ.Dot(center) + e.offsetZ
	edgeZ := e.absRowZ.Dot(edge)
	return DrawableZRange{Min: centerZ - edgeZ, Max: centerZ + edgeZ}
}

// SceneZRange accumulates the frame-global depth range across workers.
// Each worker folds into its own shard without synchronization; the merge
// runs single-threaded after the phase barrier and is order-independent
// because Include is commutative and associative.
type SceneZRange struct {
	shards []DrawableZRange
}

// Reset clears the accumulator for a new frame with one shard per worker.
func (z *SceneZRange) Reset(workers int) {
	if cap(z.shards) < workers {
		z.shards = make([]DrawableZRange, workers)
	} else {
		z.shards = z.shards[:workers]
	}
	for i := range z.shards {
		z.shards[i] = InvalidZRange()
	}
}

// Accumulate folds a valid drawable range into the worker's shard.
func (z *SceneZRange) Accumulate(worker int, r DrawableZRange) {
	z.shards[worker].Include(r)
}

// Merged returns the union of all shards. Invalid when no valid range was
// accumulated this frame.
func (z *SceneZRange) Merged() DrawableZRange {
	total := InvalidZRange()
	for i := range z.shards {
		total.Include(z.shards[i])
	}
	return total
}
