// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scenebatch

import (
	"math/rand"
	"testing"

	"cogentcore.org/core/math32"
	chewxy "github.com/chewxy/math32"

	"github.com/gogpu/scenebatch/scene"
)

// =============================================================================
// DrawableZRange
// =============================================================================

func TestZRangeValid(t *testing.T) {
	if InvalidZRange().Valid() {
		t.Error("invalid sentinel reports valid")
	}
	if !(DrawableZRange{Min: 1, Max: 5}).Valid() {
		t.Error("ordinary range reports invalid")
	}
	if !(DrawableZRange{}).Valid() {
		t.Error("zero range should be a valid single-plane range")
	}
}

func TestZRangeInclude(t *testing.T) {
	r := InvalidZRange()
	r.Include(DrawableZRange{Min: 2, Max: 4})
	if r.Min != 2 || r.Max != 4 {
		t.Fatalf("include into identity: got {%v %v}, want {2 4}", r.Min, r.Max)
	}

	r.Include(DrawableZRange{Min: 1, Max: 3})
	if r.Min != 1 || r.Max != 4 {
		t.Errorf("merged range: got {%v %v}, want {1 4}", r.Min, r.Max)
	}

	r.Include(InvalidZRange())
	if r.Min != 1 || r.Max != 4 {
		t.Errorf("invalid input must not change range: got {%v %v}", r.Min, r.Max)
	}
}

// TestSceneZRangeMergeOrderIndependent verifies the scene range is the
// same for any interleaving of partial ranges across shards.
func TestSceneZRangeMergeOrderIndependent(t *testing.T) {
	ranges := make([]DrawableZRange, 64)
	rng := rand.New(rand.NewSource(42))
	for i := range ranges {
		lo := rng.Float32()*100 - 50
		ranges[i] = DrawableZRange{Min: lo, Max: lo + rng.Float32()*10}
	}

	var want DrawableZRange
	{
		var z SceneZRange
		z.Reset(1)
		for _, r := range ranges {
			z.Accumulate(0, r)
		}
		want = z.Merged()
	}

	for trial := 0; trial < 10; trial++ {
		var z SceneZRange
		z.Reset(4)
		perm := rng.Perm(len(ranges))
		for _, i := range perm {
			z.Accumulate(i%4, ranges[i])
		}
		got := z.Merged()
		if got != want {
			t.Fatalf("trial %d: merged range %+v, want %+v", trial, got, want)
		}
	}
}

func TestSceneZRangeEmpty(t *testing.T) {
	var z SceneZRange
	z.Reset(3)
	if z.Merged().Valid() {
		t.Error("empty accumulator must merge to an invalid range")
	}
}

// =============================================================================
// ZRangeEvaluator
// =============================================================================

func TestZRangeEvaluatorDepth(t *testing.T) {
	camera := scene.NewCamera()
	camera.LookAt(math32.Vec3(0, 0, 0), math32.Vec3(0, 0, -1), math32.Vec3(0, 1, 0))
	eval := NewZRangeEvaluator(camera)

	// Box from z=-6 to z=-4 in front of the camera: depth 4 to 6.
	r := eval.Evaluate(math32.B3(-1, -1, -6, 1, 1, -4))
	if !r.Valid() {
		t.Fatal("range invalid for ordinary box")
	}
	if chewxy.Abs(r.Min-4) > 1e-4 || chewxy.Abs(r.Max-6) > 1e-4 {
		t.Errorf("depth range: got {%v %v}, want {4 6}", r.Min, r.Max)
	}
}

func TestZRangeEvaluatorOffsetCamera(t *testing.T) {
	camera := scene.NewCamera()
	camera.LookAt(math32.Vec3(0, 0, 10), math32.Vec3(0, 0, 0), math32.Vec3(0, 1, 0))
	eval := NewZRangeEvaluator(camera)

	r := eval.Evaluate(math32.B3(-1, -1, -1, 1, 1, 1))
	if chewxy.Abs(r.Min-9) > 1e-4 || chewxy.Abs(r.Max-11) > 1e-4 {
		t.Errorf("depth range: got {%v %v}, want {9 11}", r.Min, r.Max)
	}
}

// TestZRangeEvaluatorInfinite checks that unbounded boxes (skyboxes)
// return the invalid sentinel instead of garbage depth.
func TestZRangeEvaluatorInfinite(t *testing.T) {
	camera := scene.NewCamera()
	eval := NewZRangeEvaluator(camera)

	const big = LargeValue
	r := eval.Evaluate(math32.B3(-big, -big, -big, big, big, big))
	if r.Valid() {
		t.Error("unbounded box must yield the invalid sentinel")
	}
}
