// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scenebatch

import (
	"testing"

	"cogentcore.org/core/math32"

	"github.com/gogpu/scenebatch/scene"
)

// countingCallback counts pipeline state builds and can decline them all.
type countingCallback struct {
	testCallback
	calls      int
	declineAll bool
}

func (cb *countingCallback) PipelineState(key BatchStateKey, ctx BatchStateContext) *PipelineStateDesc {
	cb.calls++
	if cb.declineAll {
		return nil
	}
	return cb.testCallback.PipelineState(key, ctx)
}

func passDrawable(index int, mat *scene.Material) *scene.StaticDrawable {
	d := scene.NewStaticDrawable(index, math32.B3(-1, -1, -1, 1, 1, 1))
	d.SetBatches([]scene.SourceBatch{{Geometry: testGeometry, Material: mat}})
	return d
}

// =============================================================================
// UnlitPass
// =============================================================================

func TestUnlitPassSharesPipelineStates(t *testing.T) {
	mat := testMaterial("unlit", unlitTechnique())
	a := passDrawable(0, mat)
	b := passDrawable(1, mat)

	tech := mat.Entries[0].Technique
	pass := NewUnlitPass(scene.PassBase, false)
	pass.BeginFrame(1)

	if pass.AddSourceBatch(0, a, 0, tech) {
		t.Error("unlit pass reported a lit batch")
	}
	pass.AddSourceBatch(0, b, 0, tech)

	cb := &countingCallback{}
	pass.CollectBatches(&CollectContext{Callback: cb, DefaultMaterial: mat, MainLightIndex: NoMainLight})
	pass.SortBatches()

	if got := len(pass.Batches()); got != 2 {
		t.Fatalf("batches: got %d, want 2", got)
	}
	for _, b := range pass.Batches() {
		if b.LightIndex != NoLight {
			t.Errorf("unlit batch light index = %d, want NoLight", b.LightIndex)
		}
	}
	// Identical pass, geometry, material and drawable hash share one state.
	if cb.calls != 1 {
		t.Errorf("pipeline state builds: got %d, want 1", cb.calls)
	}
}

// TestUnlitPassMissingPass: a technique without the pass contributes nothing.
func TestUnlitPassMissingPass(t *testing.T) {
	mat := testMaterial("unlit", unlitTechnique())
	d := passDrawable(0, mat)

	pass := NewUnlitPass("depth-prepass", false)
	pass.BeginFrame(1)
	pass.AddSourceBatch(0, d, 0, unlitTechnique())
	pass.CollectBatches(&CollectContext{Callback: &countingCallback{}, DefaultMaterial: mat, MainLightIndex: NoMainLight})

	if got := len(pass.Batches()); got != 0 {
		t.Errorf("batches: got %d, want 0", got)
	}
}

// =============================================================================
// Pipeline state cache
// =============================================================================

// TestPipelineCacheDeclinedKeysNotRetried: a callback that declines a key
// is not asked again until invalidation.
func TestPipelineCacheDeclinedKeysNotRetried(t *testing.T) {
	mat := testMaterial("unlit", unlitTechnique())
	tech := unlitTechnique()
	d := passDrawable(0, mat)

	cb := &countingCallback{declineAll: true}
	ctx := &CollectContext{Callback: cb, DefaultMaterial: mat, MainLightIndex: NoMainLight}

	pass := NewUnlitPass(scene.PassBase, false)
	for frame := 0; frame < 2; frame++ {
		pass.BeginFrame(1)
		pass.AddSourceBatch(0, d, 0, tech)
		pass.CollectBatches(ctx)
	}

	if len(pass.Batches()) != 0 {
		t.Error("declined batches must be dropped")
	}
	if cb.calls != 1 {
		t.Errorf("callback calls: got %d, want 1 (nil result cached)", cb.calls)
	}

	pass.InvalidatePipelineStateCache()
	pass.BeginFrame(1)
	pass.AddSourceBatch(0, d, 0, tech)
	pass.CollectBatches(ctx)

	if cb.calls != 2 {
		t.Errorf("callback calls after invalidation: got %d, want 2", cb.calls)
	}
}

// =============================================================================
// Batch sorting
// =============================================================================

func sortTestBatch(d scene.Drawable, hash uint64, distance float32) Batch {
	return Batch{Drawable: d, LightIndex: NoLight, Distance: distance, stateHash: hash}
}

func TestSortFrontToBackGroupsByState(t *testing.T) {
	d0, d1, d2 := passDrawable(0, nil), passDrawable(1, nil), passDrawable(2, nil)
	batches := []Batch{
		sortTestBatch(d0, 7, 10),
		sortTestBatch(d1, 7, 2),
		sortTestBatch(d2, 3, 50),
	}
	sortFrontToBack(batches)

	// State hash groups first, near-to-far within a group.
	want := []scene.Drawable{d2, d1, d0}
	for i, w := range want {
		if batches[i].Drawable != w {
			t.Fatalf("position %d: got drawable %d", i, batches[i].Drawable.Index())
		}
	}
}

func TestSortBackToFrontByDistance(t *testing.T) {
	d0, d1, d2 := passDrawable(0, nil), passDrawable(1, nil), passDrawable(2, nil)
	batches := []Batch{
		sortTestBatch(d0, 1, 2),
		sortTestBatch(d1, 9, 50),
		sortTestBatch(d2, 5, 10),
	}
	sortBackToFront(batches)

	want := []scene.Drawable{d1, d2, d0}
	for i, w := range want {
		if batches[i].Drawable != w {
			t.Fatalf("position %d: got drawable %d", i, batches[i].Drawable.Index())
		}
	}
}

func TestSortByLightGroupsFirst(t *testing.T) {
	d0, d1 := passDrawable(0, nil), passDrawable(1, nil)
	batches := []Batch{
		{Drawable: d0, LightIndex: 2, Distance: 1, stateHash: 1},
		{Drawable: d1, LightIndex: 0, Distance: 9, stateHash: 9},
		{Drawable: d0, LightIndex: 0, Distance: 5, stateHash: 1},
	}
	sortByLight(batches)

	if batches[0].LightIndex != 0 || batches[1].LightIndex != 0 || batches[2].LightIndex != 2 {
		t.Fatalf("light grouping broken: %+v", batches)
	}
	// Within light 0, the lower state hash comes first.
	if batches[0].Drawable != d0 {
		t.Error("within a light group, batches must order by state hash")
	}
}
