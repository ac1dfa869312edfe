// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scenebatch

import (
	"sort"

	"github.com/gogpu/scenebatch/scene"
)

// NoLight marks batches not associated with any visible light.
const NoLight = -1

// NoMainLight is the main-light index when no directional light is visible.
const NoMainLight = -1

// Batch is one finalized draw unit: a drawable's source batch bound to a
// technique pass, a light, and a cached pipeline state. Batches are plain
// values; passes own the slices and recycle them across frames.
type Batch struct {
	// Drawable is the batch source.
	Drawable scene.Drawable

	// SourceIndex is the index into Drawable.SourceBatches().
	SourceIndex int

	// Geometry and Material are resolved from the source batch, with the
	// renderer default material standing in for nil.
	Geometry *scene.Geometry
	Material *scene.Material

	// Pass is the technique pass the batch renders with.
	Pass *scene.TechniquePass

	// LightIndex indexes the frame's visible lights, or NoLight.
	LightIndex int

	// Distance is the drawable's camera distance.
	Distance float32

	// State is the cached pipeline state, nil if the callback declined.
	State *PipelineStateDesc

	// stateHash orders batches by pipeline state without rehashing in
	// the sort comparator.
	stateHash uint64
}

// LightVolumeBatch draws one light's volume geometry in a deferred
// lighting pass.
type LightVolumeBatch struct {
	// LightIndex indexes the frame's visible lights.
	LightIndex int

	// Geometry is the light volume proxy mesh.
	Geometry *scene.Geometry

	// State is the light-volume pipeline state from the callback.
	State *PipelineStateDesc
}

// sortFrontToBack orders batches for opaque submission: grouped by
// pipeline state, near to far within a group. The trailing drawable,
// source and light comparisons make the order total, so identical scene
// state always yields identical batch order.
func sortFrontToBack(batches []Batch) {
	sort.Slice(batches, func(i, j int) bool {
		a, b := &batches[i], &batches[j]
		if a.stateHash != b.stateHash {
			return a.stateHash < b.stateHash
		}
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		return lessBatchIdentity(a, b)
	})
}

// sortBackToFront orders batches for transparent submission: far to near,
// with the same total tie-break as sortFrontToBack.
func sortBackToFront(batches []Batch) {
	sort.Slice(batches, func(i, j int) bool {
		a, b := &batches[i], &batches[j]
		if a.Distance != b.Distance {
			return a.Distance > b.Distance
		}
		if a.stateHash != b.stateHash {
			return a.stateHash < b.stateHash
		}
		return lessBatchIdentity(a, b)
	})
}

// sortByLight orders per-light additive batches: grouped by light so light
// constants are rebound once per group, then like sortFrontToBack.
func sortByLight(batches []Batch) {
	sort.Slice(batches, func(i, j int) bool {
		a, b := &batches[i], &batches[j]
		if a.LightIndex != b.LightIndex {
			return a.LightIndex < b.LightIndex
		}
		if a.stateHash != b.stateHash {
			return a.stateHash < b.stateHash
		}
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		return lessBatchIdentity(a, b)
	})
}

func lessBatchIdentity(a, b *Batch) bool {
	ai, bi := a.Drawable.Index(), b.Drawable.Index()
	if ai != bi {
		return ai < bi
	}
	if a.SourceIndex != b.SourceIndex {
		return a.SourceIndex < b.SourceIndex
	}
	return a.LightIndex < b.LightIndex
}
