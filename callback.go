// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scenebatch

import (
	"cogentcore.org/core/math32"

	"github.com/gogpu/scenebatch/scene"
	"github.com/gogpu/scenebatch/shadowmap"
)

// Callback is the capability interface a rendering backend injects per
// frame. The collector never builds pipeline states or owns shadow-map
// textures itself; it asks the backend through this interface and caches
// what it gets back.
//
// HasShadow and PipelineState may be called from worker goroutines and
// must be safe for concurrent use. ShadowMap and LightVolumeState are only
// called from the orchestrator goroutine.
type Callback interface {
	// HasShadow reports whether the light should render shadows this frame.
	HasShadow(light *scene.Light) bool

	// ShadowMap acquires a temporary shadow-map region of the given size,
	// valid for one frame. An empty region means the atlas is exhausted;
	// the light falls back to unshadowed rendering.
	ShadowMap(size math32.Vector2i) shadowmap.Region

	// LightVolumeState builds the pipeline state drawing the light's
	// volume geometry in a deferred lighting pass.
	LightVolumeState(light *SceneLight, geometry *scene.Geometry) *PipelineStateDesc

	// PipelineState builds the pipeline state for a scene or shadow batch.
	// Results are cached by key; the context carries everything needed to
	// build the state but must not influence it beyond what the key
	// captures, or stale states will be served on later frames.
	PipelineState(key BatchStateKey, ctx BatchStateContext) *PipelineStateDesc
}

// BatchStateKey identifies a cached pipeline state. All fields are
// comparable; two batches with equal keys share one state.
type BatchStateKey struct {
	// Pass is the technique pass the batch renders with.
	Pass *scene.TechniquePass

	// Geometry and Material identify the mesh and surface.
	Geometry *scene.Geometry
	Material *scene.Material

	// DrawableHash is the drawable's pipeline-state hash, covering the
	// zone-dependent inputs (see scene.StateTracker).
	DrawableHash uint32

	// LightID is the per-light variation for forward light batches and
	// shadow batches; zero for unlit batches.
	LightID uint64
}

// BatchStateContext carries the frame context a Callback may consult while
// building a pipeline state.
type BatchStateContext struct {
	// Camera is the viewpoint the batch renders for.
	Camera *scene.Camera

	// Drawable is the batch source.
	Drawable scene.Drawable

	// Light is the illuminating scene light, nil for unlit batches.
	Light *SceneLight

	// Shadow marks shadow-caster batches; the state renders depth only.
	Shadow bool

	// Split is the shadow split index for shadow batches.
	Split int
}
