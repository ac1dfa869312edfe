// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package scenebatch collects sorted draw batches from a 3D scene for one
// frame of rendering.
//
// Each frame, the Collector walks the visible-drawable set supplied by a
// spatial index, classifies drawables into geometry and light streams,
// assigns lights to the geometry they illuminate under a fixed per-drawable
// budget, allocates shadow-map atlas regions, and emits per-pass batch
// lists sorted for submission. The hot paths run fork-join parallel on a
// worker pool with per-worker scratch buffers; every phase ends at an
// explicit barrier and every user-visible ordering has a total tie-break,
// so output is deterministic for identical scene state.
//
// The package performs no GPU work itself. Pipeline states and shadow-map
// textures come from an injected Callback implemented by the rendering
// backend; the collector's outputs are plain batch lists the backend turns
// into draw calls.
//
// A typical frame:
//
//	c.BeginFrame(frame, callback)
//	drawables = frame.Index.VisibleDrawables(drawables[:0], frame.Camera,
//	    scene.FlagGeometry|scene.FlagLight)
//	c.ProcessVisibleDrawables(drawables)
//	c.ProcessVisibleLights()
//	c.UpdateGeometries()
//	c.CollectBatches()
package scenebatch
