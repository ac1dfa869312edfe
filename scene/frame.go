// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import "cogentcore.org/core/math32"

// FrameInfo carries the per-frame context every collection step reads:
// the camera the frame is rendered for, the spatial index answering
// visibility and zone queries, and frame identity.
type FrameInfo struct {
	// FrameNumber increments every frame; drawables use it to record
	// when they were last in view.
	FrameNumber uint64

	// TimeStep is the simulation time advanced this frame, in seconds.
	TimeStep float32

	// Camera is the viewpoint batches are collected for.
	Camera *Camera

	// Index answers visibility and zone queries.
	Index SpatialIndex

	// ViewSize is the render target size in pixels.
	ViewSize math32.Vector2i
}
