// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package scene defines the data model shared between a 3D scene and the
// batch collection pipeline: drawables, lights, cameras, zones, materials
// with quality-tiered techniques, and the spatial index used for visibility
// and zone queries.
//
// The scene owns every Drawable; the collector in the parent package holds
// only non-owning references valid for a single frame. All math uses
// float32 via cogentcore.org/core/math32.
package scene
