// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import "cogentcore.org/core/math32"

// Flags classifies what a drawable contributes to a frame.
type Flags uint32

const (
	// FlagGeometry marks drawables that emit draw batches.
	FlagGeometry Flags = 1 << iota

	// FlagLight marks light sources.
	FlagLight
)

// UpdateMode says which thread a drawable's UpdateGeometry must run on.
// Skinned meshes and particle systems typically tolerate worker threads;
// drawables touching GPU resources directly must stay on the main thread.
type UpdateMode int

const (
	// UpdateWorker allows geometry updates from worker goroutines.
	UpdateWorker UpdateMode = iota

	// UpdateMainThread restricts geometry updates to the orchestrator.
	UpdateMainThread
)

// SourceBatch is one (geometry, material) pair a drawable exposes for
// rendering, refreshed by UpdateBatches each frame.
type SourceBatch struct {
	// Geometry is the mesh to draw.
	Geometry *Geometry

	// Material shades the geometry; nil falls back to the renderer's
	// default material.
	Material *Material

	// WorldTransform places the batch in the world.
	WorldTransform math32.Matrix4

	// Type selects the vertex transformation path.
	Type GeometryType
}

// Drawable is anything the renderer can place in a frame: mesh geometry or
// a light source. The scene owns drawables; the collector keeps only
// non-owning references that are valid for one frame.
//
// Index must be a dense, stable identifier in [0, SpatialIndex.NumDrawables)
// for the current frame; the collector sizes its per-drawable transient
// arrays from it.
type Drawable interface {
	// Index returns the drawable's dense index in the spatial index.
	Index() int

	// Flags classifies the drawable (geometry xor light).
	Flags() Flags

	// WorldBounds returns the world-space bounding box.
	WorldBounds() math32.Box3

	// DrawDistance returns the maximum camera distance the drawable is
	// rendered at; zero or negative means unlimited.
	DrawDistance() float32

	// Distance returns the camera distance computed by the most recent
	// UpdateBatches call.
	Distance() float32

	// UpdateBatches refreshes source batches and camera distance for the
	// frame. Called from worker goroutines; must only touch this drawable.
	UpdateBatches(frame *FrameInfo)

	// MarkInView records that the drawable was visible this frame.
	MarkInView(frame *FrameInfo)

	// SourceBatches returns the batches refreshed by UpdateBatches.
	SourceBatches() []SourceBatch

	// UpdateMode says which thread UpdateGeometry needs.
	UpdateMode() UpdateMode

	// UpdateGeometry finalizes GPU-facing geometry after batch collection.
	UpdateGeometry(frame *FrameInfo)

	// ZoneMask filters which zones may claim this drawable.
	ZoneMask() uint32

	// LightMask filters which lights may illuminate this drawable.
	LightMask() uint32

	// CastShadows reports whether the drawable renders into shadow maps.
	CastShadows() bool

	// CachedZone returns the mutable per-drawable zone cache.
	CachedZone() *CachedZone

	// StateTracker returns the drawable's pipeline-state hash tracker.
	StateTracker() *StateTracker
}

// StaticDrawable is a basic Drawable implementation for static meshes.
// It doubles as an embeddable base for richer drawable types; Light embeds
// it too.
type StaticDrawable struct {
	index        int
	flags        Flags
	bounds       math32.Box3
	drawDistance float32
	distance     float32
	batches      []SourceBatch
	updateMode   UpdateMode
	zoneMask     uint32
	lightMask    uint32
	castShadows  bool
	cachedZone   CachedZone
	tracker      *StateTracker

	inViewFrame uint64
}

// NewStaticDrawable creates a geometry drawable with the given dense index
// and world bounds.
func NewStaticDrawable(index int, bounds math32.Box3) *StaticDrawable {
	d := &StaticDrawable{}
	d.init(index, bounds)
	return d
}

// init sets up the base drawable in place. Kept separate from the
// constructor so embedding types bind the state tracker to themselves
// rather than to a temporary.
func (d *StaticDrawable) init(index int, bounds math32.Box3) {
	d.index = index
	d.flags = FlagGeometry
	d.bounds = bounds
	d.zoneMask = ^uint32(0)
	d.lightMask = ^uint32(0)
	d.castShadows = true
	d.tracker = NewStateTracker(d.stateHash)
}

func (d *StaticDrawable) stateHash() uint32 {
	// Zone identity is the only collector-visible pipeline input here.
	h := uint32(2166136261)
	if d.cachedZone.Zone != nil {
		h ^= uint32(d.cachedZone.Zone.Priority)
		h *= 16777619
		h ^= d.cachedZone.Zone.Mask
		h *= 16777619
	}
	return h
}

// SetBatches replaces the drawable's source batches.
func (d *StaticDrawable) SetBatches(batches []SourceBatch) { d.batches = batches }

// SetDrawDistance sets the maximum render distance (0 = unlimited).
func (d *StaticDrawable) SetDrawDistance(dist float32) { d.drawDistance = dist }

// SetUpdateMode sets which thread UpdateGeometry must run on.
func (d *StaticDrawable) SetUpdateMode(mode UpdateMode) { d.updateMode = mode }

// SetCastShadows toggles shadow casting.
func (d *StaticDrawable) SetCastShadows(cast bool) { d.castShadows = cast }

// SetLightMask sets the drawable's light mask.
func (d *StaticDrawable) SetLightMask(mask uint32) { d.lightMask = mask }

// SetZoneMask sets the drawable's zone mask.
func (d *StaticDrawable) SetZoneMask(mask uint32) { d.zoneMask = mask }

// SetWorldBounds moves the drawable.
func (d *StaticDrawable) SetWorldBounds(bounds math32.Box3) { d.bounds = bounds }

// SetFlags overrides the classification flags.
func (d *StaticDrawable) SetFlags(flags Flags) { d.flags = flags }

// Index implements Drawable.
func (d *StaticDrawable) Index() int { return d.index }

// Flags implements Drawable.
func (d *StaticDrawable) Flags() Flags { return d.flags }

// WorldBounds implements Drawable.
func (d *StaticDrawable) WorldBounds() math32.Box3 { return d.bounds }

// DrawDistance implements Drawable.
func (d *StaticDrawable) DrawDistance() float32 { return d.drawDistance }

// Distance implements Drawable.
func (d *StaticDrawable) Distance() float32 { return d.distance }

// UpdateBatches implements Drawable: refreshes the camera distance.
// Static geometry has nothing else to recompute.
func (d *StaticDrawable) UpdateBatches(frame *FrameInfo) {
	d.distance = frame.Camera.DistanceTo(d.bounds.Center())
}

// MarkInView implements Drawable.
func (d *StaticDrawable) MarkInView(frame *FrameInfo) {
	d.inViewFrame = frame.FrameNumber
}

// InView reports whether the drawable was marked visible in the given frame.
func (d *StaticDrawable) InView(frameNumber uint64) bool {
	return d.inViewFrame == frameNumber
}

// SourceBatches implements Drawable.
func (d *StaticDrawable) SourceBatches() []SourceBatch { return d.batches }

// UpdateMode implements Drawable.
func (d *StaticDrawable) UpdateMode() UpdateMode { return d.updateMode }

// UpdateGeometry implements Drawable. Static geometry is a no-op.
func (d *StaticDrawable) UpdateGeometry(frame *FrameInfo) {}

// ZoneMask implements Drawable.
func (d *StaticDrawable) ZoneMask() uint32 { return d.zoneMask }

// LightMask implements Drawable.
func (d *StaticDrawable) LightMask() uint32 { return d.lightMask }

// CastShadows implements Drawable.
func (d *StaticDrawable) CastShadows() bool { return d.castShadows }

// CachedZone implements Drawable.
func (d *StaticDrawable) CachedZone() *CachedZone { return &d.cachedZone }

// StateTracker implements Drawable.
func (d *StaticDrawable) StateTracker() *StateTracker { return d.tracker }
