// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"sort"

	"cogentcore.org/core/math32"
)

// SpatialIndex answers the two spatial questions the collector asks each
// frame: which drawables a camera sees, and which zone owns a point.
// Production renderers back this with an octree or BVH; LinearIndex is a
// simple brute-force implementation.
type SpatialIndex interface {
	// VisibleDrawables appends the drawables matching flags that
	// intersect the camera frustum to dst and returns the result.
	VisibleDrawables(dst []Drawable, camera *Camera, flags Flags) []Drawable

	// DrawablesInBox appends the drawables matching flags whose bounds
	// intersect the world-space box to dst and returns the result. Light
	// processing uses it to find shadow casters outside the view frustum.
	DrawablesInBox(dst []Drawable, bounds math32.Box3, flags Flags) []Drawable

	// QueryZone resolves the highest-priority zone containing the point
	// whose mask overlaps zoneMask, falling back to the background zone.
	QueryZone(point math32.Vector3, zoneMask uint32) CachedZone

	// NumDrawables returns the total drawable count; drawable indices
	// are dense in [0, NumDrawables).
	NumDrawables() int

	// BackgroundZone returns the fallback zone.
	BackgroundZone() *Zone
}

// LinearIndex is a brute-force SpatialIndex over flat slices. Useful for
// tests, tools, and small scenes; visibility is O(drawables) per query.
type LinearIndex struct {
	drawables []Drawable
	zones     []*Zone
	background *Zone

	// ZoneCacheDistance is the invalidation distance handed out with
	// every zone query result.
	ZoneCacheDistance float32
}

// NewLinearIndex creates an empty index with a default background zone.
func NewLinearIndex() *LinearIndex {
	return &LinearIndex{
		background: &Zone{
			Ambient:  RGB(0.1, 0.1, 0.1),
			FogColor: Black,
			FogStart: 250,
			FogEnd:   1000,
			Mask:     ^uint32(0),
			Priority: -1 << 30,
		},
		ZoneCacheDistance: 16,
	}
}

// Add inserts a drawable. The drawable's Index must equal its insertion
// position; Add panics otherwise to catch mismatched scene setup early.
func (x *LinearIndex) Add(d Drawable) {
	if d.Index() != len(x.drawables) {
		panic("scene: drawable index does not match insertion order")
	}
	x.drawables = append(x.drawables, d)
}

// AddZone inserts a zone, kept sorted by descending priority.
func (x *LinearIndex) AddZone(z *Zone) {
	x.zones = append(x.zones, z)
	sort.SliceStable(x.zones, func(i, j int) bool {
		return x.zones[i].Priority > x.zones[j].Priority
	})
}

// VisibleDrawables implements SpatialIndex.
func (x *LinearIndex) VisibleDrawables(dst []Drawable, camera *Camera, flags Flags) []Drawable {
	frustum := camera.Frustum()
	for _, d := range x.drawables {
		if d.Flags()&flags == 0 {
			continue
		}
		if frustum != nil && !frustum.IntersectsBox(d.WorldBounds()) {
			continue
		}
		dst = append(dst, d)
	}
	return dst
}

// DrawablesInBox implements SpatialIndex.
func (x *LinearIndex) DrawablesInBox(dst []Drawable, bounds math32.Box3, flags Flags) []Drawable {
	for _, d := range x.drawables {
		if d.Flags()&flags == 0 {
			continue
		}
		if !bounds.IntersectsBox(d.WorldBounds()) {
			continue
		}
		dst = append(dst, d)
	}
	return dst
}

// QueryZone implements SpatialIndex.
func (x *LinearIndex) QueryZone(point math32.Vector3, zoneMask uint32) CachedZone {
	zone := x.background
	for _, z := range x.zones {
		if z.Contains(point, zoneMask) {
			zone = z
			break
		}
	}
	return CachedZone{
		Zone:               zone,
		Position:           point,
		InvalidationDistSq: x.ZoneCacheDistance * x.ZoneCacheDistance,
	}
}

// NumDrawables implements SpatialIndex.
func (x *LinearIndex) NumDrawables() int { return len(x.drawables) }

// BackgroundZone implements SpatialIndex.
func (x *LinearIndex) BackgroundZone() *Zone { return x.background }
