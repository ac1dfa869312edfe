// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import "cogentcore.org/core/math32"

// Zone is a spatial region supplying ambient lighting and fog parameters to
// the drawables inside it. Zones overlap; the highest-priority zone
// containing a point wins.
type Zone struct {
	// Bounds is the world-space region the zone covers.
	Bounds math32.Box3

	// Ambient is the ambient light color inside the zone.
	Ambient Color

	// FogColor and FogStart/FogEnd define linear fog inside the zone.
	FogColor Color
	FogStart float32
	FogEnd   float32

	// Mask is matched against a drawable's zone mask; a drawable only
	// picks up zones whose masks overlap.
	Mask uint32

	// Priority orders overlapping zones; higher wins.
	Priority int
}

// Contains reports whether the zone covers the given point and mask.
func (z *Zone) Contains(point math32.Vector3, mask uint32) bool {
	return z.Mask&mask != 0 && z.Bounds.ContainsPoint(point)
}

// CachedZone is a drawable's per-frame zone cache. The zone query is only
// re-run when the drawable's center moves further from Position than the
// invalidation distance, bounding zone-query cost for mostly-static scenes.
type CachedZone struct {
	// Zone is the resolved zone, never nil after the first query
	// (a background zone stands in when nothing matches).
	Zone *Zone

	// Position is the drawable center the cache was computed at.
	Position math32.Vector3

	// InvalidationDistSq is the squared distance the drawable must move
	// before the cache is refreshed.
	InvalidationDistSq float32
}

// Stale reports whether the cache must be refreshed for a drawable now
// centered at the given point.
func (c *CachedZone) Stale(center math32.Vector3) bool {
	if c.Zone == nil {
		return true
	}
	return c.Position.DistanceToSquared(center) >= c.InvalidationDistSq
}
