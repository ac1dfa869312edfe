// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scenebatch

import (
	"sync/atomic"

	"cogentcore.org/core/math32"
	chewxy "github.com/chewxy/math32"

	"github.com/gogpu/scenebatch/parallel"
	"github.com/gogpu/scenebatch/scene"
	"github.com/gogpu/scenebatch/shadowmap"
)

// maxShadowSplits is the split count of a point light cube map, the
// largest any light type uses.
const maxShadowSplits = 6

// ShadowSplit is one sub-frustum of a light's shadow projection: a
// cascade for directional lights, a cube face for point lights, the whole
// cone for spot lights. Each split owns its caster list, its sub-region
// of the light's shadow map, and its collected shadow batches.
type ShadowSplit struct {
	// ZRange is the view-space depth slice the cascade covers; only
	// meaningful for directional lights.
	ZRange DrawableZRange

	// Casters are the shadow-caster drawables rendered into the split.
	Casters []scene.Drawable

	// Region is the split's rectangle within the light's shadow map.
	Region shadowmap.Region

	// Batches are the collected shadow-caster batches, sorted by
	// FinalizeShadowBatches.
	Batches []Batch
}

// LightShaderParameters is the shader-facing snapshot of one light,
// finalized after shadow-map assignment.
type LightShaderParameters struct {
	Position  math32.Vector3
	Direction math32.Vector3
	Color     scene.Color

	SpecularIntensity float32

	// InverseRange is 1/range for point and spot lights, zero for
	// directional lights.
	InverseRange float32

	// SpotCutoff is the cosine of the half cone angle; SpotInverseCutoff
	// is 1/(1-SpotCutoff) for the falloff ramp. Spot lights only.
	SpotCutoff        float32
	SpotInverseCutoff float32

	// ShadowIntensity blends shadows toward unshadowed: 0 is fully
	// shadowed, 1 disables the shadow entirely (distance fade).
	ShadowIntensity float32

	// NumSplits is the number of active shadow splits, zero when the
	// light has no shadow map this frame.
	NumSplits int
}

// SceneLight wraps one visible light for the duration of a frame: its lit
// geometry set, shadow casters, splits, shadow-map region and finalized
// shader parameters. Instances are cached across frames by light ID and
// reset by BeginFrame.
type SceneLight struct {
	light *scene.Light

	hasShadow bool
	numSplits int

	litGeometries []scene.Drawable

	casters      []scene.Drawable
	casterRanges []DrawableZRange

	splits [maxShadowSplits]ShadowSplit

	sceneZRange   DrawableZRange
	shadowMapSize math32.Vector2i
	shadowMap     shadowmap.Region

	params LightShaderParameters

	// lastSeenFrame drives generation-based cache eviction.
	lastSeenFrame uint64
}

// NewSceneLight wraps a light for per-frame processing.
func NewSceneLight(light *scene.Light) *SceneLight {
	return &SceneLight{light: light}
}

// Light returns the wrapped light.
func (l *SceneLight) Light() *scene.Light { return l.light }

// HasShadow reports whether the light renders shadows this frame. False
// until BeginFrame; may flip to false later if no casters exist or the
// shadow atlas is exhausted.
func (l *SceneLight) HasShadow() bool { return l.hasShadow }

// NumSplits returns the number of shadow splits this frame.
func (l *SceneLight) NumSplits() int { return l.numSplits }

// Split returns the i-th shadow split.
func (l *SceneLight) Split(i int) *ShadowSplit { return &l.splits[i] }

// LitGeometries returns the geometries this light touches, computed by
// UpdateLitGeometriesAndShadowCasters.
func (l *SceneLight) LitGeometries() []scene.Drawable { return l.litGeometries }

// ShadowCasters returns the frame's shadow-caster set across all splits.
func (l *SceneLight) ShadowCasters() []scene.Drawable { return l.casters }

// ShadowMapSize returns the shadow-map footprint decided by
// FinalizeShadowMap; zero when the light has no shadow this frame.
func (l *SceneLight) ShadowMapSize() math32.Vector2i { return l.shadowMapSize }

// ShadowMap returns the allocated atlas region.
func (l *SceneLight) ShadowMap() shadowmap.Region { return l.shadowMap }

// Parameters returns the finalized shader parameters.
func (l *SceneLight) Parameters() *LightShaderParameters { return &l.params }

// BeginFrame resets per-frame state. hasShadow says whether the pipeline
// wants shadows from this light at all; it is further gated on the light
// casting shadows and not being marked unimportant.
func (l *SceneLight) BeginFrame(hasShadow bool) {
	l.hasShadow = hasShadow && l.light.CastShadows() &&
		l.light.Importance() != scene.ImportanceNotImportant

	switch l.light.Type() {
	case scene.LightDirectional:
		l.numSplits = l.light.NumCascades()
	case scene.LightPoint:
		l.numSplits = maxShadowSplits
	case scene.LightSpot:
		l.numSplits = 1
	}

	l.litGeometries = l.litGeometries[:0]
	l.casters = l.casters[:0]
	l.casterRanges = l.casterRanges[:0]
	l.shadowMapSize = math32.Vector2i{}
	l.shadowMap = shadowmap.Region{}
	l.params = LightShaderParameters{}

	for i := range l.splits {
		s := &l.splits[i]
		s.ZRange = InvalidZRange()
		s.Casters = s.Casters[:0]
		s.Region = shadowmap.Region{}
		s.Batches = s.Batches[:0]
	}
}

// lightProcessContext is the shared read-mostly state every SceneLight
// consults while computing its lit geometries and shadow casters. Built
// once per frame by the collector after the classification barrier.
type lightProcessContext struct {
	frame             *scene.FrameInfo
	sceneZRange       DrawableZRange
	visibleGeometries []scene.Drawable

	// traits and zRanges are indexed by drawable index and frozen for
	// the duration of light processing.
	traits  []uint8
	zRanges []DrawableZRange

	// updated guards the caster update queue: a drawable enters
	// casterUpdateQueue at most once per frame, and never if the
	// classifier already updated it.
	updated           []atomic.Bool
	casterUpdateQueue *parallel.Sharded[scene.Drawable]
}

// UpdateLitGeometriesAndShadowCasters computes the light's lit-geometry
// and shadow-caster sets. Runs on a worker; it writes only this light's
// state plus the sharded caster queue, so all visible lights process
// concurrently.
func (l *SceneLight) UpdateLitGeometriesAndShadowCasters(worker int, ctx *lightProcessContext) {
	l.sceneZRange = ctx.sceneZRange

	switch l.light.Type() {
	case scene.LightDirectional:
		l.updateDirectional(ctx)
	case scene.LightPoint, scene.LightSpot:
		l.updateLocal(worker, ctx)
	}
}

// updateDirectional lights everything visible that matches the mask.
// Casters are drawn from the lit set; the per-split depth slices computed
// by FinalizeShadowMap narrow them down to each cascade.
func (l *SceneLight) updateDirectional(ctx *lightProcessContext) {
	mask := l.light.Mask()
	for _, d := range ctx.visibleGeometries {
		if d.LightMask()&mask == 0 {
			continue
		}
		l.litGeometries = append(l.litGeometries, d)

		if l.hasShadow && d.CastShadows() {
			l.casters = append(l.casters, d)
			l.casterRanges = append(l.casterRanges, ctx.zRanges[d.Index()])
		}
	}
}

// updateLocal handles point and spot lights: lit geometries come from the
// visible set filtered by the light volume; shadow casters additionally
// come from a spatial query, since a caster behind the camera still
// shadows what the camera sees.
func (l *SceneLight) updateLocal(worker int, ctx *lightProcessContext) {
	mask := l.light.Mask()
	for _, d := range ctx.visibleGeometries {
		if d.LightMask()&mask == 0 {
			continue
		}
		if !l.containsBox(d.WorldBounds()) {
			continue
		}
		l.litGeometries = append(l.litGeometries, d)
	}

	if !l.hasShadow {
		return
	}

	inVolume := ctx.frame.Index.DrawablesInBox(nil, l.light.WorldBounds(), scene.FlagGeometry)
	for _, d := range inVolume {
		if !d.CastShadows() || d.LightMask()&mask == 0 {
			continue
		}
		if !l.containsBox(d.WorldBounds()) {
			continue
		}
		l.casters = append(l.casters, d)

		// Off-screen casters skipped classification; queue them for a
		// batch update before shadow batches are collected.
		if ctx.updated[d.Index()].CompareAndSwap(false, true) {
			ctx.casterUpdateQueue.Append(worker, d)
		}
	}
}

// containsBox tests a bounding box against the light volume: sphere for
// point lights, cone frustum for spot lights.
func (l *SceneLight) containsBox(bounds math32.Box3) bool {
	switch l.light.Type() {
	case scene.LightPoint:
		return sphereIntersectsBox(l.light.Sphere(), bounds)
	case scene.LightSpot:
		if f := l.light.Frustum(); f != nil {
			return f.IntersectsBox(bounds)
		}
	}
	return true
}

func sphereIntersectsBox(s math32.Sphere, box math32.Box3) bool {
	closest := math32.Vec3(
		chewxy.Min(chewxy.Max(s.Center.X, box.Min.X), box.Max.X),
		chewxy.Min(chewxy.Max(s.Center.Y, box.Min.Y), box.Max.Y),
		chewxy.Min(chewxy.Max(s.Center.Z, box.Min.Z), box.Max.Z),
	)
	return closest.DistanceToSquared(s.Center) <= s.Radius*s.Radius
}

// FinalizeShadowMap decides the light's shadow-map footprint and assigns
// casters to splits. Must run after every light finished
// UpdateLitGeometriesAndShadowCasters; the collector enforces the barrier.
func (l *SceneLight) FinalizeShadowMap() {
	if !l.hasShadow || len(l.casters) == 0 {
		l.hasShadow = false
		l.shadowMapSize = math32.Vector2i{}
		return
	}

	size := int32(l.light.ShadowResolution())

	switch l.light.Type() {
	case scene.LightDirectional:
		// Cascades sit side by side in one strip.
		l.shadowMapSize = math32.Vec2i(size*int32(l.numSplits), size)
		l.splitDirectionalCasters()
	case scene.LightPoint:
		// Six cube faces in a 3x2 grid.
		l.shadowMapSize = math32.Vec2i(size*3, size*2)
		for i := 0; i < l.numSplits; i++ {
			l.splits[i].Casters = append(l.splits[i].Casters, l.casters...)
		}
	case scene.LightSpot:
		l.shadowMapSize = math32.Vec2i(size, size)
		l.splits[0].Casters = append(l.splits[0].Casters, l.casters...)
	}
}

// splitDirectionalCasters slices the scene depth range into cascades and
// assigns each caster to the cascades its own depth range overlaps.
func (l *SceneLight) splitDirectionalCasters() {
	begin := chewxy.Max(l.sceneZRange.Min, 0)
	end := l.sceneZRange.Max
	if d := l.light.ShadowDistance(); d > 0 {
		end = chewxy.Min(end, d)
	}
	if end <= begin {
		end = begin + 1
	}

	n := float32(l.numSplits)
	for i := 0; i < l.numSplits; i++ {
		l.splits[i].ZRange = DrawableZRange{
			Min: begin + (end-begin)*float32(i)/n,
			Max: begin + (end-begin)*float32(i+1)/n,
		}
	}

	for ci, caster := range l.casters {
		r := l.casterRanges[ci]
		for i := 0; i < l.numSplits; i++ {
			if l.splits[i].ZRange.Intersects(r) {
				l.splits[i].Casters = append(l.splits[i].Casters, caster)
			}
		}
	}
}

// SetShadowMap assigns the atlas region acquired by the collector and
// carves it into per-split sub-regions. An empty region (atlas exhausted)
// degrades the light to unshadowed.
func (l *SceneLight) SetShadowMap(region shadowmap.Region) {
	if region.Empty() {
		l.hasShadow = false
		l.shadowMap = shadowmap.Region{}
		return
	}
	l.shadowMap = region

	switch l.light.Type() {
	case scene.LightDirectional:
		side := region.Size.Y
		for i := 0; i < l.numSplits; i++ {
			l.splits[i].Region = shadowmap.Region{
				Page:   region.Page,
				Origin: math32.Vec2i(region.Origin.X+int32(i)*side, region.Origin.Y),
				Size:   math32.Vec2i(side, side),
			}
		}
	case scene.LightPoint:
		side := region.Size.X / 3
		for i := 0; i < l.numSplits; i++ {
			col := int32(i % 3)
			row := int32(i / 3)
			l.splits[i].Region = shadowmap.Region{
				Page:   region.Page,
				Origin: math32.Vec2i(region.Origin.X+col*side, region.Origin.Y+row*side),
				Size:   math32.Vec2i(side, side),
			}
		}
	case scene.LightSpot:
		l.splits[0].Region = region
	}
}

// FinalizeShaderParameters snapshots the shader-facing light constants for
// the frame. Runs after shadow-map assignment so the split count and
// shadow fade are final.
func (l *SceneLight) FinalizeShaderParameters(camera *scene.Camera, subPixelOffset float32) {
	_ = subPixelOffset // reserved for temporal jitter of shadow sampling

	light := l.light
	l.params = LightShaderParameters{
		Position:          light.Position(),
		Direction:         light.Direction(),
		Color:             light.EffectiveColor(),
		SpecularIntensity: light.SpecularIntensity(),
	}

	switch light.Type() {
	case scene.LightPoint:
		l.params.InverseRange = 1 / chewxy.Max(light.Range(), LargeEpsilon)
	case scene.LightSpot:
		l.params.InverseRange = 1 / chewxy.Max(light.Range(), LargeEpsilon)
		cutoff := chewxy.Cos(light.FOV() / 2 * chewxy.Pi / 180)
		l.params.SpotCutoff = cutoff
		l.params.SpotInverseCutoff = 1 / chewxy.Max(1-cutoff, LargeEpsilon)
	}

	if l.hasShadow {
		l.params.NumSplits = l.numSplits
		l.params.ShadowIntensity = l.shadowFade(camera)
	}
}

// shadowFade ramps the shadow out over the last fifth of the light's
// shadow distance, so shadows vanish smoothly instead of popping.
func (l *SceneLight) shadowFade(camera *scene.Camera) float32 {
	intensity := l.light.ShadowIntensity()
	maxDist := l.light.ShadowDistance()
	if maxDist <= 0 {
		return intensity
	}
	fadeStart := maxDist * 0.8
	dist := camera.DistanceTo(l.light.Position())
	if l.light.Type() == scene.LightDirectional {
		dist = 0
	}
	if dist <= fadeStart {
		return intensity
	}
	fade := (dist - fadeStart) / (maxDist - fadeStart)
	return chewxy.Min(chewxy.Max(intensity, fade), 1)
}

// shadowSortValue orders lights for shadow-map allocation: bigger
// footprints first so the greedy atlas packs well.
func (l *SceneLight) shadowSortValue() int64 {
	sz := l.shadowMapSize
	return int64(sz.X)*int64(sz.X) + int64(sz.Y)*int64(sz.Y)
}
