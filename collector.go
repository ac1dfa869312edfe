// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scenebatch

import (
	"log/slog"
	"sort"
	"sync/atomic"

	"cogentcore.org/core/math32"
	chewxy "github.com/chewxy/math32"

	"github.com/gogpu/scenebatch/parallel"
	"github.com/gogpu/scenebatch/scene"
)

// Per-drawable trait bits, written during classification.
const (
	traitVisibleGeometry uint8 = 1 << iota
	traitForwardLit
)

// Resources are the renderer-owned inputs the collector depends on,
// injected at construction.
type Resources struct {
	// DefaultMaterial shades source batches with no material of their own.
	DefaultMaterial *scene.Material

	// Quality is the active material quality tier.
	Quality scene.Quality

	// LightGeometry supplies the volume proxy mesh for deferred light
	// batches; may be nil when light volumes are not collected.
	LightGeometry func(light *scene.Light) *scene.Geometry
}

// transientData is per-drawable scratch recomputed every frame, indexed by
// drawable index. updated uses atomics because light processing and
// classification race on it across lights; the other slices are only ever
// written by the single worker owning the drawable within a phase.
type transientData struct {
	updated  []atomic.Bool
	traits   []uint8
	zRanges  []DrawableZRange
	lighting []LightAccumulator
}

func (t *transientData) reset(n int) {
	if cap(t.updated) < n {
		t.updated = make([]atomic.Bool, n)
		t.traits = make([]uint8, n)
		t.zRanges = make([]DrawableZRange, n)
		t.lighting = make([]LightAccumulator, n)
	} else {
		t.updated = t.updated[:n]
		t.traits = t.traits[:n]
		t.zRanges = t.zRanges[:n]
		t.lighting = t.lighting[:n]
	}
	for i := 0; i < n; i++ {
		t.updated[i].Store(false)
		t.traits[i] = 0
	}
}

// cachedSceneLight is a light-cache entry with its eviction generation.
type cachedSceneLight struct {
	sceneLight *SceneLight
	lastSeen   uint64
}

// Collector collects sorted draw batches from a scene for one frame.
// It owns the frame lifecycle:
//
//	BeginFrame -> ProcessVisibleDrawables -> ProcessVisibleLights ->
//	UpdateGeometries -> CollectBatches [-> CollectLightVolumeBatches]
//
// Each step fully completes before the next begins; the worker pool's
// Wait barrier separates parallel phases. A Collector serves one camera
// at a time and is not safe for concurrent frames.
type Collector struct {
	pool *parallel.Pool
	res  Resources
	opts options

	passes     []ScenePass
	shadowPass *ShadowPass

	callback Callback
	frame    scene.FrameInfo
	quality  scene.Quality
	workers  int

	evaluator ZRangeEvaluator

	visibleGeometries parallel.Sharded[scene.Drawable]
	visibleLightsTemp parallel.Sharded[*scene.Light]
	visibleLights     []*SceneLight
	mainLightIndex    int
	sceneZRange       SceneZRange

	shadowCasterUpdates parallel.Sharded[scene.Drawable]
	threadedUpdates     parallel.Sharded[scene.Drawable]
	mainThreadUpdates   parallel.Sharded[scene.Drawable]

	transient transientData

	lightVolumeBatches []LightVolumeBatch

	lightCache map[uint64]*cachedSceneLight

	// scratch reused across frames.
	geometrySnapshot []scene.Drawable
	casterSnapshot   []scene.Drawable
}

// NewCollector creates a collector running on the given worker pool with
// the given renderer resources.
func NewCollector(pool *parallel.Pool, res Resources, opts ...Option) *Collector {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Collector{
		pool:           pool,
		res:            res,
		opts:           o,
		mainLightIndex: NoMainLight,
		lightCache:     make(map[uint64]*cachedSceneLight),
	}
}

// AddPass registers a scene pass. Passes receive every source batch in
// registration order.
func (c *Collector) AddPass(pass ScenePass) {
	c.passes = append(c.passes, pass)
}

// SetShadowPass sets the shadow pass; nil disables shadow mapping.
func (c *Collector) SetShadowPass(pass *ShadowPass) {
	c.shadowPass = pass
}

// ResetPasses removes all registered scene passes.
func (c *Collector) ResetPasses() {
	c.passes = c.passes[:0]
}

// InvalidatePipelineStateCache drops every pass's cached pipeline states.
func (c *Collector) InvalidatePipelineStateCache() {
	if c.shadowPass != nil {
		c.shadowPass.InvalidatePipelineStateCache()
	}
	for _, pass := range c.passes {
		pass.InvalidatePipelineStateCache()
	}
}

// BeginFrame starts collecting a new frame for the given camera and
// callback. Resets all per-frame state and evicts cached lights not seen
// for longer than the configured generation window.
func (c *Collector) BeginFrame(frame scene.FrameInfo, callback Callback) {
	c.frame = frame
	c.callback = callback
	c.workers = c.pool.Workers()

	c.quality = c.res.Quality
	if frame.Camera.Overrides()&scene.OverrideLowMaterialQuality != 0 {
		c.quality = scene.QualityLow
	}

	c.evaluator = NewZRangeEvaluator(frame.Camera)

	c.visibleGeometries.Reset(c.workers)
	c.visibleLightsTemp.Reset(c.workers)
	c.sceneZRange.Reset(c.workers)
	c.shadowCasterUpdates.Reset(c.workers)
	c.threadedUpdates.Reset(c.workers)
	c.mainThreadUpdates.Reset(c.workers)

	c.visibleLights = c.visibleLights[:0]
	c.mainLightIndex = NoMainLight
	c.lightVolumeBatches = c.lightVolumeBatches[:0]

	c.transient.reset(frame.Index.NumDrawables())

	for id, entry := range c.lightCache {
		if frame.FrameNumber-entry.lastSeen > c.opts.lightCacheFrames {
			delete(c.lightCache, id)
		}
	}

	if c.shadowPass != nil {
		c.shadowPass.BeginFrame()
	}
	for _, pass := range c.passes {
		pass.BeginFrame(c.workers)
	}
}

// ProcessVisibleDrawables classifies the visible drawable set in parallel:
// geometry drawables refresh their batches, Z-range and zone and feed the
// scene passes; lights enter the visible-light set. Afterward lights are
// deduplicated and wrapped into cached SceneLight state.
func (c *Collector) ProcessVisibleDrawables(drawables []scene.Drawable) {
	parallel.ForEach(c.pool, c.opts.drawableWorkThreshold, drawables,
		func(worker, _ int, d scene.Drawable) {
			c.processDrawable(worker, d)
		})

	// Wrap lights, reusing cached state keyed by light ID. The shard
	// iteration order is not deterministic across runs, but the shadow
	// sort in ProcessVisibleLights re-establishes a total order before
	// anything user-visible depends on light indices.
	seen := make(map[uint64]struct{}, c.visibleLightsTemp.Len())
	c.visibleLightsTemp.Each(func(light *scene.Light) {
		id := light.ID()
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}

		entry := c.lightCache[id]
		if entry == nil {
			entry = &cachedSceneLight{sceneLight: NewSceneLight(light)}
			c.lightCache[id] = entry
		}
		entry.lastSeen = c.frame.FrameNumber
		c.visibleLights = append(c.visibleLights, entry.sceneLight)
	})
}

// processDrawable classifies one drawable on a worker.
func (c *Collector) processDrawable(worker int, d scene.Drawable) {
	index := d.Index()

	d.UpdateBatches(&c.frame)
	d.MarkInView(&c.frame)
	c.transient.updated[index].Store(true)

	// Too far away: contributes nothing this frame.
	if maxDistance := d.DrawDistance(); maxDistance > 0 && d.Distance() > maxDistance {
		return
	}

	switch {
	case d.Flags()&scene.FlagGeometry != 0:
		c.processGeometry(worker, d, index)
	case d.Flags()&scene.FlagLight != 0:
		light, ok := d.(*scene.Light)
		if !ok {
			return
		}
		// Black or masked-out lights contribute nothing.
		if light.EffectiveColor().IsBlack() || light.Mask() == 0 {
			return
		}
		c.visibleLightsTemp.Append(worker, light)
	}
}

func (c *Collector) processGeometry(worker int, d scene.Drawable, index int) {
	bounds := d.WorldBounds()
	c.refreshZone(d, bounds)

	// Unbounded objects like skyboxes must not distort shadow focusing:
	// store a far sentinel and keep them out of the scene range.
	zRange := c.evaluator.Evaluate(bounds)
	if !zRange.Valid() {
		c.transient.zRanges[index] = DrawableZRange{Min: LargeValue, Max: LargeValue}
	} else {
		c.transient.zRanges[index] = zRange
		c.sceneZRange.Accumulate(worker, zRange)
	}

	c.visibleGeometries.Append(worker, d)
	c.transient.traits[index] |= traitVisibleGeometry

	if d.UpdateMode() == scene.UpdateMainThread {
		c.mainThreadUpdates.Append(worker, d)
	} else {
		c.threadedUpdates.Append(worker, d)
	}

	batches := d.SourceBatches()
	for i := range batches {
		material := batches[i].Material
		if material == nil {
			material = c.res.DefaultMaterial
		}
		technique := material.FindTechnique(d, c.quality)
		if technique == nil {
			continue
		}
		for _, pass := range c.passes {
			if pass.AddSourceBatch(worker, d, i, technique) {
				c.transient.traits[index] |= traitForwardLit
			}
		}
	}

	c.transient.lighting[index].Reset(c.opts.maxPixelLights)
}

// refreshZone re-runs the zone query only when the drawable moved past its
// cache invalidation distance. A refresh dirties the drawable's pipeline
// state hash, since zone parameters feed the pipeline.
func (c *Collector) refreshZone(d scene.Drawable, bounds math32.Box3) {
	center := bounds.Center()
	cached := d.CachedZone()
	if !cached.Stale(center) {
		return
	}
	*cached = c.frame.Index.QueryZone(center, d.ZoneMask())
	d.StateTracker().MarkDirty()
}

// ProcessVisibleLights runs the per-frame light state machine, strictly
// ordered with barriers between the parallel steps:
//
//  1. BeginFrame each light, deciding shadow eligibility.
//  2. Parallel: compute lit geometries and shadow casters.
//  3. Finalize shadow-map footprints.
//  4. Sort lights by footprint, then allocate shadow maps biggest-first
//     and finalize shader parameters.
//  5. Parallel: update batches of casters that skipped classification.
//  6. Parallel: collect shadow batches per light split, then sort them.
//  7. Pick the main light and accumulate forward lighting per light.
func (c *Collector) ProcessVisibleLights() {
	shadowsEnabled := c.shadowPass != nil &&
		c.frame.Camera.Overrides()&scene.OverrideDisableShadows == 0

	for _, sl := range c.visibleLights {
		sl.BeginFrame(shadowsEnabled && c.callback.HasShadow(sl.Light()))
	}

	c.geometrySnapshot = c.visibleGeometries.Collect(c.geometrySnapshot[:0])
	ctx := &lightProcessContext{
		frame:             &c.frame,
		sceneZRange:       c.sceneZRange.Merged(),
		visibleGeometries: c.geometrySnapshot,
		traits:            c.transient.traits,
		zRanges:           c.transient.zRanges,
		updated:           c.transient.updated,
		casterUpdateQueue: &c.shadowCasterUpdates,
	}

	for _, sl := range c.visibleLights {
		c.pool.Post(func(worker int) {
			sl.UpdateLitGeometriesAndShadowCasters(worker, ctx)
		})
	}
	c.pool.Wait()

	for _, sl := range c.visibleLights {
		sl.FinalizeShadowMap()
	}

	// Deterministic allocation order: biggest footprint first, newest
	// light first among equals.
	sort.SliceStable(c.visibleLights, func(i, j int) bool {
		a, b := c.visibleLights[i], c.visibleLights[j]
		av, bv := a.shadowSortValue(), b.shadowSortValue()
		if av != bv {
			return av > bv
		}
		return a.Light().ID() > b.Light().ID()
	})

	for _, sl := range c.visibleLights {
		if size := sl.ShadowMapSize(); size != (math32.Vector2i{}) {
			region := c.callback.ShadowMap(size)
			if region.Empty() {
				Logger().Warn("shadow atlas exhausted, light falls back to unshadowed",
					slog.Uint64("light", sl.Light().ID()),
					slog.Int("width", int(size.X)), slog.Int("height", int(size.Y)))
			}
			sl.SetShadowMap(region)
		}
		sl.FinalizeShaderParameters(c.frame.Camera, 0)
	}

	c.updateShadowCasters()
	c.collectShadowBatches()

	c.mainLightIndex = c.findMainLight()

	for i := range c.visibleLights {
		c.accumulateForwardLighting(i)
	}
}

// updateShadowCasters refreshes batches and zones of casters that were not
// part of the visible set, under the same zone invalidation rule as
// classification.
func (c *Collector) updateShadowCasters() {
	c.casterSnapshot = c.shadowCasterUpdates.Collect(c.casterSnapshot[:0])
	parallel.ForEach(c.pool, 1, c.casterSnapshot,
		func(worker, _ int, d scene.Drawable) {
			d.UpdateBatches(&c.frame)
			d.MarkInView(&c.frame)
			c.refreshZone(d, d.WorldBounds())

			if d.UpdateMode() == scene.UpdateMainThread {
				c.mainThreadUpdates.Append(worker, d)
			} else {
				c.threadedUpdates.Append(worker, d)
			}
		})
}

// collectShadowBatches collects every light split in parallel, then sorts.
func (c *Collector) collectShadowBatches() {
	if c.shadowPass == nil {
		return
	}

	ctx := c.collectContext()
	for _, sl := range c.visibleLights {
		if !sl.HasShadow() {
			continue
		}
		for split := 0; split < sl.NumSplits(); split++ {
			c.pool.Post(func(int) {
				c.shadowPass.CollectSplitBatches(ctx, c.quality, sl, split)
			})
		}
	}
	c.pool.Wait()

	c.shadowPass.FinalizeShadowBatches(c.visibleLights)
}

// findMainLight returns the directional light with the highest intensity
// divisor, or NoMainLight. Ties keep the first (lowest index) light, which
// is deterministic after the shadow sort.
func (c *Collector) findMainLight() int {
	best := NoMainLight
	bestScore := float32(0)
	for i, sl := range c.visibleLights {
		light := sl.Light()
		if light.Type() != scene.LightDirectional {
			continue
		}
		if score := light.IntensityDivisor(); score > bestScore {
			bestScore = score
			best = i
		}
	}
	return best
}

// accumulateForwardLighting folds one light into the accumulators of its
// lit geometries. Lights run sequentially; geometries of one light are
// disjoint, so the inner loop parallelizes safely.
func (c *Collector) accumulateForwardLighting(lightIndex int) {
	sl := c.visibleLights[lightIndex]
	light := sl.Light()

	intensityPenalty := 1 / light.IntensityDivisor()
	isMain := lightIndex == c.mainLightIndex

	parallel.ForEach(c.pool, c.opts.litGeometryWorkThreshold, sl.LitGeometries(),
		func(_, _ int, geometry scene.Drawable) {
			index := geometry.Index()
			if c.transient.traits[index]&traitForwardLit == 0 {
				return
			}

			var penalty float32
			if isMain {
				// The main light always outranks everything.
				penalty = -LargeValue
			} else {
				distance := chewxy.Max(light.DistanceTo(geometry), LargeEpsilon)
				penalty = distance * intensityPenalty
			}
			c.transient.lighting[index].Accumulate(lightIndex, penalty)
		})
}

// UpdateGeometries finalizes drawable geometry: worker-safe updates run on
// the pool, main-thread updates run inline on the orchestrator.
func (c *Collector) UpdateGeometries() {
	c.geometrySnapshot = c.threadedUpdates.Collect(c.geometrySnapshot[:0])
	parallel.ForEach(c.pool, 1, c.geometrySnapshot,
		func(_, _ int, d scene.Drawable) {
			d.UpdateGeometry(&c.frame)
		})

	c.mainThreadUpdates.Each(func(d scene.Drawable) {
		d.UpdateGeometry(&c.frame)
	})
}

// CollectBatches emits and sorts every registered pass's batch lists.
func (c *Collector) CollectBatches() {
	ctx := c.collectContext()
	for _, pass := range c.passes {
		pass.CollectBatches(ctx)
		pass.SortBatches()
	}
}

// CollectLightVolumeBatches builds the deferred light-volume batch list.
// Optional; only meaningful when Resources.LightGeometry is set.
func (c *Collector) CollectLightVolumeBatches() {
	c.lightVolumeBatches = c.lightVolumeBatches[:0]
	if c.res.LightGeometry == nil {
		return
	}
	for i, sl := range c.visibleLights {
		geometry := c.res.LightGeometry(sl.Light())
		c.lightVolumeBatches = append(c.lightVolumeBatches, LightVolumeBatch{
			LightIndex: i,
			Geometry:   geometry,
			State:      c.callback.LightVolumeState(sl, geometry),
		})
	}
}

func (c *Collector) collectContext() *CollectContext {
	return &CollectContext{
		Camera:          c.frame.Camera,
		Callback:        c.callback,
		DefaultMaterial: c.res.DefaultMaterial,
		MainLightIndex:  c.mainLightIndex,
		Lights:          c.visibleLights,
		Lighting: func(drawableIndex int) *LightAccumulator {
			return &c.transient.lighting[drawableIndex]
		},
	}
}

// FrameInfo returns the frame being collected.
func (c *Collector) FrameInfo() *scene.FrameInfo { return &c.frame }

// MainLightIndex returns the main directional light's index into
// VisibleLights, or NoMainLight.
func (c *Collector) MainLightIndex() int { return c.mainLightIndex }

// MainLight returns the main light, or nil.
func (c *Collector) MainLight() *SceneLight {
	if c.mainLightIndex == NoMainLight {
		return nil
	}
	return c.visibleLights[c.mainLightIndex]
}

// VisibleLights returns the frame's lights in final order.
func (c *Collector) VisibleLights() []*SceneLight { return c.visibleLights }

// VisibleLight returns the i-th visible light.
func (c *Collector) VisibleLight(i int) *SceneLight { return c.visibleLights[i] }

// SceneZRange returns the merged frame depth range; invalid when nothing
// bounded was visible.
func (c *Collector) SceneZRange() DrawableZRange { return c.sceneZRange.Merged() }

// LightVolumeBatches returns the deferred light-volume batches.
func (c *Collector) LightVolumeBatches() []LightVolumeBatch { return c.lightVolumeBatches }

// PixelLights returns the drawable's ranked per-pixel lights as indices
// into VisibleLights. Valid after ProcessVisibleLights.
func (c *Collector) PixelLights(drawableIndex int) []AccumulatedLight {
	return c.transient.lighting[drawableIndex].PixelLights()
}

// VertexLightIndices returns the drawable's vertex light indices into
// VisibleLights, most significant first.
func (c *Collector) VertexLightIndices(drawableIndex int) []int {
	vertex := c.transient.lighting[drawableIndex].VertexLights()
	indices := make([]int, len(vertex))
	for i, v := range vertex {
		indices[i] = v.Index
	}
	return indices
}
