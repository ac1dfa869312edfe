// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scenebatch

import (
	"sync"

	"github.com/gogpu/scenebatch/parallel"
	"github.com/gogpu/scenebatch/scene"
)

// CollectContext is the frame state passes read while turning their
// accumulated source batches into final batch lists.
type CollectContext struct {
	// Camera is the viewpoint the frame is collected for.
	Camera *scene.Camera

	// Callback builds pipeline states on cache misses.
	Callback Callback

	// DefaultMaterial stands in for source batches with a nil material.
	DefaultMaterial *scene.Material

	// MainLightIndex is the frame's main directional light, or NoMainLight.
	MainLightIndex int

	// Lights are the frame's visible lights in final (post-sort) order.
	Lights []*SceneLight

	// Lighting returns the drawable's light accumulator.
	Lighting func(drawableIndex int) *LightAccumulator
}

// ScenePass accumulates (drawable, source batch, technique) triples during
// parallel classification and emits sorted batch lists afterward. A pass
// lives across frames; per-frame state resets in BeginFrame.
type ScenePass interface {
	// BeginFrame resets per-frame state, sized for the worker count.
	BeginFrame(workers int)

	// AddSourceBatch offers one source batch to the pass. Called from
	// worker goroutines; implementations append to per-worker scratch
	// only. Returns true if the batch is affected by dynamic lighting.
	AddSourceBatch(worker int, d scene.Drawable, sourceIndex int, tech *scene.Technique) bool

	// CollectBatches turns accumulated source batches into final batches.
	// Called on the orchestrator after light processing.
	CollectBatches(ctx *CollectContext)

	// SortBatches orders the final batch lists with the pass's sort key.
	SortBatches()

	// InvalidatePipelineStateCache drops cached pipeline states, e.g.
	// after a render-target format change.
	InvalidatePipelineStateCache()
}

// sourceBatch is one scratch entry accumulated during classification.
type sourceBatch struct {
	drawable    scene.Drawable
	sourceIndex int
	pass        *scene.TechniquePass
}

// litSourceBatch carries every pass variant a lit drawable may render
// with; the winner is decided once lighting is known.
type litSourceBatch struct {
	drawable    scene.Drawable
	sourceIndex int
	basePass    *scene.TechniquePass
	litBasePass *scene.TechniquePass
	lightPass   *scene.TechniquePass
}

// pipelineCache caches pipeline states by batch state key with
// double-check locking, so shadow splits can populate it concurrently.
// Nil results are cached too: a callback that declines a key once is not
// asked again until invalidation.
type pipelineCache struct {
	mu     sync.RWMutex
	states map[BatchStateKey]*PipelineStateDesc
}

func (c *pipelineCache) get(cb Callback, key BatchStateKey, ctx BatchStateContext) *PipelineStateDesc {
	c.mu.RLock()
	state, ok := c.states[key]
	c.mu.RUnlock()
	if ok {
		return state
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if state, ok := c.states[key]; ok {
		return state
	}
	if c.states == nil {
		c.states = make(map[BatchStateKey]*PipelineStateDesc)
	}
	state = cb.PipelineState(key, ctx)
	c.states[key] = state
	return state
}

func (c *pipelineCache) invalidate() {
	c.mu.Lock()
	c.states = nil
	c.mu.Unlock()
}

// makeBatch resolves one scratch entry into a final batch. Reports false
// when the callback supplies no pipeline state for the key; such batches
// are dropped.
func makeBatch(ctx *CollectContext, cache *pipelineCache,
	d scene.Drawable, sourceIndex int, pass *scene.TechniquePass,
	lightIndex int, shadow bool, split int) (Batch, bool) {

	src := &d.SourceBatches()[sourceIndex]
	material := src.Material
	if material == nil {
		material = ctx.DefaultMaterial
	}

	key := BatchStateKey{
		Pass:         pass,
		Geometry:     src.Geometry,
		Material:     material,
		DrawableHash: d.StateTracker().Hash(),
	}
	stateCtx := BatchStateContext{
		Camera:   ctx.Camera,
		Drawable: d,
		Shadow:   shadow,
		Split:    split,
	}
	if lightIndex != NoLight {
		light := ctx.Lights[lightIndex]
		key.LightID = light.Light().ID()
		stateCtx.Light = light
	}

	state := cache.get(ctx.Callback, key, stateCtx)
	if state == nil {
		return Batch{}, false
	}

	return Batch{
		Drawable:    d,
		SourceIndex: sourceIndex,
		Geometry:    src.Geometry,
		Material:    material,
		Pass:        pass,
		LightIndex:  lightIndex,
		Distance:    d.Distance(),
		State:       state,
		stateHash:   state.Hash(),
	}, true
}

// UnlitPass collects batches for a single technique pass that ignores
// dynamic lighting, e.g. a depth prepass or a custom post-geometry pass.
type UnlitPass struct {
	passName    string
	backToFront bool

	scratch parallel.Sharded[sourceBatch]
	batches []Batch
	cache   pipelineCache
}

// NewUnlitPass creates a pass collecting the named technique pass.
// backToFront selects transparent-style distance sorting.
func NewUnlitPass(passName string, backToFront bool) *UnlitPass {
	return &UnlitPass{passName: passName, backToFront: backToFront}
}

// BeginFrame implements ScenePass.
func (p *UnlitPass) BeginFrame(workers int) {
	p.scratch.Reset(workers)
	p.batches = p.batches[:0]
}

// AddSourceBatch implements ScenePass. Unlit batches never report lit.
func (p *UnlitPass) AddSourceBatch(worker int, d scene.Drawable, sourceIndex int, tech *scene.Technique) bool {
	pass := tech.Pass(p.passName)
	if pass == nil {
		return false
	}
	p.scratch.Append(worker, sourceBatch{drawable: d, sourceIndex: sourceIndex, pass: pass})
	return false
}

// CollectBatches implements ScenePass.
func (p *UnlitPass) CollectBatches(ctx *CollectContext) {
	p.scratch.Each(func(s sourceBatch) {
		if b, ok := makeBatch(ctx, &p.cache, s.drawable, s.sourceIndex, s.pass, NoLight, false, 0); ok {
			p.batches = append(p.batches, b)
		}
	})
}

// SortBatches implements ScenePass.
func (p *UnlitPass) SortBatches() {
	if p.backToFront {
		sortBackToFront(p.batches)
	} else {
		sortFrontToBack(p.batches)
	}
}

// InvalidatePipelineStateCache implements ScenePass.
func (p *UnlitPass) InvalidatePipelineStateCache() { p.cache.invalidate() }

// Batches returns the sorted batch list, valid until the next BeginFrame.
func (p *UnlitPass) Batches() []Batch { return p.batches }

// ForwardLightingPass collects forward-rendered geometry as a base list
// plus additive per-light batches. A technique may provide a combined
// "lit base" pass rendering ambient and the main light together; when it
// does and the main light is the drawable's top-ranked light, one lit-base
// batch replaces the base batch and the main light's additive batch.
type ForwardLightingPass struct {
	baseName    string
	litBaseName string
	lightName   string
	backToFront bool

	unlitScratch parallel.Sharded[sourceBatch]
	litScratch   parallel.Sharded[litSourceBatch]

	baseBatches  []Batch
	lightBatches []Batch
	cache        pipelineCache
}

// NewForwardLightingPass creates a forward pass over a base/litbase/light
// pass triple. litBaseName may be empty when techniques have no combined
// pass. backToFront selects transparent-style sorting for the base list.
func NewForwardLightingPass(baseName, litBaseName, lightName string, backToFront bool) *ForwardLightingPass {
	return &ForwardLightingPass{
		baseName:    baseName,
		litBaseName: litBaseName,
		lightName:   lightName,
		backToFront: backToFront,
	}
}

// NewOpaqueForwardPass creates the standard opaque forward pass over the
// base, litbase and light technique passes.
func NewOpaqueForwardPass() *ForwardLightingPass {
	return NewForwardLightingPass(scene.PassBase, scene.PassLitBase, scene.PassLight, false)
}

// NewAlphaForwardPass creates the transparent forward pass over the alpha
// and light technique passes, sorted back to front.
func NewAlphaForwardPass() *ForwardLightingPass {
	return NewForwardLightingPass(scene.PassAlpha, "", scene.PassLight, true)
}

// BeginFrame implements ScenePass.
func (p *ForwardLightingPass) BeginFrame(workers int) {
	p.unlitScratch.Reset(workers)
	p.litScratch.Reset(workers)
	p.baseBatches = p.baseBatches[:0]
	p.lightBatches = p.lightBatches[:0]
}

// AddSourceBatch implements ScenePass. A batch is lit when its technique
// carries the per-light pass.
func (p *ForwardLightingPass) AddSourceBatch(worker int, d scene.Drawable, sourceIndex int, tech *scene.Technique) bool {
	basePass := tech.Pass(p.baseName)
	lightPass := tech.Pass(p.lightName)

	if lightPass == nil {
		if basePass != nil {
			p.unlitScratch.Append(worker, sourceBatch{drawable: d, sourceIndex: sourceIndex, pass: basePass})
		}
		return false
	}

	lit := litSourceBatch{
		drawable:    d,
		sourceIndex: sourceIndex,
		basePass:    basePass,
		lightPass:   lightPass,
	}
	if p.litBaseName != "" {
		lit.litBasePass = tech.Pass(p.litBaseName)
	}
	p.litScratch.Append(worker, lit)
	return true
}

// CollectBatches implements ScenePass: merges each lit drawable's winning
// lights from its accumulator into the batch lists.
func (p *ForwardLightingPass) CollectBatches(ctx *CollectContext) {
	p.unlitScratch.Each(func(s sourceBatch) {
		if b, ok := makeBatch(ctx, &p.cache, s.drawable, s.sourceIndex, s.pass, NoLight, false, 0); ok {
			p.baseBatches = append(p.baseBatches, b)
		}
	})

	p.litScratch.Each(func(s litSourceBatch) {
		accum := ctx.Lighting(s.drawable.Index())
		pixelLights := accum.PixelLights()

		mainIsFirst := ctx.MainLightIndex != NoMainLight &&
			len(pixelLights) > 0 && pixelLights[0].Index == ctx.MainLightIndex

		if s.litBasePass != nil && mainIsFirst {
			if b, ok := makeBatch(ctx, &p.cache, s.drawable, s.sourceIndex, s.litBasePass,
				ctx.MainLightIndex, false, 0); ok {
				p.baseBatches = append(p.baseBatches, b)
			}
			pixelLights = pixelLights[1:]
		} else if s.basePass != nil {
			if b, ok := makeBatch(ctx, &p.cache, s.drawable, s.sourceIndex, s.basePass,
				NoLight, false, 0); ok {
				p.baseBatches = append(p.baseBatches, b)
			}
		}

		for _, pl := range pixelLights {
			if b, ok := makeBatch(ctx, &p.cache, s.drawable, s.sourceIndex, s.lightPass,
				pl.Index, false, 0); ok {
				p.lightBatches = append(p.lightBatches, b)
			}
		}
	})
}

// SortBatches implements ScenePass: the base list sorts by the pass's
// distance order, the additive list groups by light first.
func (p *ForwardLightingPass) SortBatches() {
	if p.backToFront {
		sortBackToFront(p.baseBatches)
	} else {
		sortFrontToBack(p.baseBatches)
	}
	sortByLight(p.lightBatches)
}

// InvalidatePipelineStateCache implements ScenePass.
func (p *ForwardLightingPass) InvalidatePipelineStateCache() { p.cache.invalidate() }

// BaseBatches returns the sorted base batch list (unlit base and lit base
// batches), valid until the next BeginFrame.
func (p *ForwardLightingPass) BaseBatches() []Batch { return p.baseBatches }

// LightBatches returns the sorted additive per-light batch list.
func (p *ForwardLightingPass) LightBatches() []Batch { return p.lightBatches }

// ShadowPass collects shadow-caster batches into each light's splits.
// Split collection runs on workers, one task per (light, split); the
// pipeline state cache is the only shared state and is mutex-guarded.
type ShadowPass struct {
	passName string
	cache    pipelineCache
}

// NewShadowPass creates a shadow pass over the named technique pass,
// normally scene.PassShadow.
func NewShadowPass(passName string) *ShadowPass {
	return &ShadowPass{passName: passName}
}

// BeginFrame resets per-frame state. Split batch lists live on the scene
// lights and are reset by SceneLight.BeginFrame.
func (p *ShadowPass) BeginFrame() {}

// CollectSplitBatches collects the shadow batches of one light split.
// Safe to run concurrently for distinct (light, split) pairs.
func (p *ShadowPass) CollectSplitBatches(ctx *CollectContext, quality scene.Quality, light *SceneLight, splitIndex int) {
	split := light.Split(splitIndex)

	for _, caster := range split.Casters {
		batches := caster.SourceBatches()
		for i := range batches {
			material := batches[i].Material
			if material == nil {
				material = ctx.DefaultMaterial
			}
			tech := material.FindTechnique(caster, quality)
			if tech == nil {
				continue
			}
			pass := tech.Pass(p.passName)
			if pass == nil {
				continue
			}

			key := BatchStateKey{
				Pass:         pass,
				Geometry:     batches[i].Geometry,
				Material:     material,
				DrawableHash: caster.StateTracker().Hash(),
				LightID:      light.Light().ID(),
			}
			stateCtx := BatchStateContext{
				Camera:   ctx.Camera,
				Drawable: caster,
				Light:    light,
				Shadow:   true,
				Split:    splitIndex,
			}
			state := p.cache.get(ctx.Callback, key, stateCtx)
			if state == nil {
				continue
			}

			split.Batches = append(split.Batches, Batch{
				Drawable:    caster,
				SourceIndex: i,
				Geometry:    batches[i].Geometry,
				Material:    material,
				Pass:        pass,
				LightIndex:  NoLight,
				Distance:    caster.Distance(),
				State:       state,
				stateHash:   state.Hash(),
			})
		}
	}
}

// FinalizeShadowBatches sorts every split's batches. Runs on the
// orchestrator after the split-collection barrier.
func (p *ShadowPass) FinalizeShadowBatches(lights []*SceneLight) {
	for _, light := range lights {
		if !light.HasShadow() {
			continue
		}
		for i := 0; i < light.NumSplits(); i++ {
			sortFrontToBack(light.Split(i).Batches)
		}
	}
}

// InvalidatePipelineStateCache drops cached shadow pipeline states.
func (p *ShadowPass) InvalidatePipelineStateCache() { p.cache.invalidate() }
