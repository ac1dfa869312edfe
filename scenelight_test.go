// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scenebatch

import (
	"testing"

	"cogentcore.org/core/math32"
	chewxy "github.com/chewxy/math32"

	"github.com/gogpu/scenebatch/scene"
	"github.com/gogpu/scenebatch/shadowmap"
)

func shadowmapRegion(page int, ox, oy, w, h int32) shadowmap.Region {
	return shadowmap.Region{
		Page:   page,
		Origin: math32.Vec2i(ox, oy),
		Size:   math32.Vec2i(w, h),
	}
}

// newShadowLight builds a shadow-casting light wrapped for one frame.
func newShadowLight(lightType scene.LightType) *SceneLight {
	light := scene.NewLight(0, lightType)
	light.SetCastShadows(true)
	sl := NewSceneLight(light)
	sl.BeginFrame(true)
	return sl
}

func dummyCaster(index int) scene.Drawable {
	return scene.NewStaticDrawable(index, math32.B3(-1, -1, -1, 1, 1, 1))
}

// =============================================================================
// Per-frame shadow gating
// =============================================================================

func TestSceneLightBeginFrameGating(t *testing.T) {
	light := scene.NewLight(0, scene.LightSpot)
	sl := NewSceneLight(light)

	// CastShadows is off by default.
	sl.BeginFrame(true)
	if sl.HasShadow() {
		t.Error("shadow enabled on a non-casting light")
	}

	light.SetCastShadows(true)
	sl.BeginFrame(true)
	if !sl.HasShadow() {
		t.Error("shadow not enabled on a casting light")
	}

	sl.BeginFrame(false)
	if sl.HasShadow() {
		t.Error("shadow enabled against the pipeline's wishes")
	}

	light.SetImportance(scene.ImportanceNotImportant)
	sl.BeginFrame(true)
	if sl.HasShadow() {
		t.Error("shadow enabled on an unimportant light")
	}
}

func TestSceneLightSplitCounts(t *testing.T) {
	tests := []struct {
		lightType scene.LightType
		cascades  int
		want      int
	}{
		{scene.LightDirectional, 1, 1},
		{scene.LightDirectional, 4, 4},
		{scene.LightPoint, 1, 6},
		{scene.LightSpot, 1, 1},
	}
	for _, tt := range tests {
		light := scene.NewLight(0, tt.lightType)
		light.SetNumCascades(tt.cascades)
		sl := NewSceneLight(light)
		sl.BeginFrame(false)
		if got := sl.NumSplits(); got != tt.want {
			t.Errorf("type %v cascades %d: splits = %d, want %d",
				tt.lightType, tt.cascades, got, tt.want)
		}
	}
}

// =============================================================================
// Shadow-map footprints
// =============================================================================

func TestSceneLightShadowFootprints(t *testing.T) {
	tests := []struct {
		name      string
		lightType scene.LightType
		cascades  int
		want      math32.Vector2i
	}{
		// Cascades side by side, cube faces in a 3x2 grid, spot square.
		{"directional", scene.LightDirectional, 2, math32.Vec2i(1024, 512)},
		{"point", scene.LightPoint, 1, math32.Vec2i(1536, 1024)},
		{"spot", scene.LightSpot, 1, math32.Vec2i(512, 512)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sl := newShadowLight(tt.lightType)
			sl.light.SetNumCascades(tt.cascades)
			sl.BeginFrame(true)

			sl.sceneZRange = DrawableZRange{Min: 1, Max: 100}
			sl.casters = append(sl.casters, dummyCaster(0))
			sl.casterRanges = append(sl.casterRanges, DrawableZRange{Min: 5, Max: 10})

			sl.FinalizeShadowMap()
			if !sl.HasShadow() {
				t.Fatal("light lost its shadow despite having casters")
			}
			if got := sl.ShadowMapSize(); got != tt.want {
				t.Errorf("footprint = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSceneLightNoCastersDropsShadow(t *testing.T) {
	sl := newShadowLight(scene.LightSpot)
	sl.FinalizeShadowMap()

	if sl.HasShadow() {
		t.Error("shadow kept with no casters")
	}
	if sl.ShadowMapSize() != (math32.Vector2i{}) {
		t.Errorf("footprint = %v, want zero", sl.ShadowMapSize())
	}
}

// =============================================================================
// Cascade splitting
// =============================================================================

func TestSceneLightSplitDirectionalCasters(t *testing.T) {
	sl := newShadowLight(scene.LightDirectional)
	sl.light.SetNumCascades(2)
	sl.BeginFrame(true)

	sl.sceneZRange = DrawableZRange{Min: 0, Max: 100}

	near := dummyCaster(0)
	straddling := dummyCaster(1)
	unbounded := dummyCaster(2)
	sl.casters = append(sl.casters, near, straddling, unbounded)
	sl.casterRanges = append(sl.casterRanges,
		DrawableZRange{Min: 10, Max: 20},
		DrawableZRange{Min: 40, Max: 60},
		// Skybox sentinel: beyond every cascade.
		DrawableZRange{Min: LargeValue, Max: LargeValue},
	)

	sl.FinalizeShadowMap()

	if got := sl.Split(0).ZRange; got != (DrawableZRange{Min: 0, Max: 50}) {
		t.Errorf("cascade 0 range = %+v, want {0 50}", got)
	}
	if got := sl.Split(1).ZRange; got != (DrawableZRange{Min: 50, Max: 100}) {
		t.Errorf("cascade 1 range = %+v, want {50 100}", got)
	}

	checkCasters := func(split int, want ...scene.Drawable) {
		t.Helper()
		got := sl.Split(split).Casters
		if len(got) != len(want) {
			t.Fatalf("cascade %d: %d casters, want %d", split, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("cascade %d caster %d mismatch", split, i)
			}
		}
	}
	checkCasters(0, near, straddling)
	checkCasters(1, straddling)
}

func TestSceneLightSplitRespectsShadowDistance(t *testing.T) {
	sl := newShadowLight(scene.LightDirectional)
	sl.light.SetNumCascades(2)
	sl.light.SetShadowDistance(50)
	sl.BeginFrame(true)

	sl.sceneZRange = DrawableZRange{Min: 0, Max: 200}
	sl.casters = append(sl.casters, dummyCaster(0))
	sl.casterRanges = append(sl.casterRanges, DrawableZRange{Min: 10, Max: 20})

	sl.FinalizeShadowMap()

	if got := sl.Split(1).ZRange.Max; got != 50 {
		t.Errorf("last cascade ends at %v, want the shadow distance 50", got)
	}
}

// =============================================================================
// Shadow-map carving
// =============================================================================

func TestSceneLightSetShadowMapPointGrid(t *testing.T) {
	sl := newShadowLight(scene.LightPoint)
	sl.casters = append(sl.casters, dummyCaster(0))
	sl.FinalizeShadowMap()

	sl.SetShadowMap(shadowmapRegion(1, 64, 32, 1536, 1024))

	for i := 0; i < 6; i++ {
		r := sl.Split(i).Region
		wantOrigin := math32.Vec2i(64+int32(i%3)*512, 32+int32(i/3)*512)
		if r.Page != 1 || r.Origin != wantOrigin || r.Size != math32.Vec2i(512, 512) {
			t.Errorf("face %d region = %+v, want origin %v size {512 512} on page 1",
				i, r, wantOrigin)
		}
	}
}

func TestSceneLightSetShadowMapDirectionalStrip(t *testing.T) {
	sl := newShadowLight(scene.LightDirectional)
	sl.light.SetNumCascades(2)
	sl.BeginFrame(true)
	sl.sceneZRange = DrawableZRange{Min: 0, Max: 10}
	sl.casters = append(sl.casters, dummyCaster(0))
	sl.casterRanges = append(sl.casterRanges, DrawableZRange{Min: 1, Max: 2})
	sl.FinalizeShadowMap()

	sl.SetShadowMap(shadowmapRegion(0, 0, 0, 1024, 512))

	if got := sl.Split(0).Region.Origin; got != math32.Vec2i(0, 0) {
		t.Errorf("cascade 0 origin = %v, want {0 0}", got)
	}
	if got := sl.Split(1).Region.Origin; got != math32.Vec2i(512, 0) {
		t.Errorf("cascade 1 origin = %v, want {512 0}", got)
	}
}

func TestSceneLightSetShadowMapEmptyDegrades(t *testing.T) {
	sl := newShadowLight(scene.LightSpot)
	sl.casters = append(sl.casters, dummyCaster(0))
	sl.FinalizeShadowMap()

	sl.SetShadowMap(shadowmapRegion(0, 0, 0, 0, 0))

	if sl.HasShadow() {
		t.Error("empty region must degrade the light to unshadowed")
	}
}

// =============================================================================
// Shader parameters
// =============================================================================

func TestSceneLightSpotParameters(t *testing.T) {
	sl := newShadowLight(scene.LightSpot)
	sl.light.SetRange(20)
	sl.light.SetFOV(90)
	sl.casters = append(sl.casters, dummyCaster(0))
	sl.FinalizeShadowMap()
	sl.SetShadowMap(shadowmapRegion(0, 0, 0, 512, 512))

	sl.FinalizeShaderParameters(scene.NewCamera(), 0)
	p := sl.Parameters()

	if got, want := p.InverseRange, float32(1.0/20); chewxy.Abs(got-want) > 1e-6 {
		t.Errorf("InverseRange = %v, want %v", got, want)
	}
	wantCutoff := chewxy.Cos(45 * chewxy.Pi / 180)
	if chewxy.Abs(p.SpotCutoff-wantCutoff) > 1e-5 {
		t.Errorf("SpotCutoff = %v, want %v", p.SpotCutoff, wantCutoff)
	}
	if p.NumSplits != 1 {
		t.Errorf("NumSplits = %d, want 1", p.NumSplits)
	}
}

func TestSceneLightDirectionalParameters(t *testing.T) {
	light := scene.NewLight(0, scene.LightDirectional)
	sl := NewSceneLight(light)
	sl.BeginFrame(false)

	sl.FinalizeShaderParameters(scene.NewCamera(), 0)
	p := sl.Parameters()

	if p.InverseRange != 0 {
		t.Errorf("InverseRange = %v, want 0 for directional", p.InverseRange)
	}
	if p.NumSplits != 0 {
		t.Errorf("NumSplits = %d, want 0 without a shadow map", p.NumSplits)
	}
}

func TestSceneLightShadowFade(t *testing.T) {
	sl := newShadowLight(scene.LightPoint)
	sl.light.SetPosition(math32.Vec3(0, 0, -90))
	sl.light.SetShadowDistance(100)
	sl.light.SetShadowIntensity(0.2)

	camera := scene.NewCamera() // at the origin

	// Beyond 80% of the shadow distance the fade term takes over.
	got := sl.shadowFade(camera)
	if chewxy.Abs(got-0.5) > 1e-5 {
		t.Errorf("fade at distance 90 = %v, want 0.5", got)
	}

	sl.light.SetPosition(math32.Vec3(0, 0, -50))
	if got := sl.shadowFade(camera); got != 0.2 {
		t.Errorf("fade inside the stable zone = %v, want base intensity 0.2", got)
	}
}
