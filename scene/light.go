// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"sync/atomic"

	"cogentcore.org/core/math32"
	chewxy "github.com/chewxy/math32"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightDirectional is a light with no position, only direction, used
	// for sun and moon. No distance attenuation.
	LightDirectional LightType = iota

	// LightPoint emits in all directions from a position, attenuating up
	// to a configurable range.
	LightPoint

	// LightSpot emits in a cone from a position along a direction.
	LightSpot
)

// LightImportance biases per-drawable light ranking and shadow eligibility.
type LightImportance int

const (
	// ImportanceAuto ranks the light purely by its distance penalty.
	ImportanceAuto LightImportance = iota

	// ImportanceImportant prefers the light when budgets are tight.
	ImportanceImportant

	// ImportanceNotImportant disqualifies the light from shadows.
	ImportanceNotImportant
)

// lightIDCounter hands out monotonic light identifiers. IDs order lights
// deterministically wherever sizes tie.
var lightIDCounter atomic.Uint64

// Light is a light-source drawable. It participates in visibility like any
// drawable but is routed to light processing instead of batch building.
type Light struct {
	StaticDrawable

	id        uint64
	lightType LightType

	position  math32.Vector3
	direction math32.Vector3

	color      Color
	brightness float32
	mask       uint32

	rangeDist float32
	fov       float32

	specularIntensity float32
	importance        LightImportance

	shadowDistance   float32
	shadowIntensity  float32
	shadowResolution int
	numCascades      int
}

// NewLight creates a light with the given dense drawable index. Defaults:
// white color, brightness 1, full light mask, range 10, 90 degree spot FOV,
// shadow resolution 512, a single cascade for directional lights.
func NewLight(index int, lightType LightType) *Light {
	l := &Light{
		id:               lightIDCounter.Add(1),
		lightType:        lightType,
		direction:        math32.Vec3(0, -1, 0),
		color:            White,
		brightness:       1,
		mask:             ^uint32(0),
		rangeDist:        10,
		fov:              90,
		shadowIntensity:  0,
		shadowResolution: 512,
		numCascades:      1,
	}
	l.StaticDrawable.init(index, math32.Box3{})
	l.SetFlags(FlagLight)
	l.SetCastShadows(false)
	l.updateBounds()
	return l
}

// updateBounds keeps the world bounding box in sync with the light volume.
// Directional lights are unbounded and use a large box so that every
// frustum query sees them.
func (l *Light) updateBounds() {
	switch l.lightType {
	case LightDirectional:
		const big = 1e8
		l.SetWorldBounds(math32.B3(-big, -big, -big, big, big, big))
	case LightPoint:
		r := l.rangeDist
		l.SetWorldBounds(math32.Box3{
			Min: l.position.Sub(math32.Vec3(r, r, r)),
			Max: l.position.Add(math32.Vec3(r, r, r)),
		})
	case LightSpot:
		// Conservative: the cone fits inside the sphere of its range.
		r := l.rangeDist
		l.SetWorldBounds(math32.Box3{
			Min: l.position.Sub(math32.Vec3(r, r, r)),
			Max: l.position.Add(math32.Vec3(r, r, r)),
		})
	}
}

// ID returns the light's monotonic identifier.
func (l *Light) ID() uint64 { return l.id }

// Type returns the kind of light source.
func (l *Light) Type() LightType { return l.lightType }

// Position returns the light's world position (meaningless for
// directional lights).
func (l *Light) Position() math32.Vector3 { return l.position }

// SetPosition moves the light.
func (l *Light) SetPosition(p math32.Vector3) {
	l.position = p
	l.updateBounds()
}

// Direction returns the normalized emission direction.
func (l *Light) Direction() math32.Vector3 { return l.direction }

// SetDirection sets the emission direction.
func (l *Light) SetDirection(d math32.Vector3) { l.direction = d.Normal() }

// Color returns the base color.
func (l *Light) Color() Color { return l.color }

// SetColor sets the base color.
func (l *Light) SetColor(c Color) { l.color = c }

// Brightness returns the brightness multiplier.
func (l *Light) Brightness() float32 { return l.brightness }

// SetBrightness sets the brightness multiplier.
func (l *Light) SetBrightness(b float32) { l.brightness = b }

// EffectiveColor returns color scaled by brightness. A light whose
// effective color is black contributes nothing and is skipped.
func (l *Light) EffectiveColor() Color { return l.color.MulScalar(l.brightness) }

// Mask returns the light mask matched against drawable light masks.
// A zero mask means the light affects nothing.
func (l *Light) Mask() uint32 { return l.mask }

// SetMask sets the light mask.
func (l *Light) SetMask(mask uint32) { l.mask = mask }

// Range returns the attenuation range for point and spot lights.
func (l *Light) Range() float32 { return l.rangeDist }

// SetRange sets the attenuation range.
func (l *Light) SetRange(r float32) {
	l.rangeDist = r
	l.updateBounds()
}

// FOV returns the spot cone angle in degrees.
func (l *Light) FOV() float32 { return l.fov }

// SetFOV sets the spot cone angle in degrees.
func (l *Light) SetFOV(fov float32) { l.fov = fov }

// SpecularIntensity returns the specular highlight multiplier.
func (l *Light) SpecularIntensity() float32 { return l.specularIntensity }

// SetSpecularIntensity sets the specular highlight multiplier.
func (l *Light) SetSpecularIntensity(s float32) { l.specularIntensity = s }

// Importance returns the ranking bias.
func (l *Light) Importance() LightImportance { return l.importance }

// SetImportance sets the ranking bias.
func (l *Light) SetImportance(imp LightImportance) { l.importance = imp }

// ShadowDistance returns the camera distance beyond which the light stops
// casting shadows; zero disables the limit.
func (l *Light) ShadowDistance() float32 { return l.shadowDistance }

// SetShadowDistance sets the shadow fade-out distance.
func (l *Light) SetShadowDistance(d float32) { l.shadowDistance = d }

// ShadowIntensity returns the shadow blend factor in [0, 1];
// 1 means shadows are fully faded out.
func (l *Light) ShadowIntensity() float32 { return l.shadowIntensity }

// SetShadowIntensity sets the shadow blend factor.
func (l *Light) SetShadowIntensity(v float32) { l.shadowIntensity = v }

// ShadowResolution returns the per-split shadow map resolution in texels.
func (l *Light) ShadowResolution() int { return l.shadowResolution }

// SetShadowResolution sets the per-split shadow map resolution.
func (l *Light) SetShadowResolution(texels int) { l.shadowResolution = texels }

// NumCascades returns the number of cascade splits for directional lights.
func (l *Light) NumCascades() int { return l.numCascades }

// SetNumCascades sets the cascade count, clamped to [1, 4].
func (l *Light) SetNumCascades(n int) {
	if n < 1 {
		n = 1
	}
	if n > 4 {
		n = 4
	}
	l.numCascades = n
}

// IntensityDivisor scores how strongly the light shines: higher divisors
// shrink the distance penalty during per-drawable ranking. Never returns
// zero, so penalty math cannot divide by zero.
func (l *Light) IntensityDivisor() float32 {
	return chewxy.Max(l.EffectiveColor().Luminance(), 1e-6)
}

// DistanceTo returns the distance from the light to a drawable's center.
// Directional lights have no position and return zero; the accumulator
// clamps it up to a small epsilon.
func (l *Light) DistanceTo(d Drawable) float32 {
	if l.lightType == LightDirectional {
		return 0
	}
	return l.position.DistanceTo(d.WorldBounds().Center())
}

// Sphere returns the bounding sphere of the light volume for point and
// spot lights.
func (l *Light) Sphere() math32.Sphere {
	return math32.Sphere{Center: l.position, Radius: l.rangeDist}
}

// Frustum returns the world-space cone frustum of a spot light, or nil for
// other light types.
func (l *Light) Frustum() *math32.Frustum {
	if l.lightType != LightSpot {
		return nil
	}
	up := math32.Vec3(0, 1, 0)
	if chewxy.Abs(l.direction.Y) > 0.99 {
		up = math32.Vec3(1, 0, 0)
	}
	view := viewMatrix(l.position, l.position.Add(l.direction), up)
	var proj math32.Matrix4
	proj.SetPerspective(l.fov, 1, chewxy.Max(l.rangeDist*1e-3, 1e-3), l.rangeDist)
	var vp math32.Matrix4
	vp.MulMatrices(&proj, &view)
	return math32.NewFrustumFromMatrix(&vp)
}

// UpdateBatches implements Drawable: lights track camera distance from
// their position; directional lights are everywhere and use distance zero.
func (l *Light) UpdateBatches(frame *FrameInfo) {
	if l.lightType == LightDirectional {
		l.distance = 0
		return
	}
	l.distance = frame.Camera.DistanceTo(l.position)
}
