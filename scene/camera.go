// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import "cogentcore.org/core/math32"

// OverrideFlags adjust collection behavior for a single camera without
// touching global settings, e.g. a reflection camera rendering at low
// material quality with shadows disabled.
type OverrideFlags uint32

const (
	// OverrideLowMaterialQuality forces the lowest material quality tier.
	OverrideLowMaterialQuality OverrideFlags = 1 << iota

	// OverrideDisableShadows skips shadow processing for this camera.
	OverrideDisableShadows
)

// Camera describes the viewpoint a frame is collected for: view and
// projection transforms, the derived culling frustum, and per-view
// override flags.
//
// Camera is not safe for concurrent mutation; the collector only reads it
// during a frame.
type Camera struct {
	position math32.Vector3
	view     math32.Matrix4
	proj     math32.Matrix4
	frustum  *math32.Frustum

	fov    float32
	aspect float32
	near   float32
	far    float32

	overrides      OverrideFlags
	reverseCulling bool
}

// NewCamera returns a camera at the origin looking down -Z with a default
// perspective projection.
func NewCamera() *Camera {
	c := &Camera{}
	c.view.SetIdentity()
	c.SetPerspective(60, 1, 0.1, 1000)
	return c
}

// SetPerspective sets a perspective projection.
// fov is the vertical field of view in degrees.
func (c *Camera) SetPerspective(fov, aspect, near, far float32) {
	c.fov, c.aspect, c.near, c.far = fov, aspect, near, far
	c.proj.SetPerspective(fov, aspect, near, far)
	c.updateFrustum()
}

// LookAt places the camera at eye looking toward target, recomputing the
// view matrix and culling frustum.
func (c *Camera) LookAt(eye, target, up math32.Vector3) {
	c.position = eye
	c.view = viewMatrix(eye, target, up)
	c.updateFrustum()
}

func (c *Camera) updateFrustum() {
	var vp math32.Matrix4
	vp.MulMatrices(&c.proj, &c.view)
	c.frustum = math32.NewFrustumFromMatrix(&vp)
}

// Position returns the camera's world-space position.
func (c *Camera) Position() math32.Vector3 { return c.position }

// View returns the view matrix (world to view space).
func (c *Camera) View() *math32.Matrix4 { return &c.view }

// Projection returns the projection matrix.
func (c *Camera) Projection() *math32.Matrix4 { return &c.proj }

// Frustum returns the world-space culling frustum.
func (c *Camera) Frustum() *math32.Frustum { return c.frustum }

// NearClip returns the near plane distance.
func (c *Camera) NearClip() float32 { return c.near }

// FarClip returns the far plane distance.
func (c *Camera) FarClip() float32 { return c.far }

// Overrides returns the per-view override flags.
func (c *Camera) Overrides() OverrideFlags { return c.overrides }

// SetOverrides replaces the per-view override flags.
func (c *Camera) SetOverrides(flags OverrideFlags) { c.overrides = flags }

// ReverseCulling reports whether the camera flips triangle winding,
// as reflection cameras do.
func (c *Camera) ReverseCulling() bool { return c.reverseCulling }

// SetReverseCulling sets the winding flip flag.
func (c *Camera) SetReverseCulling(reverse bool) { c.reverseCulling = reverse }

// DistanceTo returns the distance from the camera to a world-space point.
func (c *Camera) DistanceTo(point math32.Vector3) float32 {
	return c.position.DistanceTo(point)
}

// viewMatrix builds a right-handed world-to-view matrix. View space looks
// down -Z; the collector's Z-range evaluator converts to positive depth.
func viewMatrix(eye, target, up math32.Vector3) math32.Matrix4 {
	z := eye.Sub(target).Normal()
	x := up.Cross(z).Normal()
	y := z.Cross(x)

	var m math32.Matrix4
	m[0], m[4], m[8], m[12] = x.X, x.Y, x.Z, -x.Dot(eye)
	m[1], m[5], m[9], m[13] = y.X, y.Y, y.Z, -y.Dot(eye)
	m[2], m[6], m[10], m[14] = z.X, z.Y, z.Z, -z.Dot(eye)
	m[3], m[7], m[11], m[15] = 0, 0, 0, 1
	return m
}
