// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import "github.com/gogpu/gputypes"

// Quality is the material quality tier the renderer is running at.
// Materials provide per-tier techniques; the collector resolves the best
// technique not exceeding the active tier.
type Quality int

const (
	QualityLow Quality = iota
	QualityMedium
	QualityHigh
)

// GeometryType tells the pipeline how vertices are transformed.
type GeometryType int

const (
	GeometryStatic GeometryType = iota
	GeometryInstanced
	GeometrySkinned
	GeometryBillboard
)

// Geometry is an opaque handle to mesh data: the collector never touches
// vertex memory, only identity and pipeline-relevant layout.
type Geometry struct {
	// Name identifies the geometry in logs and debug output.
	Name string

	// Topology is the primitive type the geometry is drawn with.
	Topology gputypes.PrimitiveTopology

	// IndexFormat is the index buffer format.
	IndexFormat gputypes.IndexFormat

	// VertexCount and IndexCount describe draw extents.
	VertexCount int
	IndexCount  int
}

// Standard technique pass names resolved by scene passes.
const (
	PassBase    = "base"
	PassLitBase = "litbase"
	PassLight   = "light"
	PassAlpha   = "alpha"
	PassShadow  = "shadow"
)

// TechniquePass is a single named stage within a technique, carrying the
// fixed-function state a pipeline is built from.
type TechniquePass struct {
	// Name is the pass name, e.g. "base" or "shadow".
	Name string

	// Lit marks passes whose shading reads the per-drawable light lists.
	Lit bool

	// VertexShader and PixelShader name the shader entry points.
	VertexShader string
	PixelShader  string

	// DepthWrite enables depth buffer writes.
	DepthWrite bool

	// DepthCompare is the depth test function.
	DepthCompare gputypes.CompareFunction

	// CullMode overrides the material cull mode when not CullModeNone.
	CullMode gputypes.CullMode

	// Additive marks passes blended additively onto the framebuffer
	// (per-light forward passes).
	Additive bool

	// AlphaBlend marks passes using standard alpha blending.
	AlphaBlend bool
}

// Technique is an ordered collection of passes implementing one way to
// render a material.
type Technique struct {
	// Name identifies the technique.
	Name string

	// Passes are the technique's stages, looked up by name.
	Passes []*TechniquePass
}

// Pass returns the pass with the given name, or nil.
func (t *Technique) Pass(name string) *TechniquePass {
	for _, p := range t.Passes {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// TechniqueEntry binds a technique to the minimum quality tier and LOD
// distance it applies at.
type TechniqueEntry struct {
	Technique *Technique
	Quality   Quality
	Distance  float32
}

// Material pairs surface parameters with quality-tiered techniques.
type Material struct {
	// Name identifies the material.
	Name string

	// Entries are candidate techniques, ordered from most to least
	// demanding (highest quality and largest LOD distance first).
	Entries []TechniqueEntry

	// CullMode is the face culling used in normal passes.
	CullMode gputypes.CullMode

	// ShadowCullMode is the face culling used when rendering into
	// shadow maps.
	ShadowCullMode gputypes.CullMode
}

// FindTechnique resolves the technique for a drawable at the given quality
// tier: the first entry whose quality does not exceed the tier and whose
// LOD distance is within the drawable's current camera distance. Returns
// nil when the material has no usable technique, in which case the batch
// is skipped.
func (m *Material) FindTechnique(d Drawable, quality Quality) *Technique {
	distance := d.Distance()
	for i := range m.Entries {
		e := &m.Entries[i]
		if e.Quality > quality {
			continue
		}
		if e.Distance > 0 && distance < e.Distance {
			continue
		}
		return e.Technique
	}
	return nil
}
