// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scenebatch

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
	"math"

	"github.com/gogpu/gputypes"
)

// PipelineStateDesc captures the fixed-function and shader state one batch
// is drawn with. The collector never builds descriptors itself; the
// Callback collaborator produces them and each pass caches the results
// keyed by batch state.
//
// This is a minimal descriptor focused on the fields needed for hashing.
type PipelineStateDesc struct {
	// Label is an optional debug name.
	Label string

	// VertexShader and PixelShader name the shader entry points.
	VertexShader string
	PixelShader  string

	// PrimitiveTopology is the primitive type (triangles, lines, points).
	PrimitiveTopology gputypes.PrimitiveTopology

	// IndexFormat is the index buffer format.
	IndexFormat gputypes.IndexFormat

	// FrontFace defines which face is considered front-facing.
	FrontFace gputypes.FrontFace

	// CullMode defines which faces to cull.
	CullMode gputypes.CullMode

	// ColorFormat is the format of the color attachment;
	// TextureFormatUndefined for depth-only (shadow) pipelines.
	ColorFormat gputypes.TextureFormat

	// DepthFormat is the format of the depth attachment.
	DepthFormat gputypes.TextureFormat

	// DepthWriteEnabled enables depth buffer writes.
	DepthWriteEnabled bool

	// DepthCompare is the depth comparison function.
	DepthCompare gputypes.CompareFunction

	// DepthBias and SlopeScaledDepthBias offset shadow-caster depth.
	DepthBias            int32
	SlopeScaledDepthBias float32

	// BlendState is the color blending configuration (optional).
	// Nil means no blending (source replaces destination).
	BlendState *BlendState

	// StencilTestEnabled enables the stencil test, used by light-volume
	// pipelines to mask lit pixels.
	StencilTestEnabled bool

	// StencilCompare is the stencil comparison function.
	StencilCompare gputypes.CompareFunction

	// StencilRef is the stencil reference value.
	StencilRef uint32
}

// BlendState describes the color blending configuration.
type BlendState struct {
	// Color is the color blending configuration.
	Color BlendComponent

	// Alpha is the alpha blending configuration.
	Alpha BlendComponent
}

// BlendComponent describes a blend component (color or alpha).
type BlendComponent struct {
	// SrcFactor is the source blend factor.
	SrcFactor gputypes.BlendFactor

	// DstFactor is the destination blend factor.
	DstFactor gputypes.BlendFactor

	// Operation is the blend operation.
	Operation gputypes.BlendOperation
}

// BlendAdditive returns the blend state of additive per-light passes.
func BlendAdditive() *BlendState {
	return &BlendState{
		Color: BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOne,
			Operation: gputypes.BlendOperationAdd,
		},
		Alpha: BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOne,
			Operation: gputypes.BlendOperationAdd,
		},
	}
}

// BlendAlpha returns the standard alpha blend state for transparent passes.
func BlendAlpha() *BlendState {
	return &BlendState{
		Color: BlendComponent{
			SrcFactor: gputypes.BlendFactorSrcAlpha,
			DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
			Operation: gputypes.BlendOperationAdd,
		},
		Alpha: BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
			Operation: gputypes.BlendOperationAdd,
		},
	}
}

// Hash computes an FNV-1a hash over every field that affects rendering
// behavior. Equal descriptors hash equal; batch sorting groups draws by
// this value so pipeline switches are minimized.
func (d *PipelineStateDesc) Hash() uint64 {
	h := fnv.New64a()

	hashWriteString(h, d.VertexShader)
	hashWriteString(h, d.PixelShader)

	hashWriteUint32(h, uint32(d.PrimitiveTopology))
	hashWriteUint32(h, uint32(d.IndexFormat))
	hashWriteUint32(h, uint32(d.FrontFace))
	hashWriteUint32(h, uint32(d.CullMode))

	hashWriteUint32(h, uint32(d.ColorFormat))
	hashWriteUint32(h, uint32(d.DepthFormat))

	hashWriteBool(h, d.DepthWriteEnabled)
	hashWriteUint32(h, uint32(d.DepthCompare))
	hashWriteUint32(h, uint32(d.DepthBias))
	hashWriteUint32(h, math.Float32bits(d.SlopeScaledDepthBias))

	if d.BlendState != nil {
		hashWriteBool(h, true)
		hashWriteUint32(h, uint32(d.BlendState.Color.SrcFactor))
		hashWriteUint32(h, uint32(d.BlendState.Color.DstFactor))
		hashWriteUint32(h, uint32(d.BlendState.Color.Operation))
		hashWriteUint32(h, uint32(d.BlendState.Alpha.SrcFactor))
		hashWriteUint32(h, uint32(d.BlendState.Alpha.DstFactor))
		hashWriteUint32(h, uint32(d.BlendState.Alpha.Operation))
	} else {
		hashWriteBool(h, false)
	}

	hashWriteBool(h, d.StencilTestEnabled)
	hashWriteUint32(h, uint32(d.StencilCompare))
	hashWriteUint32(h, d.StencilRef)

	return h.Sum64()
}

// hashWriteUint32 writes a uint32 to the hash.
func hashWriteUint32(h hash.Hash64, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, _ = h.Write(buf[:])
}

// hashWriteString writes a length-prefixed string to the hash.
func hashWriteString(h hash.Hash64, s string) {
	hashWriteUint32(h, uint32(len(s)))
	_, _ = h.Write([]byte(s))
}

// hashWriteBool writes a bool to the hash.
func hashWriteBool(h hash.Hash64, v bool) {
	if v {
		_, _ = h.Write([]byte{1})
	} else {
		_, _ = h.Write([]byte{0})
	}
}
