// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scenebatch

import (
	"testing"

	"github.com/gogpu/gputypes"
)

func testPipelineDesc() *PipelineStateDesc {
	return &PipelineStateDesc{
		Label:             "test-state",
		VertexShader:      "vs_main",
		PixelShader:       "fs_main",
		PrimitiveTopology: gputypes.PrimitiveTopologyTriangleList,
		IndexFormat:       gputypes.IndexFormatUint16,
		FrontFace:         gputypes.FrontFaceCCW,
		CullMode:          gputypes.CullModeBack,
		ColorFormat:       gputypes.TextureFormatBGRA8Unorm,
		DepthFormat:       gputypes.TextureFormatDepth32Float,
		DepthWriteEnabled: true,
		DepthCompare:      gputypes.CompareFunctionLess,
	}
}

func TestPipelineStateHashStable(t *testing.T) {
	a := testPipelineDesc()
	b := testPipelineDesc()
	if a.Hash() != b.Hash() {
		t.Error("equal descriptors must hash equal")
	}
	if a.Hash() != a.Hash() {
		t.Error("hash must be deterministic")
	}
}

func TestPipelineStateHashDiffers(t *testing.T) {
	base := testPipelineDesc()
	baseHash := base.Hash()

	mutations := map[string]func(*PipelineStateDesc){
		"cull mode":    func(d *PipelineStateDesc) { d.CullMode = gputypes.CullModeNone },
		"depth write":  func(d *PipelineStateDesc) { d.DepthWriteEnabled = false },
		"pixel shader": func(d *PipelineStateDesc) { d.PixelShader = "fs_other" },
		"blend":        func(d *PipelineStateDesc) { d.BlendState = BlendAdditive() },
		"stencil":      func(d *PipelineStateDesc) { d.StencilTestEnabled = true },
		"depth bias":   func(d *PipelineStateDesc) { d.DepthBias = 4 },
	}
	for name, mutate := range mutations {
		d := testPipelineDesc()
		mutate(d)
		if d.Hash() == baseHash {
			t.Errorf("%s change did not change hash", name)
		}
	}
}

func TestPipelineStateHashBlendStates(t *testing.T) {
	a := testPipelineDesc()
	a.BlendState = BlendAdditive()
	b := testPipelineDesc()
	b.BlendState = BlendAlpha()
	if a.Hash() == b.Hash() {
		t.Error("additive and alpha blend states must hash differently")
	}
}
