// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shadowmap

import (
	"testing"

	"cogentcore.org/core/math32"
	"github.com/gogpu/gputypes"
)

func newTestAtlas(maxPages int) *Atlas {
	return NewAtlas(math32.Vec2i(1024, 1024), maxPages, gputypes.TextureFormatDepth32Float)
}

func TestAtlas_AllocatePacksShelves(t *testing.T) {
	a := newTestAtlas(1)

	r1 := a.Allocate(math32.Vec2i(512, 512))
	r2 := a.Allocate(math32.Vec2i(512, 512))

	if r1.Empty() || r2.Empty() {
		t.Fatal("allocations within capacity should succeed")
	}
	if r1.Origin != math32.Vec2i(0, 0) {
		t.Errorf("first region at %v, want (0,0)", r1.Origin)
	}
	if r2.Origin != math32.Vec2i(512, 0) {
		t.Errorf("second region at %v, want (512,0) on the same shelf", r2.Origin)
	}
}

func TestAtlas_NewShelfWhenRowFull(t *testing.T) {
	a := newTestAtlas(1)

	a.Allocate(math32.Vec2i(1024, 256))
	r := a.Allocate(math32.Vec2i(1024, 256))

	if r.Origin != math32.Vec2i(0, 256) {
		t.Errorf("second row at %v, want (0,256)", r.Origin)
	}
}

func TestAtlas_Exhaustion(t *testing.T) {
	a := newTestAtlas(1)

	if a.Allocate(math32.Vec2i(1024, 1024)).Empty() {
		t.Fatal("full-page allocation should succeed")
	}
	if !a.Allocate(math32.Vec2i(1, 1)).Empty() {
		t.Error("allocation from a full single-page atlas should fail softly")
	}
}

func TestAtlas_Oversized(t *testing.T) {
	a := newTestAtlas(4)

	if !a.Allocate(math32.Vec2i(4096, 64)).Empty() {
		t.Error("request wider than a page should return the empty region")
	}
	if !a.Allocate(math32.Vec2i(0, 64)).Empty() {
		t.Error("degenerate request should return the empty region")
	}
}

func TestAtlas_SecondPage(t *testing.T) {
	a := newTestAtlas(2)

	a.Allocate(math32.Vec2i(1024, 1024))
	r := a.Allocate(math32.Vec2i(256, 256))

	if r.Empty() {
		t.Fatal("allocation should spill to a second page")
	}
	if r.Page != 1 {
		t.Errorf("spilled region on page %d, want 1", r.Page)
	}
	if a.NumPages() != 2 {
		t.Errorf("NumPages() = %d, want 2", a.NumPages())
	}
}

func TestAtlas_ResetReclaims(t *testing.T) {
	a := newTestAtlas(1)
	a.Allocate(math32.Vec2i(1024, 1024))
	a.Reset()

	r := a.Allocate(math32.Vec2i(1024, 1024))
	if r.Empty() {
		t.Fatal("allocation after Reset should succeed")
	}
	if r.Origin != math32.Vec2i(0, 0) {
		t.Errorf("region at %v after Reset, want (0,0)", r.Origin)
	}
}

func TestAtlas_Deterministic(t *testing.T) {
	requests := []math32.Vector2i{
		math32.Vec2i(512, 512),
		math32.Vec2i(512, 512),
		math32.Vec2i(256, 256),
		math32.Vec2i(1024, 256),
		math32.Vec2i(128, 128),
	}

	run := func() []Region {
		a := newTestAtlas(2)
		out := make([]Region, 0, len(requests))
		for _, req := range requests {
			out = append(out, a.Allocate(req))
		}
		return out
	}

	first, second := run(), run()
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("allocation %d differs between runs: %+v vs %+v",
				i, first[i], second[i])
		}
	}
}
