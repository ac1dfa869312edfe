// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shadowmap manages rectangular regions in a shared shadow-map
// atlas. Allocation lives for one frame: the collector requests regions in
// descending footprint order, renders shadow casters into them, and the
// whole atlas is reclaimed with Reset at the next frame start.
package shadowmap

import (
	"cogentcore.org/core/math32"
	"github.com/gogpu/gputypes"
)

// Region is a rectangular slice of one atlas page. The zero Region is the
// "no shadow map" value: allocation failure is a soft condition, never an
// error.
type Region struct {
	// Page is the atlas page index the region lives on.
	Page int

	// Origin is the top-left corner in texels.
	Origin math32.Vector2i

	// Size is the region extent in texels.
	Size math32.Vector2i
}

// Empty reports whether the region denotes "no shadow map".
func (r Region) Empty() bool {
	return r.Size.X <= 0 || r.Size.Y <= 0
}

// Atlas is a greedy first-fit shelf allocator over a set of equally sized
// depth texture pages. Pages are created on demand up to a limit.
//
// Allocation order is deterministic: the same request sequence always
// yields the same regions. Atlas is not safe for concurrent use; the
// collector only allocates from the orchestrator goroutine.
type Atlas struct {
	pageSize math32.Vector2i
	maxPages int
	format   gputypes.TextureFormat

	pages []page
}

type shelf struct {
	y      int32
	height int32
	nextX  int32
}

type page struct {
	shelves []shelf
	nextY   int32
}

// NewAtlas creates an atlas with the given page size, page limit and depth
// texture format. Typical usage:
//
//	atlas := shadowmap.NewAtlas(math32.Vec2i(2048, 2048), 4,
//	    gputypes.TextureFormatDepth32Float)
func NewAtlas(pageSize math32.Vector2i, maxPages int, format gputypes.TextureFormat) *Atlas {
	if maxPages < 1 {
		maxPages = 1
	}
	return &Atlas{
		pageSize: pageSize,
		maxPages: maxPages,
		format:   format,
	}
}

// Reset reclaims every region. Called once per frame before light
// processing; pages themselves are retained so the backing textures can be
// reused.
func (a *Atlas) Reset() {
	for i := range a.pages {
		a.pages[i].shelves = a.pages[i].shelves[:0]
		a.pages[i].nextY = 0
	}
}

// Allocate reserves a region of the requested size. Returns the zero
// Region when the request cannot be satisfied: oversized requests or a
// full atlas. Callers treat an empty region as "light gets no shadow".
func (a *Atlas) Allocate(size math32.Vector2i) Region {
	if size.X <= 0 || size.Y <= 0 || size.X > a.pageSize.X || size.Y > a.pageSize.Y {
		return Region{}
	}

	for i := range a.pages {
		if r, ok := a.pages[i].allocate(i, size, a.pageSize); ok {
			return r
		}
	}

	if len(a.pages) < a.maxPages {
		a.pages = append(a.pages, page{})
		i := len(a.pages) - 1
		if r, ok := a.pages[i].allocate(i, size, a.pageSize); ok {
			return r
		}
	}

	return Region{}
}

func (p *page) allocate(pageIndex int, size, pageSize math32.Vector2i) (Region, bool) {
	// First fit on an existing shelf. A shelf taller than twice the
	// request is skipped to bound wasted height.
	for i := range p.shelves {
		s := &p.shelves[i]
		if size.Y > s.height || size.Y*2 < s.height {
			continue
		}
		if s.nextX+size.X > pageSize.X {
			continue
		}
		r := Region{
			Page:   pageIndex,
			Origin: math32.Vec2i(s.nextX, s.y),
			Size:   size,
		}
		s.nextX += size.X
		return r, true
	}

	// Open a new shelf.
	if p.nextY+size.Y > pageSize.Y {
		return Region{}, false
	}
	p.shelves = append(p.shelves, shelf{
		y:      p.nextY,
		height: size.Y,
		nextX:  size.X,
	})
	r := Region{
		Page:   pageIndex,
		Origin: math32.Vec2i(0, p.nextY),
		Size:   size,
	}
	p.nextY += size.Y
	return r, true
}

// PageSize returns the page extent in texels.
func (a *Atlas) PageSize() math32.Vector2i { return a.pageSize }

// Format returns the depth texture format pages are created with.
func (a *Atlas) Format() gputypes.TextureFormat { return a.format }

// NumPages returns the number of pages created so far.
func (a *Atlas) NumPages() int { return len(a.pages) }
