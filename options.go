// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scenebatch

// options holds collector configuration, set via functional options.
type options struct {
	maxPixelLights int

	// Work-splitting thresholds: minimum items per parallel task.
	drawableWorkThreshold    int
	litGeometryWorkThreshold int

	// lightCacheFrames is how many frames a light may stay out of the
	// visible set before its cached per-frame state is evicted.
	lightCacheFrames uint64
}

func defaultOptions() options {
	return options{
		maxPixelLights:           1,
		drawableWorkThreshold:    8,
		litGeometryWorkThreshold: 8,
		lightCacheFrames:         8,
	}
}

// Option configures a Collector.
type Option func(*options)

// WithMaxPixelLights sets the per-drawable pixel light budget, clamped to
// [1, MaxPixelLights]. The default is 1: one per-pixel light per drawable,
// everything else falls to vertex lighting.
func WithMaxPixelLights(count int) Option {
	return func(o *options) {
		if count < 1 {
			count = 1
		}
		if count > MaxPixelLights {
			count = MaxPixelLights
		}
		o.maxPixelLights = count
	}
}

// WithDrawableWorkThreshold sets the minimum number of drawables one
// parallel classification task processes.
func WithDrawableWorkThreshold(count int) Option {
	return func(o *options) {
		if count < 1 {
			count = 1
		}
		o.drawableWorkThreshold = count
	}
}

// WithLitGeometryWorkThreshold sets the minimum number of lit geometries
// one parallel lighting-accumulation task processes.
func WithLitGeometryWorkThreshold(count int) Option {
	return func(o *options) {
		if count < 1 {
			count = 1
		}
		o.litGeometryWorkThreshold = count
	}
}

// WithLightCacheFrames sets how many frames a light survives outside the
// visible set before its cached SceneLight is dropped.
func WithLightCacheFrames(frames uint64) Option {
	return func(o *options) {
		if frames < 1 {
			frames = 1
		}
		o.lightCacheFrames = frames
	}
}
