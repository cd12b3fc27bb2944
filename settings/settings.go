// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package settings holds the video settings that select and parameterise a
// renderer: scaling method, view mode, rotation and video filter.
package settings

import "sync"

// ScalingMethod selects the filter used when a frame is drawn at a size other
// than its native resolution.
type ScalingMethod uint8

const (
	// ScalingMethodAuto lets the backend pick its default.
	ScalingMethodAuto ScalingMethod = iota

	// ScalingMethodNearest picks the closest source pixel. Sharp, blocky.
	ScalingMethodNearest

	// ScalingMethodLinear interpolates between neighbouring pixels.
	ScalingMethodLinear

	// ScalingMethodBilinear is a full-quality bilinear filter.
	ScalingMethodBilinear

	// ScalingMethodCatmullRom is a bicubic Catmull-Rom filter.
	ScalingMethodCatmullRom
)

// String returns a string representation of the scaling method.
func (m ScalingMethod) String() string {
	switch m {
	case ScalingMethodAuto:
		return "auto"
	case ScalingMethodNearest:
		return "nearest"
	case ScalingMethodLinear:
		return "linear"
	case ScalingMethodBilinear:
		return "bilinear"
	case ScalingMethodCatmullRom:
		return "catmullrom"
	default:
		return "unknown"
	}
}

// ViewMode controls how the frame is fitted into the output area.
type ViewMode uint8

const (
	// ViewModeNormal keeps the frame aspect ratio and letterboxes.
	ViewModeNormal ViewMode = iota

	// ViewModeStretch4x3 forces a 4:3 picture.
	ViewModeStretch4x3

	// ViewModeFullscreen16x9 forces a 16:9 picture.
	ViewModeFullscreen16x9

	// ViewModeOriginal draws the frame at its native pixel size.
	ViewModeOriginal
)

// String returns a string representation of the view mode.
func (v ViewMode) String() string {
	switch v {
	case ViewModeNormal:
		return "normal"
	case ViewModeStretch4x3:
		return "stretch4x3"
	case ViewModeFullscreen16x9:
		return "fullscreen16x9"
	case ViewModeOriginal:
		return "original"
	default:
		return "unknown"
	}
}

// Video is the set of settings a renderer is created for.
type Video struct {
	// VideoFilter names a filter preset. Renderers are only shared between
	// requests with the same filter.
	VideoFilter string

	ScalingMethod ScalingMethod
	ViewMode      ViewMode

	// Rotation is the clockwise rotation in degrees (0, 90, 180 or 270).
	Rotation int
}

// OverrideField flags which fields of an Override replace the base settings.
type OverrideField uint8

const (
	OverrideVideoFilter OverrideField = 1 << iota
	OverrideViewMode
	OverrideRotation
)

// Override carries per-control settings that replace the base settings.
// Only the fields flagged in Fields are applied; the scaling method is never
// overridden.
type Override struct {
	Fields   OverrideField
	Settings Video
}

// Has reports whether field f is overridden.
func (o Override) Has(f OverrideField) bool {
	return o.Fields&f != 0
}

// Apply overlays the flagged fields of o onto base.
func (o Override) Apply(base Video) Video {
	if o.Has(OverrideVideoFilter) {
		base.VideoFilter = o.Settings.VideoFilter
	}
	if o.Has(OverrideViewMode) {
		base.ViewMode = o.Settings.ViewMode
	}
	if o.Has(OverrideRotation) {
		base.Rotation = o.Settings.Rotation
	}
	return base
}

// Provider supplies the base video settings.
type Provider interface {
	Settings() Video
}

// Store is a Provider whose settings can be changed at runtime.
//
// Thread safety: all methods are safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	settings Video
}

// NewStore creates a store holding initial.
func NewStore(initial Video) *Store {
	return &Store{settings: initial}
}

// Settings returns a copy of the current settings.
func (s *Store) Settings() Video {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SetSettings replaces the current settings.
func (s *Store) SetSettings(v Video) {
	s.mu.Lock()
	s.settings = v
	s.mu.Unlock()
}

// SetScalingMethod changes only the scaling method.
func (s *Store) SetScalingMethod(m ScalingMethod) {
	s.mu.Lock()
	s.settings.ScalingMethod = m
	s.mu.Unlock()
}
