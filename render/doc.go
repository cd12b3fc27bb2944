// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render defines the contract between the render manager and the
// renderer backends.
//
// # Core Interfaces
//
//   - Renderer: a backend bound to one buffer pool for its lifetime
//   - Context: the host graphics context (viewport, scissors, clearing, the
//     graphics lock)
//
// # Shared Implementation
//
// BaseRenderer carries the bookkeeping every backend needs: the bound buffer,
// the visibility window used by buffer pools to decide whether a frame is
// worth copying, and the per-renderer video settings. Backends embed it and
// implement RenderFrame.
//
// PixmapContext is a CPU Context over an *image.RGBA canvas. NullContext
// discards everything and is useful in tests and headless setups.
//
// # Visibility
//
// A renderer counts as visible while it has rendered within the last frame:
// FrameMove advances the frame counter and RenderFrame records the frame it
// drew. A renderer that stops being drawn stops being visible one frame
// later, and its pool stops receiving copies.
package render
