// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package settings

import (
	"sync"
	"testing"
)

func TestOverride_Apply(t *testing.T) {
	base := Video{
		VideoFilter:   "base",
		ScalingMethod: ScalingMethodLinear,
		ViewMode:      ViewModeNormal,
		Rotation:      0,
	}
	override := Video{
		VideoFilter:   "crt",
		ScalingMethod: ScalingMethodNearest,
		ViewMode:      ViewModeOriginal,
		Rotation:      90,
	}

	tests := []struct {
		name   string
		fields OverrideField
		want   Video
	}{
		{
			name:   "nothing overridden",
			fields: 0,
			want:   base,
		},
		{
			name:   "filter only",
			fields: OverrideVideoFilter,
			want:   Video{VideoFilter: "crt", ScalingMethod: ScalingMethodLinear},
		},
		{
			name:   "view mode and rotation",
			fields: OverrideViewMode | OverrideRotation,
			want: Video{
				VideoFilter:   "base",
				ScalingMethod: ScalingMethodLinear,
				ViewMode:      ViewModeOriginal,
				Rotation:      90,
			},
		},
		{
			name:   "all fields keep base scaling method",
			fields: OverrideVideoFilter | OverrideViewMode | OverrideRotation,
			want: Video{
				VideoFilter:   "crt",
				ScalingMethod: ScalingMethodLinear,
				ViewMode:      ViewModeOriginal,
				Rotation:      90,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Override{Fields: tt.fields, Settings: override}.Apply(base)
			if got != tt.want {
				t.Errorf("Apply() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestStore(t *testing.T) {
	s := NewStore(Video{ScalingMethod: ScalingMethodNearest})
	if got := s.Settings().ScalingMethod; got != ScalingMethodNearest {
		t.Fatalf("ScalingMethod = %v, want nearest", got)
	}

	s.SetScalingMethod(ScalingMethodCatmullRom)
	if got := s.Settings().ScalingMethod; got != ScalingMethodCatmullRom {
		t.Errorf("ScalingMethod = %v, want catmullrom", got)
	}

	s.SetSettings(Video{VideoFilter: "lcd"})
	if got := s.Settings(); got.VideoFilter != "lcd" || got.ScalingMethod != ScalingMethodAuto {
		t.Errorf("Settings() = %+v after SetSettings", got)
	}
}

func TestStore_Concurrent(t *testing.T) {
	s := NewStore(Video{})
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.SetScalingMethod(ScalingMethod(i % 5))
		}(i)
		go func() {
			defer wg.Done()
			_ = s.Settings()
		}()
	}
	wg.Wait()
}

func TestStrings(t *testing.T) {
	if ScalingMethodNearest.String() != "nearest" {
		t.Errorf("ScalingMethodNearest.String() = %q", ScalingMethodNearest.String())
	}
	if ScalingMethod(99).String() != "unknown" {
		t.Errorf("ScalingMethod(99).String() = %q", ScalingMethod(99).String())
	}
	if ViewModeStretch4x3.String() != "stretch4x3" {
		t.Errorf("ViewModeStretch4x3.String() = %q", ViewModeStretch4x3.String())
	}
}
