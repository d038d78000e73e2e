// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package mask

import (
	"math"
	"testing"

	"github.com/mlnoga/shadowlight/internal/raster"
	"github.com/valyala/fastrand"
)

// A horizontal luminance ramp from 0 to 1
func ramp(width int) *raster.Plane {
	p := raster.NewPlane(width, 1, nil)
	for x := range p.Data {
		p.Data[x] = float32(x) / float32(width-1)
	}
	return p
}

func TestShadowWeight(t *testing.T) {
	thr := ShadowThreshold(0.5) // 0.25
	tcs := []struct {
		lum, want float32
	}{
		{0, 1}, {0.05, 1}, {0.075, 1}, {0.25, 0}, {0.3, 0}, {1, 0},
		{0.075 + 0.175*0.5, 0.75},
	}
	for _, tc := range tcs {
		if got := ShadowWeight(tc.lum, thr); math.Abs(float64(got-tc.want)) > 1e-5 {
			t.Errorf("lum=%f weight=%f; want %f", tc.lum, got, tc.want)
		}
	}
}

func TestHighlightWeight(t *testing.T) {
	thr := HighlightThreshold(0.5) // 0.75
	tcs := []struct {
		lum, want float32
	}{
		{0, 0}, {0.6, 0}, {0.675, 0}, {0.7125, 0.5}, {0.75, 1}, {1, 1},
	}
	for _, tc := range tcs {
		if got := HighlightWeight(tc.lum, thr); math.Abs(float64(got-tc.want)) > 1e-5 {
			t.Errorf("lum=%f weight=%f; want %f", tc.lum, got, tc.want)
		}
	}
}

func TestMasksMonotonic(t *testing.T) {
	lum := ramp(256)
	for _, w := range []float32{0.1, 0.5, 0.9, 1} {
		sm, hm := Shadow(lum, w, 0), Highlight(lum, w, 0)
		for x := 1; x < lum.Width; x++ {
			if sm.Data[x] > sm.Data[x-1] {
				t.Errorf("w=%f shadow mask rises at %d: %f > %f", w, x, sm.Data[x], sm.Data[x-1])
			}
			if hm.Data[x] < hm.Data[x-1] {
				t.Errorf("w=%f highlight mask falls at %d: %f < %f", w, x, hm.Data[x], hm.Data[x-1])
			}
		}
	}
}

func TestMasksBoundedAndPeakNormalized(t *testing.T) {
	rng := fastrand.RNG{}
	lum := raster.NewPlane(40, 30, nil)
	for i := range lum.Data {
		lum.Data[i] = float32(rng.Uint32n(1001)) / 1000
	}
	for _, radius := range []float32{0, 0.5, 3, 15, 50} {
		for _, m := range []*raster.Plane{Shadow(lum, 0.5, radius), Highlight(lum, 0.5, radius)} {
			if !m.SameSize(lum) {
				t.Fatalf("radius=%f mask is %dx%d; want %dx%d", radius, m.Width, m.Height, lum.Width, lum.Height)
			}
			for i, d := range m.Data {
				if d < 0 || d > 1+1e-6 {
					t.Errorf("radius=%f mask[%d]=%f; want in [0,1]", radius, i, d)
				}
			}
			if max := m.Max(); math.Abs(float64(max-1)) > 1e-5 {
				t.Errorf("radius=%f mask max=%f; want 1", radius, max)
			}
		}
	}
}

func TestAllZeroMaskIsNotNormalized(t *testing.T) {
	white := raster.NewPlane(8, 8, nil)
	for i := range white.Data {
		white.Data[i] = 1
	}
	sm := Shadow(white, 0.5, 15)
	for i, d := range sm.Data {
		if d != 0 {
			t.Errorf("shadow mask of white[%d]=%f; want 0", i, d)
		}
	}
	hm := Highlight(white, 0.5, 15)
	for i, d := range hm.Data {
		if math.Abs(float64(d-1)) > 1e-5 {
			t.Errorf("highlight mask of white[%d]=%f; want 1", i, d)
		}
	}
}

func TestZeroWidthShadowThreshold(t *testing.T) {
	lum := raster.NewPlane(3, 1, []float32{0, 0.01, 0.5})
	sm := Shadow(lum, 0, 0)
	want := []float32{1, 0, 0}
	for i, d := range sm.Data {
		if d != want[i] {
			t.Errorf("mask[%d]=%f; want %f", i, d, want[i])
		}
	}
}

func TestMaskDoesNotModifyInput(t *testing.T) {
	lum := ramp(64)
	before := lum.Clone()
	Shadow(lum, 0.5, 10)
	Highlight(lum, 0.5, 10)
	for i, d := range lum.Data {
		if d != before.Data[i] {
			t.Errorf("lum[%d]=%f; want %f", i, d, before.Data[i])
		}
	}
}
