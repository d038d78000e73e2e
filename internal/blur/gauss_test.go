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

package blur

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/mlnoga/shadowlight/internal/raster"
	"github.com/valyala/fastrand"
)

func TestBuildKernel(t *testing.T) {
	epsilon := 1e-5
	tcs := []struct {
		Size     int
		Sigma    float32
		WantSize int
	}{
		{1, 1.0, 3},
		{3, 1.0, 3},
		{4, 1.0, 5},
		{5, 2.0, 5},
		{21, 10.0, 21},
		{41, 20.0, 41},
	}

	for _, tc := range tcs {
		k := BuildKernel(tc.Size, tc.Sigma)
		if k.Size != tc.WantSize || len(k.Data) != k.Size*k.Size {
			t.Errorf("size=%d sigma=%f: kernel size %d with %d entries; want %d", tc.Size, tc.Sigma, k.Size, len(k.Data), tc.WantSize)
			continue
		}
		if sum := k.Sum(); math.Abs(sum-1) > epsilon {
			t.Errorf("size=%d sigma=%f sum=%f; want 1", tc.Size, tc.Sigma, sum)
		}
		r := k.Size / 2
		center := k.At(0, 0)
		for ky := -r; ky <= r; ky++ {
			for kx := -r; kx <= r; kx++ {
				v := k.At(kx, ky)
				if v > center {
					t.Errorf("size=%d sigma=%f k(%d,%d)=%f exceeds center %f", tc.Size, tc.Sigma, kx, ky, v, center)
				}
				if v != k.At(-kx, ky) || v != k.At(kx, -ky) || v != k.At(ky, kx) {
					t.Errorf("size=%d sigma=%f k(%d,%d) is not symmetric", tc.Size, tc.Sigma, kx, ky)
				}
			}
		}
	}
}

func TestBuildKernelRatio(t *testing.T) {
	k := BuildKernel(3, 1)
	want := math.Exp(-0.5)
	if got := float64(k.At(1, 0) / k.At(0, 0)); math.Abs(got-want) > 1e-6 {
		t.Errorf("k(1,0)/k(0,0)=%f; want %f", got, want)
	}
	want = math.Exp(-1)
	if got := float64(k.At(1, 1) / k.At(0, 0)); math.Abs(got-want) > 1e-6 {
		t.Errorf("k(1,1)/k(0,0)=%f; want %f", got, want)
	}
}

func TestKernelSize(t *testing.T) {
	tcs := []struct {
		Radius float32
		Want   int
	}{
		{0.1, 3}, {0.5, 3}, {1, 3}, {1.3, 5}, {1.5, 5}, {2, 5}, {2.5, 7}, {7.5, 17}, {10, 21}, {50, 101},
	}
	for _, tc := range tcs {
		if got := KernelSize(tc.Radius); got != tc.Want {
			t.Errorf("radius=%f size=%d; want %d", tc.Radius, got, tc.Want)
		}
	}
}

func randomPlane(width, height int) *raster.Plane {
	rng := fastrand.RNG{}
	p := raster.NewPlane(width, height, nil)
	for i := range p.Data {
		p.Data[i] = float32(rng.Uint32n(1000)) / 1000
	}
	return p
}

func TestBlurNoOp(t *testing.T) {
	p := randomPlane(13, 7)
	for _, radius := range []float32{-1, 0, 0.05, 0.099} {
		res := Blur(p, radius)
		if diff := cmp.Diff(p, res); diff != "" {
			t.Errorf("radius=%f changed the plane (-want +got):\n%s", radius, diff)
		}
		res.Data[0] = -1
		if p.Data[0] == -1 {
			t.Errorf("radius=%f result aliases the input", radius)
		}
	}
	for _, radius := range []float32{0, 0.5, 0.999} {
		if diff := cmp.Diff(p, FastBlur(p, radius)); diff != "" {
			t.Errorf("fast radius=%f changed the plane (-want +got):\n%s", radius, diff)
		}
	}
}

func TestBlurKeepsConstantPlane(t *testing.T) {
	for _, dim := range [][2]int{{1, 1}, {2, 3}, {17, 9}, {40, 40}} {
		p := raster.NewPlane(dim[0], dim[1], nil)
		for i := range p.Data {
			p.Data[i] = 0.75
		}
		for _, radius := range []float32{0.5, 1, 3, 12, 35} {
			res := FastBlur(p, radius)
			if diff := cmp.Diff(p, res, cmpopts.EquateApprox(0, 1e-5)); diff != "" {
				t.Errorf("dim=%v radius=%f constant plane changed (-want +got):\n%s", dim, radius, diff)
			}
		}
	}
}

func TestConvolveBorderRenormalization(t *testing.T) {
	p := raster.NewPlane(3, 1, []float32{0, 0, 9})
	res := Convolve(p, BuildKernel(3, 1))
	want := 9 / (1 + float32(math.Exp(-0.5)))
	if math.Abs(float64(res.Data[2]-want)) > 1e-4 {
		t.Errorf("res[2]=%f; want %f", res.Data[2], want)
	}
	if res.Data[0] != 0 {
		t.Errorf("res[0]=%f; want 0", res.Data[0])
	}
	if p.Data[2] != 9 {
		t.Errorf("input was modified")
	}
}

func TestBlurImpulse(t *testing.T) {
	dims := []int{15, 31}
	radii := []float32{1.0, 2.0, 3.0}
	epsilon := 1e-4

	for _, dim := range dims {
		for _, radius := range radii {
			width, height := dim, dim
			sharp := raster.NewPlane(width, height, nil)
			peak := float32(9.99)
			sharp.Data[width*(height/2)+width/2] = peak

			blurred := Blur(sharp, radius)
			kHalfSize := KernelSize(radius) / 2

			sum := float32(0)
			for y := 0; y < height; y++ {
				for x := 0; x < width; x++ {
					v := blurred.At(x, y)
					inside := abs(x-width/2) <= kHalfSize && abs(y-height/2) <= kHalfSize
					if inside && (v <= 0 || v >= peak) {
						t.Errorf("dim=%d radius=%f b(%d,%d)=%f; want >0 <%f", dim, radius, x, y, v, peak)
					}
					if !inside && v != 0 {
						t.Errorf("dim=%d radius=%f b(%d,%d)=%f; want 0", dim, radius, x, y, v)
					}
					sum += v
				}
			}
			if math.Abs(float64(sum-peak)) > epsilon {
				t.Errorf("dim=%d radius=%f sum=%f; want %f", dim, radius, sum, peak)
			}
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func TestFastBlurPasses(t *testing.T) {
	tcs := []struct {
		Radius     float32
		Passes     int
		PassRadius float32
	}{
		{1, 1, 1}, {8, 1, 8}, {8.5, 2, 4.25}, {20, 2, 10}, {21, 3, 7}, {50, 3, 50.0 / 3},
	}
	for _, tc := range tcs {
		passes, passRadius := FastBlurPasses(tc.Radius)
		if passes != tc.Passes || math.Abs(float64(passRadius-tc.PassRadius)) > 1e-6 {
			t.Errorf("radius=%f: %d passes at %f; want %d at %f", tc.Radius, passes, passRadius, tc.Passes, tc.PassRadius)
		}
	}
}

func TestFastBlurMatchesRepeatedBlur(t *testing.T) {
	p := randomPlane(32, 24)
	got := FastBlur(p, 12)
	want := Blur(Blur(p, 6), 6)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fast blur differs from two passes (-want +got):\n%s", diff)
	}
}

func TestBlurSmooths(t *testing.T) {
	p := randomPlane(32, 32)
	variance := func(p *raster.Plane) float64 {
		mean := float64(0)
		for _, d := range p.Data {
			mean += float64(d)
		}
		mean /= float64(len(p.Data))
		v := float64(0)
		for _, d := range p.Data {
			v += (float64(d) - mean) * (float64(d) - mean)
		}
		return v / float64(len(p.Data))
	}
	before, after := variance(p), variance(Blur(p, 2))
	if after >= before {
		t.Errorf("variance after blur %f; want below %f", after, before)
	}
}
