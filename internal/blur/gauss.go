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

	"github.com/mlnoga/shadowlight/internal/raster"
)

// Radii below this are a no-op for Blur
const MinRadius = 0.1

// Radii below this are a no-op for FastBlur
const MinFastRadius = 1.0

// A square, normalized 2D convolution kernel of odd size
type Kernel struct {
	Size int
	Data []float32 // row-major, Size*Size entries
}

// Returns the kernel weight at offset (kx,ky) from the center
func (k *Kernel) At(kx, ky int) float32 {
	r := k.Size / 2
	return k.Data[(ky+r)*k.Size+kx+r]
}

// Sum of all kernel entries
func (k *Kernel) Sum() float64 {
	sum := float64(0)
	for _, d := range k.Data {
		sum += float64(d)
	}
	return sum
}

// Builds a size x size gaussian kernel with the given standard deviation, normalized to sum 1.
// Size is forced to be odd and at least 3.
func BuildKernel(size int, sigma float32) *Kernel {
	if size < 3 {
		size = 3
	}
	size |= 1

	center := size / 2
	if sigma <= 0 { // degenerates to the identity
		k := &Kernel{Size: size, Data: make([]float32, size*size)}
		k.Data[center*size+center] = 1
		return k
	}
	twoSigmaSq := 2 * float64(sigma) * float64(sigma)
	values := make([]float64, size*size)
	sum := float64(0)
	for y := 0; y < size; y++ {
		dy := float64(y - center)
		for x := 0; x < size; x++ {
			dx := float64(x - center)
			v := math.Exp(-(dx*dx + dy*dy) / twoSigmaSq)
			values[y*size+x] = v
			sum += v
		}
	}

	k := &Kernel{Size: size, Data: make([]float32, size*size)}
	for i, v := range values {
		k.Data[i] = float32(v / sum)
	}
	return k
}

// Kernel size for a given blur radius: 2*radius+1 rounded, forced odd and at least 3
func KernelSize(radius float32) int {
	size := int(math.Round(float64(radius)*2+1)) | 1
	if size < 3 {
		size = 3
	}
	return size
}

// Convolves the plane with the kernel into a newly allocated plane.
// Taps outside the plane are skipped, and each output is normalized by the in-bounds
// weight, so borders are a weighted average of the available neighbors.
func Convolve(p *raster.Plane, k *Kernel) *raster.Plane {
	res := raster.NewPlane(p.Width, p.Height, nil)
	width, height := p.Width, p.Height
	r := k.Size / 2

	raster.ParallelRows(height, func(yStart, yEnd int) {
		for y := yStart; y < yEnd; y++ {
			kyMin, kyMax := -r, r
			if y+kyMin < 0 {
				kyMin = -y
			}
			if y+kyMax >= height {
				kyMax = height - 1 - y
			}
			for x := 0; x < width; x++ {
				kxMin, kxMax := -r, r
				if x+kxMin < 0 {
					kxMin = -x
				}
				if x+kxMax >= width {
					kxMax = width - 1 - x
				}

				sum, weightSum := float32(0), float32(0)
				for ky := kyMin; ky <= kyMax; ky++ {
					row := p.Data[(y+ky)*width:]
					kRow := k.Data[(ky+r)*k.Size:]
					for kx := kxMin; kx <= kxMax; kx++ {
						w := kRow[kx+r]
						sum += row[x+kx] * w
						weightSum += w
					}
				}

				if weightSum > 0 {
					res.Data[y*width+x] = sum / weightSum
				} else {
					res.Data[y*width+x] = p.Data[y*width+x]
				}
			}
		}
	})
	return res
}

// Applies a gaussian blur with sigma=radius. Radii below MinRadius return an unmodified copy
func Blur(p *raster.Plane, radius float32) *raster.Plane {
	if radius < MinRadius {
		return p.Clone()
	}
	return Convolve(p, BuildKernel(KernelSize(radius), radius))
}

// Number of passes and per-pass radius used by FastBlur for a given radius
func FastBlurPasses(radius float32) (passes int, passRadius float32) {
	switch {
	case radius <= 8:
		return 1, radius
	case radius <= 20:
		return 2, radius / 2
	default:
		return 3, radius / 3
	}
}

// Approximates a wide gaussian blur with one to three passes of a narrower one.
// This is cheaper than a single pass at full radius, but not numerically equivalent to it.
// Radii below MinFastRadius return an unmodified copy.
func FastBlur(p *raster.Plane, radius float32) *raster.Plane {
	if radius < MinFastRadius {
		return p.Clone()
	}
	passes, passRadius := FastBlurPasses(radius)
	res := p
	for i := 0; i < passes; i++ {
		res = Blur(res, passRadius)
	}
	return res
}
