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

// Package lab converts 8-bit BGR images to and from CIE L*a*b* (D65).
//
// Lab values use an 8-bit friendly encoding: L is rescaled from [0,100] to [0,255],
// and a, b are biased by +128 so neutral colors sit at 128.
package lab

import (
	"math"

	"github.com/mlnoga/shadowlight/internal/raster"
)

// D65 reference white
const (
	Xn = 0.95047
	Yn = 1.00000
	Zn = 1.08883
)

// CIE constants
const (
	delta   = 6.0 / 29.0
	delta2  = delta * delta
	delta3  = delta * delta * delta
	fOffset = 4.0 / 29.0
)

// Encoding of L and a, b into the working range
const (
	LScale  = 255.0 / 100.0
	ABShift = 128.0
)

// sRGB gamma segment thresholds
const (
	srgbDecodeThreshold = 0.04045
	srgbEncodeThreshold = 0.0031308
)

// Converts a BGR image into the Lab working space. Output is float32 and not clamped.
// Images without exactly three channels are copied unconverted.
func ToLab(img *raster.Image8) *raster.ImageF {
	out := raster.NewImageF(img.Width, img.Height, img.Channels, nil)
	if img.Channels != 3 {
		for i, d := range img.Data {
			out.Data[i] = float32(d)
		}
		return out
	}
	stride := img.Width * 3
	raster.ParallelRows(img.Height, func(yStart, yEnd int) {
		for i := yStart * stride; i < yEnd*stride; i += 3 {
			l, a, b := PixelToLab(img.Data[i], img.Data[i+1], img.Data[i+2])
			out.Data[i], out.Data[i+1], out.Data[i+2] = float32(l), float32(a), float32(b)
		}
	})
	return out
}

// Converts a Lab working space image back to BGR, clamping to the sRGB gamut and rounding to 8 bits.
// Images without exactly three channels are copied with saturation.
func ToBGR(img *raster.ImageF) *raster.Image8 {
	out := raster.NewImage8(img.Width, img.Height, img.Channels, nil)
	if img.Channels != 3 {
		for i, d := range img.Data {
			out.Data[i] = saturate(float64(d))
		}
		return out
	}
	stride := img.Width * 3
	raster.ParallelRows(img.Height, func(yStart, yEnd int) {
		for i := yStart * stride; i < yEnd*stride; i += 3 {
			b, g, r := PixelToBGR(float64(img.Data[i]), float64(img.Data[i+1]), float64(img.Data[i+2]))
			out.Data[i], out.Data[i+1], out.Data[i+2] = b, g, r
		}
	})
	return out
}

// Converts one 8-bit BGR pixel to encoded Lab
func PixelToLab(b8, g8, r8 uint8) (l, a, b float64) {
	r := srgbToLinear(float64(r8) / 255)
	g := srgbToLinear(float64(g8) / 255)
	bl := srgbToLinear(float64(b8) / 255)

	x, y, z := linearToXYZ(r, g, bl)

	fx, fy, fz := f(x/Xn), f(y/Yn), f(z/Zn)
	l = 116*fy - 16
	a = 500 * (fx - fy)
	b = 200 * (fy - fz)

	return l * LScale, a + ABShift, b + ABShift
}

// Converts one encoded Lab pixel to 8-bit BGR
func PixelToBGR(l, a, b float64) (b8, g8, r8 uint8) {
	l = l / LScale
	a -= ABShift
	b -= ABShift

	fy := (l + 16) / 116
	fx := fy + a/500
	fz := fy - b/200

	x, y, z := Xn*fInv(fx), Yn*fInv(fy), Zn*fInv(fz)
	r, g, bl := xyzToLinear(x, y, z)

	r, g, bl = clamp01(linearToSRGB(r)), clamp01(linearToSRGB(g)), clamp01(linearToSRGB(bl))
	return saturate(bl * 255), saturate(g * 255), saturate(r * 255)
}

// sRGB primaries, D65
func linearToXYZ(r, g, b float64) (x, y, z float64) {
	x = 0.4124564*r + 0.3575761*g + 0.1804375*b
	y = 0.2126729*r + 0.7151522*g + 0.0721750*b
	z = 0.0193339*r + 0.1191920*g + 0.9503041*b
	return x, y, z
}

func xyzToLinear(x, y, z float64) (r, g, b float64) {
	r = 3.2404542*x - 1.5371385*y - 0.4985314*z
	g = -0.9692660*x + 1.8760108*y + 0.0415560*z
	b = 0.0556434*x - 0.2040259*y + 1.0572252*z
	return r, g, b
}

func srgbToLinear(c float64) float64 {
	if c > srgbDecodeThreshold {
		return math.Pow((c+0.055)/1.055, 2.4)
	}
	return c / 12.92
}

func linearToSRGB(c float64) float64 {
	if c > srgbEncodeThreshold {
		return 1.055*math.Pow(c, 1/2.4) - 0.055
	}
	return 12.92 * c
}

// CIE L*a*b* companding function
func f(t float64) float64 {
	if t > delta3 {
		return math.Cbrt(t)
	}
	return t/(3*delta2) + fOffset
}

// Inverse of f
func fInv(t float64) float64 {
	if t > delta {
		return t * t * t
	}
	return 3 * delta2 * (t - fOffset)
}

func clamp01(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// Rounds to the nearest 8-bit value, saturating at 0 and 255. NaN maps to 0
func saturate(v float64) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}
