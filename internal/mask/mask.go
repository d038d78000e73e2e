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

// Package mask builds smooth shadow and highlight membership masks from normalized luminance.
package mask

import (
	"github.com/mlnoga/shadowlight/internal/blur"
	"github.com/mlnoga/shadowlight/internal/raster"
)

const (
	// Fraction of the shadow threshold below which pixels are fully in shadow
	shadowCore = 0.3

	// Fraction of the highlight threshold above which the highlight ramp starts
	highlightRampStart = 0.9

	// Masks are blurred with at most this radius
	MaxBlurRadius = 20
)

// Shadow threshold for a given tonal width
func ShadowThreshold(tonalWidth float32) float32 { return 0.5 * tonalWidth }

// Highlight threshold for a given tonal width
func HighlightThreshold(tonalWidth float32) float32 { return 1 - 0.5*tonalWidth }

// Shadow membership of a single luminance value in [0,1]. Full below 30% of the threshold,
// quadratic falloff up to the threshold, zero above.
func ShadowWeight(lum, threshold float32) float32 {
	core := threshold * shadowCore
	if lum <= core {
		return 1
	}
	if lum <= threshold {
		t := (lum - core) / (threshold * (1 - shadowCore))
		if t >= 1 {
			return 0
		}
		return 1 - t*t
	}
	return 0
}

// Highlight membership of a single luminance value in [0,1]. Full above the threshold,
// linear ramp from 90% of the threshold, zero below.
func HighlightWeight(lum, threshold float32) float32 {
	if lum >= threshold {
		return 1
	}
	start := threshold * highlightRampStart
	if lum > start {
		if t := (lum - start) / (threshold * (1 - highlightRampStart)); t < 1 {
			return t
		}
		return 1
	}
	return 0
}

// Builds the shadow mask for a normalized luminance plane
func Shadow(lum *raster.Plane, tonalWidth, blurRadius float32) *raster.Plane {
	threshold := ShadowThreshold(tonalWidth)
	m := raster.NewPlane(lum.Width, lum.Height, nil)
	for i, l := range lum.Data {
		m.Data[i] = ShadowWeight(l, threshold)
	}
	return finish(m, blurRadius)
}

// Builds the highlight mask for a normalized luminance plane
func Highlight(lum *raster.Plane, tonalWidth, blurRadius float32) *raster.Plane {
	threshold := HighlightThreshold(tonalWidth)
	m := raster.NewPlane(lum.Width, lum.Height, nil)
	for i, l := range lum.Data {
		m.Data[i] = HighlightWeight(l, threshold)
	}
	return finish(m, blurRadius)
}

// Softens the mask and renormalizes its peak to 1, unless the mask is all zero
func finish(m *raster.Plane, blurRadius float32) *raster.Plane {
	if blurRadius > blur.MinRadius {
		if blurRadius > MaxBlurRadius {
			blurRadius = MaxBlurRadius
		}
		m = blur.FastBlur(m, blurRadius)
	}
	if max := m.Max(); max > 0 {
		m.Scale(1 / max)
	}
	return m
}
