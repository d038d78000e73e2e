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

// Package stats provides pixel diagnostics and brightness statistics for 8-bit images.
package stats

import (
	"fmt"
	"io"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/mlnoga/shadowlight/internal/raster"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Number of histogram bins for the brightness mode
const histogramBins = 256

// Perceived brightness of a pixel after Rec. 601, in [0,255]
func Brightness(b, g, r uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

// A single pixel sample with derived color information
type Sample struct {
	X, Y       int
	B, G, R    uint8
	Brightness float64
	Hex        string  // #rrggbb
	L, A, Bb   float64 // CIE L*a*b*, L in [0,100]
}

// Samples the pixel at (x,y) of a three channel BGR image
func SamplePixel(img *raster.Image8, x, y int) (Sample, error) {
	if !img.Valid() || img.Channels != 3 {
		return Sample{}, fmt.Errorf("%w: cannot sample %dx%d", raster.ErrInvalidInput, x, y)
	}
	if x < 0 || y < 0 || x >= img.Width || y >= img.Height {
		return Sample{}, fmt.Errorf("%w: pixel %d,%d outside %s image", raster.ErrInvalidInput, x, y, img.DimensionsToString())
	}
	px := img.At(x, y)
	col := colorful.Color{R: float64(px[2]) / 255, G: float64(px[1]) / 255, B: float64(px[0]) / 255}
	l, a, b := col.Lab()
	return Sample{
		X: x, Y: y,
		B: px[0], G: px[1], R: px[2],
		Brightness: Brightness(px[0], px[1], px[2]),
		Hex:        col.Hex(),
		L:          l * 100, A: a * 100, Bb: b * 100,
	}, nil
}

func (s Sample) String() string {
	return fmt.Sprintf("(%d,%d) BGR=(%d,%d,%d) %s brightness %.1f Lab=(%.1f,%.1f,%.1f)",
		s.X, s.Y, s.B, s.G, s.R, s.Hex, s.Brightness, s.L, s.A, s.Bb)
}

// Brightness statistics of an image
type LumStats struct {
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	Median float64
	Mode   float64 // peak of a normal distribution fitted to the brightness histogram
}

// Calculates brightness statistics of a three channel BGR image
func CalcLumStats(img *raster.Image8) (*LumStats, error) {
	if img.Empty() || img.Channels != 3 {
		return nil, fmt.Errorf("%w: brightness statistics need a non-empty three channel image", raster.ErrInvalidInput)
	}
	lums := make([]float64, img.Pixels())
	for i := range lums {
		lums[i] = Brightness(img.Data[3*i], img.Data[3*i+1], img.Data[3*i+2])
	}

	s := &LumStats{Min: floats.Min(lums), Max: floats.Max(lums)}
	s.Mean, s.StdDev = stat.MeanStdDev(lums, nil)
	if len(lums) == 1 {
		s.StdDev = 0
	}

	bins := make([]int32, histogramBins)
	Histogram(lums, 0, 255, bins)
	if mode, _, err := GetModeStdDevFromHistogram(bins, 0, 255, s.StdDev); err == nil && mode >= 0 && mode <= 255 {
		s.Mode = mode
	} else {
		s.Mode, _ = GetPeak(bins, 0, 255)
	}

	sort.Float64s(lums)
	s.Median = stat.Quantile(0.5, stat.Empirical, lums, nil)
	return s, nil
}

func (s *LumStats) String() string {
	return fmt.Sprintf("brightness min %.1f max %.1f mean %.2f stddev %.2f median %.1f mode %.1f",
		s.Min, s.Max, s.Mean, s.StdDev, s.Median, s.Mode)
}

// Prints basic image information and the first 3x3 pixels, one per line.
// Three channel pixels are labelled B=, G=, R=
func PrintImageInfo(w io.Writer, img *raster.Image8) {
	fmt.Fprintf(w, "Image size %dx%d, %d channels, %d bytes, stride %d\n",
		img.Width, img.Height, img.Channels, img.Bytes(), img.Stride())
	if !img.Valid() {
		return
	}
	for y := 0; y < 3 && y < img.Height; y++ {
		for x := 0; x < 3 && x < img.Width; x++ {
			px := img.At(x, y)
			if img.Channels == 3 {
				fmt.Fprintf(w, "  Pixel (%d,%d): B=%d, G=%d, R=%d\n", x, y, px[0], px[1], px[2])
			} else {
				fmt.Fprintf(w, "  Pixel (%d,%d): %v\n", x, y, px)
			}
		}
	}
}

// Prints before and after values of the given pixels, with the brightness change.
// Pixels outside either image get an error line instead
func PrintPixelComparison(w io.Writer, before, after *raster.Image8, points []Point) {
	for _, p := range points {
		sb, err := SamplePixel(before, p.X, p.Y)
		if err != nil {
			fmt.Fprintf(w, "Pixel (%d,%d): %v\n", p.X, p.Y, err)
			continue
		}
		sa, err := SamplePixel(after, p.X, p.Y)
		if err != nil {
			fmt.Fprintf(w, "Pixel (%d,%d): %v\n", p.X, p.Y, err)
			continue
		}
		fmt.Fprintf(w, "Pixel (%d,%d): BGR (%d,%d,%d) -> (%d,%d,%d), brightness %.1f -> %.1f (%+.1f)\n",
			p.X, p.Y, sb.B, sb.G, sb.R, sa.B, sa.G, sa.R, sb.Brightness, sa.Brightness, sa.Brightness-sb.Brightness)
	}
}

// An image coordinate
type Point struct {
	X, Y int
}
