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

// Package mosaic arranges labelled images into a comparison grid.
package mosaic

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/mlnoga/shadowlight/internal/raster"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Label position relative to the top left corner of a tile
const (
	LabelX = 10
	LabelY = 30
)

// A labelled image in the mosaic
type Tile struct {
	Image *raster.Image8
	Label string
}

// Scales all tiles to tileW x tileH, labels them and arranges them row-major with the given number
// of columns. Unused grid cells stay black
func Compose(tiles []Tile, cols, tileW, tileH int) (*raster.Image8, error) {
	if len(tiles) == 0 || cols <= 0 || tileW <= 0 || tileH <= 0 {
		return nil, fmt.Errorf("%w: mosaic of %d tiles, %d columns, %dx%d", raster.ErrInvalidInput, len(tiles), cols, tileW, tileH)
	}
	rows := (len(tiles) + cols - 1) / cols
	dst := image.NewNRGBA(image.Rect(0, 0, cols*tileW, rows*tileH))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	for i, t := range tiles {
		if t.Image.Empty() {
			return nil, fmt.Errorf("%w: tile %d (%s) is empty", raster.ErrInvalidInput, i, t.Label)
		}
		x0, y0 := (i%cols)*tileW, (i/cols)*tileH
		rect := image.Rect(x0, y0, x0+tileW, y0+tileH)
		src := t.Image.ToNRGBA()
		xdraw.CatmullRom.Scale(dst, rect, src, src.Bounds(), xdraw.Src, nil)
		drawLabel(dst, rect, t.Label)
	}
	return raster.FromImage(dst), nil
}

// Draws a white label into the given tile rectangle, clipped to it
func drawLabel(dst draw.Image, rect image.Rectangle, label string) {
	if label == "" {
		return
	}
	d := &font.Drawer{
		Dst:  clipped{dst, rect},
		Src:  image.White,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(rect.Min.X+LabelX, rect.Min.Y+LabelY),
	}
	d.DrawString(label)
}

// A draw.Image restricted to a rectangle
type clipped struct {
	draw.Image
	r image.Rectangle
}

func (c clipped) Bounds() image.Rectangle { return c.r.Intersect(c.Image.Bounds()) }

func (c clipped) Set(x, y int, col color.Color) {
	if (image.Point{x, y}).In(c.Bounds()) {
		c.Image.Set(x, y, col)
	}
}
