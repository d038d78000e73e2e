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

package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// Returned, wrapped, whenever an image, plane set or channel layout cannot be processed.
var ErrInvalidInput = errors.New("invalid input")

// An 8-bit device color image. Row-major, channels interleaved.
// For three channels the order is blue, green, red.
type Image8 struct {
	Width    int
	Height   int
	Channels int
	Data     []uint8
}

// A float32 working image, e.g. Lab with L in [0,255] and a, b biased by +128.
// Row-major, channels interleaved.
type ImageF struct {
	Width    int
	Height   int
	Channels int
	Data     []float32
}

// A single channel float32 plane
type Plane struct {
	Width  int
	Height int
	Data   []float32
}

// Creates an 8-bit image of given dimensions. Data is allocated if nil, and not copied otherwise
func NewImage8(width, height, channels int, data []uint8) *Image8 {
	if data == nil {
		data = make([]uint8, width*height*channels)
	}
	return &Image8{Width: width, Height: height, Channels: channels, Data: data}
}

// Creates a float image of given dimensions. Data is allocated if nil, and not copied otherwise
func NewImageF(width, height, channels int, data []float32) *ImageF {
	if data == nil {
		data = make([]float32, width*height*channels)
	}
	return &ImageF{Width: width, Height: height, Channels: channels, Data: data}
}

// Creates a plane of given dimensions. Data is allocated if nil, and not copied otherwise
func NewPlane(width, height int, data []float32) *Plane {
	if data == nil {
		data = make([]float32, width*height)
	}
	return &Plane{Width: width, Height: height, Data: data}
}

// Number of pixels
func (img *Image8) Pixels() int { return img.Width * img.Height }

// True if the image holds no pixels
func (img *Image8) Empty() bool { return img == nil || img.Width <= 0 || img.Height <= 0 || len(img.Data) == 0 }

// True if the dimensions are positive and the pixel data holds exactly Width*Height*Channels bytes
func (img *Image8) Valid() bool {
	return !img.Empty() && img.Channels > 0 && len(img.Data) == img.Width*img.Height*img.Channels
}

// Size of the pixel data in bytes
func (img *Image8) Bytes() int { return len(img.Data) }

// Bytes per row
func (img *Image8) Stride() int { return img.Width * img.Channels }

// Returns the channel values of the pixel at (x,y)
func (img *Image8) At(x, y int) []uint8 {
	off := (y*img.Width + x) * img.Channels
	return img.Data[off : off+img.Channels]
}

// Returns a deep copy
func (img *Image8) Clone() *Image8 {
	return NewImage8(img.Width, img.Height, img.Channels, append([]uint8(nil), img.Data...))
}

// Print dimensions as a human-readable string, e.g. 640x480x3
func (img *Image8) DimensionsToString() string {
	return fmt.Sprintf("%dx%dx%d", img.Width, img.Height, img.Channels)
}

// Number of pixels
func (img *ImageF) Pixels() int { return img.Width * img.Height }

// Returns the channel values of the pixel at (x,y)
func (img *ImageF) At(x, y int) []float32 {
	off := (y*img.Width + x) * img.Channels
	return img.Data[off : off+img.Channels]
}

// Returns a deep copy
func (p *Plane) Clone() *Plane {
	return NewPlane(p.Width, p.Height, append([]float32(nil), p.Data...))
}

// Value at (x,y)
func (p *Plane) At(x, y int) float32 { return p.Data[y*p.Width+x] }

// True if both planes have the same width and height
func (p *Plane) SameSize(o *Plane) bool { return p.Width == o.Width && p.Height == o.Height }

// Returns the maximum value, or 0 for an empty plane
func (p *Plane) Max() float32 {
	if len(p.Data) == 0 {
		return 0
	}
	max := p.Data[0]
	for _, d := range p.Data[1:] {
		if d > max {
			max = d
		}
	}
	return max
}

// Multiplies all values by the given factor. Operates in-place
func (p *Plane) Scale(factor float32) {
	for i, d := range p.Data {
		p.Data[i] = d * factor
	}
}

// Converts a Go image into a three channel BGR image. Alpha is dropped
func FromImage(src image.Image) *Image8 {
	b := src.Bounds()
	width, height := b.Dx(), b.Dy()
	img := NewImage8(width, height, 3, nil)
	for y := 0; y < height; y++ {
		yoffset := y * width * 3
		for x := 0; x < width; x++ {
			c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			off := yoffset + x*3
			img.Data[off], img.Data[off+1], img.Data[off+2] = c.B, c.G, c.R
		}
	}
	return img
}

// Converts a three channel BGR image into an opaque Go image.
// Single channel images are rendered as gray.
func (img *Image8) ToNRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			px := img.At(x, y)
			c := color.NRGBA{A: 255}
			if img.Channels >= 3 {
				c.B, c.G, c.R = px[0], px[1], px[2]
			} else {
				c.R, c.G, c.B = px[0], px[0], px[0]
			}
			out.SetNRGBA(x, y, c)
		}
	}
	return out
}
