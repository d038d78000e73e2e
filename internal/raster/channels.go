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
	"fmt"
)

// Splits a three channel float image into separate planes, in channel order.
// Planes are copies and do not alias the image data.
func Split(img *ImageF) (planes [3]*Plane, err error) {
	if img == nil || img.Channels != 3 {
		channels := 0
		if img != nil {
			channels = img.Channels
		}
		return planes, fmt.Errorf("%w: image must have 3 channels, has %d", ErrInvalidInput, channels)
	}
	numPixels := img.Pixels()
	for c := range planes {
		planes[c] = NewPlane(img.Width, img.Height, nil)
	}
	p0, p1, p2 := planes[0].Data, planes[1].Data, planes[2].Data
	for i := 0; i < numPixels; i++ {
		p0[i] = img.Data[3*i]
		p1[i] = img.Data[3*i+1]
		p2[i] = img.Data[3*i+2]
	}
	return planes, nil
}

// Combines three planes of equal size into one interleaved three channel image
func Merge(planes []*Plane) (*ImageF, error) {
	if len(planes) != 3 {
		return nil, fmt.Errorf("%w: merge needs 3 planes, got %d", ErrInvalidInput, len(planes))
	}
	for i, p := range planes {
		if p == nil {
			return nil, fmt.Errorf("%w: plane %d is nil", ErrInvalidInput, i)
		}
		if !p.SameSize(planes[0]) || len(p.Data) != p.Width*p.Height {
			return nil, fmt.Errorf("%w: plane %d is %dx%d, want %dx%d", ErrInvalidInput, i,
				p.Width, p.Height, planes[0].Width, planes[0].Height)
		}
	}
	img := NewImageF(planes[0].Width, planes[0].Height, 3, nil)
	p0, p1, p2 := planes[0].Data, planes[1].Data, planes[2].Data
	for i := range p0 {
		img.Data[3*i] = p0[i]
		img.Data[3*i+1] = p1[i]
		img.Data[3*i+2] = p2[i]
	}
	return img, nil
}
