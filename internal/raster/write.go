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
	"bufio"
	"fmt"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Default JPEG quality
const DefaultQuality = 95

// Writes the image to a file. The format is chosen by suffix: .jpg/.jpeg, .png, .tif/.tiff or .bmp.
// Quality applies to JPEG only.
func (img *Image8) WriteFile(fileName string, quality int) error {
	format := formatFromName(fileName)
	if !CanEncode(format) {
		return fmt.Errorf("unknown suffix for writing %s", fileName)
	}

	file, err := os.Create(fileName)
	if err != nil {
		return err
	}

	writer := bufio.NewWriter(file)
	err = img.Encode(writer, format, quality)
	if err == nil {
		err = writer.Flush()
	}
	if errClose := file.Close(); err == nil {
		err = errClose
	}
	return err
}

// True if the given format name can be written
func CanEncode(format string) bool {
	switch format {
	case "jpeg", "png", "tiff", "bmp":
		return true
	}
	return false
}

// MIME type for a format name, or application/octet-stream if unknown
func MIMEType(format string) string {
	switch format {
	case "jpeg", "png", "tiff", "bmp", "gif", "webp":
		return "image/" + format
	}
	return "application/octet-stream"
}

// Encodes the image in the given format into the writer
func (img *Image8) Encode(writer io.Writer, format string, quality int) error {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	out := img.ToNRGBA()
	switch format {
	case "jpeg":
		return jpeg.Encode(writer, out, &jpeg.Options{Quality: quality})
	case "png":
		return png.Encode(writer, out)
	case "tiff":
		return tiff.Encode(writer, out, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case "bmp":
		return bmp.Encode(writer, out)
	}
	return fmt.Errorf("unknown output format %q", format)
}
