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
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// Reads a JPEG, PNG, GIF, TIFF, BMP or WebP image from the file with the given name.
// The format is chosen by file suffix, and sniffed from the content for unknown suffixes.
func ReadFile(fileName string) (*Image8, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := Decode(bufio.NewReader(f), formatFromName(fileName))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", fileName, err)
	}
	return img, nil
}

// Validates image dimensions before the pixels are decoded
type SizeCheck func(width, height int) error

// Like ReadFile, but reads the image header first and runs the check on its dimensions.
// Pixels are only decoded if the check passes.
func ReadFileChecked(fileName string, check SizeCheck) (*Image8, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := DecodeChecked(f, formatFromName(fileName), check)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", fileName, err)
	}
	return img, nil
}

// Reads the image header to determine the dimensions, runs the check on them, then rewinds
// and decodes the pixels. Check errors are returned unchanged.
func DecodeChecked(rs io.ReadSeeker, format string, check SizeCheck) (*Image8, error) {
	width, height, err := DecodeSize(bufio.NewReader(rs), format)
	if err != nil {
		return nil, err
	}
	if err := check(width, height); err != nil {
		return nil, err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return Decode(bufio.NewReader(rs), format)
}

// Reads only the image header and returns the dimensions. An empty format sniffs the content
func DecodeSize(r io.Reader, format string) (width, height int, err error) {
	var cfg image.Config
	switch format {
	case "jpeg":
		cfg, err = jpeg.DecodeConfig(r)
	case "png":
		cfg, err = png.DecodeConfig(r)
	case "gif":
		cfg, err = gif.DecodeConfig(r)
	case "tiff":
		cfg, err = tiff.DecodeConfig(r)
	case "bmp":
		cfg, err = bmp.DecodeConfig(r)
	case "webp":
		cfg, err = webp.DecodeConfig(r)
	default:
		cfg, _, err = image.DecodeConfig(r)
	}
	return cfg.Width, cfg.Height, err
}

// Decodes an image in the given format from the reader. An empty format sniffs the content
func Decode(r io.Reader, format string) (*Image8, error) {
	var img image.Image
	var err error
	switch format {
	case "jpeg":
		img, err = jpeg.Decode(r)
	case "png":
		img, err = png.Decode(r)
	case "gif":
		img, err = gif.Decode(r)
	case "tiff":
		img, err = tiff.Decode(r)
	case "bmp":
		img, err = bmp.Decode(r)
	case "webp":
		img, err = webp.Decode(r)
	default:
		img, _, err = image.Decode(r)
	}
	if err != nil {
		return nil, err
	}
	return FromImage(img), nil
}

// Maps a file name suffix to a format name, or "" if unknown
func formatFromName(fileName string) string {
	switch strings.ToLower(path.Ext(fileName)) {
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".png":
		return "png"
	case ".gif":
		return "gif"
	case ".tif", ".tiff":
		return "tiff"
	case ".bmp":
		return "bmp"
	case ".webp":
		return "webp"
	}
	return ""
}

// Maps a format name or suffix like "jpg", ".TIF" or "png" to a format name, or "" if unknown
func ParseFormat(name string) string {
	return formatFromName("image." + strings.TrimPrefix(name, "."))
}
