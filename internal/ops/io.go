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

package ops

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mlnoga/shadowlight/internal/raster"
)

// Approximate working set per pixel of the tonal correction: Lab image, three planes,
// two masks, the merged image and the output
const BytesPerPixel = 48

var ErrPathNotAllowed = errors.New("filename outside current directory tree")

var ErrOutOfMemory = errors.New("image too large for available memory")

// Returns true if a path is considered safe, i.e. not an absolute path,
// and doesn't contain the ".." characters to change to a parent directory
func isPathAllowed(p string) bool {
	if filepath.IsAbs(p) { // relative paths only
		return false
	}
	if strings.Contains(p, "..") { // no going outside the tree
		return false
	}
	return true
}

// Checks whether an image of the given size can be processed within the working memory budget
func (c *Context) CheckMemory(width, height int) error {
	if c.WorkingMB <= 0 {
		return nil // unknown
	}
	neededMB := int64(width) * int64(height) * BytesPerPixel / 1024 / 1024
	if neededMB > int64(c.WorkingMB) {
		return fmt.Errorf("%w: %dx%d needs %d MB, %d MB available", ErrOutOfMemory, width, height, neededMB, c.WorkingMB)
	}
	return nil
}

// Loads an image from a file. Ignores its input
type OpLoad struct {
	OpBase
	FileName string `json:"fileName"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpLoadDefault() }) } // register the operator for JSON decoding

func NewOpLoadDefault() *OpLoad { return NewOpLoad("") }

func NewOpLoad(fileName string) *OpLoad {
	return &OpLoad{
		OpBase:   OpBase{Type: "load", Active: true},
		FileName: fileName,
	}
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpLoad) UnmarshalJSON(data []byte) error {
	type defaults OpLoad
	def := defaults(*NewOpLoadDefault())
	if err := json.Unmarshal(data, &def); err != nil {
		return err
	}
	*op = OpLoad(def)
	return nil
}

func (op *OpLoad) Apply(img *raster.Image8, c *Context) (*raster.Image8, error) {
	if op.FileName == "" {
		return nil, fmt.Errorf("%s operator without file name", op.Type)
	}
	if c.Sandboxed && !isPathAllowed(op.FileName) {
		return nil, fmt.Errorf("%w: %s", ErrPathNotAllowed, op.FileName)
	}
	img, err := raster.ReadFileChecked(op.FileName, c.CheckMemory)
	if err != nil {
		return nil, err
	}

	warning := ""
	if img.Channels != 3 {
		warning = "; WARNING not a three channel image"
	}
	fmt.Fprintf(c.Log, "Loaded %s image (%d bytes) from %s%s\n", img.DimensionsToString(), img.Bytes(), op.FileName, warning)
	return img, nil
}

// Saves the image under a given filename, in the format indicated by its suffix.
// Returns the unchanged input
type OpSave struct {
	OpUnaryBase
	FileName string `json:"fileName"`
	Quality  int    `json:"quality"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpSaveDefault() }) } // register the operator for JSON decoding

func NewOpSaveDefault() *OpSave { return NewOpSave("", raster.DefaultQuality) }

func NewOpSave(fileName string, quality int) *OpSave {
	op := &OpSave{
		OpUnaryBase: OpUnaryBase{OpBase: OpBase{Type: "save", Active: true}},
		FileName:    fileName,
		Quality:     quality,
	}
	op.OpUnaryBase.Apply = op.Apply // assign class method to superclass abstract method
	return op
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpSave) UnmarshalJSON(data []byte) error {
	type defaults OpSave
	def := defaults(*NewOpSaveDefault())
	if err := json.Unmarshal(data, &def); err != nil {
		return err
	}
	*op = OpSave(def)
	op.OpUnaryBase.Apply = op.Apply // make method receiver point to op, not def
	return nil
}

func (op *OpSave) Apply(img *raster.Image8, c *Context) (*raster.Image8, error) {
	if !op.Active || op.FileName == "" {
		return img, nil
	}
	if img == nil {
		return nil, fmt.Errorf("%w: %s operator without input image", raster.ErrInvalidInput, op.Type)
	}
	if c.Sandboxed && !isPathAllowed(op.FileName) {
		return nil, fmt.Errorf("%w: %s", ErrPathNotAllowed, op.FileName)
	}
	fmt.Fprintf(c.Log, "Writing %s pixel image to %s\n", img.DimensionsToString(), op.FileName)
	if err := img.WriteFile(op.FileName, op.Quality); err != nil {
		return nil, fmt.Errorf("error writing to file %s: %w", op.FileName, err)
	}
	return img, nil
}
