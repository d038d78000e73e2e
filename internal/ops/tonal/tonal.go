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

package tonal

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mlnoga/shadowlight/internal/ops"
	"github.com/mlnoga/shadowlight/internal/raster"
	"github.com/mlnoga/shadowlight/internal/shadows"
)

// Lifts shadows and pulls down highlights
type OpShadowHighlight struct {
	ops.OpUnaryBase
	shadows.Config
}

func init() { ops.SetOperatorFactory(func() ops.Operator { return NewOpShadowHighlightDefault() }) } // register the operator for JSON decoding

func NewOpShadowHighlightDefault() *OpShadowHighlight {
	return NewOpShadowHighlight(shadows.DefaultConfig())
}

func NewOpShadowHighlight(cfg shadows.Config) *OpShadowHighlight {
	op := &OpShadowHighlight{
		OpUnaryBase: ops.OpUnaryBase{OpBase: ops.OpBase{Type: "shadowHighlight", Active: true}},
		Config:      cfg.Clamped(),
	}
	op.OpUnaryBase.Apply = op.Apply // assign class method to superclass abstract method
	return op
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpShadowHighlight) UnmarshalJSON(data []byte) error {
	type defaults OpShadowHighlight
	def := defaults(*NewOpShadowHighlightDefault())
	if err := json.Unmarshal(data, &def); err != nil {
		return err
	}
	*op = OpShadowHighlight(def)
	op.Config = op.Config.Clamped()
	op.OpUnaryBase.Apply = op.Apply // make method receiver point to op, not def
	return nil
}

func (op *OpShadowHighlight) Apply(img *raster.Image8, c *ops.Context) (*raster.Image8, error) {
	if !op.Active {
		return img, nil
	}
	f := shadows.NewFromConfig(op.Config)
	fmt.Fprintf(c.Log, "Applying shadows/highlights: %v\n", f.Settings())

	start := time.Now()
	res, err := f.Apply(img)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(c.Log, "Corrected %s image in %v\n", res.DimensionsToString(), time.Since(start).Round(time.Millisecond))
	return res, nil
}
