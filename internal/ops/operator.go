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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/mlnoga/shadowlight/internal/raster"
	"github.com/pbnjay/memory"
	"golang.org/x/exp/maps"
)

// An execution context for operators
type Context struct {
	Log       io.Writer
	MemoryMB  int  // memory.TotalMemory()/1024/1024, 0 if unknown
	WorkingMB int  // MemoryMB*7/10
	Sandboxed bool // restrict file access to the current directory tree
}

func NewContext(log io.Writer) *Context {
	memoryMB := int(memory.TotalMemory() / 1024 / 1024)
	return &Context{
		Log:       log,
		MemoryMB:  memoryMB,
		WorkingMB: memoryMB * 7 / 10,
	}
}

// An general image processing operator: takes an input image and produces an output image or an error.
// Source operators ignore their input
type Operator interface {
	GetType() string
	IsActive() bool
	Apply(img *raster.Image8, c *Context) (*raster.Image8, error)
}

// Base type for operators, including type information for JSON serializing/deserializing
type OpBase struct {
	Type   string `json:"type"`
	Active bool   `json:"active"`
}

func (op *OpBase) GetType() string { return op.Type }
func (op *OpBase) IsActive() bool  { return op.Active }

// Abstract base type for operators transforming an existing image.
// Concrete operators assign their Apply method to the embedded function field
type OpUnaryBase struct {
	OpBase
	Apply func(img *raster.Image8, c *Context) (*raster.Image8, error) `json:"-"`
}

// Factory method for operators. For JSON serializing/deserializing
type OperatorFactory func() Operator

// Mapping from operator type strings to factory method for the type
var operatorFactories = map[string]OperatorFactory{}

// Returns the operator factory for a given type string
func GetOperatorFactory(t string) OperatorFactory {
	return operatorFactories[t]
}

// Registers a given type string for a given type of Operator, identified via an exemplar generator
func SetOperatorFactory(f OperatorFactory) {
	op := f()
	t := op.GetType()
	if GetOperatorFactory(t) != nil {
		panic(fmt.Sprintf("error: re-registering operator key %s\n", t))
	}
	operatorFactories[t] = f
}

// Returns the registered operator types in sorted order
func RegisteredTypes() []string {
	types := maps.Keys(operatorFactories)
	slices.Sort(types)
	return types
}

// Decodes a single operator of any registered type from JSON
func UnmarshalOperator(raw []byte) (Operator, error) {
	var base OpBase
	if err := json.Unmarshal(raw, &base); err != nil {
		return nil, err
	}
	factory := GetOperatorFactory(base.Type)
	if factory == nil {
		return nil, fmt.Errorf("unknown operator type '%s' in raw JSON message '%s'", base.Type, string(raw))
	}
	op := factory()
	if err := json.Unmarshal(raw, op); err != nil {
		return nil, err
	}
	return op, nil
}

// Applies a sequence of operators to an image, in order. Inactive steps are skipped
type OpSequence struct {
	OpBase
	Steps    []Operator        `json:"-"`     // the actual steps
	StepsRaw []json.RawMessage `json:"steps"` // helper for unmarshaling
}

func init() { SetOperatorFactory(func() Operator { return NewOpSequenceDefault() }) } // register the operator for JSON decoding

func NewOpSequenceDefault() *OpSequence { return NewOpSequence() }

func NewOpSequence(steps ...Operator) *OpSequence {
	return &OpSequence{
		OpBase: OpBase{Type: "seq", Active: true},
		Steps:  steps,
	}
}

// Unmarshals a sequence of polymorphic operators from JSON.
// Uses temporary op.StepsRaw inspired by https://alexkappa.medium.com/json-polymorphism-in-go-4cade1e58ed1
func (op *OpSequence) UnmarshalJSON(b []byte) error {
	type defaults OpSequence
	def := defaults(*NewOpSequenceDefault())
	if err := json.Unmarshal(b, &def); err != nil {
		return err
	}
	*op = OpSequence(def)

	op.Steps = nil
	for _, raw := range op.StepsRaw {
		step, err := UnmarshalOperator(raw)
		if err != nil {
			return err
		}
		op.Steps = append(op.Steps, step)
	}
	op.StepsRaw = nil
	return nil
}

// Appends one or more operators to the existing sequence
func (op *OpSequence) Append(steps ...Operator) {
	op.Steps = append(op.Steps, steps...)
}

// Marshals a sequence with polymorphic operators to JSON.
// Uses the actual op.Steps with label "steps", and ignores op.StepsRaw
func (op *OpSequence) MarshalJSON() (bs []byte, err error) {
	buf := bytes.Buffer{}
	buf.WriteString("{\"type\":")
	inner, err := json.Marshal(op.Type)
	if err != nil {
		return nil, err
	}
	buf.Write(inner)
	fmt.Fprintf(&buf, ",\"active\":%v,\"steps\":", op.Active)
	steps := op.Steps
	if steps == nil {
		steps = []Operator{}
	}
	inner, err = json.Marshal(steps)
	if err != nil {
		return nil, err
	}
	buf.Write(inner)
	buf.WriteRune('}')
	return buf.Bytes(), nil
}

func (op *OpSequence) Apply(img *raster.Image8, c *Context) (*raster.Image8, error) {
	if !op.Active {
		return img, nil
	}
	for i, step := range op.Steps {
		if !step.IsActive() {
			fmt.Fprintf(c.Log, "Skipping inactive step %d (%s)\n", i, step.GetType())
			continue
		}
		var err error
		if img, err = step.Apply(img, c); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.GetType(), err)
		}
	}
	return img, nil
}

// Reads a JSON pipeline description. The top level element is either a sequence,
// or a single operator which gets wrapped into a sequence
func LoadSequence(r io.Reader) (*OpSequence, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	op, err := UnmarshalOperator(raw)
	if err != nil {
		return nil, err
	}
	if seq, ok := op.(*OpSequence); ok {
		return seq, nil
	}
	return NewOpSequence(op), nil
}
