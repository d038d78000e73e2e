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
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mlnoga/shadowlight/internal/ops"
	"github.com/mlnoga/shadowlight/internal/raster"
	"github.com/mlnoga/shadowlight/internal/shadows"
	"github.com/valyala/fastrand"
)

func TestUnmarshalFillsDefaultsAndClamps(t *testing.T) {
	seq, err := ops.LoadSequence(strings.NewReader(`{"type":"seq","steps":[{"type":"shadowHighlight","shadows":3,"radius":7}]}`))
	if err != nil {
		t.Fatal(err)
	}
	op, ok := seq.Steps[0].(*OpShadowHighlight)
	if !ok {
		t.Fatalf("step is %T; want *OpShadowHighlight", seq.Steps[0])
	}
	want := shadows.Config{ShadowAmount: 1, HighlightAmount: 0.3, TonalWidth: 0.5, BlurRadius: 7}
	if diff := cmp.Diff(want, op.Config); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if !op.Active {
		t.Errorf("operator inactive; want active by default")
	}
}

func TestRegistered(t *testing.T) {
	found := false
	for _, typ := range ops.RegisteredTypes() {
		found = found || typ == "shadowHighlight"
	}
	if !found {
		t.Errorf("shadowHighlight not registered in %v", ops.RegisteredTypes())
	}
}

func randomImage(width, height int) *raster.Image8 {
	rng := fastrand.RNG{}
	img := raster.NewImage8(width, height, 3, nil)
	for i := range img.Data {
		img.Data[i] = uint8(rng.Uint32n(256))
	}
	return img
}

func TestApplyMatchesFilter(t *testing.T) {
	cfg := shadows.Config{ShadowAmount: 0.6, HighlightAmount: 0.2, TonalWidth: 0.4, BlurRadius: 4}
	img := randomImage(20, 12)
	want, err := shadows.NewFromConfig(cfg).Apply(img)
	if err != nil {
		t.Fatal(err)
	}

	var log bytes.Buffer
	got, err := NewOpShadowHighlight(cfg).Apply(img, ops.NewContext(&log))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("operator result differs from filter (-want +got):\n%s", diff)
	}
	if !strings.Contains(log.String(), "Shadows 60%, highlights 20%") {
		t.Errorf("log lacks settings:\n%s", log.String())
	}
}

func TestInactivePassesThrough(t *testing.T) {
	img := randomImage(4, 4)
	op := NewOpShadowHighlightDefault()
	op.Active = false
	res, err := op.Apply(img, ops.NewContext(io.Discard))
	if err != nil || res != img {
		t.Errorf("inactive operator returned %p, %v; want input %p, nil", res, err, img)
	}
}

func TestPipeline(t *testing.T) {
	dir := t.TempDir()
	in, out := filepath.Join(dir, "in.png"), filepath.Join(dir, "out.png")
	img := randomImage(16, 9)
	if err := img.WriteFile(in, raster.DefaultQuality); err != nil {
		t.Fatal(err)
	}

	seq := ops.NewOpSequence(ops.NewOpLoad(in), NewOpShadowHighlightDefault(), ops.NewOpSave(out, raster.DefaultQuality))
	res, err := seq.Apply(nil, ops.NewContext(io.Discard))
	if err != nil {
		t.Fatal(err)
	}
	back, err := raster.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(res, back); diff != "" {
		t.Errorf("saved result differs (-want +got):\n%s", diff)
	}
}
