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

package harness

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mlnoga/shadowlight/internal/raster"
	"github.com/mlnoga/shadowlight/internal/stats"
)

// A horizontal gradient from black to white, with a blue tint in the lower half
func gradient(width, height int) *raster.Image8 {
	img := raster.NewImage8(width, height, 3, nil)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(x * 255 / (width - 1))
			px := img.At(x, y)
			px[0], px[1], px[2] = v, v, v
			if y >= height/2 && v < 225 {
				px[0] = v + 30
			}
		}
	}
	return img
}

func TestRunComprehensive(t *testing.T) {
	img := gradient(96, 64)
	dir := filepath.Join(t.TempDir(), "out")
	var log bytes.Buffer
	rep, err := RunComprehensive(img, dir, &log)
	if err != nil {
		t.Fatal(err)
	}

	if len(rep.Runs) != len(ComprehensiveSettings) {
		t.Fatalf("%d runs; want %d", len(rep.Runs), len(ComprehensiveSettings))
	}
	if rep.Comparison.Width != 2*TileWidth || rep.Comparison.Height != 2*TileHeight {
		t.Errorf("comparison is %s; want %dx%d", rep.Comparison.DimensionsToString(), 2*TileWidth, 2*TileHeight)
	}

	// shadows lifted in the first run, highlights pulled down in the second
	dark, bright := img.At(2, 10), img.At(93, 10)
	if got := rep.Runs[0].Image.At(2, 10); stats.Brightness(got[0], got[1], got[2]) <= stats.Brightness(dark[0], dark[1], dark[2]) {
		t.Errorf("shadows run did not brighten the dark end: %v -> %v", dark, got)
	}
	if got := rep.Runs[1].Image.At(93, 10); stats.Brightness(got[0], got[1], got[2]) >= stats.Brightness(bright[0], bright[1], bright[2]) {
		t.Errorf("highlights run did not darken the bright end: %v -> %v", bright, got)
	}

	wantFiles := []string{OriginalFileName}
	for _, s := range ComprehensiveSettings {
		wantFiles = append(wantFiles, s.FileName)
	}
	wantFiles = append(wantFiles, ComparisonFileName)
	if len(rep.Files) != len(wantFiles) {
		t.Fatalf("wrote %v; want %v", rep.Files, wantFiles)
	}
	for i, name := range wantFiles {
		if rep.Files[i] != filepath.Join(dir, name) {
			t.Errorf("file %d is %s; want %s", i, rep.Files[i], name)
		}
		if _, err := os.Stat(rep.Files[i]); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}

	comp, err := raster.ReadFile(filepath.Join(dir, ComparisonFileName))
	if err != nil {
		t.Fatal(err)
	}
	if comp.Width != 2*TileWidth || comp.Height != 2*TileHeight {
		t.Errorf("saved comparison is %s", comp.DimensionsToString())
	}

	out := log.String()
	for _, want := range []string{"Image size 96x64, 3 channels", "Shadows:     50%", "Highlights:  40%", "Both 70%/50%",
		"Pixel analysis, original vs. Both 30%/20%", "Pixel (50,200): invalid input"} {
		if !strings.Contains(out, want) {
			t.Errorf("log lacks %q", want)
		}
	}
}

func TestRunComprehensiveRejectsEmpty(t *testing.T) {
	_, err := RunComprehensive(raster.NewImage8(0, 0, 3, nil), t.TempDir(), io.Discard)
	if !errors.Is(err, raster.ErrInvalidInput) {
		t.Errorf("err=%v; want ErrInvalidInput", err)
	}
}

func TestRunOptimized(t *testing.T) {
	img := gradient(500, 300)
	dir := t.TempDir()
	var log bytes.Buffer
	res, err := RunOptimized(img, dir, &log)
	if err != nil {
		t.Fatal(err)
	}
	if res.Width != img.Width || res.Height != img.Height {
		t.Errorf("result is %s; want %s", res.DimensionsToString(), img.DimensionsToString())
	}
	if _, err := os.Stat(filepath.Join(dir, OptimalFileName)); err != nil {
		t.Error(err)
	}
	out := log.String()
	for _, want := range []string{"Shadows:     20%", "Tonal width: 0.40", "Blur radius: 10.0", "Pixel (400,250): BGR"} {
		if !strings.Contains(out, want) {
			t.Errorf("log lacks %q:\n%s", want, out)
		}
	}
}
