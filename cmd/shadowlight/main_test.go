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


package main

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mlnoga/shadowlight/internal/raster"
)

func TestConfigFromFlags(t *testing.T) {
	defer func(s, r float64) { *shadowAmount, *blurRadius = s, r }(*shadowAmount, *blurRadius)
	*shadowAmount, *blurRadius = 1.5, 12
	cfg := configFromFlags()
	if cfg.ShadowAmount != 1 || cfg.BlurRadius != 12 || cfg.HighlightAmount != 0.3 {
		t.Errorf("config %+v; want clamped shadows 1, radius 12, default highlights", cfg)
	}
}

func TestCmdApply(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	img := raster.NewImage8(6, 4, 3, nil)
	for i := range img.Data {
		img.Data[i] = uint8(i * 5)
	}
	if err := img.WriteFile(in, 0); err != nil {
		t.Fatal(err)
	}

	defer func(o string) { *out = o }(*out)
	*out = filepath.Join(dir, "out.png")
	var log bytes.Buffer
	if err := cmdApply([]string{in}, &log); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(log.String(), `"shadowHighlight"`) {
		t.Errorf("log %q lacks the settings", log.String())
	}
	res, err := raster.ReadFile(*out)
	if err != nil {
		t.Fatal(err)
	}
	if res.Width != 6 || res.Height != 4 {
		t.Errorf("result is %s; want 6x4x3", res.DimensionsToString())
	}

	if err := cmdApply(nil, io.Discard); err == nil {
		t.Errorf("apply without input succeeded")
	}
}

func TestCmdPipeline(t *testing.T) {
	dir := t.TempDir()
	fileName := filepath.Join(dir, "steps.json")
	if err := os.WriteFile(fileName, []byte(`{"type":"bogus"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := cmdPipeline([]string{fileName}, io.Discard); err == nil {
		t.Errorf("pipeline with unknown operator succeeded")
	}
	if err := cmdPipeline([]string{filepath.Join(dir, "missing.json")}, io.Discard); err == nil {
		t.Errorf("pipeline from missing file succeeded")
	}
}

func TestLegalListsDirectRequires(t *testing.T) {
	f, err := os.Open(filepath.Join("..", "..", "go.mod"))
	if err != nil {
		t.Skip(err)
	}
	defer f.Close()

	inRequire, found := false, 0
	for s := bufio.NewScanner(f); s.Scan(); {
		line := strings.TrimSpace(s.Text())
		switch {
		case line == "require (":
			inRequire = true
		case line == ")":
			inRequire = false
		case inRequire && line != "" && !strings.Contains(line, "// indirect"):
			found++
			if mod := strings.Fields(line)[0]; !strings.Contains(legal, "["+mod+"]") {
				t.Errorf("legal text lacks direct dependency %s", mod)
			}
		}
	}
	if found == 0 {
		t.Errorf("no direct dependencies found in go.mod")
	}
}
