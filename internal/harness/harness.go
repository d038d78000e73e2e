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

// Package harness runs the shadows/highlights filter with fixed parameter sets on one image,
// and reports and saves the results side by side.
package harness

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mlnoga/shadowlight/internal/mosaic"
	"github.com/mlnoga/shadowlight/internal/raster"
	"github.com/mlnoga/shadowlight/internal/shadows"
	"github.com/mlnoga/shadowlight/internal/stats"
)

// Size of a single tile in the comparison mosaic
const (
	TileWidth  = 600
	TileHeight = 400
)

const (
	OriginalFileName   = "original.jpg"
	ComparisonFileName = "comparison.jpg"
	OptimalFileName    = "final_optimal_result.jpg"
)

// A named parameter set
type Setting struct {
	Label      string
	FileName   string
	Shadows    float32
	Highlights float32
}

// Parameter sets of the comprehensive run. The first three appear in the mosaic
var ComprehensiveSettings = []Setting{
	{"Shadows 50%", "result_shadows_50.jpg", 0.5, 0},
	{"Highlights 40%", "result_highlights_40.jpg", 0, 0.4},
	{"Both 30%/20%", "result_both_30_20.jpg", 0.3, 0.2},
	{"Both 70%/50%", "result_strong_70_50.jpg", 0.7, 0.5},
}

// Index of the setting whose pixels are compared against the original
const analyzedSetting = 2

// Pixels sampled for before/after comparisons
var AnalysisPoints = []stats.Point{{X: 100, Y: 100}, {X: 50, Y: 200}, {X: 400, Y: 250}}

// Settings of the optimized single run
var OptimalConfig = shadows.Config{ShadowAmount: 0.2, HighlightAmount: 0.2, TonalWidth: 0.4, BlurRadius: 10}

// Result of applying one setting
type Run struct {
	Setting Setting
	Image   *raster.Image8
	Elapsed time.Duration
}

// Results of the comprehensive run
type Report struct {
	Runs       []Run
	Comparison *raster.Image8
	Files      []string // files written, in order
}

// Applies all ComprehensiveSettings with default tonal width and blur radius, prints diagnostics,
// and saves the original, all results and the labelled comparison mosaic into outDir
func RunComprehensive(img *raster.Image8, outDir string, log io.Writer) (*Report, error) {
	fmt.Fprintf(log, "=== Comprehensive shadows/highlights run ===\n")
	stats.PrintImageInfo(log, img)
	if err := printLumStats(log, "Original", img); err != nil {
		return nil, err
	}

	rep := &Report{}
	f := shadows.New()
	for i, s := range ComprehensiveSettings {
		f.SetShadowAmount(s.Shadows)
		f.SetHighlightAmount(s.Highlights)
		fmt.Fprintf(log, "\nRun %d/%d: %s\n", i+1, len(ComprehensiveSettings), s.Label)
		f.PrintSettings(log)

		start := time.Now()
		res, err := f.Apply(img)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Label, err)
		}
		elapsed := time.Since(start)
		fmt.Fprintf(log, "Processed in %v\n", elapsed.Round(time.Millisecond))
		if err := printLumStats(log, s.Label, res); err != nil {
			return nil, err
		}
		rep.Runs = append(rep.Runs, Run{Setting: s, Image: res, Elapsed: elapsed})
	}

	tiles := []mosaic.Tile{{Image: img, Label: "Original"}}
	for _, r := range rep.Runs[:3] {
		tiles = append(tiles, mosaic.Tile{Image: r.Image, Label: r.Setting.Label})
	}
	var err error
	if rep.Comparison, err = mosaic.Compose(tiles, 2, TileWidth, TileHeight); err != nil {
		return nil, err
	}

	fmt.Fprintf(log, "\nPixel analysis, original vs. %s:\n", rep.Runs[analyzedSetting].Setting.Label)
	stats.PrintPixelComparison(log, img, rep.Runs[analyzedSetting].Image, AnalysisPoints)

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}
	save := func(im *raster.Image8, name string) error {
		fileName := filepath.Join(outDir, name)
		if err := im.WriteFile(fileName, raster.DefaultQuality); err != nil {
			return err
		}
		fmt.Fprintf(log, "Saved %s\n", fileName)
		rep.Files = append(rep.Files, fileName)
		return nil
	}
	fmt.Fprintln(log)
	if err := save(img, OriginalFileName); err != nil {
		return nil, err
	}
	for _, r := range rep.Runs {
		if err := save(r.Image, r.Setting.FileName); err != nil {
			return nil, err
		}
	}
	if err := save(rep.Comparison, ComparisonFileName); err != nil {
		return nil, err
	}
	return rep, nil
}

// Applies OptimalConfig, prints diagnostics and saves the result into outDir
func RunOptimized(img *raster.Image8, outDir string, log io.Writer) (*raster.Image8, error) {
	fmt.Fprintf(log, "=== Optimized shadows/highlights run ===\n")
	f := shadows.NewFromConfig(OptimalConfig)
	f.PrintSettings(log)

	start := time.Now()
	res, err := f.Apply(img)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(log, "Processed in %v\n", time.Since(start).Round(time.Millisecond))

	if err := printLumStats(log, "Original", img); err != nil {
		return nil, err
	}
	if err := printLumStats(log, "Result", res); err != nil {
		return nil, err
	}
	stats.PrintPixelComparison(log, img, res, AnalysisPoints)

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}
	fileName := filepath.Join(outDir, OptimalFileName)
	if err := res.WriteFile(fileName, raster.DefaultQuality); err != nil {
		return nil, err
	}
	fmt.Fprintf(log, "Saved %s\n", fileName)
	return res, nil
}

func printLumStats(log io.Writer, label string, img *raster.Image8) error {
	s, err := stats.CalcLumStats(img)
	if err != nil {
		return err
	}
	fmt.Fprintf(log, "%s: %v\n", label, s)
	return nil
}
