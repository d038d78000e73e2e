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

// Package shadows implements a shadows/highlights filter. Shadows are lifted and highlights
// pulled down on the Lab lightness channel only, weighted by smooth tonal masks, so hue and
// chroma are preserved.
package shadows

import (
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/mlnoga/shadowlight/internal/lab"
	"github.com/mlnoga/shadowlight/internal/mask"
	"github.com/mlnoga/shadowlight/internal/raster"
	"golang.org/x/exp/constraints"
)

const (
	// Scales both corrections
	CorrectionStrength = 0.7

	// Corrected luminance stays within [lum*RangeDamping, 1-(1-lum)*RangeDamping]
	RangeDamping = 0.3

	// Upper limit for the blur radius
	MaxBlurRadius = 50
)

// Default settings
const (
	DefaultShadowAmount    = 0.3
	DefaultHighlightAmount = 0.3
	DefaultTonalWidth      = 0.5
	DefaultBlurRadius      = 15.0
)

// Filter configuration. All values are clamped into their valid ranges, never rejected.
type Config struct {
	ShadowAmount    float32 `json:"shadows"`    // [0,1]
	HighlightAmount float32 `json:"highlights"` // [0,1]
	TonalWidth      float32 `json:"width"`      // [0,1]
	BlurRadius      float32 `json:"radius"`     // [0,MaxBlurRadius]
}

// Returns the default configuration
func DefaultConfig() Config {
	return Config{
		ShadowAmount:    DefaultShadowAmount,
		HighlightAmount: DefaultHighlightAmount,
		TonalWidth:      DefaultTonalWidth,
		BlurRadius:      DefaultBlurRadius,
	}
}

// Returns a copy with every value clamped into its valid range
func (c Config) Clamped() Config {
	return Config{
		ShadowAmount:    clamp(c.ShadowAmount, 0, 1),
		HighlightAmount: clamp(c.HighlightAmount, 0, 1),
		TonalWidth:      clamp(c.TonalWidth, 0, 1),
		BlurRadius:      clamp(c.BlurRadius, 0, MaxBlurRadius),
	}
}

func clamp[T constraints.Float](v, lo, hi T) T {
	if v < lo || v != v {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// A shadows/highlights filter. Safe for concurrent use.
type Filter struct {
	mu  sync.RWMutex
	cfg Config
}

// A functional option for New
type Option func(*Config)

func WithShadowAmount(v float32) Option    { return func(c *Config) { c.ShadowAmount = v } }
func WithHighlightAmount(v float32) Option { return func(c *Config) { c.HighlightAmount = v } }
func WithTonalWidth(v float32) Option      { return func(c *Config) { c.TonalWidth = v } }
func WithBlurRadius(v float32) Option      { return func(c *Config) { c.BlurRadius = v } }

// Creates a filter with default settings, modified by the given options
func New(opts ...Option) *Filter {
	cfg := DefaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &Filter{cfg: cfg.Clamped()}
}

// Creates a filter from positional values
func NewWithValues(shadows, highlights, width, radius float32) *Filter {
	return New(WithShadowAmount(shadows), WithHighlightAmount(highlights), WithTonalWidth(width), WithBlurRadius(radius))
}

// Creates a filter from a configuration
func NewFromConfig(cfg Config) *Filter {
	return &Filter{cfg: cfg.Clamped()}
}

// Returns a snapshot of the effective configuration
func (f *Filter) Config() Config {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.cfg
}

func (f *Filter) update(fn func(*Config)) {
	f.mu.Lock()
	fn(&f.cfg)
	f.cfg = f.cfg.Clamped()
	f.mu.Unlock()
}

func (f *Filter) SetShadowAmount(v float32)    { f.update(WithShadowAmount(v)) }
func (f *Filter) SetHighlightAmount(v float32) { f.update(WithHighlightAmount(v)) }
func (f *Filter) SetTonalWidth(v float32)      { f.update(WithTonalWidth(v)) }
func (f *Filter) SetBlurRadius(v float32)      { f.update(WithBlurRadius(v)) }

// Read-only settings report, with amounts in percent
type Settings struct {
	ShadowPercent    float32 `json:"shadowPercent"`
	HighlightPercent float32 `json:"highlightPercent"`
	TonalWidth       float32 `json:"tonalWidth"`
	BlurRadius       float32 `json:"blurRadius"`
}

// Returns the current settings report
func (f *Filter) Settings() Settings {
	cfg := f.Config()
	return Settings{
		ShadowPercent:    cfg.ShadowAmount * 100,
		HighlightPercent: cfg.HighlightAmount * 100,
		TonalWidth:       cfg.TonalWidth,
		BlurRadius:       cfg.BlurRadius,
	}
}

func (s Settings) String() string {
	return fmt.Sprintf("Shadows %.0f%%, highlights %.0f%%, tonal width %.2f, blur radius %.1f",
		s.ShadowPercent, s.HighlightPercent, s.TonalWidth, s.BlurRadius)
}

// Writes the settings report to the given writer
func (f *Filter) PrintSettings(w io.Writer) {
	s := f.Settings()
	fmt.Fprintf(w, "Current filter settings:\n")
	fmt.Fprintf(w, "  Shadows:     %.0f%%\n", s.ShadowPercent)
	fmt.Fprintf(w, "  Highlights:  %.0f%%\n", s.HighlightPercent)
	fmt.Fprintf(w, "  Tonal width: %.2f\n", s.TonalWidth)
	fmt.Fprintf(w, "  Blur radius: %.1f\n", s.BlurRadius)
}

// Applies the filter to a three channel BGR image, returning a new image. The input is not modified.
// Fails with raster.ErrInvalidInput on empty or malformed images, or images without three channels.
func (f *Filter) Apply(img *raster.Image8) (*raster.Image8, error) {
	if img.Empty() {
		return nil, fmt.Errorf("%w: empty image", raster.ErrInvalidInput)
	}
	if !img.Valid() {
		return nil, fmt.Errorf("%w: %d bytes of pixel data for a %s image", raster.ErrInvalidInput, len(img.Data), img.DimensionsToString())
	}
	cfg := f.Config()

	planes, err := raster.Split(lab.ToLab(img))
	if err != nil {
		return nil, err
	}

	lum := planes[0]
	lum.Scale(1.0 / 255)
	sm := mask.Shadow(lum, cfg.TonalWidth, cfg.BlurRadius)
	hm := mask.Highlight(lum, cfg.TonalWidth, cfg.BlurRadius)
	Correct(lum, sm, hm, cfg.ShadowAmount, cfg.HighlightAmount)
	lum.Scale(255)

	merged, err := raster.Merge(planes[:])
	if err != nil {
		return nil, err
	}
	return lab.ToBGR(merged), nil
}

// Applies the filter to a Go image. Alpha is dropped
func (f *Filter) ApplyImage(src image.Image) (*image.NRGBA, error) {
	res, err := f.Apply(raster.FromImage(src))
	if err != nil {
		return nil, err
	}
	return res.ToNRGBA(), nil
}

// Corrects a normalized luminance plane in place, given shadow and highlight masks of the same size
func Correct(lum, shadowMask, highlightMask *raster.Plane, shadowAmount, highlightAmount float32) {
	width := lum.Width
	raster.ParallelRows(lum.Height, func(yStart, yEnd int) {
		for i := yStart * width; i < yEnd*width; i++ {
			lum.Data[i] = float32(CorrectPixel(float64(lum.Data[i]), float64(shadowMask.Data[i]),
				float64(highlightMask.Data[i]), float64(shadowAmount), float64(highlightAmount)))
		}
	})
}

// Corrects a single normalized luminance value
func CorrectPixel(lum, shadowWeight, highlightWeight, shadowAmount, highlightAmount float64) float64 {
	shadowCorrection := shadowAmount * shadowWeight * (1 - lum) * CorrectionStrength
	highlightCorrection := highlightAmount * highlightWeight * lum * CorrectionStrength
	corrected := lum + shadowCorrection - highlightCorrection

	lo, hi := lum*RangeDamping, 1-(1-lum)*RangeDamping
	if corrected < lo {
		return lo
	}
	if corrected > hi {
		return hi
	}
	return corrected
}
