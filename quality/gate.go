// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package quality

import (
	"context"
	"image"

	"github.com/disintegration/imaging"
	"github.com/poiesic/lookbook/core"
)

const (
	defaultMinDimension  = 400
	defaultMinFileSize   = 50 * 1024
	defaultMaxFileSize   = 10 * 1024 * 1024
	defaultBlurThreshold = 100.0
	defaultNormalizeSize = 500
)

// Gate validates product images against dimension, file-size and sharpness
// thresholds before they are allowed into embedding generation.
// A Gate is stateless and safe for concurrent use.
type Gate struct {
	minDimension  int
	minFileSize   int64
	maxFileSize   int64
	blurThreshold float64
	normalizeSize int
	fetcher       *Fetcher
}

// Option configures a Gate.
type Option func(*Gate)

// WithMinDimension sets the minimum pixel size for the smallest side.
// Default is 400.
func WithMinDimension(px int) Option {
	return func(g *Gate) {
		g.minDimension = px
	}
}

// WithFileSizeBounds sets the minimum and maximum encoded file size in bytes.
// Defaults are 50 KiB and 10 MiB.
func WithFileSizeBounds(min, max int64) Option {
	return func(g *Gate) {
		g.minFileSize = min
		g.maxFileSize = max
	}
}

// WithBlurThreshold sets the Laplacian-variance threshold below which an
// image is considered blurry. Default is 100.0.
func WithBlurThreshold(threshold float64) Option {
	return func(g *Gate) {
		g.blurThreshold = threshold
	}
}

// WithNormalizeSize sets the target for the longer side when downscaling
// before blur scoring, keeping scores comparable across resolutions.
// Default is 500.
func WithNormalizeSize(px int) Option {
	return func(g *Gate) {
		g.normalizeSize = px
	}
}

// WithFetcher sets the fetcher used by ValidateFromURL.
func WithFetcher(fetcher *Fetcher) Option {
	return func(g *Gate) {
		g.fetcher = fetcher
	}
}

// NewGate creates a quality gate with default thresholds, adjusted by opts.
func NewGate(opts ...Option) *Gate {
	g := &Gate{
		minDimension:  defaultMinDimension,
		minFileSize:   defaultMinFileSize,
		maxFileSize:   defaultMaxFileSize,
		blurThreshold: defaultBlurThreshold,
		normalizeSize: defaultNormalizeSize,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.fetcher == nil {
		g.fetcher = NewFetcher()
	}
	return g
}

// Validate checks an image against the configured thresholds.
// fileSize is the length of the encoded source in bytes; values <= 0 mean
// the size is unknown and skip the byte-size checks.
//
// Checks are evaluated independently, every failing check contributes its
// issue code. Measured fields are always populated.
func (g *Gate) Validate(img image.Image, fileSize int64) core.QualityResult {
	var issues []core.QualityIssue

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	minSide := width
	if height < minSide {
		minSide = height
	}
	if minSide < g.minDimension {
		issues = append(issues, core.QualityIssueTooSmall)
	}

	if fileSize > 0 {
		if fileSize < g.minFileSize {
			issues = append(issues, core.QualityIssueTooSmall)
		} else if fileSize > g.maxFileSize {
			issues = append(issues, core.QualityIssueTooLarge)
		}
	}

	blurScore := g.blurScore(img)
	if blurScore < g.blurThreshold {
		issues = append(issues, core.QualityIssueTooBlurry)
	}

	return core.QualityResult{
		Passed:        len(issues) == 0,
		Issues:        issues,
		BlurScore:     blurScore,
		Width:         width,
		Height:        height,
		FileSizeBytes: fileSize,
	}
}

// ValidateFromURL fetches an image over HTTP, decodes it and validates it.
// Fetch and decode failures are returned to the caller unmodified; there is
// no retry.
func (g *Gate) ValidateFromURL(ctx context.Context, imageURL string) (core.QualityResult, error) {
	img, size, err := g.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		return core.QualityResult{}, err
	}
	return g.Validate(img, size), nil
}

// blurScore computes the variance of the image's Laplacian response.
// Higher values indicate sharper images. The image is converted to grayscale
// and, when its longer side exceeds normalizeSize, downscaled with Lanczos
// resampling so scores are resolution-independent.
func (g *Gate) blurScore(img image.Image) float64 {
	gray := imaging.Grayscale(img)

	w := gray.Bounds().Dx()
	h := gray.Bounds().Dy()
	longSide := w
	if h > longSide {
		longSide = h
	}
	if longSide > g.normalizeSize {
		ratio := float64(g.normalizeSize) / float64(longSide)
		gray = imaging.Resize(gray, int(float64(w)*ratio), int(float64(h)*ratio), imaging.Lanczos)
	}

	return laplacianVariance(gray)
}

// laplacianVariance applies the 3x3 Laplacian kernel
//
//	0  1  0
//	1 -4  1
//	0  1  0
//
// with replicated borders and returns the population variance of the
// response. The input must be grayscale (R == G == B).
func laplacianVariance(gray *image.NRGBA) float64 {
	w := gray.Bounds().Dx()
	h := gray.Bounds().Dy()
	if w == 0 || h == 0 {
		return 0
	}

	at := func(x, y int) float64 {
		if x < 0 {
			x = 0
		} else if x >= w {
			x = w - 1
		}
		if y < 0 {
			y = 0
		} else if y >= h {
			y = h - 1
		}
		return float64(gray.Pix[y*gray.Stride+x*4])
	}

	n := float64(w * h)
	response := make([]float64, 0, w*h)
	var sum float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := at(x-1, y) + at(x+1, y) + at(x, y-1) + at(x, y+1) - 4*at(x, y)
			response = append(response, v)
			sum += v
		}
	}

	mean := sum / n
	var variance float64
	for _, v := range response {
		d := v - mean
		variance += d * d
	}
	return variance / n
}
