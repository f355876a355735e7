package mock

import (
	"context"
	"hash/fnv"
	"image"
	"math"

	"github.com/poiesic/lookbook/ai"
)

// ImageEmbedder is a test double for ai.ImageEmbedder.
// It allows custom behavior injection via function fields.
type ImageEmbedder struct {
	// EmbedImageFunc is called by EmbedImage if set.
	// If nil, uses default deterministic behavior.
	EmbedImageFunc func(ctx context.Context, img image.Image) ([]float32, error)

	// EmbedImagesFunc is called by EmbedImages if set.
	// If nil, uses default deterministic behavior.
	EmbedImagesFunc func(ctx context.Context, imgs []image.Image) ([][]float32, error)

	// NotLoaded makes the embedder report an unloaded model and fail
	// every embedding call with ai.ErrModelNotLoaded.
	NotLoaded bool

	callCount int
}

var _ ai.ImageEmbedder = (*ImageEmbedder)(nil)

// NewImageEmbedder creates a mock embedder with default deterministic
// behavior. Returns the concrete type to allow test assertions.
func NewImageEmbedder() *ImageEmbedder {
	return &ImageEmbedder{}
}

// EmbedImage generates a deterministic unit-norm embedding from the image
// bounds and a sample of its pixels.
func (m *ImageEmbedder) EmbedImage(ctx context.Context, img image.Image) ([]float32, error) {
	m.callCount++

	if m.NotLoaded {
		return nil, ai.ErrModelNotLoaded
	}
	if m.EmbedImageFunc != nil {
		return m.EmbedImageFunc(ctx, img)
	}
	return deterministicVector(img, 768), nil
}

// EmbedImages generates deterministic embeddings for multiple images,
// preserving input order.
func (m *ImageEmbedder) EmbedImages(ctx context.Context, imgs []image.Image) ([][]float32, error) {
	m.callCount++

	if m.NotLoaded {
		return nil, ai.ErrModelNotLoaded
	}
	if m.EmbedImagesFunc != nil {
		return m.EmbedImagesFunc(ctx, imgs)
	}

	embeddings := make([][]float32, len(imgs))
	for i, img := range imgs {
		embeddings[i] = deterministicVector(img, 768)
	}
	return embeddings, nil
}

// Loaded reports the inverse of NotLoaded.
func (m *ImageEmbedder) Loaded() bool {
	return !m.NotLoaded
}

// Dimension returns 768, matching the production embedder.
func (m *ImageEmbedder) Dimension() int {
	return 768
}

// ModelName returns a fixed test model identifier.
func (m *ImageEmbedder) ModelName() string {
	return "mock/fashion-embedder"
}

// CallCount returns the number of times any embedding method was called.
func (m *ImageEmbedder) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *ImageEmbedder) Reset() {
	m.callCount = 0
	m.EmbedImageFunc = nil
	m.EmbedImagesFunc = nil
	m.NotLoaded = false
}

// deterministicVector creates a unit-norm embedding from image content.
// The same image always produces the same vector.
func deterministicVector(img image.Image, dim int) []float32 {
	h := fnv.New32a()
	bounds := img.Bounds()
	h.Write([]byte{
		byte(bounds.Dx()), byte(bounds.Dx() >> 8),
		byte(bounds.Dy()), byte(bounds.Dy() >> 8),
	})
	// Sample a handful of pixels so different content hashes differently.
	for i := 0; i < 8; i++ {
		x := bounds.Min.X + i*bounds.Dx()/8
		y := bounds.Min.Y + i*bounds.Dy()/8
		r, g, b, _ := img.At(x, y).RGBA()
		h.Write([]byte{byte(r >> 8), byte(g >> 8), byte(b >> 8)})
	}
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000)/1000.0 - 0.5
	}

	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares > 0 {
		norm := float32(math.Sqrt(sumSquares))
		for i := range vector {
			vector[i] /= norm
		}
	}
	return vector
}
