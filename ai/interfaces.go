package ai

import (
	"context"
	"image"
)

// ImageEmbedder generates vector embeddings from product images for
// similarity search. Implementations must be thread-safe for concurrent use.
type ImageEmbedder interface {
	// EmbedImage generates an embedding for a single image.
	// Every returned vector is L2-normalized, so downstream similarity
	// search can use plain dot product as cosine similarity.
	// Fails with ErrModelNotLoaded if the model has not been loaded.
	EmbedImage(ctx context.Context, img image.Image) ([]float32, error)

	// EmbedImages generates embeddings for multiple images.
	// The returned slice preserves input order. Images are processed in
	// fixed-size chunks; the first failing chunk aborts the remainder.
	EmbedImages(ctx context.Context, imgs []image.Image) ([][]float32, error)

	// Loaded reports whether the model is ready to serve embeddings.
	Loaded() bool

	// Dimension returns the length of vectors this embedder produces.
	Dimension() int

	// ModelName returns the identifier of the underlying model.
	ModelName() string
}
