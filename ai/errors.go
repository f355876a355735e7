package ai

import "errors"

var (
	// ErrModelNotLoaded is returned when an embedding is requested before
	// the model has been loaded, or after loading failed.
	ErrModelNotLoaded = errors.New("model not loaded")

	// ErrModelLoadFailed is returned when the one-time model load step fails.
	ErrModelLoadFailed = errors.New("model load failed")

	// ErrEmbeddingFailed is returned when the inference service fails to
	// produce embeddings.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrDimensionMismatch is returned when the inference service produces
	// a vector of unexpected length.
	ErrDimensionMismatch = errors.New("unexpected embedding dimension")
)
