package search

import "errors"

var (
	// ErrProductRepositoryRequired is returned when a product repository is not provided.
	ErrProductRepositoryRequired = errors.New("product repository required")

	// ErrVectorIndexRequired is returned when a vector index is not provided.
	ErrVectorIndexRequired = errors.New("vector index required")

	// ErrEmbedderRequired is returned when an image embedder is not provided.
	ErrEmbedderRequired = errors.New("image embedder required")
)
