package ingestion

import "errors"

var (
	// ErrProductRepositoryRequired is returned when a product repository is not provided.
	ErrProductRepositoryRequired = errors.New("product repository required")

	// ErrVectorIndexRequired is returned when a vector index is not provided.
	ErrVectorIndexRequired = errors.New("vector index required")

	// ErrQualityGateRequired is returned when a quality gate is not provided.
	ErrQualityGateRequired = errors.New("quality gate required")

	// ErrEmbedderRequired is returned when an image embedder is not provided.
	ErrEmbedderRequired = errors.New("image embedder required")

	// ErrFetcherRequired is returned when an image fetcher is not provided.
	ErrFetcherRequired = errors.New("image fetcher required")

	// ErrClientRequired is returned when a store client is not provided.
	ErrClientRequired = errors.New("store client required")

	// ErrTransformerRequired is returned when a transformer is not provided.
	ErrTransformerRequired = errors.New("transformer required")

	// ErrPipelineRequired is returned when a pipeline is not provided.
	ErrPipelineRequired = errors.New("pipeline required")
)
