package server

import "errors"

var (
	// ErrProductRepositoryRequired indicates no product repository was provided.
	ErrProductRepositoryRequired = errors.New("product repository is required")

	// ErrEmbedderRequired indicates no image embedder was provided.
	ErrEmbedderRequired = errors.New("image embedder is required")

	// ErrQualityGateRequired indicates no quality gate was provided.
	ErrQualityGateRequired = errors.New("quality gate is required")

	// ErrFetcherRequired indicates no image fetcher was provided.
	ErrFetcherRequired = errors.New("image fetcher is required")

	// ErrPipelineRequired indicates no ingestion pipeline was provided.
	ErrPipelineRequired = errors.New("ingestion pipeline is required")

	// ErrSearcherRequired indicates no searcher was provided.
	ErrSearcherRequired = errors.New("searcher is required")
)
