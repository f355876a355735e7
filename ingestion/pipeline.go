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


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/lookbook/ai"
	"github.com/poiesic/lookbook/core"
	"github.com/poiesic/lookbook/quality"
	"github.com/poiesic/lookbook/storage"
)

// Stable prefixes for IngestionResult.Error. Sync reports bucket failures
// by these.
const (
	msgDuplicate      = "product already exists"
	msgFetchFailed    = "image fetch failed"
	msgQualityFailed  = "quality check failed"
	msgEmbedFailed    = "embedding failed"
	msgStorageFailed  = "database write failed"
	msgIndexingFailed = "vector index write failed"
)

// Pipeline runs the full ingestion flow for one product at a time:
// duplicate check, image fetch, quality validation, embedding, then the
// dual write to the relational store and the vector index.
type Pipeline struct {
	products storage.ProductRepository
	index    storage.VectorIndex
	gate     *quality.Gate
	fetcher  *quality.Fetcher
	embedder ai.ImageEmbedder
	logger   *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPipelineLogger sets a custom logger.
// Default is slog.Default().
func WithPipelineLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
	}
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(
	products storage.ProductRepository,
	index storage.VectorIndex,
	gate *quality.Gate,
	fetcher *quality.Fetcher,
	embedder ai.ImageEmbedder,
	opts ...PipelineOption,
) (*Pipeline, error) {
	if products == nil {
		return nil, ErrProductRepositoryRequired
	}
	if index == nil {
		return nil, ErrVectorIndexRequired
	}
	if gate == nil {
		return nil, ErrQualityGateRequired
	}
	if fetcher == nil {
		return nil, ErrFetcherRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	p := &Pipeline{
		products: products,
		index:    index,
		gate:     gate,
		fetcher:  fetcher,
		embedder: embedder,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Ingest runs the pipeline for a single product. Failures are reported in
// the result rather than as an error return; the caller decides whether a
// failed item aborts anything.
func (p *Pipeline) Ingest(ctx context.Context, data core.ProductCreate) core.IngestionResult {
	// 1. Duplicate check. The unique index on (external_id, store_id)
	// still backstops this during the insert below.
	exists, err := p.products.Exists(ctx, data.ExternalID, data.StoreID)
	if err != nil {
		return failure("%s: %v", msgStorageFailed, err)
	}
	if exists {
		return failure(msgDuplicate)
	}

	// 2. Fetch image
	img, fileSize, err := p.fetcher.Fetch(ctx, data.ImageURL)
	if err != nil {
		p.logger.Warn("failed to fetch image", "url", data.ImageURL, "err", err)
		return failure("%s: %v", msgFetchFailed, err)
	}

	// 3. Validate quality
	qualityResult := p.gate.Validate(img, fileSize)
	if !qualityResult.Passed {
		return core.IngestionResult{
			Success:       false,
			Error:         msgQualityFailed,
			QualityIssues: qualityResult.Issues,
		}
	}

	// 4. Generate embedding
	vector, err := p.embedder.EmbedImage(ctx, img)
	if err != nil {
		p.logger.Error("embedding generation failed", "err", err)
		return failure("%s: %v", msgEmbedFailed, err)
	}

	// 5. Store in PostgreSQL
	product, err := p.products.Create(ctx, data)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			// concurrent ingest of the same product won the race
			return failure(msgDuplicate)
		}
		return failure("%s: %v", msgStorageFailed, err)
	}

	// 6. Store embedding in the vector index
	err = p.index.Upsert(ctx, storage.VectorPoint{
		ProductID: product.ID,
		Vector:    vector,
		StoreID:   product.StoreID,
		Price:     product.Price.InexactFloat64(),
		CreatedAt: product.CreatedAt,
	})
	if err != nil {
		// Roll back the fresh row so the two stores don't diverge.
		// Best effort: a failed delete leaves an orphan row that the
		// reembed job can repair later.
		if delErr := p.products.Delete(ctx, product.ID); delErr != nil {
			p.logger.Error("failed to roll back product after index error",
				"product_id", product.ID, "err", delErr)
		}
		return failure("%s: %v", msgIndexingFailed, err)
	}

	p.logger.Debug("product ingested",
		"product_id", product.ID,
		"external_id", product.ExternalID,
		"store_id", product.StoreID)

	return core.IngestionResult{Success: true, ProductID: product.ID}
}

func failure(format string, args ...any) core.IngestionResult {
	return core.IngestionResult{
		Success: false,
		Error:   fmt.Sprintf(format, args...),
	}
}

// rejectionReason buckets a failed result into a stable counter key.
func rejectionReason(r core.IngestionResult) string {
	if len(r.QualityIssues) > 0 {
		return "quality_" + string(r.QualityIssues[0])
	}
	switch {
	case r.Error == msgDuplicate:
		return "duplicate"
	case strings.HasPrefix(r.Error, msgFetchFailed):
		return "fetch_failed"
	case strings.HasPrefix(r.Error, msgEmbedFailed):
		return "embedding_failed"
	case strings.HasPrefix(r.Error, msgStorageFailed):
		return "storage_failed"
	case strings.HasPrefix(r.Error, msgIndexingFailed):
		return "indexing_failed"
	default:
		return "error"
	}
}
