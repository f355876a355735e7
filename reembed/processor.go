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


package reembed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/lookbook/ai"
	"github.com/poiesic/lookbook/core"
	"github.com/poiesic/lookbook/quality"
	"github.com/poiesic/lookbook/storage"
)

// BatchProcessor re-embeds one batch of products: refetch the image,
// embed it, upsert the vector.
type BatchProcessor struct {
	fetcher        *quality.Fetcher
	embedder       ai.ImageEmbedder
	index          storage.VectorIndex
	maxRetries     int
	retryBaseDelay time.Duration
	logger         *slog.Logger
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(fetcher *quality.Fetcher, embedder ai.ImageEmbedder, index storage.VectorIndex,
	maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		fetcher:        fetcher,
		embedder:       embedder,
		index:          index,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
		logger:         slog.Default(),
	}
}

// Process re-embeds a batch. Products whose image can no longer be fetched
// are skipped and counted; embedding and index errors abort the batch
// since they indicate the services themselves are down.
func (bp *BatchProcessor) Process(ctx context.Context, products []*core.Product) (processed, skipped int, err error) {
	for _, product := range products {
		img, _, fetchErr := bp.fetcher.Fetch(ctx, product.ImageURL)
		if fetchErr != nil {
			bp.logger.Warn("skipping product, image unavailable",
				"product_id", product.ID, "url", product.ImageURL, "err", fetchErr)
			skipped++
			continue
		}

		var vector []float32
		err = RetryWithBackoff(ctx, func() error {
			var embedErr error
			vector, embedErr = bp.embedder.EmbedImage(ctx, img)
			return embedErr
		}, bp.maxRetries, bp.retryBaseDelay)
		if err != nil {
			return processed, skipped, fmt.Errorf("failed to generate embedding after %d attempts: %w", bp.maxRetries, err)
		}

		err = bp.index.Upsert(ctx, storage.VectorPoint{
			ProductID: product.ID,
			Vector:    vector,
			StoreID:   product.StoreID,
			Price:     product.Price.InexactFloat64(),
			CreatedAt: product.CreatedAt,
		})
		if err != nil {
			return processed, skipped, fmt.Errorf("failed to upsert vector for %s: %w", product.ID, err)
		}
		processed++
	}
	return processed, skipped, nil
}
