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
	"io"
	"time"

	"github.com/poiesic/lookbook/ai"
	"github.com/poiesic/lookbook/core"
	"github.com/poiesic/lookbook/quality"
	"github.com/poiesic/lookbook/storage"
)

// Config holds configuration for the reembedding run.
type Config struct {
	// BatchSize is the number of products to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of products)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for embedding calls
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder orchestrates re-embedding every product in the catalog.
type Reembedder struct {
	products  storage.ProductRepository
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *ProductIterator
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(
	products storage.ProductRepository,
	index storage.VectorIndex,
	fetcher *quality.Fetcher,
	embedder ai.ImageEmbedder,
	config *Config,
	progress io.Writer,
) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}

	return &Reembedder{
		products:  products,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(fetcher, embedder, index, config.MaxRetries, config.RetryDelay),
		iterator:  NewProductIterator(products, config.BatchSize),
	}
}

// Run executes the reembedding run. Every product's vector is regenerated
// from its image; products whose image has disappeared are skipped.
func (r *Reembedder) Run(ctx context.Context) error {
	total, err := r.products.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(r.progress, "No products found in database (0 products)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d products (batch size: %d)\n",
		total, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, int(total), r.config.ReportInterval)
	tracker.Start()

	var seen, skipped int
	err = r.iterator.ForEach(ctx, func(products []*core.Product) error {
		_, batchSkipped, procErr := r.processor.Process(ctx, products)
		if procErr != nil {
			return procErr
		}
		seen += len(products)
		skipped += batchSkipped
		tracker.Update(seen)
		return nil
	})
	if err != nil {
		return err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d products (%d skipped) in %v (%.1f products/sec)\n",
		seen, skipped, elapsed.Round(time.Second), float64(seen)/elapsed.Seconds())

	return nil
}
