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

	"github.com/poiesic/lookbook/core"
	"github.com/poiesic/lookbook/storage"
)

const (
	// DefaultBatchSize is the default number of products fetched per batch.
	DefaultBatchSize = 100
)

// ProductIterator walks the whole product table in keyset-paginated
// batches.
type ProductIterator struct {
	repo      storage.ProductRepository
	batchSize int
}

// NewProductIterator creates a new product iterator.
// batchSize: number of products to fetch in each batch (must be > 0)
func NewProductIterator(repo storage.ProductRepository, batchSize int) *ProductIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ProductIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach iterates over all products, calling fn for each batch.
// Iteration stops on the first error from fn or when the table is
// exhausted. Context cancellation is checked between batches.
func (it *ProductIterator) ForEach(ctx context.Context, fn func([]*core.Product) error) error {
	var cursor storage.ListCursor
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch, err := it.repo.List(ctx, cursor, it.batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		if err := fn(batch); err != nil {
			return err
		}

		if len(batch) < it.batchSize {
			return nil
		}
		last := batch[len(batch)-1]
		cursor = storage.ListCursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
}
