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


// Package search finds catalog products visually similar to a query image.
package search

import (
	"context"
	"errors"
	"image"
	"log/slog"

	"github.com/poiesic/lookbook/ai"
	"github.com/poiesic/lookbook/core"
	"github.com/poiesic/lookbook/storage"
)

// Searcher answers similar-product queries by embedding the query image
// and searching the vector index.
type Searcher struct {
	products storage.ProductRepository
	index    storage.VectorIndex
	embedder ai.ImageEmbedder
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	products storage.ProductRepository,
	index storage.VectorIndex,
	embedder ai.ImageEmbedder,
	opts ...Option,
) (*Searcher, error) {
	if products == nil {
		return nil, ErrProductRepositoryRequired
	}
	if index == nil {
		return nil, ErrVectorIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		products: products,
		index:    index,
		embedder: embedder,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// FindSimilar returns up to maxHits products similar to the query image,
// best first. Hits whose relational row has gone missing keep their score
// with a nil Product; the caller decides whether to surface them.
func (s *Searcher) FindSimilar(ctx context.Context, img image.Image, maxHits int) ([]*core.SearchHit, error) {
	vector, err := s.embedder.EmbedImage(ctx, img)
	if err != nil {
		s.logger.Error("error embedding query image", "err", err)
		return nil, err
	}

	matches, err := s.index.Search(ctx, vector, maxHits)
	if err != nil {
		s.logger.Error("vector search failed", "err", err)
		return nil, err
	}

	hits := make([]*core.SearchHit, 0, len(matches))
	for _, match := range matches {
		hit := &core.SearchHit{
			ProductID: match.ProductID,
			Score:     match.Score,
		}
		product, err := s.products.Get(ctx, match.ProductID)
		switch {
		case err == nil:
			hit.Product = product
		case errors.Is(err, storage.ErrNotFound):
			s.logger.Warn("vector hit without a product row", "product_id", match.ProductID)
		default:
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
