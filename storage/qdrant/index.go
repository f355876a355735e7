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


// Package qdrant implements the vector index on a Qdrant cluster over gRPC.
//
// Each product contributes exactly one point, keyed by its product UUID, so
// re-ingesting a product replaces its vector instead of accumulating
// duplicates.
package qdrant

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/lookbook/storage"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultCollection = "products"
	defaultVectorSize = 768

	// maxRecvMsgSize leaves room for large search responses with full
	// payloads attached.
	maxRecvMsgSize = 16 * 1024 * 1024
)

// Index implements storage.VectorIndex on Qdrant.
type Index struct {
	client     *qdrant.Client
	collection string
	vectorSize uint64
	logger     *slog.Logger
}

var _ storage.VectorIndex = (*Index)(nil)

// Option configures an Index.
type Option func(*Index)

// WithCollection overrides the collection name.
func WithCollection(name string) Option {
	return func(i *Index) {
		i.collection = name
	}
}

// WithVectorSize overrides the expected embedding dimensionality.
func WithVectorSize(size uint64) Option {
	return func(i *Index) {
		i.vectorSize = size
	}
}

// WithLogger sets the logger used for index operations.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Index) {
		i.logger = logger
	}
}

// NewIndex connects to Qdrant at host:port.
func NewIndex(host string, port int, opts ...Option) (storage.VectorIndex, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(maxRecvMsgSize)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	idx := &Index{
		client:     client,
		collection: defaultCollection,
		vectorSize: defaultVectorSize,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx, nil
}

// EnsureCollection creates the collection with cosine distance if it
// doesn't exist yet.
func (i *Index) EnsureCollection(ctx context.Context) error {
	exists, err := i.client.CollectionExists(ctx, i.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = i.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: i.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     i.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", i.collection, err)
	}
	i.logger.Info("created vector collection",
		"collection", i.collection, "size", i.vectorSize)
	return nil
}

// Upsert writes one point keyed by the product ID. Waits for the write to
// be applied so a subsequent search sees it.
func (i *Index) Upsert(ctx context.Context, point storage.VectorPoint) error {
	if uint64(len(point.Vector)) != i.vectorSize {
		return fmt.Errorf("vector has %d dimensions, collection expects %d",
			len(point.Vector), i.vectorSize)
	}

	_, err := i.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: i.collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDUUID(point.ProductID.String()),
				Vectors: qdrant.NewVectors(point.Vector...),
				Payload: qdrant.NewValueMap(map[string]any{
					"product_id": point.ProductID.String(),
					"store_id":   point.StoreID,
					"price":      point.Price,
					"created_at": point.CreatedAt.UTC().Format(time.RFC3339),
				}),
			},
		},
	})
	if err != nil {
		return mapGRPCError(fmt.Sprintf("failed to upsert point %s", point.ProductID), err)
	}
	return nil
}

// Search returns the closest points to the query vector, best first.
func (i *Index) Search(ctx context.Context, vector []float32, limit int) ([]storage.VectorMatch, error) {
	points, err := i.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: i.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
	})
	if err != nil {
		return nil, mapGRPCError("vector search failed", err)
	}

	matches := make([]storage.VectorMatch, 0, len(points))
	for _, p := range points {
		id, err := uuid.Parse(p.GetId().GetUuid())
		if err != nil {
			i.logger.Warn("skipping point with non-UUID id", "id", p.GetId().String())
			continue
		}
		matches = append(matches, storage.VectorMatch{
			ProductID: id,
			Score:     p.GetScore(),
		})
	}
	return matches, nil
}

// Delete removes the point for a product. Deleting a missing point is a
// no-op in Qdrant.
func (i *Index) Delete(ctx context.Context, productID uuid.UUID) error {
	_, err := i.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: i.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(qdrant.NewIDUUID(productID.String())),
	})
	if err != nil {
		return mapGRPCError(fmt.Sprintf("failed to delete point %s", productID), err)
	}
	return nil
}

// Healthy reports whether the cluster answers a health check and the
// collection exists.
func (i *Index) Healthy(ctx context.Context) bool {
	if _, err := i.client.HealthCheck(ctx); err != nil {
		return false
	}
	exists, err := i.client.CollectionExists(ctx, i.collection)
	return err == nil && exists
}

// Close releases the gRPC connection.
func (i *Index) Close() error {
	return i.client.Close()
}

// mapGRPCError folds gRPC status codes into storage errors. A NotFound
// from the cluster usually means the collection is gone.
func mapGRPCError(op string, err error) error {
	if s, ok := status.FromError(err); ok && s.Code() == codes.NotFound {
		return fmt.Errorf("%s: %w: %s", op, storage.ErrNotFound, s.Message())
	}
	return fmt.Errorf("%s: %w", op, err)
}
