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


// Package storage provides the storage abstraction layer for lookbook.
//
// This package defines repository interfaces that decouple storage
// implementation from business logic. The catalog persists to two stores
// that this layer keeps behind separate interfaces:
//
//   - ProductRepository / UserRepository: relational rows (PostgreSQL)
//   - VectorIndex: product embeddings for similarity search (Qdrant)
//   - SyncStateRepository: catalog-sync checkpoints (BadgerDB)
//   - ObjectStore: image objects (S3-compatible)
//
// # Constructor Return Type Pattern
//
// This package follows a strict "return interface" pattern for all public
// constructors to enforce abstraction and enable multiple backend
// implementations:
//
//	repo, err := postgres.NewProductRepository(ctx, dsn)  // returns storage.ProductRepository
//
// Internal package constructors may return concrete types since they're
// only used within the implementation package.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation and
// timeout support.
package storage
