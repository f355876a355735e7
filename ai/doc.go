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


// Package ai provides abstractions for the embedding services used in
// Lookbook.
//
// The package defines the ImageEmbedder interface so business logic depends
// on an abstraction rather than a concrete inference backend.
//
// # Implementation Packages
//
//   - ai/siglip: production implementation backed by a FashionSigLIP
//     inference HTTP service
//   - ai/mock: test doubles for unit testing without an inference service
//
// # Lifecycle
//
// Production embedders follow an unloaded -> loaded lifecycle: Load must be
// called once at process start before any embedding call. If loading fails
// the embedder stays unloaded and every embedding call fails fast with
// ErrModelNotLoaded rather than retrying.
//
// # Concurrency
//
// Implementations bound the number of simultaneous heavy inference calls
// with an internal admission gate; callers beyond the bound suspend until a
// slot frees. This caps peak memory and CPU without limiting throughput.
package ai
