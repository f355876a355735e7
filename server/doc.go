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

// Package server exposes the catalog backend over HTTP.
//
// The surface is deliberately thin: health probes for every subsystem,
// single-product ingestion, similarity search, and a couple of
// inspection endpoints for the embedding model and quality gate. Batch
// ingestion runs out-of-band through the sync command, not through this
// API.
package server
