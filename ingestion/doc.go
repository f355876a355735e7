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


// Package ingestion orchestrates product intake.
//
// Pipeline handles one product end to end: duplicate detection, image
// fetch, quality validation, embedding, then the dual write to PostgreSQL
// and the vector index. When the vector write fails the fresh row is
// rolled back so the stores don't diverge.
//
// Sync drives a whole-store run on top of Pipeline: it pages through the
// store API, transforms raw products, and ingests valid ones concurrently
// on a worker pool. Each item succeeds or fails on its own; the run
// produces a report with per-reason rejection counts. With a sync-state
// repository attached, completed pages are checkpointed so an interrupted
// run resumes where it left off.
package ingestion
