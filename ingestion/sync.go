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
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/lookbook/catalog"
	"github.com/poiesic/lookbook/core"
	"github.com/poiesic/lookbook/storage"
)

// Sync drives a full catalog sync for one store: fetch pages from the
// store API, transform, and feed valid products through the pipeline on a
// worker pool. Item failures are counted, never fatal.
type Sync struct {
	client      *catalog.Client
	transformer *catalog.Transformer
	pipeline    *Pipeline
	syncState   storage.SyncStateRepository // optional; enables resume
	pool        *ants.Pool
	logger      *slog.Logger
}

// SyncOption configures a Sync.
type SyncOption func(*Sync) error

// WithPoolSize sets the worker pool size for concurrent ingestion.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) SyncOption {
	return func(s *Sync) error {
		if size < 1 {
			size = 1
		}
		if s.pool != nil {
			s.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		s.pool = pool
		return nil
	}
}

// WithSyncState enables checkpointing so an interrupted sync resumes from
// the page after the last completed one.
func WithSyncState(repo storage.SyncStateRepository) SyncOption {
	return func(s *Sync) error {
		s.syncState = repo
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) SyncOption {
	return func(s *Sync) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSync creates a sync driver for one store.
func NewSync(
	client *catalog.Client,
	transformer *catalog.Transformer,
	pipeline *Pipeline,
	opts ...SyncOption,
) (*Sync, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	if transformer == nil {
		return nil, ErrTransformerRequired
	}
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	s := &Sync{
		client:      client,
		transformer: transformer,
		pipeline:    pipeline,
		pool:        pool,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if optErr := opt(s); optErr != nil {
			s.Release()
			return nil, optErr
		}
	}
	return s, nil
}

// Run executes the sync and returns a report of what happened. The report
// is valid even when err is non-nil; it covers everything processed up to
// the failure.
func (s *Sync) Run(ctx context.Context) (*core.SyncReport, error) {
	storeID := s.transformer.StoreID()
	report := &core.SyncReport{StoreID: storeID}

	startPage := 1
	if s.syncState != nil {
		checkpoint, err := s.syncState.LoadCheckpoint(ctx, storeID)
		if err != nil {
			return report, err
		}
		if checkpoint != nil {
			startPage = checkpoint.LastPage + 1
			s.logger.Info("resuming sync from checkpoint",
				"store_id", storeID, "page", startPage)
		}
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	visit := func(raw catalog.Product) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		mu.Lock()
		report.TotalFetched++
		mu.Unlock()

		data, reason, ok := s.transformer.Transform(raw)
		if !ok {
			mu.Lock()
			report.AddRejection(string(reason))
			mu.Unlock()
			return nil
		}

		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			result := s.pipeline.Ingest(ctx, data)

			mu.Lock()
			defer mu.Unlock()
			if result.Success {
				report.TotalValid++
			} else {
				report.AddRejection(rejectionReason(result))
			}
		})
		if err != nil {
			wg.Done()
			return err
		}
		return nil
	}

	// Checkpoint only after every item on the page has settled, so a
	// resume never skips half-processed work.
	onPage := func(page int) error {
		wg.Wait()
		if s.syncState == nil {
			return nil
		}
		return s.syncState.SaveCheckpoint(ctx, &core.SyncCheckpoint{
			StoreID:  storeID,
			LastPage: page,
		})
	}

	err := s.client.All(ctx, startPage, visit, onPage)
	wg.Wait()
	if err != nil {
		return report, err
	}

	if s.syncState != nil {
		if clearErr := s.syncState.ClearCheckpoint(ctx, storeID); clearErr != nil {
			s.logger.Warn("failed to clear sync checkpoint",
				"store_id", storeID, "err", clearErr)
		}
	}

	s.logger.Info("sync complete",
		"store_id", storeID,
		"fetched", report.TotalFetched,
		"valid", report.TotalValid,
		"rejected", report.TotalRejected)

	return report, nil
}

// Release releases the worker pool. The sync must not be used afterwards.
func (s *Sync) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}
