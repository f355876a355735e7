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


// Package badger provides a BadgerDB-backed sync-state repository.
//
// Catalog-sync checkpoints are small and local to a single node, so they
// live in an embedded store rather than the relational database.
package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/lookbook/core"
	"github.com/poiesic/lookbook/storage"
)

const syncStatePrefix = "syncst"

// makeSyncStateKey generates a key for a store's sync checkpoint.
func makeSyncStateKey(storeID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", syncStatePrefix, storeID))
}

// SyncStateRepository implements storage.SyncStateRepository for BadgerDB.
type SyncStateRepository struct {
	backend *Backend
}

var _ storage.SyncStateRepository = (*SyncStateRepository)(nil)

// NewSyncStateRepository opens a sync-state repository at the given path.
// Pass inMemory=true for tests.
func NewSyncStateRepository(filePath string, inMemory bool) (storage.SyncStateRepository, error) {
	backend, err := OpenBackend(filePath, inMemory)
	if err != nil {
		return nil, err
	}
	return &SyncStateRepository{backend: backend}, nil
}

// SaveCheckpoint persists the checkpoint for a store, stamping UpdatedAt.
func (r *SyncStateRepository) SaveCheckpoint(ctx context.Context, checkpoint *core.SyncCheckpoint) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		checkpoint.UpdatedAt = time.Now().UTC()
		key := makeSyncStateKey(checkpoint.StoreID)
		value := storage.MarshalSyncCheckpoint(checkpoint)
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadCheckpoint retrieves the checkpoint for a store.
// Returns nil, nil if no checkpoint exists.
func (r *SyncStateRepository) LoadCheckpoint(ctx context.Context, storeID string) (*core.SyncCheckpoint, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	var checkpoint *core.SyncCheckpoint
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeSyncStateKey(storeID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			checkpoint, unmarshalErr = storage.UnmarshalSyncCheckpoint(val)
			return unmarshalErr
		})
	}, false)

	return checkpoint, err
}

// ClearCheckpoint removes the checkpoint for a store. Clearing a missing
// checkpoint is not an error.
func (r *SyncStateRepository) ClearCheckpoint(ctx context.Context, storeID string) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeSyncStateKey(storeID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Close closes the backing store.
func (r *SyncStateRepository) Close() error {
	return r.backend.Close()
}
