package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/lookbook/core"
)

// ProductRepository provides operations for managing product rows.
// Implementations must be thread-safe and support concurrent access.
type ProductRepository interface {
	// Create inserts a new product and returns it with its generated ID
	// and server-side timestamps populated.
	// Uniqueness of (external_id, store_id) is enforced by the store;
	// a conflicting insert returns ErrDuplicateKey.
	Create(ctx context.Context, data core.ProductCreate) (*core.Product, error)

	// GetByExternalID looks up a product by its external ID and store ID.
	// Returns ErrNotFound if no matching row exists.
	GetByExternalID(ctx context.Context, externalID, storeID string) (*core.Product, error)

	// Get retrieves a product by its primary key.
	// Returns ErrNotFound if the row doesn't exist.
	Get(ctx context.Context, id uuid.UUID) (*core.Product, error)

	// Exists reports whether a product with the given identity exists.
	// Cheaper than GetByExternalID when the row itself is not needed.
	Exists(ctx context.Context, externalID, storeID string) (bool, error)

	// Count returns the total number of product rows.
	Count(ctx context.Context) (int64, error)

	// List returns up to limit products created after the given cursor,
	// ordered by (created_at, id). Pass a zero cursor to start from the
	// beginning. Used for offline reprocessing.
	List(ctx context.Context, after ListCursor, limit int) ([]*core.Product, error)

	// Delete removes a product row by ID.
	// Returns ErrNotFound if the row doesn't exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// Close releases the underlying connections.
	Close() error
}

// ListCursor is a keyset-pagination position for ProductRepository.List.
type ListCursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// UserRepository provides operations for managing user accounts.
type UserRepository interface {
	// Create inserts a new user. A duplicate email returns ErrDuplicateKey.
	Create(ctx context.Context, email, passwordHash string) (*core.User, error)

	// GetByEmail looks up a user by email.
	// Returns ErrNotFound if no user exists.
	GetByEmail(ctx context.Context, email string) (*core.User, error)
}

// VectorPoint is one entry in the vector index: a product's embedding plus
// the denormalized payload used for filtered similarity search.
type VectorPoint struct {
	ProductID uuid.UUID
	Vector    []float32
	StoreID   string
	Price     float64
	CreatedAt time.Time
}

// VectorMatch is a similarity-search result from the vector index.
type VectorMatch struct {
	ProductID uuid.UUID
	Score     float32
}

// VectorIndex stores one embedding per product in an external
// similarity-search index.
type VectorIndex interface {
	// EnsureCollection creates the backing collection if it doesn't exist.
	EnsureCollection(ctx context.Context) error

	// Upsert writes one point, keyed by its product ID.
	// Upserts are atomic per point; re-upserting replaces the vector
	// and payload.
	Upsert(ctx context.Context, point VectorPoint) error

	// Search returns the closest points to the query vector by cosine
	// similarity, best first.
	Search(ctx context.Context, vector []float32, limit int) ([]VectorMatch, error)

	// Delete removes a point by product ID. Missing points are not an error.
	Delete(ctx context.Context, productID uuid.UUID) error

	// Healthy reports whether the index is reachable and the collection
	// exists.
	Healthy(ctx context.Context) bool

	// Close releases the client connection.
	Close() error
}

// SyncStateRepository persists catalog-sync checkpoints so interrupted
// syncs can resume from the last completed page.
type SyncStateRepository interface {
	// SaveCheckpoint persists the checkpoint for a store, stamping
	// UpdatedAt.
	SaveCheckpoint(ctx context.Context, checkpoint *core.SyncCheckpoint) error

	// LoadCheckpoint retrieves the checkpoint for a store.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, storeID string) (*core.SyncCheckpoint, error)

	// ClearCheckpoint removes the checkpoint for a store.
	ClearCheckpoint(ctx context.Context, storeID string) error

	// Close closes the backing store.
	Close() error
}

// ObjectStore provides S3-compatible object storage for product and user
// images.
type ObjectStore interface {
	// Upload writes an object and returns its public URL.
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// Download reads an object's bytes.
	Download(ctx context.Context, key string) ([]byte, error)

	// Delete removes an object.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Healthy reports whether the bucket is reachable.
	Healthy(ctx context.Context) bool
}
