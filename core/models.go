package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QualityIssue identifies a reason an image failed quality validation.
type QualityIssue string

const (
	// QualityIssueTooSmall indicates the image is below the minimum
	// dimension or the encoded file is below the minimum size.
	QualityIssueTooSmall QualityIssue = "too_small"
	// QualityIssueTooLarge indicates the encoded file exceeds the maximum size.
	QualityIssueTooLarge QualityIssue = "too_large"
	// QualityIssueTooBlurry indicates the sharpness score is below the
	// blur threshold.
	QualityIssueTooBlurry QualityIssue = "too_blurry"
	// QualityIssueInvalidFormat indicates the bytes could not be decoded
	// as a supported image format.
	QualityIssueInvalidFormat QualityIssue = "invalid_format"
)

// QualityResult is the outcome of an image quality validation.
// Measured fields are populated regardless of pass/fail for observability.
type QualityResult struct {
	Passed        bool
	Issues        []QualityIssue
	BlurScore     float64
	Width         int
	Height        int
	FileSizeBytes int64 // 0 when the encoded size was not supplied
}

// ProductCreate is the input shape for ingesting a single product.
type ProductCreate struct {
	ExternalID  string
	StoreID     string
	Title       string
	Description string // optional
	Price       decimal.Decimal
	Currency    string
	ImageURL    string
	ProductURL  string
}

// Product is a catalog product persisted in the relational store.
// Identity within a store is the (ExternalID, StoreID) pair.
type Product struct {
	ID          uuid.UUID
	ExternalID  string
	StoreID     string
	Title       string
	Description string
	Price       decimal.Decimal
	Currency    string
	ImageURL    string
	ProductURL  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IngestionResult is the outcome of a single product ingestion attempt.
type IngestionResult struct {
	Success       bool
	ProductID     uuid.UUID      // set on success
	Error         string         // set on failure
	QualityIssues []QualityIssue // set when rejection was quality-driven
}

// SyncCheckpoint records how far a catalog sync has progressed for a store,
// so an interrupted sync can resume from the next page.
type SyncCheckpoint struct {
	StoreID   string
	LastPage  int
	UpdatedAt time.Time
}

// SyncReport summarizes one catalog sync run.
type SyncReport struct {
	StoreID          string
	TotalFetched     int
	TotalValid       int
	TotalRejected    int
	RejectionReasons map[string]int
}

// AddRejection increments the counter for a rejection reason.
func (r *SyncReport) AddRejection(reason string) {
	if r.RejectionReasons == nil {
		r.RejectionReasons = make(map[string]int)
	}
	r.RejectionReasons[reason]++
	r.TotalRejected++
}

// User is an account row; authentication is not implemented yet, but the
// schema and seeding paths exist so deployments can bootstrap accounts.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SearchHit is a similar-product match from the vector index,
// joined with its relational row when available.
type SearchHit struct {
	ProductID uuid.UUID
	Score     float32
	Product   *Product // nil if the row is missing from the relational store
}
