// Package reembed regenerates vector-index entries for existing products,
// used after switching or upgrading the embedding model.
//
// It iterates the product table in batches, refetches each product's
// image, embeds it, and upserts the vector. Progress tracking and retry
// with exponential backoff keep long runs observable and resilient.
package reembed
