package qdrant

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/poiesic/lookbook/storage"
)

func TestMapGRPCError(t *testing.T) {
	notFound := status.Error(codes.NotFound, "collection `products` doesn't exist")
	err := mapGRPCError("vector search failed", notFound)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Contains(t, err.Error(), "vector search failed")

	unavailable := status.Error(codes.Unavailable, "connection refused")
	err = mapGRPCError("vector search failed", unavailable)
	assert.NotErrorIs(t, err, storage.ErrNotFound)

	plain := errors.New("dial timeout")
	err = mapGRPCError("failed to upsert point", plain)
	assert.ErrorIs(t, err, plain)
}
