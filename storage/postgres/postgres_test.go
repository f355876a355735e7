package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/poiesic/lookbook/storage"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil passes through", nil, nil},
		{"no rows becomes not found", pgx.ErrNoRows, storage.ErrNotFound},
		{
			"unique violation becomes duplicate key",
			&pgconn.PgError{Code: "23505", ConstraintName: "idx_products_external_store"},
			storage.ErrDuplicateKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestMapError_OtherErrorsUnchanged(t *testing.T) {
	in := errors.New("connection refused")
	got := mapError(in)
	assert.ErrorIs(t, got, in)
	assert.NotErrorIs(t, got, storage.ErrNotFound)
	assert.NotErrorIs(t, got, storage.ErrDuplicateKey)
}

func TestMapError_OtherPgCodesUnchanged(t *testing.T) {
	in := &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}
	got := mapError(in)
	assert.NotErrorIs(t, got, storage.ErrDuplicateKey)
}
