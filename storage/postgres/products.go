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


package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/poiesic/lookbook/core"
	"github.com/poiesic/lookbook/storage"
	"github.com/shopspring/decimal"
)

// productColumns is the SELECT list shared by all product queries.
// Price is read as text so it round-trips through decimal exactly.
const productColumns = `id, external_id, store_id, title, description,
	price::text, currency, image_url, product_url, created_at, updated_at`

type productRepository struct {
	store *Store
}

var _ storage.ProductRepository = (*productRepository)(nil)

func scanProduct(row pgx.Row) (*core.Product, error) {
	var (
		p        core.Product
		priceStr string
		currency string
	)
	err := row.Scan(&p.ID, &p.ExternalID, &p.StoreID, &p.Title, &p.Description,
		&priceStr, &currency, &p.ImageURL, &p.ProductURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Price, err = decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("%w: price %q: %w", storage.ErrSerializationFailed, priceStr, err)
	}
	// char(3) columns come back space-padded
	p.Currency = strings.TrimRight(currency, " ")
	return &p, nil
}

func (r *productRepository) Create(ctx context.Context, data core.ProductCreate) (*core.Product, error) {
	if err := core.ValidateProductCreate(&data); err != nil {
		return nil, err
	}

	row := r.store.pool.QueryRow(ctx, `
		INSERT INTO products (external_id, store_id, title, description, price, currency, image_url, product_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+productColumns,
		data.ExternalID, data.StoreID, data.Title, data.Description,
		data.Price.String(), data.Currency, data.ImageURL, data.ProductURL)

	product, err := scanProduct(row)
	if err != nil {
		return nil, mapError(err)
	}
	return product, nil
}

func (r *productRepository) GetByExternalID(ctx context.Context, externalID, storeID string) (*core.Product, error) {
	row := r.store.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE external_id = $1 AND store_id = $2`,
		externalID, storeID)
	product, err := scanProduct(row)
	if err != nil {
		return nil, mapError(err)
	}
	return product, nil
}

func (r *productRepository) Get(ctx context.Context, id uuid.UUID) (*core.Product, error) {
	row := r.store.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	product, err := scanProduct(row)
	if err != nil {
		return nil, mapError(err)
	}
	return product, nil
}

func (r *productRepository) Exists(ctx context.Context, externalID, storeID string) (bool, error) {
	var exists bool
	err := r.store.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE external_id = $1 AND store_id = $2)`,
		externalID, storeID).Scan(&exists)
	if err != nil {
		return false, mapError(err)
	}
	return exists, nil
}

func (r *productRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.store.pool.QueryRow(ctx, `SELECT count(*) FROM products`).Scan(&count)
	if err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

func (r *productRepository) List(ctx context.Context, after storage.ListCursor, limit int) ([]*core.Product, error) {
	rows, err := r.store.pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE (created_at, id) > ($1, $2)
		ORDER BY created_at, id
		LIMIT $3`,
		after.CreatedAt, after.ID, limit)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var products []*core.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, mapError(err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return products, nil
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.store.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *productRepository) Close() error {
	return r.store.Close()
}
