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


package catalog

import (
	"strconv"

	"github.com/poiesic/lookbook/core"
	"github.com/shopspring/decimal"
)

// maxDescriptionLen caps stored descriptions; store descriptions are
// frequently multi-kilobyte HTML dumps.
const maxDescriptionLen = 1000

// RejectReason identifies why a raw product was skipped during
// transformation. Values end up as keys in sync report counters.
type RejectReason string

const (
	RejectNoImages         RejectReason = "no_images"
	RejectNoImageURL       RejectReason = "no_image_url"
	RejectInvalidPrice     RejectReason = "invalid_price"
	RejectNonPositivePrice RejectReason = "non_positive_price"
)

// Transformer converts raw store products into the internal ingestion
// shape for one store.
type Transformer struct {
	storeID         string
	defaultCurrency string
}

// NewTransformer creates a transformer for the given store.
func NewTransformer(storeID, defaultCurrency string) *Transformer {
	if defaultCurrency == "" {
		defaultCurrency = "USD"
	}
	return &Transformer{
		storeID:         storeID,
		defaultCurrency: defaultCurrency,
	}
}

// StoreID returns the store this transformer stamps onto products.
func (t *Transformer) StoreID() string {
	return t.storeID
}

// Transform maps a raw product to a core.ProductCreate. The boolean is
// false when the product is unusable; the reason says why.
func (t *Transformer) Transform(p Product) (core.ProductCreate, RejectReason, bool) {
	if len(p.Images) == 0 {
		return core.ProductCreate{}, RejectNoImages, false
	}

	priceStr := p.Price
	if priceStr == "" {
		priceStr = "0"
	}
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return core.ProductCreate{}, RejectInvalidPrice, false
	}
	if !price.IsPositive() {
		return core.ProductCreate{}, RejectNonPositivePrice, false
	}

	imageURL := p.Images[0].Src
	if imageURL == "" {
		return core.ProductCreate{}, RejectNoImageURL, false
	}

	return core.ProductCreate{
		ExternalID:  strconv.Itoa(p.ID),
		StoreID:     t.storeID,
		Title:       p.Name,
		Description: truncate(p.Description, maxDescriptionLen),
		Price:       price,
		Currency:    t.defaultCurrency,
		ImageURL:    imageURL,
		ProductURL:  p.Permalink,
	}, "", true
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
