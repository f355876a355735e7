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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidProduct indicates a ProductCreate failed validation.
	ErrInvalidProduct = errors.New("invalid product")

	// ErrEmptyExternalID indicates the ExternalID field is empty.
	ErrEmptyExternalID = errors.New("external id cannot be empty")

	// ErrEmptyStoreID indicates the StoreID field is empty.
	ErrEmptyStoreID = errors.New("store id cannot be empty")

	// ErrEmptyTitle indicates the Title field is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrNonPositivePrice indicates the Price is zero or negative.
	ErrNonPositivePrice = errors.New("price must be positive")

	// ErrInvalidCurrency indicates the Currency is not a 3-letter code.
	ErrInvalidCurrency = errors.New("currency must be a 3-letter code")

	// ErrEmptyImageURL indicates the ImageURL field is empty.
	ErrEmptyImageURL = errors.New("image url cannot be empty")

	// ErrEmptyProductURL indicates the ProductURL field is empty.
	ErrEmptyProductURL = errors.New("product url cannot be empty")
)
