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

import "fmt"

// ValidateProductCreate validates a ProductCreate according to domain rules.
//
// Validation rules:
//   - ExternalID, StoreID, Title, ImageURL and ProductURL must not be empty
//   - Price must be positive
//   - Currency must be a 3-letter code
//
// NOT validated:
//   - Description (optional, truncation is the transformer's concern)
func ValidateProductCreate(data *ProductCreate) error {
	if data == nil {
		return fmt.Errorf("%w: product is nil", ErrInvalidProduct)
	}

	if data.ExternalID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidProduct, ErrEmptyExternalID)
	}
	if data.StoreID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidProduct, ErrEmptyStoreID)
	}
	if data.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidProduct, ErrEmptyTitle)
	}
	if !data.Price.IsPositive() {
		return fmt.Errorf("%w: %w", ErrInvalidProduct, ErrNonPositivePrice)
	}
	if len(data.Currency) != 3 {
		return fmt.Errorf("%w: %w", ErrInvalidProduct, ErrInvalidCurrency)
	}
	if data.ImageURL == "" {
		return fmt.Errorf("%w: %w", ErrInvalidProduct, ErrEmptyImageURL)
	}
	if data.ProductURL == "" {
		return fmt.Errorf("%w: %w", ErrInvalidProduct, ErrEmptyProductURL)
	}

	return nil
}
