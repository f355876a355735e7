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


// Package quality validates product images before embedding generation.
//
// The Gate type checks a decoded image against three independent criteria:
//
//   - Dimensions: the smallest side must meet a minimum pixel size
//   - File size: the encoded source must fall within configured bounds
//   - Sharpness: the variance of the Laplacian response must exceed a
//     blur threshold; images are normalized to a consistent size first so
//     scores are comparable across resolutions
//
// Blocking blurry, tiny or oversized images here keeps low-quality inputs
// from polluting style vectors downstream. Validation is pure: identical
// inputs always yield identical results and nothing is persisted.
package quality
