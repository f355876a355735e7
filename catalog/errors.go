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

import "errors"

var (
	// ErrRequestFailed indicates the store API returned a non-success
	// status or could not be reached.
	ErrRequestFailed = errors.New("store request failed")

	// ErrInvalidResponse indicates the store API returned a body that
	// could not be decoded.
	ErrInvalidResponse = errors.New("invalid store response")
)
