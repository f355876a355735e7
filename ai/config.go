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


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for the embedding inference service.
type Config struct {
	// Host is the base URL of the inference service API.
	// Example: "http://localhost:8093/v1"
	Host string

	// Model is the model identifier served by the inference service.
	// Example: "Marqo/marqo-fashionSigLIP"
	Model string

	// MaxConcurrent bounds the number of simultaneous inference calls.
	// Default: 4
	MaxConcurrent int

	// BatchSize is the chunk size for batch embedding.
	// Default: 8
	BatchSize int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the inference service host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithModel sets the model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithMaxConcurrent sets the concurrent inference bound.
func WithMaxConcurrent(n int) ConfigOption {
	return func(c *Config) {
		c.MaxConcurrent = n
	}
}

// WithBatchSize sets the batch chunk size.
func WithBatchSize(n int) ConfigOption {
	return func(c *Config) {
		c.BatchSize = n
	}
}

// DefaultConfig returns a Config with sensible defaults for a local
// FashionSigLIP inference server.
func DefaultConfig() *Config {
	return &Config{
		Host:          "http://localhost:8093/v1",
		Model:         "Marqo/marqo-fashionSigLIP",
		MaxConcurrent: 4,
		BatchSize:     8,
	}
}

// NewConfig creates a Config with the default values and applies the
// provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to the host if missing.
func (c *Config) Normalize() {
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/")
		c.Host = c.Host + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Host == "" {
		return errors.New("ai config: Host is required")
	}
	if c.Model == "" {
		return errors.New("ai config: Model is required")
	}
	if c.MaxConcurrent < 1 {
		return errors.New("ai config: MaxConcurrent must be at least 1")
	}
	if c.BatchSize < 1 {
		return errors.New("ai config: BatchSize must be at least 1")
	}
	return nil
}
