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


// Package catalog fetches products from WooCommerce stores and transforms
// them into the internal ingestion shape.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTimeout = 30 * time.Second
	defaultPerPage = 100

	// maxPages bounds pagination so a store that keeps returning full
	// pages cannot loop a sync forever.
	defaultMaxPages = 10000
)

// Client fetches products from a WooCommerce store over the REST API v3.
type Client struct {
	apiURL         string
	consumerKey    string
	consumerSecret string
	perPage        int
	maxPages       int
	client         *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithPerPage sets the page size used by All.
func WithPerPage(perPage int) ClientOption {
	return func(c *Client) {
		c.perPage = perPage
	}
}

// WithMaxPages caps how many pages All will fetch.
func WithMaxPages(maxPages int) ClientOption {
	return func(c *Client) {
		c.maxPages = maxPages
	}
}

// NewClient creates a client for one store. Credentials are the store's
// WooCommerce consumer key/secret, sent via basic auth.
func NewClient(storeURL, consumerKey, consumerSecret string, opts ...ClientOption) *Client {
	c := &Client{
		apiURL:         strings.TrimRight(storeURL, "/") + "/wp-json/wc/v3",
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		perPage:        defaultPerPage,
		maxPages:       defaultMaxPages,
		client:         &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, params url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.apiURL+"/products?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.consumerKey, c.consumerSecret)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, body)
	}
	return resp, nil
}

// Products fetches one page of published, in-stock products.
func (c *Client) Products(ctx context.Context, page, perPage int) ([]Product, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("status", "publish")
	params.Set("stock_status", "instock")

	resp, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var products []Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return products, nil
}

// All walks every page starting at startPage and calls visit for each
// product. Pagination stops at the first short page, the maxPages cap, or
// the first visit error. onPage, if non-nil, runs after each completed
// page with its number; used for checkpointing.
func (c *Client) All(ctx context.Context, startPage int, visit func(Product) error, onPage func(page int) error) error {
	if startPage < 1 {
		startPage = 1
	}
	for page := startPage; page <= c.maxPages; page++ {
		products, err := c.Products(ctx, page, c.perPage)
		if err != nil {
			return err
		}
		if len(products) == 0 {
			return nil
		}
		for _, p := range products {
			if err := visit(p); err != nil {
				return err
			}
		}
		if onPage != nil {
			if err := onPage(page); err != nil {
				return err
			}
		}
		if len(products) < c.perPage {
			return nil
		}
	}
	return nil
}

// Count returns the total number of published products, taken from the
// X-WP-Total response header.
func (c *Client) Count(ctx context.Context) (int, error) {
	params := url.Values{}
	params.Set("per_page", "1")
	params.Set("status", "publish")

	resp, err := c.get(ctx, params)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	total := resp.Header.Get("X-WP-Total")
	if total == "" {
		return 0, nil
	}
	count, err := strconv.Atoi(total)
	if err != nil {
		return 0, fmt.Errorf("%w: X-WP-Total %q", ErrInvalidResponse, total)
	}
	return count, nil
}

// Healthy reports whether the store API answers a minimal request.
func (c *Client) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	params := url.Values{}
	params.Set("per_page", "1")
	resp, err := c.get(ctx, params)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return true
}
