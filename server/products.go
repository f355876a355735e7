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

package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/poiesic/lookbook/core"
)

const defaultSimilarLimit = 10

type ingestRequest struct {
	ExternalID  string `json:"external_id" binding:"required"`
	StoreID     string `json:"store_id" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Price       string `json:"price" binding:"required"`
	Currency    string `json:"currency"`
	ImageURL    string `json:"image_url" binding:"required"`
	ProductURL  string `json:"product_url"`
}

type similarRequest struct {
	ImageURL string `json:"image_url" binding:"required"`
	Limit    int    `json:"limit"`
}

type productResponse struct {
	ID          string `json:"id"`
	ExternalID  string `json:"external_id"`
	StoreID     string `json:"store_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price"`
	Currency    string `json:"currency"`
	ImageURL    string `json:"image_url"`
	ProductURL  string `json:"product_url"`
	CreatedAt   string `json:"created_at"`
}

func toProductResponse(p *core.Product) *productResponse {
	if p == nil {
		return nil
	}
	return &productResponse{
		ID:          p.ID.String(),
		ExternalID:  p.ExternalID,
		StoreID:     p.StoreID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Currency:    p.Currency,
		ImageURL:    p.ImageURL,
		ProductURL:  p.ProductURL,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) productsHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "feature": "products"})
}

func (s *Server) productCount(c *gin.Context) {
	count, err := s.products.Count(c.Request.Context())
	if err != nil {
		s.logger.Error("product count failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// ingestProduct runs a single product through the full pipeline. Meant
// for testing and manual ingestion; bulk ingestion goes through the
// sync command.
func (s *Server) ingestProduct(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !s.embedder.Loaded() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "embedding model not loaded"})
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price is not a valid decimal"})
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	result := s.pipeline.Ingest(c.Request.Context(), core.ProductCreate{
		ExternalID:  req.ExternalID,
		StoreID:     req.StoreID,
		Title:       req.Title,
		Description: req.Description,
		Price:       price,
		Currency:    currency,
		ImageURL:    req.ImageURL,
		ProductURL:  req.ProductURL,
	})

	if !result.Success {
		c.JSON(http.StatusOK, gin.H{
			"success":        false,
			"error":          result.Error,
			"quality_issues": result.QualityIssues,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"product_id": result.ProductID.String(),
	})
}

// similarProducts embeds the image behind the given URL and returns the
// closest products from the vector index.
func (s *Server) similarProducts(c *gin.Context) {
	var req similarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !s.embedder.Loaded() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "embedding model not loaded"})
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultSimilarLimit
	}

	img, _, err := s.fetcher.Fetch(c.Request.Context(), req.ImageURL)
	if err != nil {
		s.logger.Warn("failed to fetch query image", "url", req.ImageURL, "err", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to fetch image"})
		return
	}

	hits, err := s.searcher.FindSimilar(c.Request.Context(), img, limit)
	if err != nil {
		s.logger.Error("similarity search failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "similarity search failed"})
		return
	}

	type hitResponse struct {
		ProductID string           `json:"product_id"`
		Score     float32          `json:"score"`
		Product   *productResponse `json:"product"`
	}
	out := make([]hitResponse, 0, len(hits))
	for _, hit := range hits {
		out = append(out, hitResponse{
			ProductID: hit.ProductID.String(),
			Score:     hit.Score,
			Product:   toProductResponse(hit.Product),
		})
	}
	c.JSON(http.StatusOK, gin.H{"hits": out})
}
