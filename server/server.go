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
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/poiesic/lookbook/ai"
	"github.com/poiesic/lookbook/auth"
	"github.com/poiesic/lookbook/ingestion"
	"github.com/poiesic/lookbook/quality"
	"github.com/poiesic/lookbook/search"
	"github.com/poiesic/lookbook/storage"
)

// Server routes HTTP requests to the catalog subsystems.
type Server struct {
	products storage.ProductRepository
	embedder ai.ImageEmbedder
	gate     *quality.Gate
	fetcher  *quality.Fetcher
	pipeline *ingestion.Pipeline
	searcher *search.Searcher

	objects storage.ObjectStore // optional; storage health reports unavailable without it
	tokens  *auth.Tokens        // optional; auth endpoints reject without it

	corsOrigins []string
	logger      *slog.Logger
	engine      *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithObjectStore enables the object-storage health probe.
func WithObjectStore(objects storage.ObjectStore) Option {
	return func(s *Server) {
		s.objects = objects
	}
}

// WithTokens enables bearer-token verification on the auth endpoints.
func WithTokens(tokens *auth.Tokens) Option {
	return func(s *Server) {
		s.tokens = tokens
	}
}

// WithCORSOrigins sets the origins allowed by the CORS middleware.
// Without it every origin is allowed.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithServerLogger sets the logger.
func WithServerLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// NewServer creates a server over the given subsystems.
func NewServer(
	products storage.ProductRepository,
	embedder ai.ImageEmbedder,
	gate *quality.Gate,
	fetcher *quality.Fetcher,
	pipeline *ingestion.Pipeline,
	searcher *search.Searcher,
	opts ...Option,
) (*Server, error) {
	if products == nil {
		return nil, ErrProductRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if gate == nil {
		return nil, ErrQualityGateRequired
	}
	if fetcher == nil {
		return nil, ErrFetcherRequired
	}
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}
	if searcher == nil {
		return nil, ErrSearcherRequired
	}

	s := &Server{
		products: products,
		embedder: embedder,
		gate:     gate,
		fetcher:  fetcher,
		pipeline: pipeline,
		searcher: searcher,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(s.corsMiddleware())
	_ = engine.SetTrustedProxies(nil)
	s.engine = engine
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := s.engine.Group("/api")

	products := api.Group("/products")
	{
		products.GET("/health", s.productsHealth)
		products.GET("/count", s.productCount)
		products.POST("/ingest", s.ingestProduct)
		products.POST("/similar", s.similarProducts)
	}

	aiGroup := api.Group("/ai")
	{
		aiGroup.GET("/health", s.aiHealth)
		aiGroup.POST("/embed", s.embedImage)
		aiGroup.POST("/quality-check", s.qualityCheck)
	}

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", s.login)
		authGroup.GET("/me", s.requireAuth(), s.me)
	}

	api.GET("/storage/health", s.storageHealth)
}

// Handler returns the underlying HTTP handler, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves HTTP on the given address until the listener fails.
func (s *Server) Run(addr string) error {
	s.logger.Info("starting HTTP server", "addr", addr)
	return s.engine.Run(addr)
}
