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

// Package lookbook wires the catalog subsystems together. App owns the
// process-wide singletons (database pool, vector index client, embedding
// client, quality gate) and hands them to the commands that need them.
package lookbook

import (
	"context"
	"log/slog"

	"github.com/poiesic/lookbook/ai"
	"github.com/poiesic/lookbook/ai/siglip"
	"github.com/poiesic/lookbook/auth"
	"github.com/poiesic/lookbook/config"
	"github.com/poiesic/lookbook/ingestion"
	"github.com/poiesic/lookbook/quality"
	"github.com/poiesic/lookbook/search"
	"github.com/poiesic/lookbook/server"
	"github.com/poiesic/lookbook/storage"
	"github.com/poiesic/lookbook/storage/object"
	"github.com/poiesic/lookbook/storage/postgres"
	"github.com/poiesic/lookbook/storage/qdrant"
)

// App holds the constructed subsystems for one process.
type App struct {
	cfg      *config.Config
	store    *postgres.Store
	index    storage.VectorIndex
	embedder *siglip.Embedder
	gate     *quality.Gate
	fetcher  *quality.Fetcher

	objects storage.ObjectStore // nil without S3 credentials
	tokens  *auth.Tokens        // nil without a JWT key pair

	logger *slog.Logger
}

// NewApp connects to PostgreSQL and Qdrant, builds the embedding client
// and quality gate, and loads the optional object-store and JWT
// components when configured.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := slog.Default()

	store, err := postgres.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	index, err := qdrant.NewIndex(cfg.QdrantHost, cfg.QdrantPort)
	if err != nil {
		store.Close()
		return nil, err
	}

	aiConfig := ai.NewConfig(
		ai.WithHost(cfg.InferenceHost),
		ai.WithModel(cfg.EmbeddingModel),
	)
	embedder, err := siglip.NewEmbedder(aiConfig)
	if err != nil {
		index.Close()
		store.Close()
		return nil, err
	}

	app := &App{
		cfg:      cfg,
		store:    store,
		index:    index,
		embedder: embedder,
		gate:     quality.NewGate(),
		fetcher:  quality.NewFetcher(),
		logger:   logger,
	}

	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		objects, err := object.NewStore(ctx, object.Config{
			EndpointURL:     cfg.S3EndpointURL,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			UseSSL:          true,
		})
		if err != nil {
			logger.Warn("object storage unavailable", "err", err)
		} else {
			app.objects = objects
		}
	}

	tokens, err := auth.LoadTokens(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath)
	if err != nil {
		logger.Warn("JWT keys not loaded, auth endpoints disabled", "err", err)
	} else {
		app.tokens = tokens
	}

	return app, nil
}

// Close releases every connection the app holds.
func (a *App) Close() error {
	if err := a.index.Close(); err != nil {
		a.logger.Error("error closing vector index", "err", err)
	}
	a.store.Close()
	return nil
}

func (a *App) Products() storage.ProductRepository {
	return a.store.Products()
}

func (a *App) Users() storage.UserRepository {
	return a.store.Users()
}

func (a *App) VectorIndex() storage.VectorIndex {
	return a.index
}

func (a *App) Embedder() *siglip.Embedder {
	return a.embedder
}

func (a *App) Fetcher() *quality.Fetcher {
	return a.fetcher
}

func (a *App) NewPipeline(opts ...ingestion.PipelineOption) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(a.store.Products(), a.index, a.gate, a.fetcher, a.embedder, opts...)
}

func (a *App) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(a.store.Products(), a.index, a.embedder, opts...)
}

// NewServer builds the HTTP surface over this app's subsystems.
func (a *App) NewServer() (*server.Server, error) {
	pipeline, err := a.NewPipeline()
	if err != nil {
		return nil, err
	}
	searcher, err := a.NewSearcher()
	if err != nil {
		return nil, err
	}

	opts := []server.Option{
		server.WithCORSOrigins(a.cfg.CORSOrigins),
	}
	if a.objects != nil {
		opts = append(opts, server.WithObjectStore(a.objects))
	}
	if a.tokens != nil {
		opts = append(opts, server.WithTokens(a.tokens))
	}
	return server.NewServer(a.store.Products(), a.embedder, a.gate, a.fetcher, pipeline, searcher, opts...)
}
