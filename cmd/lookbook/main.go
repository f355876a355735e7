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

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/lookbook"
	"github.com/poiesic/lookbook/catalog"
	"github.com/poiesic/lookbook/config"
	"github.com/poiesic/lookbook/ingestion"
	"github.com/poiesic/lookbook/reembed"
	"github.com/poiesic/lookbook/storage/badger"
)

func main() {
	app := &cli.App{
		Name:  "lookbook",
		Usage: "Product catalog ingestion and similarity search backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server",
				Action: serveCommand,
			},
			{
				Name:   "sync",
				Usage:  "Sync the full product catalog from the configured store",
				Action: syncCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "page-size",
						Usage: "Products per catalog page",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-pages",
						Usage: "Upper bound on pages fetched in one run",
						Value: 10000,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Concurrent ingestion workers (0 = half the CPUs)",
					},
					&cli.BoolFlag{
						Name:  "resume",
						Usage: "Resume from the last checkpointed page",
						Value: true,
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Regenerate embeddings for every stored product",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of products to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N products",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serveCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	app, err := lookbook.NewApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer app.Close()

	if err := app.VectorIndex().EnsureCollection(ctx); err != nil {
		return fmt.Errorf("failed to ensure vector collection: %w", err)
	}

	// The server stays up with a degraded AI surface when the model
	// cannot be loaded; embed and ingest calls fail fast until it can.
	if err := app.Embedder().Load(ctx); err != nil {
		slog.Warn("embedding model not loaded, AI endpoints degraded", "err", err)
	}

	srv, err := app.NewServer()
	if err != nil {
		return err
	}
	return srv.Run(cfg.ListenAddr)
}

func syncCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ValidateForSync(); err != nil {
		return err
	}

	app, err := lookbook.NewApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer app.Close()

	if err := app.VectorIndex().EnsureCollection(ctx); err != nil {
		return fmt.Errorf("failed to ensure vector collection: %w", err)
	}
	if err := app.Embedder().Load(ctx); err != nil {
		return fmt.Errorf("failed to load embedding model: %w", err)
	}

	client := catalog.NewClient(cfg.StoreURL, cfg.ConsumerKey, cfg.ConsumerSecret,
		catalog.WithPerPage(c.Int("page-size")),
		catalog.WithMaxPages(c.Int("max-pages")),
	)
	if !client.Healthy(ctx) {
		return fmt.Errorf("store API %s is not reachable", cfg.StoreURL)
	}

	transformer := catalog.NewTransformer(cfg.StoreID, cfg.StoreCurrency)

	pipeline, err := app.NewPipeline()
	if err != nil {
		return err
	}

	syncState, err := badger.NewSyncStateRepository(cfg.SyncStatePath, false)
	if err != nil {
		return fmt.Errorf("failed to open sync-state database: %w", err)
	}
	defer syncState.Close()

	if !c.Bool("resume") {
		if err := syncState.ClearCheckpoint(ctx, cfg.StoreID); err != nil {
			return fmt.Errorf("failed to clear checkpoint: %w", err)
		}
	}

	opts := []ingestion.SyncOption{ingestion.WithSyncState(syncState)}
	if c.Int("pool-size") > 0 {
		opts = append(opts, ingestion.WithPoolSize(c.Int("pool-size")))
	}
	sync, err := ingestion.NewSync(client, transformer, pipeline, opts...)
	if err != nil {
		return err
	}
	defer sync.Release()

	report, err := sync.Run(ctx)
	if report != nil {
		fmt.Fprintf(os.Stderr, "Store:    %s\n", report.StoreID)
		fmt.Fprintf(os.Stderr, "Fetched:  %d\n", report.TotalFetched)
		fmt.Fprintf(os.Stderr, "Ingested: %d\n", report.TotalValid)
		fmt.Fprintf(os.Stderr, "Rejected: %d\n", report.TotalRejected)
		for reason, count := range report.RejectionReasons {
			fmt.Fprintf(os.Stderr, "  %-24s %d\n", reason, count)
		}
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	app, err := lookbook.NewApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer app.Close()

	if err := app.VectorIndex().EnsureCollection(ctx); err != nil {
		return fmt.Errorf("failed to ensure vector collection: %w", err)
	}
	if err := app.Embedder().Load(ctx); err != nil {
		return fmt.Errorf("failed to load embedding model: %w", err)
	}

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reembedder := reembed.NewReembedder(
		app.Products(),
		app.VectorIndex(),
		app.Fetcher(),
		app.Embedder(),
		reembedConfig,
		os.Stderr,
	)

	fmt.Fprintf(os.Stderr, "Inference host: %s\n", cfg.InferenceHost)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", cfg.EmbeddingModel)
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
