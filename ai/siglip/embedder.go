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


package siglip

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/poiesic/lookbook/ai"
	"golang.org/x/sync/semaphore"
)

// EmbeddingDim is the output dimension of the FashionSigLIP model.
const EmbeddingDim = 768

// Embedder implements ai.ImageEmbedder against a FashionSigLIP inference
// HTTP service. The model is loaded once via Load; an internal weighted
// semaphore bounds concurrent inference calls.
type Embedder struct {
	config *ai.Config
	client *http.Client
	gate   *semaphore.Weighted
	loaded atomic.Bool
	loadMu sync.Mutex
	logger *slog.Logger
}

var _ ai.ImageEmbedder = (*Embedder)(nil)

// Option configures an Embedder.
type Option func(*Embedder)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Embedder) {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger.With("component", "siglip-embedder")
	}
}

// WithHTTPClient sets a custom HTTP client for inference calls.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Embedder) {
		e.client = client
	}
}

// NewEmbedder creates an embedder for the configured inference service.
// The embedder starts unloaded; call Load once at process start.
func NewEmbedder(config *ai.Config, opts ...Option) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	e := &Embedder{
		config: config,
		client: http.DefaultClient,
		gate:   semaphore.NewWeighted(int64(config.MaxConcurrent)),
		logger: slog.Default().With("component", "siglip-embedder"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

type loadRequest struct {
	Model string `json:"model"`
}

type embedRequest struct {
	Model  string   `json:"model"`
	Images []string `json:"images"` // base64-encoded JPEG
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Load asks the inference service to load the model. It is intended to run
// exactly once at process start. On failure the embedder remains unloaded
// and subsequent embedding calls fail fast with ai.ErrModelNotLoaded.
func (e *Embedder) Load(ctx context.Context) error {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	if e.loaded.Load() {
		return nil
	}

	e.logger.Info("loading model", "model", e.config.Model)

	body, err := json.Marshal(loadRequest{Model: e.config.Model})
	if err != nil {
		return fmt.Errorf("%w: %w", ai.ErrModelLoadFailed, err)
	}

	if err := e.post(ctx, e.config.Host+"/models/load", body, nil); err != nil {
		e.logger.Error("model load failed", "model", e.config.Model, "err", err)
		return fmt.Errorf("%w: %w", ai.ErrModelLoadFailed, err)
	}

	e.loaded.Store(true)
	e.logger.Info("model loaded", "model", e.config.Model)
	return nil
}

// Loaded reports whether the model is ready to serve embeddings.
func (e *Embedder) Loaded() bool {
	return e.loaded.Load()
}

// Dimension returns the embedding vector length.
func (e *Embedder) Dimension() int {
	return EmbeddingDim
}

// ModelName returns the configured model identifier.
func (e *Embedder) ModelName() string {
	return e.config.Model
}

// EmbedImage generates one L2-normalized 768-dimensional embedding.
// The call suspends while the admission gate is full.
func (e *Embedder) EmbedImage(ctx context.Context, img image.Image) ([]float32, error) {
	if !e.loaded.Load() {
		return nil, ai.ErrModelNotLoaded
	}

	if err := e.gate.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer e.gate.Release(1)

	vectors, err := e.infer(ctx, []image.Image{img})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedImages generates embeddings for multiple images, chunking the input
// into groups of the configured batch size. Each chunk runs under the same
// admission gate. Results preserve input order; the first failing chunk
// aborts the remaining batch.
func (e *Embedder) EmbedImages(ctx context.Context, imgs []image.Image) ([][]float32, error) {
	if !e.loaded.Load() {
		return nil, ai.ErrModelNotLoaded
	}

	results := make([][]float32, 0, len(imgs))
	for start := 0; start < len(imgs); start += e.config.BatchSize {
		end := start + e.config.BatchSize
		if end > len(imgs) {
			end = len(imgs)
		}

		if err := e.gate.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		vectors, err := e.infer(ctx, imgs[start:end])
		e.gate.Release(1)
		if err != nil {
			return nil, err
		}
		results = append(results, vectors...)
	}
	return results, nil
}

// infer sends one inference request and post-processes the vectors.
func (e *Embedder) infer(ctx context.Context, imgs []image.Image) ([][]float32, error) {
	encoded := make([]string, len(imgs))
	for i, img := range imgs {
		data, err := encodeJPEG(img)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ai.ErrEmbeddingFailed, err)
		}
		encoded[i] = base64.StdEncoding.EncodeToString(data)
	}

	body, err := json.Marshal(embedRequest{Model: e.config.Model, Images: encoded})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrEmbeddingFailed, err)
	}

	var resp embedResponse
	if err := e.post(ctx, e.config.Host+"/embeddings/image", body, &resp); err != nil {
		e.logger.Error("inference request failed", "images", len(imgs), "err", err)
		return nil, fmt.Errorf("%w: %w", ai.ErrEmbeddingFailed, err)
	}

	if len(resp.Embeddings) != len(imgs) {
		return nil, fmt.Errorf("%w: expected %d embeddings, received %d",
			ai.ErrEmbeddingFailed, len(imgs), len(resp.Embeddings))
	}

	for _, vector := range resp.Embeddings {
		if len(vector) != EmbeddingDim {
			return nil, fmt.Errorf("%w: expected %d, received %d",
				ai.ErrDimensionMismatch, EmbeddingDim, len(vector))
		}
		l2Normalize(vector)
	}
	return resp.Embeddings, nil
}

// post issues a JSON POST and decodes the response into out when non-nil.
func (e *Embedder) post(ctx context.Context, url string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("inference service returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// encodeJPEG serializes an image for transport to the inference service.
func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// l2Normalize scales a vector to unit Euclidean length in place.
func l2Normalize(vector []float32) {
	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares == 0 {
		return
	}
	norm := float32(math.Sqrt(sumSquares))
	for i := range vector {
		vector[i] /= norm
	}
}
