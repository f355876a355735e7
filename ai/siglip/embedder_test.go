package siglip

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/poiesic/lookbook/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 8), G: uint8(y * 8), B: 128, A: 255})
		}
	}
	return img
}

// fakeInference stands in for the FashionSigLIP inference server.
type fakeInference struct {
	server     *httptest.Server
	loadCalls  atomic.Int32
	embedCalls atomic.Int32
	failLoad   bool
	failEmbed  bool
	dimension  int
}

func newFakeInference(t *testing.T) *fakeInference {
	f := &fakeInference{dimension: EmbeddingDim}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models/load", func(w http.ResponseWriter, r *http.Request) {
		f.loadCalls.Add(1)
		if f.failLoad {
			http.Error(w, "out of memory", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v1/embeddings/image", func(w http.ResponseWriter, r *http.Request) {
		f.embedCalls.Add(1)
		if f.failEmbed {
			http.Error(w, "inference error", http.StatusInternalServerError)
			return
		}
		var req struct {
			Images []string `json:"images"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		embeddings := make([][]float32, len(req.Images))
		for i := range req.Images {
			v := make([]float32, f.dimension)
			// Distinct, non-normalized vectors so the client's
			// normalization is observable.
			for j := range v {
				v[j] = float32(i + 1)
			}
			embeddings[i] = v
		}
		json.NewEncoder(w).Encode(map[string][][]float32{"embeddings": embeddings})
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func newTestEmbedder(t *testing.T, f *fakeInference) *Embedder {
	cfg := ai.NewConfig(ai.WithHost(f.server.URL), ai.WithBatchSize(2))
	e, err := NewEmbedder(cfg)
	require.NoError(t, err)
	return e
}

func TestEmbedBeforeLoadFails(t *testing.T) {
	f := newFakeInference(t)
	e := newTestEmbedder(t, f)

	_, err := e.EmbedImage(context.Background(), testImage())
	assert.True(t, errors.Is(err, ai.ErrModelNotLoaded))
	assert.False(t, e.Loaded())
	assert.Zero(t, f.embedCalls.Load())
}

func TestLoadFailureLeavesUnloaded(t *testing.T) {
	f := newFakeInference(t)
	f.failLoad = true
	e := newTestEmbedder(t, f)

	err := e.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ai.ErrModelLoadFailed))
	assert.False(t, e.Loaded())

	// Embedding calls keep failing fast without touching the service.
	_, err = e.EmbedImage(context.Background(), testImage())
	assert.True(t, errors.Is(err, ai.ErrModelNotLoaded))
	assert.Zero(t, f.embedCalls.Load())
}

func TestLoadIsIdempotent(t *testing.T) {
	f := newFakeInference(t)
	e := newTestEmbedder(t, f)

	require.NoError(t, e.Load(context.Background()))
	require.NoError(t, e.Load(context.Background()))

	assert.True(t, e.Loaded())
	assert.Equal(t, int32(1), f.loadCalls.Load())
}

func TestEmbedImageNormalized(t *testing.T) {
	f := newFakeInference(t)
	e := newTestEmbedder(t, f)
	require.NoError(t, e.Load(context.Background()))

	vector, err := e.EmbedImage(context.Background(), testImage())
	require.NoError(t, err)

	assert.Len(t, vector, EmbeddingDim)

	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSquares), 1e-5)
}

func TestEmbedImagesPreservesOrderAndChunks(t *testing.T) {
	f := newFakeInference(t)
	e := newTestEmbedder(t, f) // batch size 2
	require.NoError(t, e.Load(context.Background()))

	imgs := []image.Image{testImage(), testImage(), testImage()}
	vectors, err := e.EmbedImages(context.Background(), imgs)
	require.NoError(t, err)

	require.Len(t, vectors, 3)
	for _, v := range vectors {
		assert.Len(t, v, EmbeddingDim)
	}
	// 3 images with batch size 2 -> two inference requests.
	assert.Equal(t, int32(2), f.embedCalls.Load())
}

func TestEmbedImagesAbortsOnFailure(t *testing.T) {
	f := newFakeInference(t)
	e := newTestEmbedder(t, f)
	require.NoError(t, e.Load(context.Background()))

	f.failEmbed = true
	_, err := e.EmbedImages(context.Background(), []image.Image{testImage(), testImage(), testImage()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ai.ErrEmbeddingFailed))
	// First chunk fails, second never starts.
	assert.Equal(t, int32(1), f.embedCalls.Load())
}

func TestDimensionMismatch(t *testing.T) {
	f := newFakeInference(t)
	f.dimension = 512
	e := newTestEmbedder(t, f)
	require.NoError(t, e.Load(context.Background()))

	_, err := e.EmbedImage(context.Background(), testImage())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ai.ErrDimensionMismatch))
}
