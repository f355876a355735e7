package reembed

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/lookbook/ai/mock"
	"github.com/poiesic/lookbook/quality"
	"github.com/poiesic/lookbook/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIndex collects upserted points.
type fakeIndex struct {
	mu        sync.Mutex
	points    map[uuid.UUID]storage.VectorPoint
	upsertErr error
}

var _ storage.VectorIndex = (*fakeIndex)(nil)

func newFakeIndex() *fakeIndex {
	return &fakeIndex{points: make(map[uuid.UUID]storage.VectorPoint)}
}

func (f *fakeIndex) Upsert(ctx context.Context, point storage.VectorPoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.points[point.ProductID] = point
	return nil
}

func (f *fakeIndex) EnsureCollection(ctx context.Context) error { return nil }
func (f *fakeIndex) Search(ctx context.Context, vector []float32, limit int) ([]storage.VectorMatch, error) {
	return nil, nil
}
func (f *fakeIndex) Delete(ctx context.Context, productID uuid.UUID) error { return nil }
func (f *fakeIndex) Healthy(ctx context.Context) bool                      { return true }
func (f *fakeIndex) Close() error                                          { return nil }

func (f *fakeIndex) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.points)
}

// newPNGServer serves a small PNG on "/" and 404 on anything else.
func newPNGServer(t *testing.T) *httptest.Server {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig() *Config {
	return &Config{
		BatchSize:      2,
		ReportInterval: 1,
		MaxRetries:     2,
		RetryDelay:     time.Millisecond,
	}
}

func TestReembedder_Run(t *testing.T) {
	srv := newPNGServer(t)
	repo := newListRepo(5)
	for _, p := range repo.products {
		p.ImageURL = srv.URL + "/"
	}
	index := newFakeIndex()

	var out bytes.Buffer
	r := NewReembedder(repo, index, quality.NewFetcher(), &mock.ImageEmbedder{}, testConfig(), &out)
	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, 5, index.size())
	for _, point := range index.points {
		assert.Len(t, point.Vector, 768)
		assert.Equal(t, "store-1", point.StoreID)
	}
	assert.Contains(t, out.String(), "Starting reembedding of 5 products")
	assert.Contains(t, out.String(), "Reembedding complete")
}

func TestReembedder_SkipsMissingImages(t *testing.T) {
	srv := newPNGServer(t)
	repo := newListRepo(3)
	repo.products[0].ImageURL = srv.URL + "/"
	repo.products[1].ImageURL = srv.URL + "/gone.jpg" // 404
	repo.products[2].ImageURL = srv.URL + "/"
	index := newFakeIndex()

	var out bytes.Buffer
	r := NewReembedder(repo, index, quality.NewFetcher(), &mock.ImageEmbedder{}, testConfig(), &out)
	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, 2, index.size())
	assert.Contains(t, out.String(), "(1 skipped)")
}

func TestReembedder_EmptyTable(t *testing.T) {
	var out bytes.Buffer
	r := NewReembedder(newListRepo(0), newFakeIndex(), quality.NewFetcher(),
		&mock.ImageEmbedder{}, testConfig(), &out)
	require.NoError(t, r.Run(context.Background()))
	assert.Contains(t, out.String(), "No products found")
}

func TestReembedder_AbortsOnIndexFailure(t *testing.T) {
	srv := newPNGServer(t)
	repo := newListRepo(3)
	for _, p := range repo.products {
		p.ImageURL = srv.URL + "/"
	}
	index := newFakeIndex()
	index.upsertErr = errors.New("qdrant unavailable")

	var out bytes.Buffer
	r := NewReembedder(repo, index, quality.NewFetcher(), &mock.ImageEmbedder{}, testConfig(), &out)
	err := r.Run(context.Background())
	assert.ErrorContains(t, err, "qdrant unavailable")
}

func TestReembedder_RetriesEmbedding(t *testing.T) {
	srv := newPNGServer(t)
	repo := newListRepo(1)
	repo.products[0].ImageURL = srv.URL + "/"
	index := newFakeIndex()

	calls := 0
	embedder := &mock.ImageEmbedder{
		EmbedImageFunc: func(ctx context.Context, img image.Image) ([]float32, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("transient")
			}
			return make([]float32, 768), nil
		},
	}

	var out bytes.Buffer
	r := NewReembedder(repo, index, quality.NewFetcher(), embedder, testConfig(), &out)
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, index.size())
}
