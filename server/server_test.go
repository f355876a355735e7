package server

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/lookbook/ai/mock"
	"github.com/poiesic/lookbook/auth"
	"github.com/poiesic/lookbook/core"
	"github.com/poiesic/lookbook/ingestion"
	"github.com/poiesic/lookbook/quality"
	"github.com/poiesic/lookbook/search"
	"github.com/poiesic/lookbook/storage"
)

// fakeProducts is an in-memory storage.ProductRepository.
type fakeProducts struct {
	mu       sync.Mutex
	byKey    map[string]*core.Product
	countErr error
}

var _ storage.ProductRepository = (*fakeProducts)(nil)

func newFakeProducts() *fakeProducts {
	return &fakeProducts{byKey: make(map[string]*core.Product)}
}

func productKey(externalID, storeID string) string {
	return externalID + "|" + storeID
}

func (f *fakeProducts) Create(ctx context.Context, data core.ProductCreate) (*core.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := productKey(data.ExternalID, data.StoreID)
	if _, ok := f.byKey[key]; ok {
		return nil, storage.ErrDuplicateKey
	}
	p := &core.Product{
		ID:          uuid.New(),
		ExternalID:  data.ExternalID,
		StoreID:     data.StoreID,
		Title:       data.Title,
		Description: data.Description,
		Price:       data.Price,
		Currency:    data.Currency,
		ImageURL:    data.ImageURL,
		ProductURL:  data.ProductURL,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	f.byKey[key] = p
	return p, nil
}

func (f *fakeProducts) GetByExternalID(ctx context.Context, externalID, storeID string) (*core.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byKey[productKey(externalID, storeID)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return p, nil
}

func (f *fakeProducts) Get(ctx context.Context, id uuid.UUID) (*core.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byKey {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeProducts) Exists(ctx context.Context, externalID, storeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byKey[productKey(externalID, storeID)]
	return ok, nil
}

func (f *fakeProducts) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	return int64(len(f.byKey)), nil
}

func (f *fakeProducts) List(ctx context.Context, after storage.ListCursor, limit int) ([]*core.Product, error) {
	return nil, nil
}

func (f *fakeProducts) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, p := range f.byKey {
		if p.ID == id {
			delete(f.byKey, key)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeProducts) Close() error { return nil }

// fakeIndex is an in-memory storage.VectorIndex whose Search returns
// every stored point.
type fakeIndex struct {
	mu     sync.Mutex
	points map[uuid.UUID]storage.VectorPoint
}

var _ storage.VectorIndex = (*fakeIndex)(nil)

func newFakeIndex() *fakeIndex {
	return &fakeIndex{points: make(map[uuid.UUID]storage.VectorPoint)}
}

func (f *fakeIndex) EnsureCollection(ctx context.Context) error { return nil }

func (f *fakeIndex) Upsert(ctx context.Context, point storage.VectorPoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points[point.ProductID] = point
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, vector []float32, limit int) ([]storage.VectorMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matches []storage.VectorMatch
	for id := range f.points {
		matches = append(matches, storage.VectorMatch{ProductID: id, Score: 0.9})
		if len(matches) == limit {
			break
		}
	}
	return matches, nil
}

func (f *fakeIndex) Delete(ctx context.Context, productID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.points, productID)
	return nil
}

func (f *fakeIndex) Healthy(ctx context.Context) bool { return true }
func (f *fakeIndex) Close() error                     { return nil }

// fakeObjects is a storage.ObjectStore stub with a switchable health.
type fakeObjects struct {
	healthy bool
}

var _ storage.ObjectStore = (*fakeObjects)(nil)

func (f *fakeObjects) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	return "https://objects.example.com/" + key, nil
}
func (f *fakeObjects) Download(ctx context.Context, key string) ([]byte, error) {
	return nil, storage.ErrNotFound
}
func (f *fakeObjects) Delete(ctx context.Context, key string) error     { return nil }
func (f *fakeObjects) Exists(ctx context.Context, key string) (bool, error) { return false, nil }
func (f *fakeObjects) Healthy(ctx context.Context) bool                 { return f.healthy }

// newImageServer serves a sharp PNG of the given size.
func newImageServer(t *testing.T, width, height int) *httptest.Server {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.NRGBA{A: 255}
			if (x/8+y/8)%2 == 0 {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)
	return srv
}

type serverFixture struct {
	server   *Server
	products *fakeProducts
	index    *fakeIndex
	embedder *mock.ImageEmbedder
	objects  *fakeObjects
	tokens   *auth.Tokens
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	products := newFakeProducts()
	index := newFakeIndex()
	embedder := &mock.ImageEmbedder{}
	// relaxed byte bounds: the test PNGs compress well below production
	// minimums
	gate := quality.NewGate(quality.WithFileSizeBounds(1, 10*1024*1024))
	fetcher := quality.NewFetcher()

	pipeline, err := ingestion.NewPipeline(products, index, gate, fetcher, embedder)
	require.NoError(t, err)
	searcher, err := search.NewSearcher(products, index, embedder)
	require.NoError(t, err)

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tokens, err := auth.NewTokens(key, nil)
	require.NoError(t, err)

	objects := &fakeObjects{healthy: true}

	srv, err := NewServer(products, embedder, gate, fetcher, pipeline, searcher,
		WithObjectStore(objects),
		WithTokens(tokens),
		WithCORSOrigins([]string{"https://app.example.com"}),
	)
	require.NoError(t, err)

	return &serverFixture{
		server:   srv,
		products: products,
		index:    index,
		embedder: embedder,
		objects:  objects,
		tokens:   tokens,
	}
}

func (fx *serverFixture) do(t *testing.T, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	fx.server.Handler().ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 && strings.Contains(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestHealth(t *testing.T) {
	fx := newServerFixture(t)
	rec, body := fx.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestProductsHealth(t *testing.T) {
	fx := newServerFixture(t)
	rec, body := fx.do(t, http.MethodGet, "/api/products/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "products", body["feature"])
}

func TestProductCount(t *testing.T) {
	fx := newServerFixture(t)
	imgSrv := newImageServer(t, 800, 600)

	rec, body := fx.do(t, http.MethodGet, "/api/products/count", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, body["count"])

	fx.do(t, http.MethodPost, "/api/products/ingest", map[string]any{
		"external_id": "101",
		"store_id":    "store-1",
		"title":       "Wool coat",
		"price":       "249.00",
		"image_url":   imgSrv.URL,
		"product_url": "https://store.example.com/product/wool-coat",
	}, nil)

	rec, body = fx.do(t, http.MethodGet, "/api/products/count", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])
}

func TestIngestEndpoint_Success(t *testing.T) {
	fx := newServerFixture(t)
	imgSrv := newImageServer(t, 800, 600)

	rec, body := fx.do(t, http.MethodPost, "/api/products/ingest", map[string]any{
		"external_id": "101",
		"store_id":    "store-1",
		"title":       "Wool coat",
		"price":       "249.00",
		"image_url":   imgSrv.URL,
		"product_url": "https://store.example.com/product/wool-coat",
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	productID, err := uuid.Parse(body["product_id"].(string))
	require.NoError(t, err)

	stored, err := fx.products.Get(context.Background(), productID)
	require.NoError(t, err)
	assert.Equal(t, "USD", stored.Currency, "currency defaults when omitted")
}

func TestIngestEndpoint_QualityRejection(t *testing.T) {
	fx := newServerFixture(t)
	imgSrv := newImageServer(t, 100, 100) // below the 400px minimum

	rec, body := fx.do(t, http.MethodPost, "/api/products/ingest", map[string]any{
		"external_id": "102",
		"store_id":    "store-1",
		"title":       "Thumbnail only",
		"price":       "19.00",
		"image_url":   imgSrv.URL,
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "quality check failed", body["error"])
	assert.Contains(t, body["quality_issues"], "too_small")
}

func TestIngestEndpoint_BadRequests(t *testing.T) {
	fx := newServerFixture(t)

	rec, _ := fx.do(t, http.MethodPost, "/api/products/ingest", map[string]any{
		"store_id": "store-1",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing required fields")

	rec, body := fx.do(t, http.MethodPost, "/api/products/ingest", map[string]any{
		"external_id": "103",
		"store_id":    "store-1",
		"title":       "Bad price",
		"price":       "not-a-number",
		"image_url":   "https://img.example.com/a.png",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "decimal")
}

func TestIngestEndpoint_ModelUnloaded(t *testing.T) {
	fx := newServerFixture(t)
	fx.embedder.NotLoaded = true

	rec, _ := fx.do(t, http.MethodPost, "/api/products/ingest", map[string]any{
		"external_id": "104",
		"store_id":    "store-1",
		"title":       "No model",
		"price":       "10.00",
		"image_url":   "https://img.example.com/a.png",
	}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSimilarEndpoint(t *testing.T) {
	fx := newServerFixture(t)
	imgSrv := newImageServer(t, 800, 600)

	rec, body := fx.do(t, http.MethodPost, "/api/products/ingest", map[string]any{
		"external_id": "101",
		"store_id":    "store-1",
		"title":       "Wool coat",
		"price":       "249.00",
		"image_url":   imgSrv.URL,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["success"])

	rec, body = fx.do(t, http.MethodPost, "/api/products/similar", map[string]any{
		"image_url": imgSrv.URL,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	hits := body["hits"].([]any)
	require.Len(t, hits, 1)
	hit := hits[0].(map[string]any)
	product := hit["product"].(map[string]any)
	assert.Equal(t, "Wool coat", product["title"])
	assert.Equal(t, "249.00", product["price"])
}

func TestSimilarEndpoint_FetchFailure(t *testing.T) {
	fx := newServerFixture(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	rec, _ := fx.do(t, http.MethodPost, "/api/products/similar", map[string]any{
		"image_url": srv.URL,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAIHealth(t *testing.T) {
	fx := newServerFixture(t)

	rec, body := fx.do(t, http.MethodGet, "/api/ai/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["model_loaded"])
	assert.EqualValues(t, 768, body["embedding_dimension"])

	fx.embedder.NotLoaded = true
	rec, body = fx.do(t, http.MethodGet, "/api/ai/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, false, body["model_loaded"])
}

func TestEmbedEndpoint(t *testing.T) {
	fx := newServerFixture(t)
	imgSrv := newImageServer(t, 800, 600)

	rec, body := fx.do(t, http.MethodPost, "/api/ai/embed", map[string]any{
		"image_url": imgSrv.URL,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 768, body["dimension"])
	assert.Len(t, body["embedding"], 768)
}

func TestEmbedEndpoint_Failures(t *testing.T) {
	fx := newServerFixture(t)
	imgSrv := newImageServer(t, 800, 600)

	fx.embedder.NotLoaded = true
	rec, _ := fx.do(t, http.MethodPost, "/api/ai/embed", map[string]any{
		"image_url": imgSrv.URL,
	}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	fx.embedder.NotLoaded = false

	notImage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not an image"))
	}))
	defer notImage.Close()
	rec, _ = fx.do(t, http.MethodPost, "/api/ai/embed", map[string]any{
		"image_url": notImage.URL,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQualityCheckEndpoint(t *testing.T) {
	fx := newServerFixture(t)
	imgSrv := newImageServer(t, 800, 600)

	rec, body := fx.do(t, http.MethodPost, "/api/ai/quality-check", map[string]any{
		"image_url": imgSrv.URL,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["passed"])
	assert.EqualValues(t, 800, body["width"])
	assert.EqualValues(t, 600, body["height"])
	assert.NotNil(t, body["issues"])
}

func TestQualityCheckEndpoint_SmallImage(t *testing.T) {
	fx := newServerFixture(t)
	imgSrv := newImageServer(t, 100, 100)

	rec, body := fx.do(t, http.MethodPost, "/api/ai/quality-check", map[string]any{
		"image_url": imgSrv.URL,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["passed"])
	assert.Contains(t, body["issues"], "too_small")
}

func TestLoginNotImplemented(t *testing.T) {
	fx := newServerFixture(t)
	rec, _ := fx.do(t, http.MethodPost, "/api/auth/login", map[string]any{
		"email":    "a@example.com",
		"password": "secret",
	}, nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestMe(t *testing.T) {
	fx := newServerFixture(t)
	userID := uuid.New()
	token, err := fx.tokens.CreateAccessToken(userID, 0)
	require.NoError(t, err)

	rec, body := fx.do(t, http.MethodGet, "/api/auth/me", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID.String(), body["user_id"])
}

func TestMe_Unauthorized(t *testing.T) {
	fx := newServerFixture(t)

	rec, _ := fx.do(t, http.MethodGet, "/api/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "missing header")

	rec, _ = fx.do(t, http.MethodGet, "/api/auth/me", nil, map[string]string{
		"Authorization": "Bearer not-a-token",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "garbage token")
}

func TestStorageHealth(t *testing.T) {
	fx := newServerFixture(t)

	rec, body := fx.do(t, http.MethodGet, "/api/storage/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "connected", body["status"])

	fx.objects.healthy = false
	rec, _ = fx.do(t, http.MethodGet, "/api/storage/health", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCORS(t *testing.T) {
	fx := newServerFixture(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/products/count", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	fx.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	fx.server.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewServer_RequiredDeps(t *testing.T) {
	products := newFakeProducts()
	index := newFakeIndex()
	embedder := &mock.ImageEmbedder{}
	gate := quality.NewGate()
	fetcher := quality.NewFetcher()
	pipeline, err := ingestion.NewPipeline(products, index, gate, fetcher, embedder)
	require.NoError(t, err)
	searcher, err := search.NewSearcher(products, index, embedder)
	require.NoError(t, err)

	_, err = NewServer(nil, embedder, gate, fetcher, pipeline, searcher)
	assert.ErrorIs(t, err, ErrProductRepositoryRequired)
	_, err = NewServer(products, nil, gate, fetcher, pipeline, searcher)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
	_, err = NewServer(products, embedder, nil, fetcher, pipeline, searcher)
	assert.ErrorIs(t, err, ErrQualityGateRequired)
	_, err = NewServer(products, embedder, gate, nil, pipeline, searcher)
	assert.ErrorIs(t, err, ErrFetcherRequired)
	_, err = NewServer(products, embedder, gate, fetcher, nil, searcher)
	assert.ErrorIs(t, err, ErrPipelineRequired)
	_, err = NewServer(products, embedder, gate, fetcher, pipeline, nil)
	assert.ErrorIs(t, err, ErrSearcherRequired)
}
