package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/internal/event"
	"github.com/utafrali/catalog/internal/repository/jsonfile"
	"github.com/utafrali/catalog/internal/service"
	"github.com/utafrali/catalog/internal/storage/disk"
	"github.com/utafrali/catalog/pkg/health"
	"github.com/utafrali/catalog/pkg/httputil"
	"github.com/utafrali/catalog/pkg/logger"
	"github.com/utafrali/catalog/pkg/middleware"
)

const testBaseURL = "http://localhost:3001"

type testServer struct {
	handler   http.Handler
	products  *jsonfile.Collection[domain.Product]
	reviews   *jsonfile.Collection[domain.Review]
	imagesDir string
	logs      *bytes.Buffer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	root := t.TempDir()
	ctx := context.Background()

	var logs bytes.Buffer
	l := logger.NewWithWriter("catalog", "debug", &logs)

	products := jsonfile.NewCollection[domain.Product]("products", filepath.Join(root, "data", "products.json"), jsonfile.Options{Logger: l})
	reviews := jsonfile.NewCollection[domain.Review]("reviews", filepath.Join(root, "data", "reviews.json"), jsonfile.Options{Logger: l})
	require.NoError(t, products.Init(ctx))
	require.NoError(t, reviews.Init(ctx))

	imagesDir := filepath.Join(root, "public", "img", "products")
	images := disk.New(imagesDir, testBaseURL+"/img/products", l)
	require.NoError(t, images.Init())

	producer := event.NewProducer(event.NopPublisher{}, l)
	productRepo := jsonfile.NewProductRepository(products)
	reviewRepo := jsonfile.NewReviewRepository(reviews)
	productService := service.NewProductService(productRepo, reviewRepo, images, producer, l)
	reviewService := service.NewReviewService(reviewRepo, productService, producer, l)

	hh := health.NewHandler()
	hh.Register("products", productRepo.Ping)
	hh.Register("images", health.DirWritable(imagesDir))

	reg := prometheus.NewRegistry()
	router := NewRouter(RouterConfig{
		ServiceName:        "catalog",
		ProductService:     productService,
		ReviewService:      reviewService,
		Health:             hh,
		Metrics:            middleware.NewHTTPMetrics(reg, "catalog"),
		Gatherer:           reg,
		ImagesDir:          imagesDir,
		ImageCacheMaxAge:   3600,
		CORSAllowedOrigins: []string{"*"},
		PprofAllowedCIDRs:  []string{"127.0.0.0/8"},
		Logger:             l,
	})

	return &testServer{
		handler:   router,
		products:  products,
		reviews:   reviews,
		imagesDir: imagesDir,
		logs:      &logs,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func (s *testServer) createProduct(t *testing.T, body map[string]any) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/products", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[MutationResponse](t, rec).ID
}

func (s *testServer) createReview(t *testing.T, productID string, body map[string]any) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/products/"+productID+"/reviews", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[MutationResponse](t, rec).ID
}

func productBody(name, category string, price float64) map[string]any {
	return map[string]any{
		"name":        name,
		"brand":       "Acme",
		"category":    category,
		"description": "A product",
		"price":       price,
	}
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) *httputil.ErrorResponse {
	t.Helper()
	resp := decodeBody[httputil.Response](t, rec)
	require.NotNil(t, resp.Error, "expected error envelope, got %s", rec.Body.String())
	return resp.Error
}

func writeRaw(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
