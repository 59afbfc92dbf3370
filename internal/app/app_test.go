package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/catalog/internal/config"
	"github.com/utafrali/catalog/pkg/logger"
)

func newTestApp(t *testing.T) (*App, *config.Config) {
	t.Helper()

	root := t.TempDir()
	cfg, err := config.LoadFromMap(map[string]string{
		"CATALOG_DATA_DIR":   filepath.Join(root, "data"),
		"CATALOG_PUBLIC_DIR": filepath.Join(root, "public"),
		"CATALOG_HTTP_PORT":  "3999",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	application, err := NewApp(cfg, logger.NewWithWriter(ServiceName, "debug", &buf))
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Shutdown() })

	return application, cfg
}

func TestNewApp_InitializesStorage(t *testing.T) {
	_, cfg := newTestApp(t)

	for _, path := range []string{cfg.ProductsPath(), cfg.ReviewsPath()} {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.JSONEq(t, "[]", string(data))
	}

	info, err := os.Stat(cfg.ProductImagesDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewApp_ServesCatalog(t *testing.T) {
	application, _ := newTestApp(t)
	h := application.Handler()

	body := `{"name":"Mug","brand":"Acme","category":"Kitchen","description":"Stoneware","price":12.5}`
	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	require.NotEmpty(t, created.ID)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/"+created.ID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Mug"`)
}

func TestNewApp_ReadinessAndMetrics(t *testing.T) {
	application, _ := newTestApp(t)
	h := application.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "products")
	assert.NotContains(t, rec.Body.String(), "kafka")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
	assert.Contains(t, rec.Body.String(), "jsonfile_operations_total")
}

func TestNewApp_InvalidDataDir(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	cfg, err := config.LoadFromMap(map[string]string{
		"CATALOG_DATA_DIR":   filepath.Join(blocker, "data"),
		"CATALOG_PUBLIC_DIR": filepath.Join(root, "public"),
	})
	require.NoError(t, err)

	_, err = NewApp(cfg, logger.NewWithWriter(ServiceName, "error", &bytes.Buffer{}))
	assert.Error(t, err)
}

func TestShutdown_WithoutRun(t *testing.T) {
	application, _ := newTestApp(t)
	assert.NoError(t, application.Shutdown())
}
