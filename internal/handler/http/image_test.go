package http

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/catalog/internal/domain"
)

// pngBytes is a PNG signature followed by an IHDR chunk header.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR"), make([]byte, 64)...)

func multipartBody(t *testing.T, field, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, fileName)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file"))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (s *testServer) upload(t *testing.T, productID, field, fileName string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, field, fileName, content)
	req := httptest.NewRequest(http.MethodPost, "/products/"+productID+"/img", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestUploadImage_StoresFileAndSetsImageURL(t *testing.T) {
	s := newTestServer(t)
	id := s.createProduct(t, productBody("Runner", "Shoes", 50))

	rec := s.upload(t, id, ImageFormField, "Cover.PNG", pngBytes)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decodeBody[ImageUploadResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "Cover uploaded to product with id "+id, resp.Message)
	assert.Equal(t, id+".png", resp.FileName)
	assert.Equal(t, testBaseURL+"/img/products/"+id+".png", resp.ImageURL)

	stored, err := os.ReadFile(filepath.Join(s.imagesDir, id+".png"))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, stored)

	p := decodeBody[domain.Product](t, s.do(t, http.MethodGet, "/products/"+id, nil))
	assert.Equal(t, resp.ImageURL, p.ImageURL)
	assert.True(t, p.UpdatedAt.After(p.CreatedAt))

	rec = s.do(t, http.MethodGet, "/img/products/"+id+".png", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pngBytes, rec.Body.Bytes())
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
}

func TestUploadImage_MismatchedExtensionUsesSniffedType(t *testing.T) {
	s := newTestServer(t)
	id := s.createProduct(t, productBody("Runner", "Shoes", 50))

	rec := s.upload(t, id, ImageFormField, "cover.html", pngBytes)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, id+".png", decodeBody[ImageUploadResponse](t, rec).FileName)
}

func TestUploadImage_ReplacesPreviousImage(t *testing.T) {
	s := newTestServer(t)
	id := s.createProduct(t, productBody("Runner", "Shoes", 50))
	second := append(append([]byte{}, pngBytes...), 'x')

	require.Equal(t, http.StatusCreated, s.upload(t, id, ImageFormField, "a.png", pngBytes).Code)
	require.Equal(t, http.StatusCreated, s.upload(t, id, ImageFormField, "b.png", second).Code)

	stored, err := os.ReadFile(filepath.Join(s.imagesDir, id+".png"))
	require.NoError(t, err)
	assert.Equal(t, second, stored)
}

func TestUploadImage_NotAnImage(t *testing.T) {
	s := newTestServer(t)
	id := s.createProduct(t, productBody("Runner", "Shoes", 50))

	rec := s.upload(t, id, ImageFormField, "notes.png", []byte("just some text, not an image"))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", errorBody(t, rec).Code)
	entries, err := os.ReadDir(s.imagesDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadImage_TooLarge(t *testing.T) {
	s := newTestServer(t)
	id := s.createProduct(t, productBody("Runner", "Shoes", 50))
	big := append(append([]byte{}, pngBytes...), make([]byte, domain.MaxImageSize)...)

	rec := s.upload(t, id, ImageFormField, "big.png", big)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadImage_MissingFile(t *testing.T) {
	s := newTestServer(t)
	id := s.createProduct(t, productBody("Runner", "Shoes", 50))

	rec := s.upload(t, id, "", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, errorBody(t, rec).Message, ImageFormField)

	rec = s.upload(t, id, "wrong-field", "a.png", pngBytes)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/products/"+id+"/img", map[string]any{"not": "multipart"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadImage_UnknownProduct(t *testing.T) {
	s := newTestServer(t)

	rec := s.upload(t, "missing", ImageFormField, "a.png", pngBytes)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "product with id missing not found", errorBody(t, rec).Message)
	entries, err := os.ReadDir(s.imagesDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDeleteProduct_RemovesImage(t *testing.T) {
	s := newTestServer(t)
	id := s.createProduct(t, productBody("Runner", "Shoes", 50))
	require.Equal(t, http.StatusCreated, s.upload(t, id, ImageFormField, "a.png", pngBytes).Code)

	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/products/"+id, nil).Code)

	_, err := os.Stat(filepath.Join(s.imagesDir, id+".png"))
	assert.True(t, os.IsNotExist(err))
	products, err := s.products.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}
