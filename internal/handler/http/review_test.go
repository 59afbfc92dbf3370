package http

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/catalog/internal/domain"
)

func TestCreateReview_UnknownProduct(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/products/missing/reviews", map[string]any{"comment": "x", "rate": 4})

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "product with id missing not found", errorBody(t, rec).Message)

	reviews, err := s.reviews.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestReviewLifecycle(t *testing.T) {
	s := newTestServer(t)
	productID := s.createProduct(t, productBody("Runner", "Shoes", 50))

	rec := s.do(t, http.MethodPost, "/products/"+productID+"/reviews", map[string]any{"comment": "Great fit", "rate": 4})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[MutationResponse](t, rec)
	assert.Equal(t, "Review saved!", created.Message)
	reviewPath := "/products/" + productID + "/reviews/" + created.ID

	rec = s.do(t, http.MethodGet, "/products/"+productID+"/reviews", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]domain.Review](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, productID, list[0].ProductID)
	assert.Equal(t, 4.0, list[0].Rate)

	rec = s.do(t, http.MethodGet, reviewPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	before := decodeBody[domain.Review](t, rec)
	assert.Equal(t, "Great fit", before.Comment)

	rec = s.do(t, http.MethodPut, reviewPath, map[string]any{"rate": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Review updated!", decodeBody[MutationResponse](t, rec).Message)

	after := decodeBody[domain.Review](t, s.do(t, http.MethodGet, reviewPath, nil))
	assert.Equal(t, 2.0, after.Rate)
	assert.Equal(t, "Great fit", after.Comment)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))

	rec = s.do(t, http.MethodDelete, reviewPath, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodGet, reviewPath, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListReviews_EmptyAndUnknownProduct(t *testing.T) {
	s := newTestServer(t)
	productID := s.createProduct(t, productBody("Runner", "Shoes", 50))

	rec := s.do(t, http.MethodGet, "/products/"+productID+"/reviews", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/products/missing/reviews", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateReview_Validation(t *testing.T) {
	s := newTestServer(t)
	productID := s.createProduct(t, productBody("Runner", "Shoes", 50))

	for name, body := range map[string]map[string]any{
		"rate missing":    {"comment": "x"},
		"comment missing": {"rate": 3},
	} {
		t.Run(name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/products/"+productID+"/reviews", body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "VALIDATION_ERROR", errorBody(t, rec).Code)
		})
	}
}

func TestReview_AddressedUnderOtherProduct(t *testing.T) {
	s := newTestServer(t)
	owner := s.createProduct(t, productBody("Runner", "Shoes", 50))
	other := s.createProduct(t, productBody("Cap", "Hats", 10))
	reviewID := s.createReview(t, owner, map[string]any{"comment": "ok", "rate": 3})
	wrongPath := "/products/" + other + "/reviews/" + reviewID

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, wrongPath, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPut, wrongPath, map[string]any{"rate": 1}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, wrongPath, nil).Code)

	reviews, err := s.reviews.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 3.0, reviews[0].Rate)
}

func TestCreateReview_FractionalAndUnboundedRates(t *testing.T) {
	s := newTestServer(t)
	productID := s.createProduct(t, productBody("Runner", "Shoes", 50))

	for _, rate := range []float64{4.5, 0, 7} {
		id := s.createReview(t, productID, map[string]any{"comment": "ok", "rate": rate})

		rec := s.do(t, http.MethodGet, "/products/"+productID+"/reviews/"+id, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, rate, decodeBody[domain.Review](t, rec).Rate)
	}

	rec := s.do(t, http.MethodGet, "/products/"+productID+"/reviews", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]domain.Review](t, rec), 3)
}

func TestUpdateReview_FractionalRate(t *testing.T) {
	s := newTestServer(t)
	productID := s.createProduct(t, productBody("Runner", "Shoes", 50))
	reviewID := s.createReview(t, productID, map[string]any{"comment": "ok", "rate": 3})
	reviewPath := "/products/" + productID + "/reviews/" + reviewID

	rec := s.do(t, http.MethodPut, reviewPath, map[string]any{"rate": 3.75})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decodeBody[domain.Review](t, s.do(t, http.MethodGet, reviewPath, nil))
	assert.Equal(t, 3.75, got.Rate)
}

func TestCreateReview_RateNotANumber(t *testing.T) {
	s := newTestServer(t)
	productID := s.createProduct(t, productBody("Runner", "Shoes", 50))

	rec := s.do(t, http.MethodPost, "/products/"+productID+"/reviews", map[string]any{"comment": "ok", "rate": "five"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	e := errorBody(t, rec)
	assert.Equal(t, "INVALID_INPUT", e.Code)
	assert.Equal(t, "rate must be a number", e.Message)
	assert.NotContains(t, rec.Body.String(), "Go struct")
	require.Len(t, e.Errors, 1)
	assert.Equal(t, "rate", e.Errors[0].Field)
}
