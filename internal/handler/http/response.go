package http

import (
	"net/http"

	"github.com/utafrali/catalog/pkg/httputil"
	"github.com/utafrali/catalog/pkg/validator"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

// MutationResponse acknowledges a create or update.
type MutationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id"`
}

// ImageUploadResponse acknowledges a stored product image.
type ImageUploadResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	FileName string `json:"fileName"`
	ImageURL string `json:"imageUrl"`
}

// decodeJSON limits, decodes and validates the request body into dst. On
// failure it writes the 400 response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := validator.DecodeAndValidate(r, dst); err != nil {
		httputil.WriteValidationError(w, r, err)
		return false
	}
	return true
}
