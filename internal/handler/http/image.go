package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/internal/service"
	apperrors "github.com/utafrali/catalog/pkg/errors"
	"github.com/utafrali/catalog/pkg/httputil"
)

// ImageFormField is the multipart field carrying the product image.
const ImageFormField = "product-img"

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temporary file.
const multipartMemory = 2 << 20

// ImageHandler handles product image uploads.
type ImageHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewImageHandler creates a new image HTTP handler.
func NewImageHandler(svc *service.ProductService, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{
		service: svc,
		logger:  logger,
	}
}

// UploadImage handles POST /products/{productId}/img (multipart/form-data).
func (h *ImageHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	// Leave room for the multipart envelope around the file.
	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxImageSize+(1<<20))

	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httputil.WriteError(w, r, tooLarge(), h.logger)
			return
		}
		httputil.WriteErrorCode(w, r, http.StatusBadRequest, "INVALID_INPUT", "failed to parse multipart form: "+err.Error())
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	file, header, err := r.FormFile(ImageFormField)
	if err != nil {
		// An unknown product wins over a missing file.
		if existsErr := h.service.EnsureProductExists(r.Context(), productID); existsErr != nil {
			httputil.WriteError(w, r, existsErr, h.logger)
			return
		}
		httputil.WriteError(w, r, apperrors.NotFoundMessage(
			fmt.Sprintf("no file uploaded in form field %q", ImageFormField)), h.logger)
		return
	}
	defer file.Close()

	if header.Size > domain.MaxImageSize {
		httputil.WriteError(w, r, tooLarge(), h.logger)
		return
	}

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		httputil.WriteError(w, r, fmt.Errorf("sniff upload: %w", err), h.logger)
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		httputil.WriteError(w, r, fmt.Errorf("rewind upload: %w", err), h.logger)
		return
	}

	result, err := h.service.UploadImage(r.Context(), &service.UploadImageInput{
		ProductID:    productID,
		OriginalName: header.Filename,
		ContentType:  mtype.String(),
		Size:         header.Size,
		Data:         file,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, ImageUploadResponse{
		Success:  true,
		Message:  fmt.Sprintf("Cover uploaded to product with id %s", productID),
		FileName: result.FileName,
		ImageURL: result.URL,
	})
}

func tooLarge() error {
	return apperrors.InvalidInput(fmt.Sprintf("image must not exceed %d MiB", domain.MaxImageSize>>20))
}
