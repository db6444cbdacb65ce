package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/festival/internal/apperrors"
	"github.com/nkiryanov/festival/internal/handlers/render"
	"github.com/nkiryanov/festival/internal/logger"
)

// Render errors content and upload operations may return
// Unknown errors are logged and hidden behind 500
func renderError(w http.ResponseWriter, l logger.Logger, err error, notFound string) {
	switch {
	case errors.Is(err, apperrors.ErrDocumentNotFound):
		render.ServiceError(w, notFound, http.StatusNotFound)
	case errors.Is(err, apperrors.ErrImageTooLarge):
		render.ServiceError(w, "Image is too large", http.StatusRequestEntityTooLarge)
	case errors.Is(err, apperrors.ErrInvalidImageFormat), errors.Is(err, apperrors.ErrInvalidAssetPath):
		render.ServiceError(w, "Invalid image format", http.StatusBadRequest)
	default:
		l.Error("Request failed", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}
