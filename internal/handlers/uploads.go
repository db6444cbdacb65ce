package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/nkiryanov/festival/internal/apperrors"
	"github.com/nkiryanov/festival/internal/handlers/render"
	"github.com/nkiryanov/festival/internal/logger"
	"github.com/nkiryanov/festival/internal/service/upload"
	"github.com/nkiryanov/festival/internal/storage"
)

// Stream stored asset. Names are unique, so assets never change and may be cached forever
func handleServeUpload(uploads assetOpener, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dir, file := r.PathValue("dir"), r.PathValue("file")

		asset, info, err := uploads.Open(r.Context(), upload.PathPrefix+dir+"/"+file)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrAssetNotFound), errors.Is(err, apperrors.ErrInvalidAssetPath):
				render.ServiceError(w, "File not found", http.StatusNotFound)
			default:
				l.Error("Failed to open asset", "dir", dir, "file", file, "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}
		defer asset.Close() // nolint:errcheck

		// Never let ServeContent sniff a type
		contentType := info.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		w.Header().Set("X-Content-Type-Options", "nosniff")

		http.ServeContent(w, r, file, info.ModTime, asset)
	})
}

type assetOpener interface {
	Open(ctx context.Context, stored string) (io.ReadSeekCloser, storage.ObjectInfo, error)
}
