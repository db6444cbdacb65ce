package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/nkiryanov/festival/internal/apperrors"
	"github.com/nkiryanov/festival/internal/service/content"
	"github.com/nkiryanov/festival/internal/service/upload"
)

// Max size of multipart image upload
const defaultMaxUploadBytes = 10 << 20

// JSON image field: absent keeps the image, null or "" clears it,
// string is a data URI or already stored path
type imageField struct {
	set   bool
	null  bool
	value string
}

func (f *imageField) UnmarshalJSON(b []byte) error {
	f.set = true
	if string(b) == "null" {
		f.null = true
		return nil
	}
	return json.Unmarshal(b, &f.value)
}

func (f imageField) update() (content.ImageUpdate, error) {
	switch {
	case !f.set:
		return content.KeepImage(), nil
	case f.null || strings.TrimSpace(f.value) == "":
		return content.ClearImage(), nil
	}

	input, err := upload.ParseImageInput(f.value)
	if err != nil {
		return content.ImageUpdate{}, err
	}
	return content.ReplaceImage(input), nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// Read the image from multipart form field
func multipartImage(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) (content.ImageUpdate, error) {
	// Some room for the other parts and boundaries
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)

	file, _, err := r.FormFile(field)
	if err != nil {
		var sizeErr *http.MaxBytesError
		if errors.As(err, &sizeErr) {
			return content.ImageUpdate{}, apperrors.ErrImageTooLarge
		}
		return content.ImageUpdate{}, fmt.Errorf("%w: form field %q is missing", apperrors.ErrInvalidImageFormat, field)
	}
	defer file.Close() // nolint:errcheck

	data, err := upload.FromMultipart(file, maxBytes)
	if err != nil {
		return content.ImageUpdate{}, err
	}

	return content.ReplaceImage(data), nil
}
