package upload

import (
	"encoding/base64"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/nkiryanov/festival/internal/apperrors"
	"github.com/nkiryanov/festival/internal/storage"
)

// Prefix of every stored asset path
const PathPrefix = "uploads/"

// ImageInput is either ExistingPath or InlineData
type ImageInput interface {
	isImageInput()
}

// ExistingPath references already stored asset, storing it is a no-op
type ExistingPath struct {
	Path string
}

// InlineData is decoded image content
type InlineData struct {
	MIME string
	Data []byte
}

func (ExistingPath) isImageInput() {}
func (InlineData) isImageInput()   {}

var dataURIRe = regexp.MustCompile(`^data:([\w.+-]+/[\w.+-]+);base64,(.*)$`)

// ParseImageInput recognizes stored path ("uploads/...") or base64 data URI ("data:<mime>;base64,<payload>")
// Everything else is apperrors.ErrInvalidImageFormat
func ParseImageInput(s string) (ImageInput, error) {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, PathPrefix) {
		if _, err := keyFromPath(s); err != nil {
			return nil, fmt.Errorf("%w: bad stored path", apperrors.ErrInvalidImageFormat)
		}
		return ExistingPath{Path: s}, nil
	}

	m := dataURIRe.FindStringSubmatch(s)
	if m == nil {
		return nil, apperrors.ErrInvalidImageFormat
	}

	data, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return nil, fmt.Errorf("%w: bad base64 payload", apperrors.ErrInvalidImageFormat)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", apperrors.ErrInvalidImageFormat)
	}

	// Declared type is not trusted, content decides
	mt, err := detectImage(data)
	if err != nil {
		return nil, err
	}

	return InlineData{MIME: mt, Data: data}, nil
}

// FromMultipart reads uploaded file and detects its type by content
// Declared content type of the part is ignored, only images are accepted
func FromMultipart(r io.Reader, maxBytes int64) (InlineData, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return InlineData{}, fmt.Errorf("read upload: %w", err)
	}

	if int64(len(data)) > maxBytes {
		return InlineData{}, apperrors.ErrImageTooLarge
	}

	if len(data) == 0 {
		return InlineData{}, fmt.Errorf("%w: empty file", apperrors.ErrInvalidImageFormat)
	}

	mt, err := detectImage(data)
	if err != nil {
		return InlineData{}, err
	}

	return InlineData{MIME: mt, Data: data}, nil
}

// Mime type of image content, apperrors.ErrInvalidImageFormat for anything else
func detectImage(data []byte) (string, error) {
	mt := mimetype.Detect(data).String()
	if !strings.HasPrefix(mt, "image/") {
		return "", fmt.Errorf("%w: %s is not an image", apperrors.ErrInvalidImageFormat, mt)
	}
	return mt, nil
}

// Stored path "uploads/bands/x.png" to store key "bands/x.png"
func keyFromPath(path string) (string, error) {
	if !strings.HasPrefix(path, PathPrefix) {
		return "", fmt.Errorf("%w: %q has no %q prefix", apperrors.ErrInvalidAssetPath, path, PathPrefix)
	}
	return storage.CleanKey(strings.TrimPrefix(path, PathPrefix))
}
