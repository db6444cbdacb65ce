package upload

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/nkiryanov/festival/internal/apperrors"
	"github.com/nkiryanov/festival/internal/logger"
	"github.com/nkiryanov/festival/internal/storage"
)

// Asset categories
const (
	CategoryLogo    = "logo"
	CategoryHero    = "hero"
	CategoryBand    = "band"
	CategoryNews    = "news"
	CategoryArchive = "archive"
)

var categoryDirs = map[string]string{
	CategoryLogo:    "logos",
	CategoryHero:    "heroes",
	CategoryBand:    "bands",
	CategoryNews:    "news",
	CategoryArchive: "archives",
}

// Dir returns storage directory of the category, "misc" for unknown ones
func Dir(category string) string {
	if dir, ok := categoryDirs[category]; ok {
		return dir
	}
	return "misc"
}

// Pipeline turns image input into stored asset
type Pipeline struct {
	store  storage.Store
	logger logger.Logger
	now    func() time.Time
	rand   io.Reader
}

type Option func(*Pipeline)

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithRandom replaces source of random file name suffixes
func WithRandom(r io.Reader) Option {
	return func(p *Pipeline) { p.rand = r }
}

func New(store storage.Store, l logger.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:  store,
		logger: l,
		now:    time.Now,
		rand:   rand.Reader,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Store saves inline image under category directory and returns its path ("uploads/<dir>/<name>")
// Existing path is returned as is without touching the store.
// Previous asset is deleted only after the new one is written. Failure to delete it is logged, not returned.
func (p *Pipeline) Store(ctx context.Context, input ImageInput, category string, previous string) (string, error) {
	var img InlineData

	switch in := input.(type) {
	case ExistingPath:
		return in.Path, nil
	case InlineData:
		img = in
	default:
		return "", apperrors.ErrInvalidImageFormat
	}

	name, err := p.fileName(category, img.MIME)
	if err != nil {
		return "", err
	}

	key := Dir(category) + "/" + name
	if err := p.store.Put(ctx, key, img.Data, img.MIME); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}

	stored := PathPrefix + key

	if previous != "" && previous != stored {
		if err := p.Delete(ctx, previous); err != nil {
			p.logger.Warn("Failed to delete replaced asset", "path", previous, "error", err)
		} else {
			p.logger.Debug("Replaced asset deleted", "path", previous, "new_path", stored)
		}
	}

	return stored, nil
}

// Delete removes stored asset. Already missing asset is not an error
func (p *Pipeline) Delete(ctx context.Context, stored string) error {
	key, err := keyFromPath(stored)
	if err != nil {
		return err
	}

	return p.store.Delete(ctx, key)
}

// Open stored asset by its path
func (p *Pipeline) Open(ctx context.Context, stored string) (io.ReadSeekCloser, storage.ObjectInfo, error) {
	key, err := keyFromPath(stored)
	if err != nil {
		return nil, storage.ObjectInfo{}, err
	}

	r, info, err := p.store.Open(ctx, key)
	if err != nil {
		return nil, info, err
	}

	// Served from the site origin, so only image types pass through
	if !strings.HasPrefix(info.ContentType, "image/") {
		info.ContentType = mime.TypeByExtension(path.Ext(key))
	}

	return r, info, nil
}

// {category}_{unixMillis}_{16 hex chars}{ext}
func (p *Pipeline) fileName(category string, mimeType string) (string, error) {
	var b [8]byte
	if _, err := io.ReadFull(p.rand, b[:]); err != nil {
		return "", fmt.Errorf("generate file name: %w", err)
	}

	return fmt.Sprintf("%s_%d_%s%s", category, p.now().UnixMilli(), hex.EncodeToString(b[:]), Ext(mimeType)), nil
}

// Ext maps image mime type to file extension, ".jpg" for everything unknown
func Ext(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mediaType = mimeType
	}

	switch mediaType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
