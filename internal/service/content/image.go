package content

import (
	"context"
	"fmt"

	"github.com/nkiryanov/festival/internal/apperrors"
	"github.com/nkiryanov/festival/internal/service/upload"
)

// Uploader stores image input and returns stored path
type Uploader interface {
	Store(ctx context.Context, input upload.ImageInput, category string, previous string) (string, error)
}

// Cleaner deletes assets that are no longer referenced, in background
type Cleaner interface {
	Schedule(ctx context.Context, path string)
}

type imageOp int

const (
	opKeep imageOp = iota
	opReplace
	opClear
)

// ImageUpdate says what to do with document image: keep it, replace it or clear it
// Zero value keeps the image
type ImageUpdate struct {
	op    imageOp
	input upload.ImageInput
}

func KeepImage() ImageUpdate {
	return ImageUpdate{op: opKeep}
}

func ReplaceImage(input upload.ImageInput) ImageUpdate {
	return ImageUpdate{op: opReplace, input: input}
}

func ClearImage() ImageUpdate {
	return ImageUpdate{op: opClear}
}

func (u ImageUpdate) IsKeep() bool  { return u.op == opKeep }
func (u ImageUpdate) IsClear() bool { return u.op == opClear }

// Input of the replacement, nil unless image is replaced
func (u ImageUpdate) Input() upload.ImageInput { return u.input }

// Result of applying ImageUpdate to the current image path
type imageChange struct {
	// Path to persist on the document
	path string

	// Path is a freshly written asset, nothing references it until document is saved
	written bool

	// Current asset has to be cleaned up once document is saved
	dropCurrent bool
}

type images struct {
	uploader Uploader
	cleaner  Cleaner
}

func (im images) resolve(ctx context.Context, upd ImageUpdate, category string, current string) (imageChange, error) {
	switch upd.op {
	case opClear:
		return imageChange{dropCurrent: current != ""}, nil

	case opReplace:
		// Stored path is accepted for the document's own asset only
		if existing, ok := upd.input.(upload.ExistingPath); ok {
			if existing.Path != current {
				return imageChange{}, fmt.Errorf("%w: %q is not the current image", apperrors.ErrInvalidImageFormat, existing.Path)
			}
			return imageChange{path: current}, nil
		}

		// Current asset is kept until the document is saved with the new one
		path, err := im.uploader.Store(ctx, upd.input, category, "")
		if err != nil {
			return imageChange{}, err
		}

		return imageChange{
			path:        path,
			written:     true,
			dropCurrent: current != "",
		}, nil

	default:
		return imageChange{path: current}, nil
	}
}

// Called once document is saved
func (im images) committed(ctx context.Context, ch imageChange, current string) {
	if ch.dropCurrent {
		im.cleaner.Schedule(ctx, current)
	}
}

// Called if document could not be saved
func (im images) rollback(ctx context.Context, ch imageChange) {
	if ch.written {
		im.cleaner.Schedule(ctx, ch.path)
	}
}
