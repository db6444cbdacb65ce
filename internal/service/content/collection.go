package content

import (
	"context"
	"fmt"

	"github.com/nkiryanov/festival/internal/repository"
)

// collection is CRUD over documents of one type with one image field
type collection[T repository.Document] struct {
	repo     repository.DocumentRepo[T]
	images   images
	category string

	// Pointer to the document image field
	image func(doc *T) *string
}

func (c *collection[T]) List(ctx context.Context) ([]T, error) {
	return c.repo.List(ctx)
}

// Get returns apperrors.ErrDocumentNotFound if there is no such document
func (c *collection[T]) Get(ctx context.Context, id string) (T, error) {
	return c.repo.Get(ctx, id)
}

func (c *collection[T]) create(ctx context.Context, doc T, upd ImageUpdate) (T, error) {
	ch, err := c.images.resolve(ctx, upd, c.category, "")
	if err != nil {
		return doc, err
	}

	*c.image(&doc) = ch.path

	if err := c.repo.Create(ctx, doc); err != nil {
		c.images.rollback(ctx, ch)
		return doc, fmt.Errorf("can't save document. Err: %w", err)
	}

	return doc, nil
}

func (c *collection[T]) update(ctx context.Context, id string, mutate func(doc *T), upd ImageUpdate) (T, error) {
	doc, err := c.repo.Get(ctx, id)
	if err != nil {
		return doc, err
	}

	current := *c.image(&doc)

	ch, err := c.images.resolve(ctx, upd, c.category, current)
	if err != nil {
		return doc, err
	}

	mutate(&doc)
	*c.image(&doc) = ch.path

	if err := c.repo.Update(ctx, doc); err != nil {
		c.images.rollback(ctx, ch)
		return doc, fmt.Errorf("can't save document. Err: %w", err)
	}

	c.images.committed(ctx, ch, current)

	return doc, nil
}

// Delete document and schedule cleanup of its image
func (c *collection[T]) Delete(ctx context.Context, id string) error {
	doc, err := c.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := c.repo.Delete(ctx, id); err != nil {
		return err
	}

	c.images.cleaner.Schedule(ctx, *c.image(&doc))

	return nil
}
