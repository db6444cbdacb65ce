package content

import (
	"context"
	"time"

	"github.com/nkiryanov/festival/internal/models"
	"github.com/nkiryanov/festival/internal/repository"
	"github.com/nkiryanov/festival/internal/service/upload"
)

type ArchiveInput struct {
	Year        int
	Title       string
	Description string
	Poster      ImageUpdate
}

type ArchiveService struct {
	collection[models.ArchiveEntry]
	clock clock
}

func newArchiveService(repo repository.DocumentRepo[models.ArchiveEntry], im images, c clock) *ArchiveService {
	return &ArchiveService{
		collection: collection[models.ArchiveEntry]{
			repo:     repo,
			images:   im,
			category: upload.CategoryArchive,
			image:    func(a *models.ArchiveEntry) *string { return &a.Poster },
		},
		clock: c,
	}
}

func (s *ArchiveService) Create(ctx context.Context, in ArchiveInput) (models.ArchiveEntry, error) {
	now := s.clock.stamp()
	entry := models.ArchiveEntry{ID: s.clock.newID(), CreatedAt: now}
	in.apply(&entry, now)

	return s.create(ctx, entry, in.Poster)
}

func (s *ArchiveService) Update(ctx context.Context, id string, in ArchiveInput) (models.ArchiveEntry, error) {
	now := s.clock.stamp()
	return s.update(ctx, id, func(a *models.ArchiveEntry) { in.apply(a, now) }, in.Poster)
}

func (s *ArchiveService) SetImage(ctx context.Context, id string, upd ImageUpdate) (models.ArchiveEntry, error) {
	now := s.clock.stamp()
	return s.update(ctx, id, func(a *models.ArchiveEntry) { a.UpdatedAt = now }, upd)
}

func (in ArchiveInput) apply(a *models.ArchiveEntry, now time.Time) {
	a.Year = in.Year
	a.Title = in.Title
	a.Description = in.Description
	a.UpdatedAt = now
}
