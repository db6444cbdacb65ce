package content

import (
	"context"
	"time"

	"github.com/nkiryanov/festival/internal/models"
	"github.com/nkiryanov/festival/internal/repository"
	"github.com/nkiryanov/festival/internal/service/upload"
)

type BandInput struct {
	Name        string
	Genre       string
	Country     string
	Description string
	Website     string
	Headliner   bool
	SortOrder   int
	Image       ImageUpdate
}

type BandService struct {
	collection[models.Band]
	clock clock
}

func newBandService(repo repository.DocumentRepo[models.Band], im images, c clock) *BandService {
	return &BandService{
		collection: collection[models.Band]{
			repo:     repo,
			images:   im,
			category: upload.CategoryBand,
			image:    func(b *models.Band) *string { return &b.Image },
		},
		clock: c,
	}
}

func (s *BandService) Create(ctx context.Context, in BandInput) (models.Band, error) {
	now := s.clock.stamp()
	band := models.Band{ID: s.clock.newID(), CreatedAt: now}
	in.apply(&band, now)

	return s.create(ctx, band, in.Image)
}

// Update replaces all band fields, image is changed according to in.Image
func (s *BandService) Update(ctx context.Context, id string, in BandInput) (models.Band, error) {
	now := s.clock.stamp()
	return s.update(ctx, id, func(b *models.Band) { in.apply(b, now) }, in.Image)
}

// SetImage changes band image only
func (s *BandService) SetImage(ctx context.Context, id string, upd ImageUpdate) (models.Band, error) {
	now := s.clock.stamp()
	return s.update(ctx, id, func(b *models.Band) { b.UpdatedAt = now }, upd)
}

func (in BandInput) apply(b *models.Band, now time.Time) {
	b.Name = in.Name
	b.Genre = in.Genre
	b.Country = in.Country
	b.Description = in.Description
	b.Website = in.Website
	b.Headliner = in.Headliner
	b.SortOrder = in.SortOrder
	b.UpdatedAt = now
}
