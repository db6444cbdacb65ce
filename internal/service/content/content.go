package content

import (
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/festival/internal/models"
	"github.com/nkiryanov/festival/internal/repository"
)

// Repositories of content documents
type Repos struct {
	Bands      repository.DocumentRepo[models.Band]
	News       repository.DocumentRepo[models.News]
	Archives   repository.DocumentRepo[models.ArchiveEntry]
	SiteAssets repository.SiteAssetsRepo
}

// Services over content documents
type Services struct {
	Bands      *BandService
	News       *NewsService
	Archives   *ArchiveService
	SiteAssets *SiteAssetsService
}

type Option func(*clock)

// WithClock replaces time source of document timestamps
func WithClock(now func() time.Time) Option {
	return func(c *clock) { c.now = now }
}

// WithIDs replaces document id generator
func WithIDs(newID func() string) Option {
	return func(c *clock) { c.newID = newID }
}

// Document timestamps and ids
type clock struct {
	now   func() time.Time
	newID func() string
}

// Mongo keeps milliseconds only, so do we
func (c clock) stamp() time.Time {
	return c.now().UTC().Truncate(time.Millisecond)
}

func NewServices(repos Repos, uploader Uploader, cleaner Cleaner, opts ...Option) *Services {
	c := clock{now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(&c)
	}

	im := images{uploader: uploader, cleaner: cleaner}

	return &Services{
		Bands:      newBandService(repos.Bands, im, c),
		News:       newNewsService(repos.News, im, c),
		Archives:   newArchiveService(repos.Archives, im, c),
		SiteAssets: newSiteAssetsService(repos.SiteAssets, im, c),
	}
}
