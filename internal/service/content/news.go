package content

import (
	"context"
	"time"

	"github.com/nkiryanov/festival/internal/models"
	"github.com/nkiryanov/festival/internal/repository"
	"github.com/nkiryanov/festival/internal/service/upload"
)

type NewsInput struct {
	Title     string
	Summary   string
	Content   string
	Published bool
	Image     ImageUpdate
}

type NewsService struct {
	collection[models.News]
	clock clock
}

func newNewsService(repo repository.DocumentRepo[models.News], im images, c clock) *NewsService {
	return &NewsService{
		collection: collection[models.News]{
			repo:     repo,
			images:   im,
			category: upload.CategoryNews,
			image:    func(n *models.News) *string { return &n.Image },
		},
		clock: c,
	}
}

// ListPublished returns only published articles
func (s *NewsService) ListPublished(ctx context.Context) ([]models.News, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	published := make([]models.News, 0, len(all))
	for _, n := range all {
		if n.Published {
			published = append(published, n)
		}
	}

	return published, nil
}

func (s *NewsService) Create(ctx context.Context, in NewsInput) (models.News, error) {
	now := s.clock.stamp()
	news := models.News{ID: s.clock.newID(), CreatedAt: now}
	in.apply(&news, now)

	return s.create(ctx, news, in.Image)
}

func (s *NewsService) Update(ctx context.Context, id string, in NewsInput) (models.News, error) {
	now := s.clock.stamp()
	return s.update(ctx, id, func(n *models.News) { in.apply(n, now) }, in.Image)
}

func (s *NewsService) SetImage(ctx context.Context, id string, upd ImageUpdate) (models.News, error) {
	now := s.clock.stamp()
	return s.update(ctx, id, func(n *models.News) { n.UpdatedAt = now }, upd)
}

// Publication time is set on first publish and kept while article stays published
func (in NewsInput) apply(n *models.News, now time.Time) {
	n.Title = in.Title
	n.Summary = in.Summary
	n.Content = in.Content
	n.UpdatedAt = now

	switch {
	case in.Published && n.PublishedAt == nil:
		n.PublishedAt = &now
	case !in.Published:
		n.PublishedAt = nil
	}
	n.Published = in.Published
}
