package handlers

import (
	"context"
	"time"

	"github.com/nkiryanov/festival/internal/logger"
	"github.com/nkiryanov/festival/internal/models"
	"github.com/nkiryanov/festival/internal/service/content"
	"github.com/nkiryanov/festival/internal/service/upload"
)

type newsRequest struct {
	Title     string     `json:"title" validate:"required,notblank,max=300"`
	Summary   string     `json:"summary" validate:"max=1000"`
	Content   string     `json:"content" validate:"required"`
	Published bool       `json:"published"`
	Image     imageField `json:"image"`
}

type newsResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Summary     string     `json:"summary"`
	Content     string     `json:"content"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"publishedAt"`
	Image       string     `json:"image"`
	ImageURL    string     `json:"imageUrl"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type newsService interface {
	documentService[models.News, content.NewsInput]
	ListPublished(ctx context.Context) ([]models.News, error)
}

// Public routes see published articles only
func newNewsResource(svc newsService, l logger.Logger, maxUploadBytes int64) *resource[models.News, content.NewsInput, newsRequest] {
	return &resource[models.News, content.NewsInput, newsRequest]{
		svc:            svc,
		logger:         l,
		name:           "News article",
		imageField:     "image",
		maxUploadBytes: maxUploadBytes,
		list:           svc.ListPublished,
		visible:        func(n models.News) bool { return n.Published },
		toInput: func(req newsRequest) (content.NewsInput, error) {
			img, err := req.Image.update()
			if err != nil {
				return content.NewsInput{}, err
			}
			return content.NewsInput{
				Title:     req.Title,
				Summary:   req.Summary,
				Content:   req.Content,
				Published: req.Published,
				Image:     img,
			}, nil
		},
		toResponse: func(n models.News) any {
			return newsResponse{
				ID:          n.ID,
				Title:       n.Title,
				Summary:     n.Summary,
				Content:     n.Content,
				Published:   n.Published,
				PublishedAt: n.PublishedAt,
				Image:       n.Image,
				ImageURL:    upload.PublicURL(n.Image),
				CreatedAt:   n.CreatedAt,
				UpdatedAt:   n.UpdatedAt,
			}
		},
	}
}
