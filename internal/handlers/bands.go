package handlers

import (
	"time"

	"github.com/nkiryanov/festival/internal/logger"
	"github.com/nkiryanov/festival/internal/models"
	"github.com/nkiryanov/festival/internal/service/content"
	"github.com/nkiryanov/festival/internal/service/upload"
)

type bandRequest struct {
	Name        string     `json:"name" validate:"required,notblank,max=200"`
	Genre       string     `json:"genre" validate:"max=100"`
	Country     string     `json:"country" validate:"max=100"`
	Description string     `json:"description" validate:"max=10000"`
	Website     string     `json:"website" validate:"omitempty,url,max=500"`
	Headliner   bool       `json:"headliner"`
	SortOrder   int        `json:"sortOrder"`
	Image       imageField `json:"image"`
}

type bandResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Genre       string    `json:"genre"`
	Country     string    `json:"country"`
	Description string    `json:"description"`
	Website     string    `json:"website"`
	Headliner   bool      `json:"headliner"`
	SortOrder   int       `json:"sortOrder"`
	Image       string    `json:"image"`
	ImageURL    string    `json:"imageUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func newBandsResource(svc documentService[models.Band, content.BandInput], l logger.Logger, maxUploadBytes int64) *resource[models.Band, content.BandInput, bandRequest] {
	return &resource[models.Band, content.BandInput, bandRequest]{
		svc:            svc,
		logger:         l,
		name:           "Band",
		imageField:     "image",
		maxUploadBytes: maxUploadBytes,
		toInput: func(req bandRequest) (content.BandInput, error) {
			img, err := req.Image.update()
			if err != nil {
				return content.BandInput{}, err
			}
			return content.BandInput{
				Name:        req.Name,
				Genre:       req.Genre,
				Country:     req.Country,
				Description: req.Description,
				Website:     req.Website,
				Headliner:   req.Headliner,
				SortOrder:   req.SortOrder,
				Image:       img,
			}, nil
		},
		toResponse: func(b models.Band) any {
			return bandResponse{
				ID:          b.ID,
				Name:        b.Name,
				Genre:       b.Genre,
				Country:     b.Country,
				Description: b.Description,
				Website:     b.Website,
				Headliner:   b.Headliner,
				SortOrder:   b.SortOrder,
				Image:       b.Image,
				ImageURL:    upload.PublicURL(b.Image),
				CreatedAt:   b.CreatedAt,
				UpdatedAt:   b.UpdatedAt,
			}
		},
	}
}
