package handlers

import (
	"time"

	"github.com/nkiryanov/festival/internal/logger"
	"github.com/nkiryanov/festival/internal/models"
	"github.com/nkiryanov/festival/internal/service/content"
	"github.com/nkiryanov/festival/internal/service/upload"
)

type archiveRequest struct {
	Year        int        `json:"year" validate:"required,gte=1900,lte=2100"`
	Title       string     `json:"title" validate:"required,notblank,max=300"`
	Description string     `json:"description" validate:"max=10000"`
	Poster      imageField `json:"poster"`
}

type archiveResponse struct {
	ID          string    `json:"id"`
	Year        int       `json:"year"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Poster      string    `json:"poster"`
	PosterURL   string    `json:"posterUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func newArchivesResource(svc documentService[models.ArchiveEntry, content.ArchiveInput], l logger.Logger, maxUploadBytes int64) *resource[models.ArchiveEntry, content.ArchiveInput, archiveRequest] {
	return &resource[models.ArchiveEntry, content.ArchiveInput, archiveRequest]{
		svc:            svc,
		logger:         l,
		name:           "Archive entry",
		imageField:     "poster",
		maxUploadBytes: maxUploadBytes,
		toInput: func(req archiveRequest) (content.ArchiveInput, error) {
			poster, err := req.Poster.update()
			if err != nil {
				return content.ArchiveInput{}, err
			}
			return content.ArchiveInput{
				Year:        req.Year,
				Title:       req.Title,
				Description: req.Description,
				Poster:      poster,
			}, nil
		},
		toResponse: func(a models.ArchiveEntry) any {
			return archiveResponse{
				ID:          a.ID,
				Year:        a.Year,
				Title:       a.Title,
				Description: a.Description,
				Poster:      a.Poster,
				PosterURL:   upload.PublicURL(a.Poster),
				CreatedAt:   a.CreatedAt,
				UpdatedAt:   a.UpdatedAt,
			}
		},
	}
}
