package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/nkiryanov/festival/internal/handlers/render"
	"github.com/nkiryanov/festival/internal/logger"
	"github.com/nkiryanov/festival/internal/models"
	"github.com/nkiryanov/festival/internal/service/content"
	"github.com/nkiryanov/festival/internal/service/upload"
)

type siteAssetsResponse struct {
	Logo      string    `json:"logo"`
	LogoURL   string    `json:"logoUrl"`
	Hero      string    `json:"hero"`
	HeroURL   string    `json:"heroUrl"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newSiteAssetsResponse(a models.SiteAssets) siteAssetsResponse {
	return siteAssetsResponse{
		Logo:      a.Logo,
		LogoURL:   upload.PublicURL(a.Logo),
		Hero:      a.Hero,
		HeroURL:   upload.PublicURL(a.Hero),
		UpdatedAt: a.UpdatedAt,
	}
}

const slotNotFound = "Unknown site asset slot"

func handleGetSiteAssets(s siteAssetsService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assets, err := s.Get(r.Context())
		if err != nil {
			renderError(w, l, err, slotNotFound)
			return
		}

		render.JSON(w, newSiteAssetsResponse(assets))
	})
}

// Accepts JSON {"image": ...} or multipart form with "image" file
func handleSetSiteAsset(s siteAssetsService, l logger.Logger, maxUploadBytes int64) http.Handler {
	type request struct {
		Image imageField `json:"image"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slot := r.PathValue("slot")
		if !content.ValidSlot(slot) {
			render.ServiceError(w, slotNotFound, http.StatusNotFound)
			return
		}

		var upd content.ImageUpdate
		if isMultipart(r) {
			var err error
			upd, err = multipartImage(w, r, "image", maxUploadBytes)
			if err != nil {
				renderError(w, l, err, slotNotFound)
				return
			}
		} else {
			data, err := render.BindAndValidate[request](w, r)
			if err != nil {
				return
			}
			if !data.Image.set {
				render.ServiceError(w, "Image is required", http.StatusBadRequest)
				return
			}
			upd, err = data.Image.update()
			if err != nil {
				renderError(w, l, err, slotNotFound)
				return
			}
		}

		assets, err := s.SetSlot(r.Context(), slot, upd)
		if err != nil {
			renderError(w, l, err, slotNotFound)
			return
		}

		render.Success(w, http.StatusOK, newSiteAssetsResponse(assets), "Site asset updated successfully")
	})
}

func handleClearSiteAsset(s siteAssetsService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assets, err := s.ClearSlot(r.Context(), r.PathValue("slot"))
		if err != nil {
			renderError(w, l, err, slotNotFound)
			return
		}

		render.Success(w, http.StatusOK, newSiteAssetsResponse(assets), "Site asset removed successfully")
	})
}

type siteAssetsService interface {
	Get(ctx context.Context) (models.SiteAssets, error)
	SetSlot(ctx context.Context, slot string, upd content.ImageUpdate) (models.SiteAssets, error)
	ClearSlot(ctx context.Context, slot string) (models.SiteAssets, error)
}
