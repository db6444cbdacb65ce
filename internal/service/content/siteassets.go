package content

import (
	"context"
	"fmt"

	"github.com/nkiryanov/festival/internal/apperrors"
	"github.com/nkiryanov/festival/internal/models"
	"github.com/nkiryanov/festival/internal/repository"
	"github.com/nkiryanov/festival/internal/service/upload"
)

// Site asset slot to upload category
var slotCategories = map[string]string{
	models.SlotLogo: upload.CategoryLogo,
	models.SlotHero: upload.CategoryHero,
}

// ValidSlot reports whether site assets have such slot
func ValidSlot(slot string) bool {
	_, ok := slotCategories[slot]
	return ok
}

type SiteAssetsService struct {
	repo   repository.SiteAssetsRepo
	images images
	clock  clock
}

func newSiteAssetsService(repo repository.SiteAssetsRepo, im images, c clock) *SiteAssetsService {
	return &SiteAssetsService{repo: repo, images: im, clock: c}
}

func (s *SiteAssetsService) Get(ctx context.Context) (models.SiteAssets, error) {
	return s.repo.Get(ctx)
}

// SetSlot changes image of the slot, unknown slot is apperrors.ErrDocumentNotFound
func (s *SiteAssetsService) SetSlot(ctx context.Context, slot string, upd ImageUpdate) (models.SiteAssets, error) {
	category, ok := slotCategories[slot]
	if !ok {
		return models.SiteAssets{}, fmt.Errorf("%w: unknown slot %q", apperrors.ErrDocumentNotFound, slot)
	}

	assets, err := s.repo.Get(ctx)
	if err != nil {
		return assets, err
	}

	field := assets.Slot(slot)
	current := *field

	ch, err := s.images.resolve(ctx, upd, category, current)
	if err != nil {
		return assets, err
	}

	*field = ch.path
	assets.UpdatedAt = s.clock.stamp()

	if err := s.repo.Save(ctx, assets); err != nil {
		s.images.rollback(ctx, ch)
		return assets, fmt.Errorf("can't save site assets. Err: %w", err)
	}

	s.images.committed(ctx, ch, current)

	return assets, nil
}

func (s *SiteAssetsService) ClearSlot(ctx context.Context, slot string) (models.SiteAssets, error) {
	return s.SetSlot(ctx, slot, ClearImage())
}
