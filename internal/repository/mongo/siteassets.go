package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nkiryanov/festival/internal/models"
)

// SiteAssetsRepo keeps the single site assets document with id "site"
type SiteAssetsRepo struct {
	coll *mongodriver.Collection
}

func (r *SiteAssetsRepo) Get(ctx context.Context) (models.SiteAssets, error) {
	var assets models.SiteAssets

	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: models.SiteAssetsID}}).Decode(&assets)
	switch {
	case err == nil:
		return assets, nil
	case errors.Is(err, mongodriver.ErrNoDocuments):
		return models.SiteAssets{ID: models.SiteAssetsID}, nil
	default:
		return assets, fmt.Errorf("mongo find site assets: %w", err)
	}
}

func (r *SiteAssetsRepo) Save(ctx context.Context, assets models.SiteAssets) error {
	assets.ID = models.SiteAssetsID

	_, err := r.coll.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: models.SiteAssetsID}},
		assets,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo save site assets: %w", err)
	}
	return nil
}
