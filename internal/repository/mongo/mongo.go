package mongo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/nkiryanov/festival/internal/models"
	"github.com/nkiryanov/festival/internal/repository"
)

const (
	bandsCollection      = "bands"
	newsCollection       = "news"
	archivesCollection   = "archives"
	siteAssetsCollection = "site_assets"

	defaultDBName = "festival"
)

// Mongo holds connection to the content database
type Mongo struct {
	client *mongodriver.Client
	db     *mongodriver.Database
}

// New connects to mongo, pings it and ensures indexes exist
// Database name is taken from the uri path, "festival" if empty
func New(ctx context.Context, uri string) (*Mongo, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo: empty uri")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	m := &Mongo{
		client: cli,
		db:     cli.Database(databaseFromURI(uri)),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = m.Close(ctx)
		return nil, err
	}

	return m, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// Ping is used by health check
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *Mongo) Bands() repository.DocumentRepo[models.Band] {
	return &Collection[models.Band]{
		coll: m.db.Collection(bandsCollection),
		sort: bson.D{{Key: "headliner", Value: -1}, {Key: "sort_order", Value: 1}, {Key: "name", Value: 1}},
	}
}

func (m *Mongo) News() repository.DocumentRepo[models.News] {
	return &Collection[models.News]{
		coll: m.db.Collection(newsCollection),
		sort: bson.D{{Key: "created_at", Value: -1}},
	}
}

func (m *Mongo) Archives() repository.DocumentRepo[models.ArchiveEntry] {
	return &Collection[models.ArchiveEntry]{
		coll: m.db.Collection(archivesCollection),
		sort: bson.D{{Key: "year", Value: -1}, {Key: "created_at", Value: -1}},
	}
}

func (m *Mongo) SiteAssets() repository.SiteAssetsRepo {
	return &SiteAssetsRepo{coll: m.db.Collection(siteAssetsCollection)}
}

// ensureIndexes creates indexes used by list sorting
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongodriver.IndexModel{
		bandsCollection: {{
			Keys:    bson.D{{Key: "headliner", Value: -1}, {Key: "sort_order", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetName("headliner_sort_order_name"),
		}},
		newsCollection: {{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("created_desc"),
		}},
		archivesCollection: {{
			Keys:    bson.D{{Key: "year", Value: -1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("year_created_desc"),
		}},
	}

	for name, idx := range indexes {
		if _, err := m.db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("mongo ensure indexes on %s: %w", name, err)
		}
	}

	return nil
}

// databaseFromURI extracts database name from mongodb uri path
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return defaultDBName
}
