package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nkiryanov/festival/internal/apperrors"
	"github.com/nkiryanov/festival/internal/repository"
)

// Collection stores documents of one type keyed by their string id
type Collection[T repository.Document] struct {
	coll *mongodriver.Collection
	sort bson.D
}

func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var doc T

	err := c.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	switch {
	case err == nil:
		return doc, nil
	case errors.Is(err, mongodriver.ErrNoDocuments):
		return doc, apperrors.ErrDocumentNotFound
	default:
		return doc, fmt.Errorf("mongo find %s: %w", c.coll.Name(), err)
	}
}

func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	cur, err := c.coll.Find(ctx, bson.D{}, options.Find().SetSort(c.sort))
	if err != nil {
		return nil, fmt.Errorf("mongo list %s: %w", c.coll.Name(), err)
	}

	docs := make([]T, 0)
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo decode %s: %w", c.coll.Name(), err)
	}

	return docs, nil
}

func (c *Collection[T]) Create(ctx context.Context, doc T) error {
	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongo insert %s: %w", c.coll.Name(), err)
	}
	return nil
}

func (c *Collection[T]) Update(ctx context.Context, doc T) error {
	res, err := c.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: doc.DocID()}}, doc)
	if err != nil {
		return fmt.Errorf("mongo replace %s: %w", c.coll.Name(), err)
	}

	if res.MatchedCount == 0 {
		return apperrors.ErrDocumentNotFound
	}
	return nil
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	res, err := c.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("mongo delete %s: %w", c.coll.Name(), err)
	}

	if res.DeletedCount == 0 {
		return apperrors.ErrDocumentNotFound
	}
	return nil
}
