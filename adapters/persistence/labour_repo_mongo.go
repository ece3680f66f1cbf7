package persistence

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/khoahotran/labour-connect/internal/domain/labour"
	"github.com/khoahotran/labour-connect/pkg/apperror"
	"github.com/khoahotran/labour-connect/pkg/logger"
)

// mongoLabourDoc stores the profile under _id = user id.
type mongoLabourDoc struct {
	ID              string `bson:"_id"`
	labour.Document `bson:",inline"`
}

type mongoLabourRepo struct {
	coll   *mongo.Collection
	logger logger.Logger
}

func NewMongoLabourRepo(db *mongo.Database, logger logger.Logger) labour.Repository {
	return &mongoLabourRepo{coll: db.Collection(labour.Collection), logger: logger}
}

func (r *mongoLabourRepo) Get(ctx context.Context, userID string) (*labour.Profile, error) {
	var doc mongoLabourDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, labour.ErrProfileNotFound
		}
		return nil, apperror.NewPersistence("failed to query profile", err)
	}

	p := doc.Document.Profile(doc.ID)
	return &p, nil
}

func (r *mongoLabourRepo) Set(ctx context.Context, p *labour.Profile) error {
	doc := mongoLabourDoc{ID: p.UserID, Document: labour.NewDocument(*p)}
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": p.UserID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return apperror.NewPersistence("failed to write profile", err)
	}
	return nil
}

func (r *mongoLabourRepo) Delete(ctx context.Context, userID string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": userID}); err != nil {
		return apperror.NewPersistence("failed to delete profile", err)
	}
	return nil
}
