package repository

import (
	"context"

	"restaurant-api/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type MenuRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
}

type mongoMenuRepo struct {
	collection *mongo.Collection
}

func NewMongoMenuRepo(db *mongo.Database) MenuRepository {
	return &mongoMenuRepo{collection: db.Collection("menus")}
}

func (r *mongoMenuRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	var item models.MenuItem
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
