package repository

import (
	"context"

	"restaurant-api/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// userProjection is the allow-list of user fields exposed to the rest of the
// system. Credential fields are excluded by projection, not by convention.
var userProjection = bson.M{"_id": 1, "name": 1, "email": 1}

type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type RestaurantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
}

type RiderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Rider, error)
	FindByName(ctx context.Context, name string) (*models.Rider, error)
}

type mongoUserRepo struct {
	collection *mongo.Collection
}

func NewMongoUserRepo(db *mongo.Database) UserRepository {
	return &mongoUserRepo{collection: db.Collection("users")}
}

func (r *mongoUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	opts := options.FindOne().SetProjection(userProjection)
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

type mongoRestaurantRepo struct {
	collection *mongo.Collection
}

func NewMongoRestaurantRepo(db *mongo.Database) RestaurantRepository {
	return &mongoRestaurantRepo{collection: db.Collection("restaurants")}
}

func (r *mongoRestaurantRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	opts := options.FindOne().SetProjection(userProjection)
	var restaurant models.Restaurant
	err := r.collection.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&restaurant)
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

type mongoRiderRepo struct {
	collection *mongo.Collection
}

func NewMongoRiderRepo(db *mongo.Database) RiderRepository {
	return &mongoRiderRepo{collection: db.Collection("riders")}
}

func (r *mongoRiderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Rider, error) {
	var rider models.Rider
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rider)
	if err != nil {
		return nil, err
	}
	return &rider, nil
}

func (r *mongoRiderRepo) FindByName(ctx context.Context, name string) (*models.Rider, error) {
	var rider models.Rider
	err := r.collection.FindOne(ctx, bson.M{"name": name}).Decode(&rider)
	if err != nil {
		return nil, err
	}
	return &rider, nil
}
