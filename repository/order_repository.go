package repository

import (
	"context"
	"time"

	"restaurant-api/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDAndRestaurant(ctx context.Context, id, restaurantID uuid.UUID) (*models.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error)
	FindByRestaurantID(ctx context.Context, restaurantID uuid.UUID, page, limit int) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateDeliveryInfo(ctx context.Context, id uuid.UUID, riderID uuid.UUID, riderName string) error
}

type mongoOrderRepo struct {
	collection *mongo.Collection
}

func NewMongoOrderRepo(db *mongo.Database) OrderRepository {
	return &mongoOrderRepo{collection: db.Collection("orders")}
}

func (r *mongoOrderRepo) Create(ctx context.Context, order *models.Order) error {
	_, err := r.collection.InsertOne(ctx, order)
	return err
}

func (r *mongoOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *mongoOrderRepo) FindByIDAndRestaurant(ctx context.Context, id, restaurantID uuid.UUID) (*models.Order, error) {
	filter := bson.M{"_id": id, "restaurant_id": restaurantID}
	var order models.Order
	err := r.collection.FindOne(ctx, filter).Decode(&order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *mongoOrderRepo) FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.collection.FindOne(ctx, bson.M{"order_number": orderNumber}).Decode(&order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *mongoOrderRepo) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	return r.findPage(ctx, bson.M{"user_id": userID}, page, limit)
}

func (r *mongoOrderRepo) FindByRestaurantID(ctx context.Context, restaurantID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	return r.findPage(ctx, bson.M{"restaurant_id": restaurantID}, page, limit)
}

func (r *mongoOrderRepo) findPage(ctx context.Context, filter bson.M, page, limit int) ([]models.Order, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err = cursor.All(ctx, &orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *mongoOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	update := bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *mongoOrderRepo) UpdateDeliveryInfo(ctx context.Context, id uuid.UUID, riderID uuid.UUID, riderName string) error {
	update := bson.M{"$set": bson.M{
		"delivery_info.rider_id":   riderID,
		"delivery_info.rider_name": riderName,
		"updated_at":               time.Now().UTC(),
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
