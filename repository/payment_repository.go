package repository

import (
	"context"
	"time"

	"restaurant-api/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	FindByReference(ctx context.Context, reference string) (*models.Payment, error)
	FindCompletedByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
	SetTransactionDetails(ctx context.Context, id uuid.UUID, details models.TransactionDetails) error
}

type mongoPaymentRepo struct {
	collection *mongo.Collection
}

func NewMongoPaymentRepo(db *mongo.Database) PaymentRepository {
	return &mongoPaymentRepo{collection: db.Collection("payments")}
}

func (r *mongoPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	_, err := r.collection.InsertOne(ctx, payment)
	return err
}

func (r *mongoPaymentRepo) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.collection.FindOne(ctx, bson.M{"order_id": orderID}).Decode(&payment)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindByReference resolves a gateway reference to its live payment. The
// reference is the order number on every initiation attempt, so a failed
// attempt that was later retried is excluded; only a processing or completed
// payment can be reconciled.
func (r *mongoPaymentRepo) FindByReference(ctx context.Context, reference string) (*models.Payment, error) {
	filter := bson.M{
		"transaction_details.reference": reference,
		"status": bson.M{"$in": []string{models.PaymentProcessing, models.PaymentCompleted}},
	}
	var payment models.Payment
	err := r.collection.FindOne(ctx, filter).Decode(&payment)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *mongoPaymentRepo) FindCompletedByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	filter := bson.M{"order_id": orderID, "status": models.PaymentCompleted}
	var payment models.Payment
	err := r.collection.FindOne(ctx, filter).Decode(&payment)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// MarkCompleted completes a payment. An already-completed payment is left
// untouched, so webhook redelivery cannot rewrite the completion timestamp.
func (r *mongoPaymentRepo) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"status":       models.PaymentCompleted,
		"completed_at": now,
		"updated_at":   now,
	}}
	filter := bson.M{"_id": id, "status": bson.M{"$ne": models.PaymentCompleted}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		// Either already completed (no-op) or genuinely missing.
		return r.collection.FindOne(ctx, bson.M{"_id": id}).Err()
	}
	return nil
}

func (r *mongoPaymentRepo) MarkFailed(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"status":     models.PaymentFailed,
		"failed_at":  now,
		"updated_at": now,
	}}
	return r.updateOne(ctx, id, update)
}

func (r *mongoPaymentRepo) SetTransactionDetails(ctx context.Context, id uuid.UUID, details models.TransactionDetails) error {
	update := bson.M{"$set": bson.M{
		"transaction_details": details,
		"updated_at":          time.Now().UTC(),
	}}
	return r.updateOne(ctx, id, update)
}

func (r *mongoPaymentRepo) updateOne(ctx context.Context, id uuid.UUID, update bson.M) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
