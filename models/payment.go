package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment statuses
const (
	PaymentProcessing = "processing"
	PaymentCompleted  = "completed"
	PaymentFailed     = "failed"
)

// Payment methods
const (
	MethodGateway        = "gateway"
	MethodCashOnDelivery = "cash_on_delivery"
)

// TransactionDetails holds the gateway-side references for a payment.
// Populated only on the gateway path.
type TransactionDetails struct {
	Reference        string            `bson:"reference,omitempty" json:"reference,omitempty"`
	AuthorizationURL string            `bson:"authorization_url,omitempty" json:"authorization_url,omitempty"`
	Metadata         map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

type Payment struct {
	ID                 uuid.UUID          `bson:"_id" json:"id"`
	OrderID            uuid.UUID          `bson:"order_id" json:"order_id"`
	UserID             uuid.UUID          `bson:"user_id" json:"user_id"`
	Amount             float64            `bson:"amount" json:"amount"`
	Status             string             `bson:"status" json:"status"`
	PaymentMethod      string             `bson:"payment_method" json:"payment_method"`
	TransactionDetails TransactionDetails `bson:"transaction_details,omitempty" json:"transaction_details,omitempty"`
	CompletedAt        *time.Time         `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	FailedAt           *time.Time         `bson:"failed_at,omitempty" json:"failed_at,omitempty"`
	CreatedAt          time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"updated_at"`
}
